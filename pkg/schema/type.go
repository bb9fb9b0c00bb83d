// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
)

// TypeSet is a set of JSON Schema primitive types. The empty set means the
// schema does not constrain the type.
type TypeSet uint8

const (
	TypeString TypeSet = 1 << iota
	TypeNumber
	TypeInteger
	TypeBoolean
	TypeNull
	TypeObject
	TypeArray

	TypeScalar = TypeString | TypeNumber | TypeInteger | TypeBoolean | TypeNull
	TypeAny    = TypeScalar | TypeObject | TypeArray
)

var typeNames = []struct {
	Type TypeSet
	Name string
}{
	{TypeString, "string"},
	{TypeNumber, "number"},
	{TypeInteger, "integer"},
	{TypeBoolean, "boolean"},
	{TypeNull, "null"},
	{TypeObject, "object"},
	{TypeArray, "array"},
}

func ParseType(name string) (TypeSet, bool) {
	for _, tn := range typeNames {
		if tn.Name == name {
			return tn.Type, true
		}
	}
	return 0, false
}

func (t TypeSet) IsEmpty() bool { return t == 0 }

// Has reports whether all of other's types are in t.
func (t TypeSet) Has(other TypeSet) bool { return t&other == other }

func (t TypeSet) Intersects(other TypeSet) bool { return t&other != 0 }

func (t TypeSet) Names() []string {
	var names []string
	for _, tn := range typeNames {
		if t&tn.Type != 0 {
			names = append(names, tn.Name)
		}
	}
	return names
}

func (t TypeSet) String() string {
	if t.IsEmpty() {
		return "any"
	}
	return strings.Join(t.Names(), " | ")
}
