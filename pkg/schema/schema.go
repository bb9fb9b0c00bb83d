// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"math"
	"reflect"
	"regexp"

	"carvel.dev/cfnls/pkg/orderedmap"
)

type Schema struct {
	Type        TypeSet
	Title       string
	Description string

	Properties             *orderedmap.Map[string, *Schema]
	PatternProperties      []PatternProperty
	AdditionalProperties   *Schema
	NoAdditionalProperties bool
	Required               []string

	Items           *Schema
	ItemsTuple      []*Schema
	AdditionalItems *Schema

	AllOf []*Schema
	AnyOf []*Schema
	OneOf []*Schema

	Enum             []interface{}
	EnumDescriptions []string
	Default          interface{}
	HasDefault       bool

	DeprecationMessage string
	// DoNotSuggest keeps a property out of completion proposals
	DoNotSuggest bool

	Definitions *orderedmap.Map[string, *Schema]
	Ref         string
}

type PatternProperty struct {
	Source string
	Regexp *regexp.Regexp
	Schema *Schema
}

// PropertySchema returns the schema governing key: a declared property, else
// the first matching pattern property, else additionalProperties.
func (s *Schema) PropertySchema(key string) *Schema {
	if ps, found := s.Properties.Get(key); found {
		return ps
	}
	for _, pp := range s.PatternProperties {
		if pp.Regexp.MatchString(key) {
			return pp.Schema
		}
	}
	return s.AdditionalProperties
}

// DeclaresProperty reports whether key is named by properties or
// patternProperties.
func (s *Schema) DeclaresProperty(key string) bool {
	if s.Properties.Has(key) {
		return true
	}
	for _, pp := range s.PatternProperties {
		if pp.Regexp.MatchString(key) {
			return true
		}
	}
	return false
}

// ItemSchema returns the schema for the array element at index.
func (s *Schema) ItemSchema(index int) *Schema {
	if s.Items != nil {
		return s.Items
	}
	if index < len(s.ItemsTuple) {
		return s.ItemsTuple[index]
	}
	return s.AdditionalItems
}

func (s *Schema) IsDeprecated() bool { return s.DeprecationMessage != "" }

func (s *Schema) IsRequired(key string) bool {
	for _, req := range s.Required {
		if req == key {
			return true
		}
	}
	return false
}

// EnumDescription returns the description aligned with the enum value at index.
func (s *Schema) EnumDescription(index int) string {
	if index < len(s.EnumDescriptions) {
		return s.EnumDescriptions[index]
	}
	return ""
}

// Definition returns a named entry of definitions.
func (s *Schema) Definition(name string) *Schema {
	def, _ := s.Definitions.Get(name)
	return def
}

func (s *Schema) children(fn func(child **Schema)) {
	s.Properties.Iterate(func(k string, _ *Schema) {
		ps, _ := s.Properties.Get(k)
		fn(&ps)
		s.Properties.Set(k, ps)
	})
	for i := range s.PatternProperties {
		fn(&s.PatternProperties[i].Schema)
	}
	fn(&s.AdditionalProperties)
	fn(&s.Items)
	for i := range s.ItemsTuple {
		fn(&s.ItemsTuple[i])
	}
	fn(&s.AdditionalItems)
	for _, branches := range [][]*Schema{s.AllOf, s.AnyOf, s.OneOf} {
		for i := range branches {
			fn(&branches[i])
		}
	}
	s.Definitions.Iterate(func(k string, _ *Schema) {
		def, _ := s.Definitions.Get(k)
		fn(&def)
		s.Definitions.Set(k, def)
	})
}

// ContainsValue compares decoded YAML/JSON values; numbers compare by value
// regardless of their Go type.
func ContainsValue(values []interface{}, val interface{}) bool {
	for _, v := range values {
		if ValueEquals(v, val) {
			return true
		}
	}
	return false
}

func ValueEquals(a, b interface{}) bool {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	if aNum || bNum {
		return aNum && bNum && (fa == fb || (math.IsNaN(fa) && math.IsNaN(fb)))
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v interface{}) (float64, bool) {
	switch typed := v.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	}
	return 0, false
}
