// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfn

import (
	"sort"
	"strings"

	"carvel.dev/cfnls/pkg/schema"
	"carvel.dev/cfnls/pkg/yamlast"
)

var tagFunctions = map[string]string{
	"!Ref":          "Ref",
	"!Sub":          "Fn::Sub",
	"!GetAtt":       "Fn::GetAtt",
	"!Join":         "Fn::Join",
	"!Select":       "Fn::Select",
	"!Split":        "Fn::Split",
	"!FindInMap":    "Fn::FindInMap",
	"!If":           "Fn::If",
	"!Not":          "Fn::Not",
	"!Equals":       "Fn::Equals",
	"!And":          "Fn::And",
	"!Or":           "Fn::Or",
	"!Base64":       "Fn::Base64",
	"!Cidr":         "Fn::Cidr",
	"!GetAZs":       "Fn::GetAZs",
	"!ImportValue":  "Fn::ImportValue",
	"!Condition":    "Condition",
	"!Transform":    "Fn::Transform",
	"!Length":       "Fn::Length",
	"!ToJsonString": "Fn::ToJsonString",
}

// IntrinsicTags returns the short-form tags, sorted.
func IntrinsicTags() []string {
	var tags []string
	for tag := range tagFunctions {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Intrinsic describes a function invocation: in short form the argument is
// the tagged node itself, in JSON form it is the value of the single key.
type Intrinsic struct {
	Function string
	Node     yamlast.NodeID
	Arg      yamlast.NodeID
}

func IntrinsicOf(doc *yamlast.Document, id yamlast.NodeID) (Intrinsic, bool) {
	n := doc.Node(id)
	if n == nil {
		return Intrinsic{}, false
	}
	if fn, found := tagFunctions[n.Tag]; found {
		return Intrinsic{Function: fn, Node: id, Arg: id}, true
	}
	if n.Kind == yamlast.KindObject && len(n.Children) == 1 {
		key := doc.KeyOf(n.Children[0])
		if key == "Ref" || key == "Condition" || strings.HasPrefix(key, "Fn::") {
			return Intrinsic{Function: key, Node: id, Arg: doc.Node(n.Children[0]).Value}, true
		}
	}
	return Intrinsic{}, false
}

// ResultTypes returns the types a function may evaluate to.
func ResultTypes(fn string) schema.TypeSet {
	const value = schema.TypeString | schema.TypeNumber | schema.TypeInteger | schema.TypeBoolean

	switch fn {
	case "Ref":
		// list parameters resolve to arrays
		return value | schema.TypeArray
	case "Fn::Sub", "Fn::Join", "Fn::Base64", "Fn::ImportValue", "Fn::ToJsonString":
		return value
	case "Fn::GetAZs", "Fn::Split", "Fn::Cidr":
		return schema.TypeArray
	case "Fn::Equals", "Fn::Not", "Fn::And", "Fn::Or", "Condition":
		return schema.TypeBoolean | schema.TypeString
	case "Fn::Length":
		return schema.TypeNumber | schema.TypeInteger
	default:
		return schema.TypeAny
	}
}
