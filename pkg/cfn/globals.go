// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfn

import (
	"carvel.dev/cfnls/pkg/yamlast"
)

var globalsCategories = map[string]string{
	"AWS::Serverless::Function":     "Function",
	"AWS::Serverless::Api":          "Api",
	"AWS::Serverless::HttpApi":      "HttpApi",
	"AWS::Serverless::SimpleTable":  "SimpleTable",
	"AWS::Serverless::LayerVersion": "LayerVersion",
	"AWS::Serverless::StateMachine": "StateMachine",
}

// GlobalsCategory returns the Globals section that applies to a resource type.
func GlobalsCategory(resourceType string) (string, bool) {
	cat, found := globalsCategories[resourceType]
	return cat, found
}

// implicitFromGlobals maps object nodes to property names that Globals
// supply: the keys of Globals.<Category> on each resource's Properties, and
// Properties itself on the resource.
func implicitFromGlobals(doc *yamlast.Document) map[yamlast.NodeID][]string {
	result := map[yamlast.NodeID][]string{}

	globals := doc.Lookup(doc.Root, SectionGlobals)
	resources := doc.Node(doc.Lookup(doc.Root, SectionResources))
	if doc.Node(globals) == nil || resources == nil || resources.Kind != yamlast.KindObject {
		return result
	}

	for _, prop := range resources.Children {
		resource := doc.Node(prop).Value
		cat, found := GlobalsCategory(DeclaredType(doc, resource))
		if !found {
			continue
		}
		keys := doc.Keys(doc.Lookup(globals, cat))
		if len(keys) == 0 {
			continue
		}
		result[resource] = []string{"Properties"}

		if props := doc.Lookup(resource, "Properties"); doc.Node(props) != nil && doc.Node(props).Kind == yamlast.KindObject {
			result[props] = keys
		}
	}
	return result
}
