// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfn

import (
	"carvel.dev/cfnls/pkg/yamlast"
)

const (
	ServerlessTransform = "AWS::Serverless-2016-10-31"

	// ServerlessResourceDefinition names the schema definition listing
	// serverless resource types as anyOf branches.
	ServerlessResourceDefinition = "serverless_resource"

	SectionResources  = "Resources"
	SectionParameters = "Parameters"
	SectionConditions = "Conditions"
	SectionGlobals    = "Globals"
	SectionTransform  = "Transform"
	SectionOutputs    = "Outputs"
)

var PseudoParameters = []string{
	"AWS::AccountId",
	"AWS::NotificationARNs",
	"AWS::NoValue",
	"AWS::Partition",
	"AWS::Region",
	"AWS::StackId",
	"AWS::StackName",
	"AWS::URLSuffix",
}

// HasServerlessTransform reports whether the top-level Transform is, or lists,
// the serverless transform.
func HasServerlessTransform(doc *yamlast.Document) bool {
	transform := doc.Node(doc.Lookup(doc.Root, SectionTransform))
	if transform == nil {
		return false
	}
	switch transform.Kind {
	case yamlast.KindString:
		return transform.Str == ServerlessTransform
	case yamlast.KindArray:
		for _, item := range transform.Children {
			if doc.ScalarText(item) == ServerlessTransform {
				return true
			}
		}
	}
	return false
}

// DeclaredType returns the declared Type of a resource entry.
func DeclaredType(doc *yamlast.Document, resource yamlast.NodeID) string {
	return doc.ScalarText(doc.Lookup(resource, "Type"))
}
