// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfn

import (
	"strings"

	"carvel.dev/cfnls/pkg/schema"
)

var serverlessExpansions = map[string][]string{
	"AWS::Serverless::Function":     {"AWS::Lambda::Function", "AWS::IAM::Role"},
	"AWS::Serverless::Api":          {"AWS::ApiGateway::RestApi", "AWS::ApiGateway::Deployment", "AWS::ApiGateway::Stage"},
	"AWS::Serverless::HttpApi":      {"AWS::ApiGatewayV2::Api", "AWS::ApiGatewayV2::Stage"},
	"AWS::Serverless::SimpleTable":  {"AWS::DynamoDB::Table"},
	"AWS::Serverless::LayerVersion": {"AWS::Lambda::LayerVersion"},
	"AWS::Serverless::StateMachine": {"AWS::StepFunctions::StateMachine", "AWS::IAM::Role"},
	"AWS::Serverless::Application":  {"AWS::CloudFormation::Stack"},
}

type ResourceType struct {
	Name        string
	Description string
	Serverless  bool
	// Required lists required keys of the type's Properties
	Required []string
	// ExpandsTo lists the types the serverless transform generates
	ExpandsTo []string
	Schema    *schema.Schema
}

// Catalog lists resource types known to a schema in declaration order.
type Catalog struct {
	types []ResourceType
}

func NewCatalog(root *schema.Schema) *Catalog {
	c := &Catalog{}
	if root == nil {
		return c
	}
	if resources, found := root.Properties.Get(SectionResources); found {
		for _, entry := range resourceEntries(resources) {
			c.addBranches(entry, false)
		}
	}
	if serverless := root.Definition(ServerlessResourceDefinition); serverless != nil {
		c.addBranches(serverless, true)
	}
	return c
}

func (c *Catalog) addBranches(entry *schema.Schema, serverless bool) {
	for _, branch := range entry.AnyOf {
		typeSchema, found := branch.Properties.Get("Type")
		if !found {
			continue
		}
		for _, val := range typeSchema.Enum {
			name, ok := val.(string)
			if !ok {
				continue
			}
			rt := ResourceType{
				Name:        name,
				Description: branch.Description,
				Serverless:  serverless || strings.HasPrefix(name, "AWS::Serverless::"),
				ExpandsTo:   serverlessExpansions[name],
				Schema:      branch,
			}
			if props, found := branch.Properties.Get("Properties"); found {
				rt.Required = props.Required
			}
			c.types = append(c.types, rt)
		}
	}
}

// Types returns known types; serverless types only when the transform is
// declared.
func (c *Catalog) Types(transform bool) []ResourceType {
	var result []ResourceType
	for _, rt := range c.types {
		if rt.Serverless && !transform {
			continue
		}
		result = append(result, rt)
	}
	return result
}

func (c *Catalog) Lookup(name string) (ResourceType, bool) {
	for _, rt := range c.types {
		if rt.Name == name {
			return rt, true
		}
	}
	return ResourceType{}, false
}

// resourceEntries returns the schemas that govern entries of Resources.
func resourceEntries(resources *schema.Schema) []*schema.Schema {
	var result []*schema.Schema
	if resources.AdditionalProperties != nil {
		result = append(result, resources.AdditionalProperties)
	}
	for _, pp := range resources.PatternProperties {
		result = append(result, pp.Schema)
	}
	return result
}
