// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfn

import (
	"sync"

	"carvel.dev/cfnls/pkg/schema"
	"carvel.dev/cfnls/pkg/yamlast"
)

// Plan is the effective view of one template for matching.
type Plan struct {
	// Schema is the root to match against; nil when no schema is known
	Schema    *schema.Schema
	Transform bool
	Catalog   *Catalog

	implicit map[yamlast.NodeID][]string
}

var _ schema.Typer = &Plan{}

// IsImplicit reports whether Globals supply key on object obj.
func (p *Plan) IsImplicit(obj yamlast.NodeID, key string) bool {
	for _, k := range p.implicit[obj] {
		if k == key {
			return true
		}
	}
	return false
}

// TypesOf makes intrinsic function invocations opaque, typed by what the
// function evaluates to.
func (p *Plan) TypesOf(doc *yamlast.Document, id yamlast.NodeID) (schema.TypeSet, bool) {
	if in, ok := IntrinsicOf(doc, id); ok {
		return ResultTypes(in.Function), true
	}
	return schema.NodeTypes(doc, id), false
}

func (p *Plan) Resolver() *schema.Resolver { return schema.NewResolver(p) }

// StrictResolver selects anyOf/oneOf branches the way validation needs:
// a branch applies only if the node validates against it, counting keys
// supplied by Globals as present.
func (p *Plan) StrictResolver() *schema.Resolver {
	return schema.NewResolver(p).WithStrict(p.IsImplicit)
}

// Adapter is safe for concurrent use.
type Adapter struct {
	mu       sync.Mutex
	expanded map[*schema.Schema]*schema.Schema
	catalogs map[*schema.Schema]*Catalog
}

func NewAdapter() *Adapter {
	return &Adapter{
		expanded: map[*schema.Schema]*schema.Schema{},
		catalogs: map[*schema.Schema]*Catalog{},
	}
}

func (a *Adapter) Prepare(root *schema.Schema, doc *yamlast.Document) *Plan {
	plan := &Plan{Schema: root, implicit: map[yamlast.NodeID][]string{}}
	if root == nil {
		plan.Catalog = NewCatalog(nil)
		return plan
	}
	plan.Catalog = a.catalog(root)

	if doc.Root != yamlast.NoNode && HasServerlessTransform(doc) {
		plan.Transform = true
		plan.Schema = a.serverlessRoot(root)
		plan.implicit = implicitFromGlobals(doc)
	}
	return plan
}

func (a *Adapter) catalog(root *schema.Schema) *Catalog {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, found := a.catalogs[root]; found {
		return c
	}
	c := NewCatalog(root)
	a.catalogs[root] = c
	return c
}

// serverlessRoot returns root with serverless branches added to the schema
// of Resources entries. Results are cached so repeated requests resolve
// against the same pointers.
func (a *Adapter) serverlessRoot(root *schema.Schema) *schema.Schema {
	a.mu.Lock()
	defer a.mu.Unlock()

	if expanded, found := a.expanded[root]; found {
		return expanded
	}

	expanded := root
	resources, found := root.Properties.Get(SectionResources)
	serverless := root.Definition(ServerlessResourceDefinition)

	if found && serverless != nil {
		withServerless := func(entry *schema.Schema) *schema.Schema {
			if entry == nil {
				return nil
			}
			branches := append([]*schema.Schema{}, entry.AnyOf...)
			if len(branches) == 0 {
				branches = append(branches, entry)
			}
			return &schema.Schema{AnyOf: append(branches, serverless.AnyOf...)}
		}

		newResources := *resources
		newResources.AdditionalProperties = withServerless(resources.AdditionalProperties)
		newResources.PatternProperties = nil
		for _, pp := range resources.PatternProperties {
			pp.Schema = withServerless(pp.Schema)
			newResources.PatternProperties = append(newResources.PatternProperties, pp)
		}

		newRoot := *root
		newRoot.Properties = root.Properties.Clone()
		newRoot.Properties.Set(SectionResources, &newResources)
		expanded = &newRoot
	}

	a.expanded[root] = expanded
	return expanded
}
