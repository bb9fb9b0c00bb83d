// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"carvel.dev/cfnls/pkg/yamlast"
)

const maxAppliesDepth = 32

// Applies reports whether s structurally applies to node: its types are
// compatible, a scalar value is one of the enum values, and every present
// property whose schema is an enum (a discriminator such as a resource
// "Type") applies as well. Values that are absent or still being typed
// are not held against enum and type constraints.
//
// Missing required properties do not make a schema inapplicable unless
// the resolver is strict.
func (r *Resolver) Applies(doc *yamlast.Document, id yamlast.NodeID, s *Schema) bool {
	return r.applies(doc, id, s, 0)
}

func (r *Resolver) applies(doc *yamlast.Document, id yamlast.NodeID, s *Schema, depth int) bool {
	n := doc.Node(id)
	if s == nil || n == nil || depth > maxAppliesDepth {
		return true
	}

	unsettled := id == r.pending || doc.IsAbsent(id)
	types, opaque := r.typer.TypesOf(doc, id)

	if !unsettled {
		if !s.Type.IsEmpty() && !types.Intersects(s.Type) {
			return false
		}
		if len(s.Enum) > 0 && !opaque {
			if val, scalar := doc.Value(id); scalar && !ContainsValue(s.Enum, val) {
				return false
			}
		}
	}

	for _, branch := range s.AllOf {
		if !r.applies(doc, id, branch, depth+1) {
			return false
		}
	}
	if len(s.AnyOf) > 0 && !r.anyApplies(doc, id, s.AnyOf, depth) {
		return false
	}
	if len(s.OneOf) > 0 && !r.anyApplies(doc, id, s.OneOf, depth) {
		return false
	}

	if opaque {
		return true
	}

	switch n.Kind {
	case yamlast.KindObject:
		if r.strict && !unsettled && !r.objectValidates(doc, id, s) {
			return false
		}
		for _, prop := range n.Children {
			ps := s.PropertySchema(doc.KeyOf(prop))
			if ps == nil || (!r.strict && len(ps.Enum) == 0) {
				continue
			}
			if !r.applies(doc, doc.Node(prop).Value, ps, depth+1) {
				return false
			}
		}

	case yamlast.KindArray:
		if !r.strict {
			break
		}
		for i, item := range n.Children {
			if !r.applies(doc, item, s.ItemSchema(i), depth+1) {
				return false
			}
		}
	}
	return true
}

func (r *Resolver) objectValidates(doc *yamlast.Document, id yamlast.NodeID, s *Schema) bool {
	for _, key := range s.Required {
		if doc.Property(id, key) == yamlast.NoNode && !r.isImplicit(id, key) {
			return false
		}
	}
	if s.NoAdditionalProperties {
		for _, prop := range doc.Node(id).Children {
			if !s.DeclaresProperty(doc.KeyOf(prop)) {
				return false
			}
		}
	}
	return true
}

func (r *Resolver) anyApplies(doc *yamlast.Document, id yamlast.NodeID, branches []*Schema, depth int) bool {
	for _, branch := range branches {
		if r.applies(doc, id, branch, depth+1) {
			return true
		}
	}
	return false
}

// CountApplying returns how many of branches apply to node. A strict
// resolver counts only branches that validate.
func (r *Resolver) CountApplying(doc *yamlast.Document, id yamlast.NodeID, branches []*Schema) int {
	count := 0
	for _, branch := range branches {
		if r.applies(doc, id, branch, 0) {
			count++
		}
	}
	return count
}
