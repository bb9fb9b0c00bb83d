// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"carvel.dev/cfnls/pkg/yamlast"
)

// MatchingSchema pairs a node with a schema reached while resolving. Inverted
// marks pairings reached through an anyOf/oneOf branch that does not apply
// to the node.
type MatchingSchema struct {
	Node     yamlast.NodeID
	Schema   *Schema
	Inverted bool
}

type Matches []MatchingSchema

// At returns the non-inverted matches of node, in resolution order.
func (ms Matches) At(node yamlast.NodeID) []*Schema {
	var result []*Schema
	for _, m := range ms {
		if m.Node == node && !m.Inverted {
			result = append(result, m.Schema)
		}
	}
	return result
}

// Typer reports the runtime types a node may take. Opaque nodes are matched
// as a whole and never descended into.
type Typer interface {
	TypesOf(doc *yamlast.Document, id yamlast.NodeID) (types TypeSet, opaque bool)
}

// KindTyper derives types from node kinds.
type KindTyper struct{}

var _ Typer = KindTyper{}

func (KindTyper) TypesOf(doc *yamlast.Document, id yamlast.NodeID) (TypeSet, bool) {
	return NodeTypes(doc, id), false
}

func NodeTypes(doc *yamlast.Document, id yamlast.NodeID) TypeSet {
	n := doc.Node(id)
	if n == nil {
		return 0
	}
	switch n.Kind {
	case yamlast.KindObject:
		return TypeObject
	case yamlast.KindArray:
		return TypeArray
	case yamlast.KindString:
		return TypeString
	case yamlast.KindNumber:
		if n.Integer {
			return TypeNumber | TypeInteger
		}
		return TypeNumber
	case yamlast.KindBoolean:
		return TypeBoolean
	case yamlast.KindNull:
		return TypeNull
	}
	return 0
}

// ImplicitFunc reports whether key is supplied on object obj from outside
// the document.
type ImplicitFunc func(obj yamlast.NodeID, key string) bool

// Resolver is immutable and safe to share between goroutines.
type Resolver struct {
	typer    Typer
	pending  yamlast.NodeID
	strict   bool
	implicit ImplicitFunc
}

func NewResolver(typer Typer) *Resolver {
	if typer == nil {
		typer = KindTyper{}
	}
	return &Resolver{typer: typer, pending: yamlast.NoNode}
}

// WithPending returns a resolver that does not hold the value of node
// against enum or type constraints, as it is still being typed.
func (r *Resolver) WithPending(node yamlast.NodeID) *Resolver {
	copied := *r
	copied.pending = node
	return &copied
}

// WithStrict returns a resolver whose branches apply only when the node
// fully validates against them: required keys are present or implicit,
// no disallowed keys exist and nested values apply as well. When no branch
// of an anyOf/oneOf validates, branches that apply loosely are kept so that
// their findings explain the failure.
func (r *Resolver) WithStrict(implicit ImplicitFunc) *Resolver {
	copied := *r
	copied.strict = true
	copied.implicit = implicit
	return &copied
}

// Loose returns r without strict applicability.
func (r *Resolver) Loose() *Resolver {
	copied := *r
	copied.strict = false
	copied.implicit = nil
	return &copied
}

func (r *Resolver) isImplicit(obj yamlast.NodeID, key string) bool {
	return r.implicit != nil && r.implicit(obj, key)
}

func (r *Resolver) TypesOf(doc *yamlast.Document, id yamlast.NodeID) (TypeSet, bool) {
	return r.typer.TypesOf(doc, id)
}

// Resolve is a shorthand for resolving with KindTyper.
func Resolve(root *Schema, doc *yamlast.Document) Matches {
	return NewResolver(nil).Resolve(root, doc)
}

// Resolve returns every (node, schema) pairing reachable from the document
// root. The result is deterministic for identical inputs.
func (r *Resolver) Resolve(root *Schema, doc *yamlast.Document) Matches {
	if root == nil || doc.Root == yamlast.NoNode {
		return nil
	}
	m := &matcher{r: r, doc: doc, seen: map[matchKey]struct{}{}}
	return m.match(doc.Root, root, false, nil)
}

// selectBranches marks the branches that apply to node. A strict resolver
// falls back to loose applicability when no branch validates.
func (r *Resolver) selectBranches(doc *yamlast.Document, id yamlast.NodeID, branches []*Schema) []bool {
	selected := make([]bool, len(branches))
	if len(branches) == 0 {
		return selected
	}
	found := false
	for i, branch := range branches {
		selected[i] = r.Applies(doc, id, branch)
		found = found || selected[i]
	}
	if !found && r.strict {
		return r.Loose().selectBranches(doc, id, branches)
	}
	return selected
}

type matchKey struct {
	node     yamlast.NodeID
	schema   *Schema
	inverted bool
}

type matcher struct {
	r    *Resolver
	doc  *yamlast.Document
	seen map[matchKey]struct{}
}

func (m *matcher) match(id yamlast.NodeID, s *Schema, inverted bool, acc Matches) Matches {
	n := m.doc.Node(id)
	if s == nil || n == nil {
		return acc
	}

	key := matchKey{id, s, inverted}
	if _, found := m.seen[key]; found {
		return acc
	}
	m.seen[key] = struct{}{}

	acc = append(acc, MatchingSchema{Node: id, Schema: s, Inverted: inverted})

	for _, branch := range s.AllOf {
		acc = m.match(id, branch, inverted, acc)
	}
	for _, branches := range [][]*Schema{s.AnyOf, s.OneOf} {
		selected := m.r.selectBranches(m.doc, id, branches)
		for i, branch := range branches {
			acc = m.match(id, branch, inverted || !selected[i], acc)
		}
	}

	if _, opaque := m.r.typer.TypesOf(m.doc, id); opaque {
		return acc
	}

	switch n.Kind {
	case yamlast.KindObject:
		if !s.Type.IsEmpty() && !s.Type.Has(TypeObject) {
			return acc
		}
		for _, prop := range n.Children {
			ps := s.PropertySchema(m.doc.KeyOf(prop))
			if ps != nil {
				acc = m.match(m.doc.Node(prop).Value, ps, inverted, acc)
			}
		}

	case yamlast.KindArray:
		if !s.Type.IsEmpty() && !s.Type.Has(TypeArray) {
			return acc
		}
		for i, item := range n.Children {
			is := s.ItemSchema(i)
			if is != nil {
				acc = m.match(item, is, inverted, acc)
			}
		}
	}
	return acc
}
