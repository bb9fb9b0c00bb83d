// Copyright 2021 VMware, Inc.
// SPDX-License-Identifier: Apache-2.0

package yamlast

// Visitor performs an operation on the given Node while traversing the AST.
// Typically defines the action taken during a Walk().
type Visitor interface {
	Visit(*Document, NodeID) error
}

type VisitorFn func(*Document, NodeID) error

func (f VisitorFn) Visit(doc *Document, id NodeID) error { return f(doc, id) }

// Walk traverses the tree starting at `id`, recursively, depth-first, invoking `v` on each node.
// if `v` returns non-nil error, the traversal is aborted.
func Walk(doc *Document, id NodeID, v Visitor) error {
	if doc.Node(id) == nil {
		return nil
	}
	err := v.Visit(doc, id)
	if err != nil {
		return err
	}

	for _, child := range doc.childrenOf(id) {
		err := Walk(doc, child, v)
		if err != nil {
			return err
		}
	}
	return nil
}
