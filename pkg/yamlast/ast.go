// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlast

import (
	"fmt"
	"strings"

	"carvel.dev/cfnls/pkg/filepos"
	"gopkg.in/yaml.v3"
)

type Kind int

const (
	KindObject Kind = iota
	KindProperty
	KindArray
	KindString
	KindNumber
	KindBoolean
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindProperty:
		return "property"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type NodeID int

const NoNode NodeID = -1

type Node struct {
	Kind   Kind
	Start  int
	End    int
	Parent NodeID

	// Object properties or Array items, in document order
	Children []NodeID

	Key         NodeID
	Value       NodeID
	ColonOffset int

	Str     string
	Num     float64
	Integer bool
	Bool    bool

	// Tag holds a custom (non "!!") tag such as "!Ref"
	Tag string
	// Implicit marks a Null that stands in for a value not written yet ("Foo:")
	Implicit bool
	Flow     bool
}

func (n *Node) Range() filepos.Range { return filepos.Range{Start: n.Start, End: n.End} }

func (n *Node) IsScalar() bool {
	switch n.Kind {
	case KindString, KindNumber, KindBoolean, KindNull:
		return true
	}
	return false
}

type SyntaxError struct {
	Line    int // 1 based, 0 if unknown
	Message string
	Range   filepos.Range
}

func (e SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

type Document struct {
	Text   string
	Root   NodeID
	Errors []SyntaxError
	// Raw is the yaml.v3 content node the tree was built from (nil when empty)
	Raw *yaml.Node
	// Duplicates lists properties whose key repeats an earlier key of the
	// same mapping
	Duplicates []NodeID

	nodes []Node
	lines *filepos.LineIndex
}

func (d *Document) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return &d.nodes[id]
}

func (d *Document) Len() int { return len(d.nodes) }

func (d *Document) Lines() *filepos.LineIndex { return d.lines }

// IsEmpty reports whether the template has no content besides whitespace
// and comments.
func (d *Document) IsEmpty() bool { return d.Root == NoNode && len(d.Errors) == 0 }

func (d *Document) Parent(id NodeID) NodeID {
	if n := d.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

// Property returns the property node with key within object obj.
func (d *Document) Property(obj NodeID, key string) NodeID {
	n := d.Node(obj)
	if n == nil || n.Kind != KindObject {
		return NoNode
	}
	for _, prop := range n.Children {
		if d.KeyOf(prop) == key {
			return prop
		}
	}
	return NoNode
}

// Lookup returns the value of the property with key within object obj.
func (d *Document) Lookup(obj NodeID, key string) NodeID {
	prop := d.Property(obj, key)
	if prop == NoNode {
		return NoNode
	}
	return d.nodes[prop].Value
}

// LookupPath follows keys from the root.
func (d *Document) LookupPath(keys ...string) NodeID {
	id := d.Root
	for _, key := range keys {
		id = d.Lookup(id, key)
		if id == NoNode {
			return NoNode
		}
	}
	return id
}

func (d *Document) KeyOf(prop NodeID) string {
	n := d.Node(prop)
	if n == nil || n.Kind != KindProperty {
		return ""
	}
	return d.ScalarText(n.Key)
}

// Keys returns keys of an object in document order.
func (d *Document) Keys(obj NodeID) []string {
	n := d.Node(obj)
	if n == nil || n.Kind != KindObject {
		return nil
	}
	var keys []string
	for _, prop := range n.Children {
		keys = append(keys, d.KeyOf(prop))
	}
	return keys
}

// ScalarText returns the textual form of a scalar, or "" for collections.
func (d *Document) ScalarText(id NodeID) string {
	n := d.Node(id)
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindString, KindNumber:
		return n.Str
	case KindBoolean:
		if n.Bool {
			return "true"
		}
		return "false"
	case KindNull:
		if n.Implicit {
			return ""
		}
		return "null"
	}
	return ""
}

// Value returns the Go value of a scalar (string, float64, bool or nil);
// ok is false for collections.
func (d *Document) Value(id NodeID) (interface{}, bool) {
	n := d.Node(id)
	if n == nil {
		return nil, false
	}
	switch n.Kind {
	case KindString:
		return n.Str, true
	case KindNumber:
		return n.Num, true
	case KindBoolean:
		return n.Bool, true
	case KindNull:
		return nil, true
	}
	return nil, false
}

// ContentRange is the range of a node without its leading tag or anchor,
// eg the "Name" of "!Ref Name".
func (d *Document) ContentRange(id NodeID) filepos.Range {
	n := d.Node(id)
	if n == nil {
		return filepos.Range{}
	}
	start := skipTagPrefix(d.Text, n.Start)
	if start > n.End {
		start = n.End
	}
	return filepos.NewRange(start, n.End)
}

// IsAbsent reports whether id is missing or an implicit null.
func (d *Document) IsAbsent(id NodeID) bool {
	n := d.Node(id)
	return n == nil || (n.Kind == KindNull && n.Implicit)
}

// NodeAt returns the innermost node whose range contains offset (end
// inclusive), or NoNode.
func (d *Document) NodeAt(offset int) NodeID {
	root := d.Node(d.Root)
	if root == nil || !root.Range().Contains(offset) {
		return NoNode
	}
	id := d.Root
	for {
		next := NoNode
		for _, child := range d.childrenOf(id) {
			if d.nodes[child].Range().Contains(offset) {
				next = child
				break
			}
		}
		if next == NoNode {
			return id
		}
		id = next
	}
}

// IndexAt returns the index of the array item containing offset, or the
// number of items that end before offset.
func (d *Document) IndexAt(arr NodeID, offset int) int {
	n := d.Node(arr)
	if n == nil {
		return 0
	}
	count := 0
	for i, item := range n.Children {
		r := d.nodes[item].Range()
		if r.Contains(offset) {
			return i
		}
		if r.End < offset {
			count = i + 1
		}
	}
	return count
}

func (d *Document) childrenOf(id NodeID) []NodeID {
	n := &d.nodes[id]
	if n.Kind == KindProperty {
		var result []NodeID
		if n.Key != NoNode {
			result = append(result, n.Key)
		}
		if n.Value != NoNode {
			result = append(result, n.Value)
		}
		return result
	}
	return n.Children
}

type Segment struct {
	Key   string
	Index int // -1 for keys
}

type Path []Segment

func (p Path) String() string {
	var sb strings.Builder
	for _, seg := range p {
		if seg.Index >= 0 {
			fmt.Fprintf(&sb, "[%d]", seg.Index)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(seg.Key)
	}
	return sb.String()
}

// Keys returns the key segments only.
func (p Path) Keys() []string {
	var keys []string
	for _, seg := range p {
		if seg.Index < 0 {
			keys = append(keys, seg.Key)
		}
	}
	return keys
}

// Path returns the structural path to id. Keys of properties are included
// both for the property and for its value.
func (d *Document) Path(id NodeID) Path {
	var path Path
	for id != NoNode {
		n := &d.nodes[id]
		parent := d.Node(n.Parent)
		if parent == nil {
			break
		}
		switch parent.Kind {
		case KindArray:
			for i, item := range parent.Children {
				if item == id {
					path = append(path, Segment{Index: i})
					break
				}
			}
		case KindObject:
			if n.Kind == KindProperty {
				path = append(path, Segment{Key: d.KeyOf(id), Index: -1})
			}
		}
		id = n.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
