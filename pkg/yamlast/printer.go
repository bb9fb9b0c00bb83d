// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders the tree with node ranges, one node per line.
type Printer struct {
	writer io.Writer
}

func NewPrinter(writer io.Writer) Printer {
	return Printer{writer}
}

func (p Printer) PrintStr(doc *Document) string {
	var sb strings.Builder
	Printer{&sb}.Print(doc)
	return sb.String()
}

func (p Printer) Print(doc *Document) {
	for _, err := range doc.Errors {
		fmt.Fprintf(p.writer, "error %s\n", err.Error())
	}
	if doc.Root == NoNode {
		fmt.Fprintf(p.writer, "<empty>\n")
		return
	}
	p.print(doc, doc.Root, "")
}

func (p Printer) print(doc *Document, id NodeID, indent string) {
	n := doc.Node(id)
	desc := n.Kind.String()
	switch n.Kind {
	case KindProperty:
		desc += fmt.Sprintf(" %q colon=%d", doc.KeyOf(id), n.ColonOffset)
	case KindString:
		desc += fmt.Sprintf(" %q", n.Str)
	case KindNumber, KindBoolean:
		desc += " " + doc.ScalarText(id)
	case KindNull:
		if n.Implicit {
			desc += " implicit"
		}
	}
	if n.Tag != "" {
		desc += " " + n.Tag
	}
	fmt.Fprintf(p.writer, "%s%s %s\n", indent, desc, n.Range())

	if n.Kind == KindProperty {
		p.print(doc, n.Value, indent+"  ")
		return
	}
	for _, child := range n.Children {
		p.print(doc, child, indent+"  ")
	}
}
