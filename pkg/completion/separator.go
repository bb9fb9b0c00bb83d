// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"strings"

	"carvel.dev/cfnls/pkg/yamlast"
)

// separatorAfter returns the text that must follow an insertion ending at
// offset so that it stays separated from what comes next. Only flow
// collections need one.
func separatorAfter(doc *yamlast.Document, container yamlast.NodeID, offset int) string {
	n := doc.Node(container)
	if n == nil || !n.Flow {
		return ""
	}

	lines := doc.Lines()
	rest := strings.TrimLeft(doc.Text[offset:lines.LineEnd(lines.LineOf(offset))], " \t")
	if rest == "" || strings.ContainsAny(rest[:1], ",}]#") {
		return ""
	}
	return ", "
}
