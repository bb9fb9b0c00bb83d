// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"strings"

	"carvel.dev/cfnls/pkg/filepos"
)

// placeholderKey stands in for the key being typed on a blank line.
const placeholderKey = "__cfnls__"

type patchKind int

const (
	patchNone patchKind = iota
	// a colon was appended to a bare word
	patchColon
	// a placeholder key was inserted at the cursor
	patchPlaceholder
)

// patchText makes the cursor line parse as a property so that completion
// has a key to work with. Offsets before the cursor are unchanged.
func patchText(text string, offset int) (string, patchKind) {
	lines := filepos.NewLineIndex(text)
	line := lines.LineOf(offset)
	start, end := lines.LineStart(line), lines.LineEnd(line)
	content := strings.TrimSpace(text[start:end])

	if content == "" {
		return text[:offset] + placeholderKey + ":" + text[offset:], patchPlaceholder
	}
	if isBareWord(content) {
		return text[:end] + ":" + text[end:], patchColon
	}
	return text, patchNone
}

// isBareWord reports whether a line holds a lone plain scalar, possibly as
// an array item.
func isBareWord(content string) bool {
	for strings.HasPrefix(content, "- ") {
		content = strings.TrimSpace(content[2:])
	}
	if content == "" || content == "-" {
		return false
	}
	if strings.ContainsAny(content[:1], "#{[&*!|>'\"%@`") {
		return false
	}
	return !strings.Contains(content, ":") && !strings.Contains(content, " #")
}
