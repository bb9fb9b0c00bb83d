// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlast

import (
	"carvel.dev/cfnls/pkg/filepos"
	"gopkg.in/yaml.v3"
)

// yaml.v3 only reports where nodes start; the helpers below recover where
// they end by scanning the source text.

func (b *builder) scalarEnd(y *yaml.Node, start int) int {
	p := skipTagPrefix(b.text, start)
	switch {
	case y.Style&yaml.DoubleQuotedStyle != 0:
		return closingDoubleQuote(b.text, p)
	case y.Style&yaml.SingleQuotedStyle != 0:
		return closingSingleQuote(b.text, p)
	case y.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		return blockScalarEnd(b.text, b.lines, p)
	default:
		return plainEnd(b.text, p, y.Value)
	}
}

// skipTagPrefix moves past tag and anchor properties ("!Ref ", "&a ").
func skipTagPrefix(text string, p int) int {
	for p < len(text) && (text[p] == '!' || text[p] == '&') {
		for p < len(text) && !isSpace(text[p]) && text[p] != '\n' && text[p] != '\r' {
			p++
		}
		for p < len(text) && isSpace(text[p]) {
			p++
		}
	}
	return p
}

func closingDoubleQuote(text string, p int) int {
	if p >= len(text) || text[p] != '"' {
		return p
	}
	for i := p + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(text)
}

func closingSingleQuote(text string, p int) int {
	if p >= len(text) || text[p] != '\'' {
		return p
	}
	for i := p + 1; i < len(text); i++ {
		if text[i] == '\'' {
			if i+1 < len(text) && text[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(text)
}

// blockScalarEnd returns the end of the last content line indented deeper
// than the line holding the "|" or ">" header.
func blockScalarEnd(text string, lines *filepos.LineIndex, p int) int {
	header := lines.LineOf(p)
	base := indentOf(lines.LineText(header))
	end := lines.LineEnd(header)
	for l := header + 1; l < lines.LineCount(); l++ {
		lineText := lines.LineText(l)
		if isBlank(lineText) {
			continue
		}
		if indentOf(lineText) <= base {
			break
		}
		end = lines.LineEnd(l)
	}
	return end
}

// plainEnd walks the source alongside the parsed value; folded line breaks
// in the value match any run of whitespace in the source.
func plainEnd(text string, p int, value string) int {
	i, j := p, 0
	for j < len(value) && i < len(text) {
		if isFoldable(value[j]) {
			if !isFoldable(text[i]) {
				break
			}
			for i < len(text) && isFoldable(text[i]) {
				i++
			}
			for j < len(value) && isFoldable(value[j]) {
				j++
			}
			continue
		}
		if text[i] != value[j] {
			break
		}
		i++
		j++
	}
	return i
}

func (b *builder) findColon(from int) int {
	i := from
	for i < len(b.text) && isSpace(b.text[i]) {
		i++
	}
	if i < len(b.text) && b.text[i] == ':' {
		return i
	}
	return from
}

// findDash returns the offset of the next sequence entry indicator at or
// after from, skipping whitespace and comments.
func (b *builder) findDash(from int) int {
	i := from
	for i < len(b.text) {
		switch c := b.text[i]; {
		case c == '-' || c == ',' || c == '[':
			return i
		case c == '#':
			for i < len(b.text) && b.text[i] != '\n' {
				i++
			}
		case isFoldable(c):
			i++
		default:
			return i
		}
	}
	return from
}

// flowEnd returns the offset right after the bracket closing the flow
// collection opened at start.
func (b *builder) flowEnd(start int) int {
	p := skipTagPrefix(b.text, start)
	depth := 0
	for i := p; i < len(b.text); i++ {
		switch b.text[i] {
		case '"':
			i = closingDoubleQuote(b.text, i) - 1
		case '\'':
			i = closingSingleQuote(b.text, i) - 1
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(b.text)
}

func lineEndBeforeComment(text string, lines *filepos.LineIndex, offset int) int {
	end := lines.LineEnd(lines.LineOf(offset))
	for i := offset; i < end; i++ {
		if text[i] == '#' && (i == 0 || isSpace(text[i-1])) {
			return i
		}
	}
	return end
}

func indentOf(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

func isBlank(line string) bool {
	for i := 0; i < len(line); i++ {
		if !isSpace(line[i]) && line[i] != '\r' {
			return false
		}
	}
	return true
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

func isFoldable(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
