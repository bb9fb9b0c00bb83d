// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos

import (
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Range is a pair of byte offsets. End is inclusive for containment checks,
// which lets a cursor sitting right after a token still address it.
type Range struct {
	Start int
	End   int
}

func NewRange(start, end int) Range {
	if end < start {
		end = start
	}
	return Range{start, end}
}

func (r Range) Contains(offset int) bool { return r.Start <= offset && offset <= r.End }

func (r Range) ContainsRange(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) IsEmpty() bool { return r.Start == r.End }

func (r Range) String() string { return fmt.Sprintf("[%d,%d]", r.Start, r.End) }

// LineIndex maps byte offsets of a text to 0 based lines and UTF-16 characters
// (the unit editors count in) and back.
type LineIndex struct {
	text       string
	lineStarts []int
}

func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text, starts}
}

func (l *LineIndex) LineCount() int { return len(l.lineStarts) }

// LineOf returns 0 based line containing offset.
func (l *LineIndex) LineOf(offset int) int {
	offset = l.clamp(offset)
	return sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > offset }) - 1
}

func (l *LineIndex) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(l.lineStarts) {
		return len(l.text)
	}
	return l.lineStarts[line]
}

// LineEnd returns offset of the line break ending the line (or end of text).
func (l *LineIndex) LineEnd(line int) int {
	if line+1 < len(l.lineStarts) {
		end := l.lineStarts[line+1] - 1
		if end > 0 && l.text[end-1] == '\r' {
			end--
		}
		return end
	}
	return len(l.text)
}

// LineText returns the line's content without its line break.
func (l *LineIndex) LineText(line int) string {
	return l.text[l.LineStart(line):l.LineEnd(line)]
}

// LineCol returns the 0 based line and UTF-16 character of offset.
func (l *LineIndex) LineCol(offset int) (int, int) {
	offset = l.clamp(offset)
	line := l.LineOf(offset)
	char := 0
	for _, r := range l.text[l.lineStarts[line]:offset] {
		char += utf16.RuneLen(r)
	}
	return line, char
}

// Offset returns the byte offset of a 0 based line and UTF-16 character.
// Positions past the end of a line are clamped to the line end.
func (l *LineIndex) Offset(line, char int) int {
	if line < 0 {
		return 0
	}
	if line >= len(l.lineStarts) {
		return len(l.text)
	}
	offset := l.lineStarts[line]
	end := l.LineEnd(line)
	for char > 0 && offset < end {
		r, size := utf8.DecodeRuneInString(l.text[offset:])
		char -= utf16.RuneLen(r)
		offset += size
	}
	return offset
}

// OffsetOfRune returns the byte offset of a 1 based line and 1 based rune
// column as reported by YAML parsers.
func (l *LineIndex) OffsetOfRune(line, col int) int {
	if line < 1 {
		return 0
	}
	if line > len(l.lineStarts) {
		return len(l.text)
	}
	offset := l.lineStarts[line-1]
	for col > 1 && offset < len(l.text) && l.text[offset] != '\n' {
		_, size := utf8.DecodeRuneInString(l.text[offset:])
		offset += size
		col--
	}
	return offset
}

// Position converts offset into a 1 based line/column Position within file.
func (l *LineIndex) Position(offset int, file string) *Position {
	line, char := l.LineCol(offset)
	pos := NewPositionInFile(line+1, file)
	pos.SetColumn(char + 1)
	pos.SetLine(l.LineText(line))
	return pos
}

func (l *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(l.text) {
		return len(l.text)
	}
	return offset
}
