// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos_test

import (
	"testing"

	"carvel.dev/cfnls/pkg/filepos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineIndexRoundTrip(t *testing.T) {
	text := "Resources:\n  Table:\n    Type: AWS::DynamoDB::Table\n"
	idx := filepos.NewLineIndex(text)

	require.Equal(t, 4, idx.LineCount())

	for offset := 0; offset <= len(text); offset++ {
		line, char := idx.LineCol(offset)
		assert.Equal(t, offset, idx.Offset(line, char), "offset %d", offset)
	}

	line, char := idx.LineCol(13)
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, char)
	assert.Equal(t, "  Table:", idx.LineText(1))
}

func TestLineIndexCountsUTF16(t *testing.T) {
	text := "Description: \"日本 🚀\"\nResources: {}\n"
	idx := filepos.NewLineIndex(text)

	rocket := len("Description: \"日本 ")
	line, char := idx.LineCol(rocket + len("🚀"))
	assert.Equal(t, 0, line)
	// 14 ASCII + 2 CJK + space + surrogate pair
	assert.Equal(t, 14+2+1+2, char)
	assert.Equal(t, rocket+len("🚀"), idx.Offset(line, char))
}

func TestLineIndexOffsetOfRune(t *testing.T) {
	text := "a: 1\nkey: 日本\n"
	idx := filepos.NewLineIndex(text)

	assert.Equal(t, 5, idx.OffsetOfRune(2, 1))
	assert.Equal(t, 10, idx.OffsetOfRune(2, 6))
	assert.Equal(t, 13, idx.OffsetOfRune(2, 7))
}

func TestPositionCompactString(t *testing.T) {
	idx := filepos.NewLineIndex("a: 1\nb: 2\n")
	pos := idx.Position(8, "template.yaml")

	assert.Equal(t, "template.yaml:2:4", pos.AsCompactString())
	assert.Equal(t, "b: 2", pos.GetLine())
	assert.Equal(t, "?", filepos.NewUnknownPosition().AsCompactString())
}

func TestRangeContainsIsEndInclusive(t *testing.T) {
	r := filepos.NewRange(3, 7)
	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(7))
	assert.False(t, r.Contains(8))
	assert.True(t, r.ContainsRange(filepos.NewRange(4, 7)))
	assert.Equal(t, filepos.Range{Start: 5, End: 5}, filepos.NewRange(5, 2))
}
