// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"sync"

	"carvel.dev/cfnls/pkg/filepos"
)

type Kind int

const (
	KindProperty Kind = iota
	KindValue
	KindSnippet
)

func (k Kind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindValue:
		return "value"
	case KindSnippet:
		return "snippet"
	}
	return "unknown"
}

type Format int

const (
	FormatPlain Format = iota
	// FormatSnippet insert texts may contain tab stops such as ${1:default}
	FormatSnippet
)

type Item struct {
	Kind          Kind
	Label         string
	InsertText    string
	Format        Format
	Documentation string
	Detail        string
	// Replace is the text the insertion overwrites; empty at the cursor
	Replace filepos.Range
}

// collector keeps items in insertion order, dropping repeated labels.
// Once closed, further adds are ignored.
type collector struct {
	mu     sync.Mutex
	items  []Item
	labels map[string]struct{}
	closed bool
	// replace is applied to items added without a range
	replace filepos.Range
}

func newCollector(replace filepos.Range) *collector {
	return &collector{labels: map[string]struct{}{}, replace: replace}
}

func (c *collector) add(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if _, found := c.labels[item.Label]; found {
		return
	}
	if item.Replace == (filepos.Range{}) {
		item.Replace = c.replace
	}
	c.labels[item.Label] = struct{}{}
	c.items = append(c.items, item)
}

func (c *collector) close() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return c.items
}
