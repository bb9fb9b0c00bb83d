// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap_test

import (
	"testing"

	"carvel.dev/cfnls/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := orderedmap.NewMap[string, int]()
	m.Set("Type", 1)
	m.Set("Properties", 2)
	m.Set("DependsOn", 3)
	m.Set("Type", 10)

	assert.Equal(t, []string{"Type", "Properties", "DependsOn"}, m.Keys())

	val, found := m.Get("Type")
	assert.True(t, found)
	assert.Equal(t, 10, val)
	assert.Equal(t, 3, m.Len())
}

func TestMapDeleteReindexes(t *testing.T) {
	m := orderedmap.NewMapWithItems([]orderedmap.MapItem[string, int]{
		{"a", 1}, {"b", 2}, {"c", 3},
	})

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))

	val, found := m.Get("c")
	assert.True(t, found)
	assert.Equal(t, 3, val)

	m.Set("a", 4)
	assert.Equal(t, []string{"b", "c", "a"}, m.Keys())
}

func TestNilMapIsEmpty(t *testing.T) {
	var m *orderedmap.Map[string, int]

	_, found := m.Get("a")
	assert.False(t, found)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	assert.Nil(t, m.Clone())
}

func TestCloneIsIndependent(t *testing.T) {
	m := orderedmap.NewMap[string, int]()
	m.Set("a", 1)

	clone := m.Clone()
	clone.Set("b", 2)

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{"a", "b"}, clone.Keys())
}
