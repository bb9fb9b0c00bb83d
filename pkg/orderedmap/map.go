// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"encoding/json"
)

type Map[K comparable, V any] struct {
	items []MapItem[K, V]
	index map[K]int
}

type MapItem[K comparable, V any] struct {
	Key   K
	Value V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{index: map[K]int{}}
}

func NewMapWithItems[K comparable, V any](items []MapItem[K, V]) *Map[K, V] {
	m := NewMap[K, V]()
	for _, item := range items {
		m.Set(item.Key, item.Value)
	}
	return m
}

func (m *Map[K, V]) Set(key K, value V) {
	if m.index == nil {
		m.index = map[K]int{}
	}
	if i, found := m.index[key]; found {
		m.items[i].Value = value
		return
	}
	m.index[key] = len(m.items)
	m.items = append(m.items, MapItem[K, V]{key, value})
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	if m != nil {
		if i, found := m.index[key]; found {
			return m.items[i].Value, true
		}
	}
	var zero V
	return zero, false
}

func (m *Map[K, V]) Has(key K) bool {
	_, found := m.Get(key)
	return found
}

func (m *Map[K, V]) Delete(key K) bool {
	i, found := m.index[key]
	if !found {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.items); j++ {
		m.index[m.items[j].Key] = j
	}
	return true
}

func (m *Map[K, V]) Keys() (keys []K) {
	m.Iterate(func(k K, _ V) {
		keys = append(keys, k)
	})
	return
}

func (m *Map[K, V]) Iterate(iterFunc func(k K, v V)) {
	if m == nil {
		return
	}
	for _, item := range m.items {
		iterFunc(item.Key, item.Value)
	}
}

func (m *Map[K, V]) IterateErr(iterFunc func(k K, v V) error) error {
	if m == nil {
		return nil
	}
	for _, item := range m.items {
		err := iterFunc(item.Key, item.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a shallow copy; values are shared.
func (m *Map[K, V]) Clone() *Map[K, V] {
	if m == nil {
		return nil
	}
	return NewMapWithItems(m.items)
}

func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Below methods disallow marshaling of Map directly
var _ []json.Marshaler = []json.Marshaler{&Map[string, int]{}}

func (*Map[K, V]) MarshalYAML() (interface{}, error) { panic("Unexpected marshaling of *orderedmap.Map") }
func (*Map[K, V]) MarshalJSON() ([]byte, error)      { panic("Unexpected marshaling of *orderedmap.Map") }
