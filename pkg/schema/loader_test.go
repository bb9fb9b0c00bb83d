// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"testing"

	"carvel.dev/cfnls/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeepsPropertyOrder(t *testing.T) {
	s, err := schema.Load([]byte(`{
  "type": "object",
  "properties": {
    "Zeta": {"type": "string"},
    "Alpha": {"type": ["integer", "null"], "default": 3},
    "Mid": {"enum": ["A", "B"], "enumDescriptions": ["first", "second"]}
  },
  "required": ["Zeta"],
  "additionalProperties": false
}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, s.Properties.Keys())
	assert.True(t, s.NoAdditionalProperties)
	assert.True(t, s.IsRequired("Zeta"))

	alpha, _ := s.Properties.Get("Alpha")
	assert.Equal(t, schema.TypeInteger|schema.TypeNull, alpha.Type)
	assert.True(t, alpha.HasDefault)
	assert.True(t, schema.ValueEquals(3.0, alpha.Default))

	mid, _ := s.Properties.Get("Mid")
	assert.Equal(t, []interface{}{"A", "B"}, mid.Enum)
	assert.Equal(t, "second", mid.EnumDescription(1))
	assert.Equal(t, "", mid.EnumDescription(2))
}

func TestLoadResolvesLocalRefs(t *testing.T) {
	s, err := schema.Load([]byte(`{
  "definitions": {
    "Tag": {"type": "object", "properties": {"Key": {"type": "string"}}},
    "Tags": {"$ref": "#/definitions/Tag/../Tag"},
    "Alias": {"$ref": "#/definitions/Tag"}
  },
  "properties": {
    "Tags": {"type": "array", "items": {"$ref": "#/definitions/Alias"}}
  }
}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unresolved reference")

	s, err = schema.Load([]byte(`{
  "definitions": {
    "Tag": {"type": "object", "properties": {"Key": {"type": "string"}}},
    "Alias": {"$ref": "#/definitions/Tag"}
  },
  "properties": {
    "Tags": {"type": "array", "items": {"$ref": "#/definitions/Alias"}}
  }
}`))
	require.NoError(t, err)

	tags, _ := s.Properties.Get("Tags")
	assert.Same(t, s.Definition("Tag"), tags.Items)
	assert.Same(t, s.Definition("Tag"), s.Definition("Alias"))
}

func TestLoadAllowsCyclicRefs(t *testing.T) {
	s, err := schema.Load([]byte(`{
  "definitions": {
    "Node": {
      "type": "object",
      "properties": {"Children": {"type": "array", "items": {"$ref": "#/definitions/Node"}}}
    }
  },
  "$ref": "#/definitions/Node"
}`))
	require.NoError(t, err)

	node := s.Definition("Node")
	children, _ := node.Properties.Get("Children")
	assert.Same(t, node, children.Items)
}

func TestLoadRejectsSelfReference(t *testing.T) {
	_, err := schema.Load([]byte(`{"definitions": {"A": {"$ref": "#/definitions/A"}}, "properties": {"a": {"$ref": "#/definitions/A"}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refers to itself")
}

func TestLoadRejectsUnknownType(t *testing.T) {
	_, err := schema.Load([]byte(`{"type": "text"}`))
	require.EqualError(t, err, "Keyword 'type' (line 1): Unknown type 'text'")
}

func TestTypeSetString(t *testing.T) {
	assert.Equal(t, "string | array", (schema.TypeString | schema.TypeArray).String())
	assert.Equal(t, "any", schema.TypeSet(0).String())
	assert.True(t, schema.TypeScalar.Has(schema.TypeBoolean))
	assert.False(t, schema.TypeScalar.Intersects(schema.TypeObject))
}
