// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"carvel.dev/cfnls/pkg/schema"
	"carvel.dev/cfnls/pkg/yamlast"
	"github.com/google/go-cmp/cmp"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const resourcesSchema = `{
  "type": "object",
  "properties": {
    "Resources": {
      "type": "object",
      "additionalProperties": {
        "anyOf": [
          {"$ref": "#/definitions/Bucket"},
          {"$ref": "#/definitions/Queue"}
        ]
      }
    }
  },
  "definitions": {
    "Bucket": {
      "type": "object",
      "properties": {
        "Type": {"enum": ["AWS::S3::Bucket"]},
        "Properties": {"type": "object", "properties": {"BucketName": {"type": "string"}}}
      }
    },
    "Queue": {
      "type": "object",
      "properties": {
        "Type": {"enum": ["AWS::SQS::Queue"]},
        "Properties": {"type": "object", "properties": {"QueueName": {"type": "string"}}}
      }
    }
  }
}`

func mustLoad(t *testing.T, data string) *schema.Schema {
	s, err := schema.Load([]byte(data))
	require.NoError(t, err)
	return s
}

func TestResolveInvertsInapplicableBranches(t *testing.T) {
	root := mustLoad(t, resourcesSchema)
	doc := yamlast.Parse(`
Resources:
  Logs:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: logs
`)
	matches := schema.Resolve(root, doc)

	logs := doc.LookupPath("Resources", "Logs")
	applied := matches.At(logs)
	require.Len(t, applied, 2)
	assert.Same(t, root.Definition("Bucket"), applied[1])

	var inverted []*schema.Schema
	for _, m := range matches {
		if m.Node == logs && m.Inverted {
			inverted = append(inverted, m.Schema)
		}
	}
	assert.Equal(t, []*schema.Schema{root.Definition("Queue")}, inverted)

	props := doc.LookupPath("Resources", "Logs", "Properties")
	bucketProps, _ := root.Definition("Bucket").Properties.Get("Properties")
	assert.Equal(t, []*schema.Schema{bucketProps}, matches.At(props))
}

func TestResolveTreatsMissingDiscriminatorAsApplicable(t *testing.T) {
	root := mustLoad(t, resourcesSchema)
	doc := yamlast.Parse("Resources:\n  Logs:\n    Type:\n")

	logs := doc.LookupPath("Resources", "Logs")
	// additionalProperties schema plus both branches
	assert.Len(t, schema.Resolve(root, doc).At(logs), 3)
}

func TestResolvePendingNodeKeepsBranches(t *testing.T) {
	root := mustLoad(t, resourcesSchema)
	doc := yamlast.Parse("Resources:\n  Logs:\n    Type: AWS::S\n")

	logs := doc.LookupPath("Resources", "Logs")
	typeVal := doc.LookupPath("Resources", "Logs", "Type")

	assert.Len(t, schema.Resolve(root, doc).At(logs), 1)
	assert.Len(t, schema.NewResolver(nil).WithPending(typeVal).Resolve(root, doc).At(logs), 3)
}

func TestResolveArrayItems(t *testing.T) {
	root := mustLoad(t, `{
  "properties": {
    "Tuple": {"type": "array", "items": [{"type": "string"}, {"type": "integer"}], "additionalItems": {"type": "boolean"}},
    "Closed": {"type": "array", "items": [{"type": "string"}]},
    "List": {"type": "array", "items": {"type": "string"}}
  }
}`)
	doc := yamlast.Parse("Tuple: [a, 1, true, false]\nClosed: [a, b]\nList: [x, y]\n")
	matches := schema.Resolve(root, doc)

	tuple := doc.Node(doc.Lookup(doc.Root, "Tuple")).Children
	tupleSchema, _ := root.Properties.Get("Tuple")
	assert.Equal(t, []*schema.Schema{tupleSchema.ItemsTuple[0]}, matches.At(tuple[0]))
	assert.Equal(t, []*schema.Schema{tupleSchema.ItemsTuple[1]}, matches.At(tuple[1]))
	assert.Equal(t, []*schema.Schema{tupleSchema.AdditionalItems}, matches.At(tuple[3]))

	closed := doc.Node(doc.Lookup(doc.Root, "Closed")).Children
	assert.Len(t, matches.At(closed[0]), 1)
	assert.Empty(t, matches.At(closed[1]))

	list := doc.Node(doc.Lookup(doc.Root, "List")).Children
	assert.Len(t, matches.At(list[1]), 1)
}

func TestResolveTerminatesOnCycles(t *testing.T) {
	root := mustLoad(t, `{
  "definitions": {
    "Loop": {"allOf": [{"$ref": "#/definitions/Loop"}], "properties": {"next": {"$ref": "#/definitions/Loop"}}}
  },
  "properties": {"start": {"$ref": "#/definitions/Loop"}}
}`)
	doc := yamlast.Parse("start:\n  next:\n    next:\n      next: {}\n")

	matches := schema.Resolve(root, doc)
	assert.Len(t, matches, 5)
}

func TestResolveObjectInArrayWithScalarItems(t *testing.T) {
	root := mustLoad(t, `{"properties": {"Names": {"type": "array", "items": {"type": "string", "enum": ["a", "b"]}}}}`)
	doc := yamlast.Parse("Names:\n  - a:\n")

	item := doc.Node(doc.Lookup(doc.Root, "Names")).Children[0]
	require.Equal(t, yamlast.KindObject, doc.Node(item).Kind)

	names, _ := root.Properties.Get("Names")
	assert.Equal(t, []*schema.Schema{names.Items}, schema.Resolve(root, doc).At(item))
}

func TestCountApplying(t *testing.T) {
	root := mustLoad(t, `{"oneOf": [{"type": "string"}, {"type": "string", "enum": ["a", "b"]}, {"type": "object"}]}`)
	r := schema.NewResolver(nil)

	doc := yamlast.Parse("a")
	assert.Equal(t, 2, r.CountApplying(doc, doc.Root, root.OneOf))

	doc = yamlast.Parse("c")
	assert.Equal(t, 1, r.CountApplying(doc, doc.Root, root.OneOf))

	doc = yamlast.Parse("[1]")
	assert.Equal(t, 0, r.CountApplying(doc, doc.Root, root.OneOf))
}

func TestStrictResolverSelectsValidatingBranch(t *testing.T) {
	root := mustLoad(t, `{"properties": {"v": {"oneOf": [
  {"type": "object", "required": ["a"], "properties": {"a": {"type": "integer"}}, "additionalProperties": false},
  {"type": "object", "required": ["b"], "properties": {"b": {"type": "integer"}}, "additionalProperties": false}
]}}}`)
	v, _ := root.Properties.Get("v")
	doc := yamlast.Parse("v:\n  a: 1\n")
	node := doc.Lookup(doc.Root, "v")

	loose := schema.NewResolver(nil)
	assert.Equal(t, 2, loose.CountApplying(doc, node, v.OneOf))
	assert.Len(t, loose.Resolve(root, doc).At(node), 3)

	strict := loose.WithStrict(nil)
	assert.Equal(t, 1, strict.CountApplying(doc, node, v.OneOf))
	assert.Equal(t, []*schema.Schema{v, v.OneOf[0]}, strict.Resolve(root, doc).At(node))
	assert.Equal(t, 2, strict.Loose().CountApplying(doc, node, v.OneOf))
}

func TestStrictResolverCountsImplicitKeys(t *testing.T) {
	root := mustLoad(t, `{"anyOf": [{"type": "object", "required": ["Runtime"]}]}`)
	doc := yamlast.Parse("Handler: index.default\n")

	assert.Equal(t, 0, schema.NewResolver(nil).WithStrict(nil).CountApplying(doc, doc.Root, root.AnyOf))

	implicit := func(obj yamlast.NodeID, key string) bool { return obj == doc.Root && key == "Runtime" }
	assert.Equal(t, 1, schema.NewResolver(nil).WithStrict(implicit).CountApplying(doc, doc.Root, root.AnyOf))
}

func TestStrictResolverFallsBackToLooseBranches(t *testing.T) {
	root := mustLoad(t, resourcesSchema)
	bucket := root.Definition("Bucket")
	doc := yamlast.Parse("Resources:\n  B:\n    Type: AWS::S3::Bucket\n    Properties:\n      BucketName: [1]\n")
	entry := doc.LookupPath("Resources", "B")

	// nested type mismatch fails strictly; the discriminator still selects Bucket
	matches := schema.NewResolver(nil).WithStrict(nil).Resolve(root, doc)
	assert.Contains(t, matches.At(entry), bucket)
	assert.NotContains(t, matches.At(entry), root.Definition("Queue"))
}

func TestResolveIsDeterministic(t *testing.T) {
	root := mustLoad(t, `{
  "type": "object",
  "properties": {"Resources": {"additionalProperties": {"anyOf": [
    {"type": "object", "additionalProperties": {"type": "string"}},
    {"type": "object", "properties": {"Type": {"enum": ["x"]}}, "additionalProperties": {"oneOf": [{"type": "string"}, {"type": "array"}]}},
    {"type": "string"}
  ]}}},
  "additionalProperties": {"items": {"type": "integer"}}
}`)
	randSource := getRandSource(t)

	fuzzer := fuzz.New().RandSource(randSource).NilChance(0).NumElements(0, 4).Funcs(func(s *string, c fuzz.Continue) {
		*s = fmt.Sprintf("k%d", c.Intn(6))
	})

	for i := 0; i < 50; i++ {
		var data struct {
			Resources map[string]map[string]string `yaml:"Resources"`
			Lists     map[string][]int             `yaml:"Lists"`
		}
		fuzzer.Fuzz(&data)

		bs, err := yaml.Marshal(data)
		require.NoError(t, err)

		doc := yamlast.Parse(string(bs))
		first := schema.Resolve(root, doc)
		second := schema.Resolve(root, yamlast.Parse(string(bs)))

		samePointer := cmp.Comparer(func(a, b *schema.Schema) bool { return a == b })
		if diff := cmp.Diff(first, second, samePointer); diff != "" {
			t.Fatalf("Resolution differs for:\n%s\n%s", bs, diff)
		}
	}
}

func getRandSource(t *testing.T) rand.Source {
	seed := time.Now().UnixNano()
	if seedStr := os.Getenv("CFNLS_SEED"); seedStr != "" {
		var err error
		seed, err = strconv.ParseInt(seedStr, 10, 64)
		require.NoError(t, err)
	}
	t.Logf("random seed: CFNLS_SEED=%d", seed)
	return rand.NewSource(seed)
}
