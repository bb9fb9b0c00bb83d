// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"regexp"
	"strings"

	"carvel.dev/cfnls/pkg/orderedmap"
	"gopkg.in/yaml.v3"
)

// Load parses a JSON (or YAML) schema document. Local "$ref"s are replaced by
// pointers to their targets; remote references are not supported.
func Load(data []byte) (*Schema, error) {
	var doc yaml.Node
	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("Unmarshaling schema: %s", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("Expected schema document to be non-empty")
	}
	return LoadNode(doc.Content[0])
}

func LoadNode(node *yaml.Node) (*Schema, error) {
	l := &loader{root: node, built: map[*yaml.Node]*Schema{}}

	root, err := l.build(node)
	if err != nil {
		return nil, err
	}

	err = l.resolveRefs(root, map[*Schema]bool{})
	if err != nil {
		return nil, err
	}
	return root, nil
}

type loader struct {
	root  *yaml.Node
	built map[*yaml.Node]*Schema
}

func (l *loader) build(node *yaml.Node) (*Schema, error) {
	if s, found := l.built[node]; found {
		return s, nil
	}

	s := &Schema{}
	l.built[node] = s

	switch node.Kind {
	case yaml.ScalarNode:
		// boolean schemas: true accepts anything, false is handled by callers
		return s, nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("Expected schema at line %d to be an object", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		err := l.keyword(s, key, val)
		if err != nil {
			return nil, fmt.Errorf("Keyword '%s' (line %d): %s", key, val.Line, err)
		}
	}
	return s, nil
}

func (l *loader) keyword(s *Schema, key string, val *yaml.Node) error {
	var err error

	switch key {
	case "$ref":
		s.Ref = val.Value

	case "type":
		s.Type, err = l.types(val)

	case "title":
		s.Title = val.Value

	case "description", "markdownDescription":
		if s.Description == "" || key == "description" {
			s.Description = val.Value
		}

	case "properties":
		s.Properties, err = l.schemaMap(val)

	case "patternProperties":
		var props *orderedmap.Map[string, *Schema]
		props, err = l.schemaMap(val)
		if err == nil {
			err = props.IterateErr(func(pattern string, ps *Schema) error {
				re, reErr := regexp.Compile(pattern)
				if reErr != nil {
					return reErr
				}
				s.PatternProperties = append(s.PatternProperties, PatternProperty{pattern, re, ps})
				return nil
			})
		}

	case "additionalProperties":
		if isFalse(val) {
			s.NoAdditionalProperties = true
		} else if val.Kind == yaml.MappingNode {
			s.AdditionalProperties, err = l.build(val)
		}

	case "required":
		err = val.Decode(&s.Required)

	case "items":
		if val.Kind == yaml.SequenceNode {
			s.ItemsTuple, err = l.schemaList(val)
		} else {
			s.Items, err = l.build(val)
		}

	case "additionalItems":
		if val.Kind == yaml.MappingNode {
			s.AdditionalItems, err = l.build(val)
		}

	case "allOf":
		s.AllOf, err = l.schemaList(val)
	case "anyOf":
		s.AnyOf, err = l.schemaList(val)
	case "oneOf":
		s.OneOf, err = l.schemaList(val)

	case "enum":
		err = val.Decode(&s.Enum)
	case "const":
		var v interface{}
		err = val.Decode(&v)
		s.Enum = []interface{}{v}
	case "enumDescriptions", "markdownEnumDescriptions":
		if len(s.EnumDescriptions) == 0 || key == "enumDescriptions" {
			err = val.Decode(&s.EnumDescriptions)
		}

	case "default":
		err = val.Decode(&s.Default)
		s.HasDefault = true

	case "deprecationMessage":
		s.DeprecationMessage = val.Value
	case "doNotSuggest":
		err = val.Decode(&s.DoNotSuggest)

	case "definitions", "$defs":
		defs, defsErr := l.schemaMap(val)
		if defsErr != nil {
			return defsErr
		}
		if s.Definitions == nil {
			s.Definitions = defs
		} else {
			defs.Iterate(func(k string, v *Schema) { s.Definitions.Set(k, v) })
		}
	}
	return err
}

func (l *loader) types(val *yaml.Node) (TypeSet, error) {
	var names []string
	if val.Kind == yaml.SequenceNode {
		err := val.Decode(&names)
		if err != nil {
			return 0, err
		}
	} else {
		names = []string{val.Value}
	}

	var result TypeSet
	for _, name := range names {
		t, ok := ParseType(name)
		if !ok {
			return 0, fmt.Errorf("Unknown type '%s'", name)
		}
		result |= t
	}
	return result, nil
}

func (l *loader) schemaMap(val *yaml.Node) (*orderedmap.Map[string, *Schema], error) {
	if val.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("Expected an object")
	}
	result := orderedmap.NewMap[string, *Schema]()
	for i := 0; i+1 < len(val.Content); i += 2 {
		s, err := l.build(val.Content[i+1])
		if err != nil {
			return nil, err
		}
		result.Set(val.Content[i].Value, s)
	}
	return result, nil
}

func (l *loader) schemaList(val *yaml.Node) ([]*Schema, error) {
	if val.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("Expected an array")
	}
	var result []*Schema
	for _, item := range val.Content {
		s, err := l.build(item)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

// resolveRefs replaces every child pointer that is a "$ref" with its target.
func (l *loader) resolveRefs(s *Schema, visited map[*Schema]bool) error {
	if s == nil || visited[s] {
		return nil
	}
	visited[s] = true

	var err error
	s.children(func(child **Schema) {
		if err != nil || *child == nil {
			return
		}
		target, refErr := l.target(*child)
		if refErr != nil {
			err = refErr
			return
		}
		*child = target
		err = l.resolveRefs(target, visited)
	})
	return err
}

// target follows a chain of "$ref"s to a schema that has content.
func (l *loader) target(s *Schema) (*Schema, error) {
	seen := map[*Schema]bool{}
	for s.Ref != "" {
		if seen[s] {
			return nil, fmt.Errorf("Reference '%s' refers to itself", s.Ref)
		}
		seen[s] = true

		node, err := l.pointer(s.Ref)
		if err != nil {
			return nil, err
		}
		next, err := l.build(node)
		if err != nil {
			return nil, err
		}
		s = next
	}
	return s, nil
}

func (l *loader) pointer(ref string) (*yaml.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, fmt.Errorf("Unsupported reference '%s': only local references are supported", ref)
	}

	node := l.root
	for _, segment := range strings.Split(strings.TrimPrefix(strings.TrimPrefix(ref, "#"), "/"), "/") {
		if segment == "" {
			continue
		}
		segment = strings.NewReplacer("~1", "/", "~0", "~").Replace(segment)

		var next *yaml.Node
		switch node.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == segment {
					next = node.Content[i+1]
					break
				}
			}
		case yaml.SequenceNode:
			var idx int
			if _, err := fmt.Sscanf(segment, "%d", &idx); err == nil && idx >= 0 && idx < len(node.Content) {
				next = node.Content[idx]
			}
		}
		if next == nil {
			return nil, fmt.Errorf("Unresolved reference '%s'", ref)
		}
		node = next
	}
	return node, nil
}

func isFalse(val *yaml.Node) bool {
	return val.Kind == yaml.ScalarNode && val.Tag == "!!bool" && val.Value == "false"
}
