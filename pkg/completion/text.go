// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"fmt"
	"strings"

	"carvel.dev/cfnls/pkg/schema"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	indentUnit = "  "
	// skeletons of required properties stop at this depth
	maxSkeletonDepth = 3
)

// snippet numbers tab stops in the order they are written.
type snippet struct {
	next int
}

func (sn *snippet) stop(value string) string {
	sn.next++
	if value == "" {
		return fmt.Sprintf("${%d}", sn.next)
	}
	return fmt.Sprintf("${%d:%s}", sn.next, escapeSnippet(value))
}

func escapeSnippet(text string) string {
	return strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`).Replace(text)
}

// insertTextForProperty returns "key" or, with addValue, "key:" followed by
// a placeholder suited to the property's schema.
func insertTextForProperty(key string, ps *schema.Schema, addValue bool, separatorAfter string) string {
	text := escapeSnippet(key)
	if !addValue {
		return text
	}
	return text + ":" + valuePlaceholder(ps, &snippet{}, "", 0) + separatorAfter
}

func valuePlaceholder(s *schema.Schema, sn *snippet, indent string, depth int) string {
	switch {
	case isObjectSchema(s):
		return "\n" + objectSkeleton(s, sn, indent+indentUnit, depth+1)
	case isArraySchema(s):
		if item := s.ItemSchema(0); item != nil && isObjectSchema(item) {
			body := objectSkeleton(item, sn, indent+indentUnit+indentUnit, depth+1)
			return "\n" + indent + indentUnit + "- " + strings.TrimLeft(body, " ")
		}
		return "\n" + indent + indentUnit + "- " + sn.stop("")
	case s.HasDefault:
		return " " + sn.stop(valueText(s.Default))
	case len(s.Enum) == 1:
		return " " + sn.stop(valueText(s.Enum[0]))
	}
	return " " + sn.stop("")
}

// objectSkeleton lists required properties, one per line at indent, or a
// single tab stop when none are required.
func objectSkeleton(s *schema.Schema, sn *snippet, indent string, depth int) string {
	var lines []string
	if depth <= maxSkeletonDepth {
		for _, key := range s.Required {
			ps := s.PropertySchema(key)
			if ps == nil {
				ps = &schema.Schema{}
			}
			lines = append(lines, indent+escapeSnippet(key)+":"+valuePlaceholder(ps, sn, indent, depth))
		}
	}
	if len(lines) == 0 {
		return indent + sn.stop("")
	}
	return strings.Join(lines, "\n")
}

func isObjectSchema(s *schema.Schema) bool {
	return s.Type == schema.TypeObject || (s.Type.IsEmpty() && s.Properties.Len() > 0)
}

func isArraySchema(s *schema.Schema) bool {
	return s.Type == schema.TypeArray
}

// insertTextForValue renders a schema value as YAML, escaped for snippets.
func insertTextForValue(val interface{}, separatorAfter string) string {
	return escapeSnippet(valueText(val)) + separatorAfter
}

// valueText renders scalars in plain YAML and collections in flow style.
func valueText(val interface{}) string {
	switch val.(type) {
	case []interface{}, map[string]interface{}, map[interface{}]interface{}:
		bs, err := json.Marshal(normalizeValue(val))
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(bs)
	}

	bs, err := yaml.Marshal(val)
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(bs), "\n")
}

// labelForValue shows strings as written and other values as JSON.
func labelForValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	return valueText(val)
}

// normalizeValue converts yaml map keys to strings so values can be
// encoded as JSON.
func normalizeValue(val interface{}) interface{} {
	switch typed := val.(type) {
	case map[interface{}]interface{}:
		result := map[string]interface{}{}
		for k, v := range typed {
			result[fmt.Sprintf("%v", k)] = normalizeValue(v)
		}
		return result
	case map[string]interface{}:
		result := map[string]interface{}{}
		for k, v := range typed {
			result[k] = normalizeValue(v)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(typed))
		for i, v := range typed {
			result[i] = normalizeValue(v)
		}
		return result
	}
	return val
}
