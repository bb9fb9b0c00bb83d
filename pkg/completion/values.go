// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"strings"

	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/schema"
	"carvel.dev/cfnls/pkg/yamlast"
)

const maxValueDepth = 8

type valueCollector struct {
	c       *completion
	sep     string
	replace filepos.Range
	// dash prefixes array item proposals with "- "
	dash bool
}

// addItems proposes values for the item of array arr under the cursor.
func (vc valueCollector) addItems(s *schema.Schema, arr yamlast.NodeID) {
	switch {
	case len(s.ItemsTuple) > 0:
		if is := s.ItemSchema(vc.c.doc.IndexAt(arr, vc.c.offset)); is != nil {
			vc.addSchema(is, true)
		}

	case s.Items != nil && s.Items.Type == schema.TypeObject:
		body := strings.TrimLeft(objectSkeleton(s.Items, &snippet{}, indentUnit, 1), " ")
		if vc.dash {
			body = "- " + body
		}
		doc := "Create an item of an array"
		if s.Description != "" {
			doc += " (" + s.Description + ")"
		}
		vc.c.items.add(Item{
			Kind:          KindSnippet,
			Label:         "- (array item)",
			InsertText:    body + vc.sep,
			Format:        FormatSnippet,
			Documentation: doc,
			Replace:       vc.replace,
		})

	case s.Items != nil:
		vc.addSchema(s.Items, true)
	}
}

// addSchema proposes defaults and enum values of s and its branches,
// followed by true/false/null when any of them admits those types.
func (vc valueCollector) addSchema(s *schema.Schema, forArrayItem bool) {
	var types schema.TypeSet
	vc.addSchemaCore(s, &types, forArrayItem, 0)

	if types.Has(schema.TypeBoolean) {
		vc.add(true, "", "", forArrayItem)
		vc.add(false, "", "", forArrayItem)
	}
	if types.Has(schema.TypeNull) {
		vc.add(nil, "", "", forArrayItem)
	}
}

func (vc valueCollector) addSchemaCore(s *schema.Schema, types *schema.TypeSet, forArrayItem bool, depth int) {
	if s == nil || depth > maxValueDepth {
		return
	}
	vc.addDefault(s, 0, forArrayItem)

	for i, val := range s.Enum {
		doc := s.Description
		if i < len(s.EnumDescriptions) {
			doc = s.EnumDescriptions[i]
		}
		vc.add(val, doc, "", forArrayItem)
	}

	*types |= s.Type

	for _, branches := range [][]*schema.Schema{s.AllOf, s.AnyOf, s.OneOf} {
		for _, branch := range branches {
			vc.addSchemaCore(branch, types, forArrayItem, depth+1)
		}
	}
}

// addDefault proposes the default of s, or a default found on nested items
// wrapped in as many arrays as it is deep.
func (vc valueCollector) addDefault(s *schema.Schema, arrayDepth int, forArrayItem bool) {
	if arrayDepth > maxValueDepth {
		return
	}
	if s.HasDefault {
		val := s.Default
		for i := 0; i < arrayDepth; i++ {
			val = []interface{}{val}
		}
		vc.add(val, s.Description, "Default value", forArrayItem)
		return
	}
	if s.Items != nil {
		vc.addDefault(s.Items, arrayDepth+1, false)
	}
}

func (vc valueCollector) add(val interface{}, doc, detail string, forArrayItem bool) {
	label := labelForValue(val)
	text := insertTextForValue(val, vc.sep)
	if forArrayItem && vc.dash {
		label, text = "- "+label, "- "+text
	}
	vc.c.items.add(Item{
		Kind:          KindValue,
		Label:         label,
		InsertText:    text,
		Format:        FormatSnippet,
		Documentation: doc,
		Detail:        detail,
		Replace:       vc.replace,
	})
}
