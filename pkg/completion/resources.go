// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"strings"

	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/yamlast"
)

const defaultLogicalID = "LogicalId"

// addResourceSnippets proposes a resource declaration per known type: the
// logical id, its Type and the required Properties.
func (c *completion) addResourceSnippets(prop yamlast.NodeID, replace filepos.Range) {
	name := defaultLogicalID
	if prop != yamlast.NoNode {
		if key := c.doc.KeyOf(prop); key != "" && key != placeholderKey {
			name = key
		}
	}

	for _, rt := range c.plan.Catalog.Types(c.plan.Transform) {
		sn := &snippet{}
		text := sn.stop(name) + ":\n" + indentUnit + "Type: " + escapeSnippet(rt.Name)
		if props := rt.Schema.PropertySchema("Properties"); props != nil && len(props.Required) > 0 {
			text += "\n" + indentUnit + "Properties:\n" + objectSkeleton(props, sn, indentUnit+indentUnit, 1)
		}

		detail, doc := "Resource", rt.Description
		if rt.Serverless {
			detail = "Serverless resource"
			if len(rt.ExpandsTo) > 0 {
				doc += "\n\nExpands to " + strings.Join(rt.ExpandsTo, ", ")
			}
		}

		c.items.add(Item{
			Kind:          KindSnippet,
			Label:         rt.Name,
			InsertText:    text,
			Format:        FormatSnippet,
			Documentation: doc,
			Detail:        detail,
			Replace:       replace,
		})
	}
}
