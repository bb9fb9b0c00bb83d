// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"context"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/yamlast"
)

// Documents gives access to open documents by URI.
type Documents interface {
	Document(uri string) (*yamlast.Document, bool)
}

// StaticDocuments serves a fixed set of documents.
type StaticDocuments map[string]*yamlast.Document

func (d StaticDocuments) Document(uri string) (*yamlast.Document, bool) {
	doc, found := d[uri]
	return doc, found
}

// ReferenceContribution proposes logical ids declared by the template for
// values that name one.
type ReferenceContribution struct {
	Documents Documents
}

var _ Contribution = ReferenceContribution{}

func (ReferenceContribution) CollectDefaultCompletions(context.Context, string) ([]Item, error) {
	return nil, nil
}

func (rc ReferenceContribution) CollectValueCompletions(ctx context.Context, uri string, path yamlast.Path, key string) ([]Item, error) {
	doc, found := rc.Documents.Document(uri)
	if !found {
		return nil, nil
	}
	decls := cfn.NewDeclarations(doc)

	var names []string
	detail := "Resource"

	switch key {
	case "DependsOn", "Fn::GetAtt":
		names = without(decls.Resources, ownLogicalID(path))
	case "Ref":
		names, detail = decls.Referenceable(), "Reference"
	case "Condition", "Fn::If":
		names, detail = decls.Conditions, "Condition"
	default:
		return nil, nil
	}

	var items []Item
	for _, name := range names {
		items = append(items, Item{Kind: KindValue, Label: name, InsertText: name, Format: FormatPlain, Detail: detail})
	}
	return items, ctx.Err()
}

// ownLogicalID returns X for paths within Resources.X.
func ownLogicalID(path yamlast.Path) string {
	keys := path.Keys()
	if len(keys) >= 2 && keys[0] == cfn.SectionResources {
		return keys[1]
	}
	return ""
}

func without(list []string, val string) []string {
	var result []string
	for _, item := range list {
		if item != val {
			result = append(result, item)
		}
	}
	return result
}
