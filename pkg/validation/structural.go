// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/schema"
	"carvel.dev/cfnls/pkg/spell"
	"carvel.dev/cfnls/pkg/yamlast"
)

var (
	// eg "AWS::S3::Bucket", "Alexa::ASK::Skill", "Custom::Seeder"
	resourceTypeRegexp = regexp.MustCompile(`^(Custom::[\w@-]+|[A-Za-z0-9]+::[A-Za-z0-9]+::[A-Za-z0-9]+(::[A-Za-z0-9]+)?)$`)
)

// StructuralProvider checks a template against its schema in process.
type StructuralProvider struct{}

var _ Provider = StructuralProvider{}

func (StructuralProvider) Validate(ctx context.Context, in Input) ([]Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &structuralCheck{in: in, doc: in.Doc, reported: map[reportKey]struct{}{}}
	c.checkSyntax()

	if in.Plan != nil && in.Plan.Schema != nil {
		resolver := in.Plan.StrictResolver()
		for _, m := range resolver.Resolve(in.Plan.Schema, in.Doc) {
			if !m.Inverted {
				c.check(resolver, m.Node, m.Schema)
			}
		}
	}
	return c.diags, nil
}

// reportKey collapses the same finding reached through several schemas.
type reportKey struct {
	node yamlast.NodeID
	rule string
	arg  string
}

type structuralCheck struct {
	in       Input
	doc      *yamlast.Document
	diags    []Diagnostic
	reported map[reportKey]struct{}
}

func (c *structuralCheck) checkSyntax() {
	for _, synErr := range c.doc.Errors {
		c.diags = append(c.diags, Diagnostic{
			Severity: SeverityError,
			Message:  synErr.Message,
			Range:    synErr.Range,
			Source:   SourceStructural,
			Rule:     RuleSyntax,
		})
	}
	for _, prop := range c.doc.Duplicates {
		key := c.doc.KeyOf(prop)
		c.report(prop, RuleDuplicateKey, key, c.doc.Node(c.doc.Node(prop).Key).Range(),
			fmt.Sprintf("Duplicate key '%s'", key))
	}
}

func (c *structuralCheck) check(resolver *schema.Resolver, id yamlast.NodeID, s *schema.Schema) {
	n := c.doc.Node(id)
	types, opaque := resolver.TypesOf(c.doc, id)

	if !s.Type.IsEmpty() && !types.Intersects(s.Type) {
		c.report(id, RuleTypeMismatch, "", c.valueRange(id),
			fmt.Sprintf("Incorrect type: expected %s but got %s", s.Type, types))
		// further checks would only restate the mismatch
		return
	}

	if len(s.Enum) > 0 && !opaque {
		if val, scalar := c.doc.Value(id); scalar && !schema.ContainsValue(s.Enum, val) {
			c.report(id, RuleEnum, "", c.valueRange(id),
				fmt.Sprintf("Value is not accepted. Valid values: %s", enumText(s.Enum)))
		}
	}

	// when no branch validates, loosely applying branches report their
	// own findings instead
	if len(s.AnyOf) > 0 && resolver.Loose().CountApplying(c.doc, id, s.AnyOf) == 0 && !c.checkUnknownType(id) {
		c.report(id, RuleAnyOf, "", c.anchorRange(id), c.noMatchMessage(id))
	}

	if len(s.OneOf) > 0 {
		switch count := resolver.CountApplying(c.doc, id, s.OneOf); {
		case count == 0 && resolver.Loose().CountApplying(c.doc, id, s.OneOf) == 0:
			c.report(id, RuleOneOf, "", c.anchorRange(id), c.noMatchMessage(id))
		case count > 1:
			c.report(id, RuleOneOf, "", c.anchorRange(id),
				fmt.Sprintf("Matches %d schemas when only one must validate", count))
		}
	}

	if opaque || n.Kind != yamlast.KindObject {
		return
	}

	for _, key := range s.Required {
		if c.doc.Property(id, key) != yamlast.NoNode || c.in.Plan.IsImplicit(id, key) {
			continue
		}
		c.report(id, RuleRequiredProperty, key, c.anchorRange(id),
			fmt.Sprintf("Missing required property '%s'", key))
	}

	if s.NoAdditionalProperties {
		for _, prop := range n.Children {
			key := c.doc.KeyOf(prop)
			if s.DeclaresProperty(key) {
				continue
			}
			c.report(prop, RuleAdditionalProperty, key, c.doc.Node(c.doc.Node(prop).Key).Range(),
				fmt.Sprintf("Property '%s' is not allowed", key))
		}
	}
}

// checkUnknownType handles a resource whose well-formed Type the schema does
// not know. Schemas rarely list every resource type, so such entries are
// left unchecked unless the type looks like a misspelling of a known one.
func (c *structuralCheck) checkUnknownType(id yamlast.NodeID) bool {
	prop := c.doc.Node(c.doc.Node(id).Parent)
	if prop == nil || prop.Kind != yamlast.KindProperty || prop.Parent != c.doc.Lookup(c.doc.Root, cfn.SectionResources) {
		return false
	}
	typ := c.doc.Lookup(id, "Type")
	name := c.doc.ScalarText(typ)
	if !resourceTypeRegexp.MatchString(name) {
		return false
	}
	if _, known := c.in.Plan.Catalog.Lookup(name); known {
		return false
	}
	if strings.HasPrefix(name, "Custom::") {
		return true
	}

	var known []string
	for _, rt := range c.in.Plan.Catalog.Types(c.in.Plan.Transform) {
		known = append(known, rt.Name)
	}
	if suggestion := spell.Suggest(name, known); suggestion != "" {
		c.reportWith(typ, RuleUnknownType, name, SeverityWarning, c.valueRange(typ),
			fmt.Sprintf("Resource type '%s' is not in the schema (did you mean '%s'?)", name, suggestion))
	}
	return true
}

func (c *structuralCheck) report(id yamlast.NodeID, rule, arg string, rng filepos.Range, msg string) {
	c.reportWith(id, rule, arg, SeverityError, rng, msg)
}

func (c *structuralCheck) reportWith(id yamlast.NodeID, rule, arg string, severity Severity, rng filepos.Range, msg string) {
	key := reportKey{id, rule, arg}
	if _, found := c.reported[key]; found {
		return
	}
	c.reported[key] = struct{}{}

	c.diags = append(c.diags, Diagnostic{
		Severity: severity,
		Message:  msg,
		Range:    rng,
		Source:   SourceStructural,
		Rule:     rule,
	})
}

// anchorRange points collection findings at the key owning the collection
// instead of spanning the whole block.
func (c *structuralCheck) anchorRange(id yamlast.NodeID) filepos.Range {
	n := c.doc.Node(id)
	if n.IsScalar() {
		return c.valueRange(id)
	}
	if parent := c.doc.Node(n.Parent); parent != nil && parent.Kind == yamlast.KindProperty {
		return c.doc.Node(parent.Key).Range()
	}
	return filepos.NewRange(n.Start, c.doc.Lines().LineEnd(c.doc.Lines().LineOf(n.Start)))
}

// valueRange of "Foo:" with nothing after the colon is the key.
func (c *structuralCheck) valueRange(id yamlast.NodeID) filepos.Range {
	n := c.doc.Node(id)
	if n.Implicit {
		if parent := c.doc.Node(n.Parent); parent != nil && parent.Kind == yamlast.KindProperty {
			return c.doc.Node(parent.Key).Range()
		}
	}
	return n.Range()
}

func (c *structuralCheck) noMatchMessage(id yamlast.NodeID) string {
	if typ := c.doc.Lookup(id, "Type"); typ != yamlast.NoNode {
		if name := c.doc.ScalarText(typ); name != "" {
			return fmt.Sprintf("Value with Type '%s' does not match any of the allowed schemas", name)
		}
	}
	return "Value does not match any of the allowed schemas"
}

func enumText(values []interface{}) string {
	var parts []string
	for _, val := range values {
		parts = append(parts, fmt.Sprintf("%v", val))
	}
	return strings.Join(parts, ", ")
}
