// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfn

import (
	"fmt"
	"regexp"
	"strings"

	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/spell"
	"carvel.dev/cfnls/pkg/yamlast"
	"github.com/vmware-labs/yaml-jsonpath/pkg/yamlpath"
	"gopkg.in/yaml.v3"
)

const (
	RuleUnresolvedReference = "cfnls-unresolved-reference"
	RuleUnresolvedCondition = "cfnls-unresolved-condition"
)

var (
	sectionPaths = map[string]*yamlpath.Path{}

	// ${Name} or ${Name.Attribute}; ${!Literal} is an escape
	subVariableRegexp = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)
)

func init() {
	for _, section := range []string{SectionResources, SectionParameters, SectionConditions} {
		path, err := yamlpath.NewPath("$." + section)
		if err != nil {
			panic(fmt.Sprintf("Building path for section '%s': %s", section, err))
		}
		sectionPaths[section] = path
	}
}

type Problem struct {
	Node    yamlast.NodeID
	Range   filepos.Range
	Message string
	Rule    string
	Target  string
}

// Declarations holds the logical ids declared by a template.
type Declarations struct {
	Resources  []string
	Parameters []string
	Conditions []string
}

func NewDeclarations(doc *yamlast.Document) Declarations {
	return Declarations{
		Resources:  sectionKeys(doc.Raw, SectionResources),
		Parameters: sectionKeys(doc.Raw, SectionParameters),
		Conditions: sectionKeys(doc.Raw, SectionConditions),
	}
}

// Referenceable returns names valid as a Ref or Sub target.
func (d Declarations) Referenceable() []string {
	var result []string
	result = append(result, d.Resources...)
	result = append(result, d.Parameters...)
	return append(result, PseudoParameters...)
}

func sectionKeys(raw *yaml.Node, section string) []string {
	if raw == nil {
		return nil
	}
	found, err := sectionPaths[section].Find(raw)
	if err != nil {
		return nil
	}
	var keys []string
	for _, node := range found {
		if node.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if !contains(keys, node.Content[i].Value) {
				keys = append(keys, node.Content[i].Value)
			}
		}
	}
	return keys
}

// CheckReferences reports each reference to a logical id the template does
// not declare, positioned at the referencing invocation.
func CheckReferences(doc *yamlast.Document) []Problem {
	if doc.Root == yamlast.NoNode {
		return nil
	}
	c := referenceChecker{doc: doc, decls: NewDeclarations(doc)}

	_ = yamlast.Walk(doc, doc.Root, yamlast.VisitorFn(func(_ *yamlast.Document, id yamlast.NodeID) error {
		if in, ok := IntrinsicOf(doc, id); ok && !(in.Function == "Condition" && c.isResourceEntry(id)) {
			c.checkIntrinsic(in)
		}
		return nil
	}))

	c.checkResourceAttributes()
	return c.problems
}

type referenceChecker struct {
	doc      *yamlast.Document
	decls    Declarations
	problems []Problem
}

func (c *referenceChecker) checkIntrinsic(in Intrinsic) {
	arg := c.doc.Node(in.Arg)
	if arg == nil {
		return
	}

	switch in.Function {
	case "Ref":
		if target := c.scalarArg(in); target != "" {
			c.expect(in.Node, target, c.decls.Referenceable(), "Ref")
		}

	case "Fn::GetAtt":
		var target string
		if arg.Kind == yamlast.KindArray {
			if len(arg.Children) > 0 {
				target = c.doc.ScalarText(arg.Children[0])
			}
		} else if text := c.scalarArg(in); text != "" {
			target = strings.SplitN(text, ".", 2)[0]
		}
		if target != "" {
			c.expect(in.Node, target, c.decls.Resources, "GetAtt")
		}

	case "Fn::Sub":
		c.checkSub(in)

	case "Fn::If":
		if arg.Kind == yamlast.KindArray && len(arg.Children) > 0 {
			c.expectCondition(in.Node, c.doc.ScalarText(arg.Children[0]))
		}

	case "Condition":
		c.expectCondition(in.Node, c.scalarArg(in))
	}
}

func (c *referenceChecker) checkSub(in Intrinsic) {
	arg := c.doc.Node(in.Arg)
	textNode := in.Arg
	var locals []string

	if arg.Kind == yamlast.KindArray {
		if len(arg.Children) == 0 {
			return
		}
		textNode = arg.Children[0]
		if len(arg.Children) > 1 {
			locals = c.doc.Keys(arg.Children[1])
		}
	}
	n := c.doc.Node(textNode)
	if n == nil || n.Kind != yamlast.KindString {
		return
	}

	for _, match := range subVariableRegexp.FindAllStringSubmatch(n.Str, -1) {
		name := strings.TrimSpace(match[1])
		candidates := append(c.decls.Referenceable(), locals...)
		if strings.Contains(name, ".") && !strings.HasPrefix(name, "AWS::") {
			name = strings.SplitN(name, ".", 2)[0]
			candidates = c.decls.Resources
		}
		if !contains(candidates, name) {
			c.report(in.Node, c.subRange(textNode, match[0]), name, candidates, "Sub", RuleUnresolvedReference)
		}
	}
}

// checkResourceAttributes checks DependsOn and Condition of each resource.
func (c *referenceChecker) checkResourceAttributes() {
	resources := c.doc.Node(c.doc.Lookup(c.doc.Root, SectionResources))
	if resources == nil || resources.Kind != yamlast.KindObject {
		return
	}
	for _, prop := range resources.Children {
		resource := c.doc.Node(prop).Value

		dependsOn := c.doc.Lookup(resource, "DependsOn")
		if n := c.doc.Node(dependsOn); n != nil {
			targets := []yamlast.NodeID{dependsOn}
			if n.Kind == yamlast.KindArray {
				targets = n.Children
			}
			for _, target := range targets {
				if t := c.doc.Node(target); t != nil && t.Kind == yamlast.KindString && t.Tag == "" {
					c.expect(target, t.Str, c.decls.Resources, "DependsOn")
				}
			}
		}

		condition := c.doc.Lookup(resource, "Condition")
		if n := c.doc.Node(condition); n != nil && n.Kind == yamlast.KindString && n.Tag == "" {
			c.expectCondition(condition, n.Str)
		}
	}
}

// isResourceEntry reports whether id is the value of a Resources entry; its
// Condition key is an attribute checked by checkResourceAttributes.
func (c *referenceChecker) isResourceEntry(id yamlast.NodeID) bool {
	prop := c.doc.Node(c.doc.Node(id).Parent)
	return prop != nil && prop.Kind == yamlast.KindProperty &&
		prop.Parent == c.doc.Lookup(c.doc.Root, SectionResources)
}

func (c *referenceChecker) scalarArg(in Intrinsic) string {
	n := c.doc.Node(in.Arg)
	if n == nil || n.Kind != yamlast.KindString {
		return ""
	}
	return n.Str
}

func (c *referenceChecker) expect(at yamlast.NodeID, target string, candidates []string, via string) {
	if !contains(candidates, target) {
		c.report(at, c.doc.Node(at).Range(), target, candidates, via, RuleUnresolvedReference)
	}
}

func (c *referenceChecker) expectCondition(at yamlast.NodeID, name string) {
	if name != "" && !contains(c.decls.Conditions, name) {
		c.report(at, c.doc.Node(at).Range(), name, c.decls.Conditions, "Condition", RuleUnresolvedCondition)
	}
}

func (c *referenceChecker) report(at yamlast.NodeID, rng filepos.Range, target string, candidates []string, via, rule string) {
	what := "resource or parameter"
	switch via {
	case "GetAtt", "DependsOn":
		what = "resource"
	case "Condition":
		what = "condition"
	}

	msg := fmt.Sprintf("%s refers to undeclared %s '%s'", via, what, target)
	if suggestion := spell.Suggest(target, candidates); suggestion != "" {
		msg += fmt.Sprintf(" (did you mean '%s'?)", suggestion)
	}
	c.problems = append(c.problems, Problem{Node: at, Range: rng, Message: msg, Rule: rule, Target: target})
}

// subRange narrows a Sub problem to the variable when it can be found in
// the source text of the string.
func (c *referenceChecker) subRange(textNode yamlast.NodeID, variable string) filepos.Range {
	n := c.doc.Node(textNode)
	src := c.doc.Text[n.Start:n.End]
	if idx := strings.Index(src, variable); idx >= 0 {
		return filepos.NewRange(n.Start+idx, n.Start+idx+len(variable))
	}
	return n.Range()
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
