// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"context"
	"strings"
	"time"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/schema"
	"carvel.dev/cfnls/pkg/yamlast"
	"go.uber.org/zap"
)

const DefaultTimeout = 500 * time.Millisecond

type EngineOpts struct {
	Adapter       *cfn.Adapter
	Contributions []Contribution
	// CustomTags are written as "!Tag kind", e.g. "!Ref scalar"
	CustomTags []string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Engine is safe for concurrent use; each request works on its own copy of
// the document.
type Engine struct {
	adapter       *cfn.Adapter
	parser        *yamlast.Parser
	contributions []Contribution
	customTags    []string
	timeout       time.Duration
	logger        *zap.Logger
}

func NewEngine(opts EngineOpts) *Engine {
	e := &Engine{
		adapter:       opts.Adapter,
		parser:        yamlast.NewParser(yamlast.ParserOpts{}),
		contributions: opts.Contributions,
		customTags:    opts.CustomTags,
		timeout:       opts.Timeout,
		logger:        opts.Logger,
	}
	if e.adapter == nil {
		e.adapter = cfn.NewAdapter()
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

type Request struct {
	URI    string
	Doc    *yamlast.Document
	Offset int
	// Schema may be nil when no schema applies
	Schema *schema.Schema
}

// Complete returns proposals for the cursor in req. A failure while
// completing yields an empty list.
func (e *Engine) Complete(ctx context.Context, req Request) (items []Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("completion panicked", zap.String("uri", req.URI), zap.Any("panic", r))
			items, err = nil, nil
		}
	}()

	if req.Doc == nil {
		return nil, nil
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(req.Doc.Text) {
		offset = len(req.Doc.Text)
	}

	text, patch := patchText(req.Doc.Text, offset)
	doc := e.parser.Parse(text)
	plan := e.adapter.Prepare(req.Schema, doc)

	c := &completion{
		engine: e,
		req:    req,
		doc:    doc,
		plan:   plan,
		offset: offset,
		patch:  patch,
	}
	c.run(ctx)

	e.logger.Debug("completed", zap.String("uri", req.URI), zap.Int("offset", offset),
		zap.Int("items", len(c.items.items)))
	return c.items.close(), nil
}

// completion is the state of a single request.
type completion struct {
	engine *Engine
	req    Request
	doc    *yamlast.Document
	plan   *cfn.Plan
	offset int
	patch  patchKind

	matches schema.Matches
	items   *collector
}

func (c *completion) run(ctx context.Context) {
	c.items = newCollector(filepos.NewRange(c.offset, c.offset))

	if c.req.Doc.Root == yamlast.NoNode {
		defer func() {
			c.addAll(c.engine.contribute(ctx, c.req.URI, func(ctx context.Context, contrib Contribution) ([]Item, error) {
				return contrib.CollectDefaultCompletions(ctx, c.req.URI)
			}))
		}()
	}

	id := c.doc.NodeAt(c.offset)
	n := c.doc.Node(id)
	if n == nil {
		return
	}

	switch {
	case n.IsScalar() && c.isKey(id):
		prop := n.Parent
		c.completeKey(c.doc.Node(prop).Parent, prop, c.keyRange(id))

	case n.IsScalar():
		// promote to the containing property or array
		c.completeValue(ctx, n.Parent, id)

	case n.Kind == yamlast.KindProperty:
		if c.offset > n.ColonOffset {
			c.completeValue(ctx, id, yamlast.NoNode)
		} else {
			c.completeKey(n.Parent, id, c.keyRange(n.Key))
		}

	case n.Kind == yamlast.KindObject:
		c.completeKey(id, yamlast.NoNode, c.items.replace)

	case n.Kind == yamlast.KindArray:
		c.completeValue(ctx, id, yamlast.NoNode)
	}
}

func (c *completion) isKey(id yamlast.NodeID) bool {
	parent := c.doc.Node(c.doc.Node(id).Parent)
	return parent != nil && parent.Kind == yamlast.KindProperty && parent.Key == id
}

// keyRange is the range a key proposal replaces. The placeholder is not
// part of the caller's text.
func (c *completion) keyRange(key yamlast.NodeID) filepos.Range {
	if c.patch == patchPlaceholder && c.doc.Node(key).Start == c.offset {
		return c.items.replace
	}
	return c.doc.Node(key).Range()
}

func (c *completion) resolve(pending yamlast.NodeID) {
	c.matches = c.plan.Resolver().WithPending(pending).Resolve(c.plan.Schema, c.doc)
}

// completeKey proposes properties of obj; prop is the property whose key is
// being edited, if any.
func (c *completion) completeKey(obj, prop yamlast.NodeID, replace filepos.Range) {
	objNode := c.doc.Node(obj)
	if objNode == nil || objNode.Kind != yamlast.KindObject {
		return
	}

	pending := yamlast.NoNode
	if p := c.doc.Node(prop); p != nil {
		pending = p.Value
	}
	c.resolve(pending)

	existing := map[string]bool{}
	for _, child := range objNode.Children {
		if child != prop {
			existing[c.doc.KeyOf(child)] = true
		}
	}

	// a value is added unless the key being edited already has a colon
	addValue := prop == yamlast.NoNode || c.patch != patchNone
	sep := separatorAfter(c.doc, obj, c.offset)
	inArray := c.isArray(objNode.Parent)

	for _, s := range c.matches.At(obj) {
		s.Properties.Iterate(func(key string, ps *schema.Schema) {
			if existing[key] || ps.IsDeprecated() || ps.DoNotSuggest {
				return
			}
			c.items.add(Item{
				Kind:          KindProperty,
				Label:         key,
				InsertText:    insertTextForProperty(key, ps, addValue, sep),
				Format:        FormatSnippet,
				Documentation: ps.Description,
				Replace:       replace,
			})
		})

		// "- word" parses as an object once a colon is appended
		if inArray && prop != yamlast.NoNode && !s.Type.IsEmpty() && !s.Type.Has(schema.TypeObject) {
			vc := valueCollector{c: c, sep: sep, replace: replace}
			vc.addSchema(s, false)
			c.addCustomTags(replace)
		}
	}

	if addValue && c.isTopLevelResources(obj) {
		c.addResourceSnippets(prop, replace)
	}
}

// completeValue proposes values for a property or for items of an array.
// scalar is the value node under the cursor, if any.
func (c *completion) completeValue(ctx context.Context, target, scalar yamlast.NodeID) {
	n := c.doc.Node(target)
	if n == nil {
		return
	}

	sepOffset := c.offset
	replace := c.items.replace
	var intrinsic cfn.Intrinsic
	tagged := false
	if s := c.doc.Node(scalar); s != nil && !s.Implicit {
		sepOffset = s.End
		replace = s.Range()
		// past the tag of "!Ref |" the function's argument is being typed
		if content := c.doc.ContentRange(scalar); content.Start > s.Start && c.offset >= content.Start &&
			isBlank(c.doc.Text[content.Start-1]) {
			replace = content
			intrinsic, tagged = cfn.IntrinsicOf(c.doc, scalar)
		}
	}

	var container yamlast.NodeID
	var key string

	switch n.Kind {
	case yamlast.KindProperty:
		if c.offset <= n.ColonOffset {
			return
		}
		if v := c.doc.Node(n.Value); v != nil && !v.Implicit && c.offset > v.End {
			return
		}
		container, key = n.Parent, c.doc.KeyOf(target)
	case yamlast.KindArray:
		container = target
	default:
		return
	}

	pending := scalar
	if pending == yamlast.NoNode && n.Kind == yamlast.KindProperty {
		pending = n.Value
	}
	c.resolve(pending)

	containerNode := c.doc.Node(container)
	vc := valueCollector{
		c:       c,
		sep:     separatorAfter(c.doc, container, sepOffset),
		replace: replace,
		dash:    containerNode.Kind == yamlast.KindArray && !containerNode.Flow && c.needsDash(),
	}

	if !tagged {
		for _, s := range c.matches.At(container) {
			if containerNode.Kind == yamlast.KindArray {
				vc.addItems(s, container)
			}
			if key != "" {
				if ps := s.PropertySchema(key); ps != nil {
					vc.addSchema(ps, false)
				}
			}
		}
	}

	// items of an array value count as values of the owning key
	owner, ownerKey := container, key
	if p := c.doc.Node(containerNode.Parent); key == "" && p != nil && p.Kind == yamlast.KindProperty {
		owner, ownerKey = p.Parent, c.doc.KeyOf(containerNode.Parent)
	}
	if tagged {
		ownerKey = intrinsic.Function
	}
	if ownerKey != "" {
		path := c.doc.Path(owner)
		items := c.engine.contribute(ctx, c.req.URI, func(ctx context.Context, contrib Contribution) ([]Item, error) {
			return contrib.CollectValueCompletions(ctx, c.req.URI, path, ownerKey)
		})
		for _, item := range items {
			if item.Replace == (filepos.Range{}) {
				item.Replace = replace
			}
			c.items.add(item)
		}
	}
	if !tagged {
		c.addCustomTags(replace)
	}
}

func (c *completion) addCustomTags(replace filepos.Range) {
	for _, tag := range c.engine.customTags {
		name := strings.Fields(tag)
		if len(name) == 0 {
			continue
		}
		c.items.add(Item{
			Kind:       KindValue,
			Label:      name[0],
			InsertText: name[0] + " ",
			Format:     FormatSnippet,
			Replace:    replace,
		})
	}
}

func (c *completion) addAll(items []Item) {
	for _, item := range items {
		c.items.add(item)
	}
}

func (c *completion) isArray(id yamlast.NodeID) bool {
	n := c.doc.Node(id)
	return n != nil && n.Kind == yamlast.KindArray
}

func (c *completion) isTopLevelResources(obj yamlast.NodeID) bool {
	return obj != yamlast.NoNode && obj == c.doc.Lookup(c.doc.Root, cfn.SectionResources)
}

// needsDash reports whether a block array item proposal must start a new
// item because the cursor line has no dash before the cursor.
func (c *completion) needsDash() bool {
	lines := c.doc.Lines()
	before := c.doc.Text[lines.LineStart(lines.LineOf(c.offset)):c.offset]
	return !strings.HasPrefix(strings.TrimSpace(before), "-")
}

func isBlank(ch byte) bool { return ch == ' ' || ch == '\t' }
