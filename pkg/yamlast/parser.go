// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlast

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"carvel.dev/cfnls/pkg/filepos"
	"gopkg.in/yaml.v3"
)

var (
	// eg "yaml: line 2: found character that cannot start any token"
	lineErrRegexp = regexp.MustCompile(`^(?P<prefix>yaml: line )(?P<num>\d+)(?P<suffix>: .+)$`)
)

const defaultMaxRecoveries = 8

type ParserOpts struct {
	// MaxRecoveries bounds how many broken lines are blanked before giving up
	MaxRecoveries int
}

type Parser struct {
	opts ParserOpts
}

func NewParser(opts ParserOpts) *Parser {
	if opts.MaxRecoveries <= 0 {
		opts.MaxRecoveries = defaultMaxRecoveries
	}
	return &Parser{opts}
}

// Parse is a shorthand for parsing with default options.
func Parse(text string) *Document {
	return NewParser(ParserOpts{}).Parse(text)
}

// Parse never fails: syntax errors are collected on the Document and the
// tree covers whatever could be recovered. Only the first document of a
// multi-document stream is used.
func (p *Parser) Parse(text string) *Document {
	doc := &Document{Text: text, Root: NoNode, lines: filepos.NewLineIndex(text)}

	work := []byte(text)
	for attempt := 0; ; attempt++ {
		var root yaml.Node
		err := yaml.Unmarshal(work, &root)
		if err == nil {
			b := &builder{text: string(work), lines: filepos.NewLineIndex(string(work))}
			doc.Root = b.build(&root, NoNode)
			doc.nodes = b.nodes
			doc.Duplicates = b.duplicates
			if doc.Root != NoNode {
				doc.Raw = root.Content[0]
			}
			return doc
		}

		line, msg := p.lineOfErr(err)
		synErr := SyntaxError{Line: line, Message: msg}
		if line > 0 {
			synErr.Range = filepos.NewRange(doc.lines.LineStart(line-1), doc.lines.LineEnd(line-1))
		}
		doc.Errors = append(doc.Errors, synErr)

		if line == 0 || attempt >= p.opts.MaxRecoveries || !blankLine(work, doc.lines, line-1) {
			return doc
		}
	}
}

func (p *Parser) lineOfErr(err error) (int, string) {
	msg := err.Error()
	submatches := lineErrRegexp.FindAllStringSubmatch(msg, -1)
	if len(submatches) != 1 || len(submatches[0]) != 4 {
		return 0, strings.TrimPrefix(msg, "yaml: ")
	}
	line, parseErr := strconv.Atoi(submatches[0][2])
	if parseErr != nil {
		return 0, msg
	}
	return line, strings.TrimPrefix(submatches[0][3], ": ")
}

// blankLine replaces the content of a 0 based line with spaces so offsets
// of the remaining text stay the same. Returns false if nothing changed.
func blankLine(work []byte, lines *filepos.LineIndex, line int) bool {
	changed := false
	for i := lines.LineStart(line); i < lines.LineEnd(line); i++ {
		if work[i] != ' ' {
			work[i] = ' '
			changed = true
		}
	}
	return changed
}

type builder struct {
	text       string
	lines      *filepos.LineIndex
	nodes      []Node
	flow       int
	duplicates []NodeID
}

func (b *builder) add(n Node) NodeID {
	n.Key, n.Value = NoNode, NoNode
	b.nodes = append(b.nodes, n)
	return NodeID(len(b.nodes) - 1)
}

func (b *builder) offsetOf(y *yaml.Node) int {
	return b.lines.OffsetOfRune(y.Line, y.Column)
}

func (b *builder) build(y *yaml.Node, parent NodeID) NodeID {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NoNode
		}
		return b.build(y.Content[0], parent)

	case yaml.MappingNode:
		return b.buildMapping(y, parent)

	case yaml.SequenceNode:
		return b.buildSequence(y, parent)

	case yaml.ScalarNode:
		return b.buildScalar(y, parent)

	case yaml.AliasNode:
		start := b.offsetOf(y)
		return b.add(Node{Kind: KindString, Start: start, End: start + 1 + len(y.Value),
			Parent: parent, Str: "*" + y.Value})

	default:
		return NoNode
	}
}

func (b *builder) buildMapping(y *yaml.Node, parent NodeID) NodeID {
	flow := y.Style&yaml.FlowStyle != 0
	start := b.offsetOf(y)
	id := b.add(Node{Kind: KindObject, Start: start, End: start, Parent: parent,
		Tag: customTag(y), Flow: flow})

	if flow {
		b.flow++
		defer func() { b.flow-- }()
	}

	var children []NodeID
	end := start
	seen := map[string]bool{}
	for i := 0; i+1 < len(y.Content); i += 2 {
		prop := b.buildProperty(y.Content[i], y.Content[i+1], id)
		children = append(children, prop)
		end = maxInt(end, b.nodes[prop].End)

		// yaml.v3 only rejects duplicates when decoding into Go values
		if k := y.Content[i]; k.Kind == yaml.ScalarNode {
			if seen[k.Value] {
				b.duplicates = append(b.duplicates, prop)
			}
			seen[k.Value] = true
		}
	}

	if flow {
		end = maxInt(end, b.flowEnd(start))
	}
	b.nodes[id].Children = children
	b.nodes[id].End = end
	return id
}

func (b *builder) buildProperty(k, v *yaml.Node, parent NodeID) NodeID {
	id := b.add(Node{Kind: KindProperty, Parent: parent})

	key := b.build(k, id)
	keyEnd := b.nodes[key].End
	colon := b.findColon(keyEnd)

	var value NodeID
	if isImplicitNull(v) {
		value = b.implicitNull(colon+1, id)
	} else {
		value = b.build(v, id)
	}

	n := &b.nodes[id]
	n.Key = key
	n.Value = value
	n.ColonOffset = colon
	n.Start = b.nodes[key].Start
	n.End = maxInt(b.nodes[value].End, colon+1)
	return id
}

func (b *builder) buildSequence(y *yaml.Node, parent NodeID) NodeID {
	flow := y.Style&yaml.FlowStyle != 0
	start := b.offsetOf(y)
	id := b.add(Node{Kind: KindArray, Start: start, End: start, Parent: parent,
		Tag: customTag(y), Flow: flow})

	if flow {
		b.flow++
		defer func() { b.flow-- }()
	}

	var children []NodeID
	end := start
	cursor := skipTagPrefix(b.text, start)
	for _, item := range y.Content {
		var child NodeID
		if isImplicitNull(item) {
			dash := b.findDash(cursor)
			child = b.implicitNull(dash+1, id)
		} else {
			child = b.build(item, id)
		}
		children = append(children, child)
		end = maxInt(end, b.nodes[child].End)
		cursor = b.nodes[child].End
	}

	if flow {
		end = maxInt(end, b.flowEnd(start))
	}
	b.nodes[id].Children = children
	b.nodes[id].End = end
	return id
}

func (b *builder) buildScalar(y *yaml.Node, parent NodeID) NodeID {
	start := b.offsetOf(y)
	n := Node{Start: start, Parent: parent, Tag: customTag(y), Str: y.Value}

	switch {
	case n.Tag != "":
		n.Kind = KindString
	case y.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		n.Kind = KindString
	default:
		switch y.ShortTag() {
		case "!!int", "!!float":
			n.Kind = KindNumber
			n.Num, n.Integer = parseNumber(y.Value)
		case "!!bool":
			n.Kind = KindBoolean
			n.Bool = strings.EqualFold(y.Value, "true")
		case "!!null":
			n.Kind = KindNull
		default:
			n.Kind = KindString
		}
	}

	n.End = b.scalarEnd(y, start)
	return b.add(n)
}

// implicitNull spans from right after the indicator to the end of the line
// so a cursor anywhere after "Foo:" addresses the missing value.
func (b *builder) implicitNull(start int, parent NodeID) NodeID {
	end := start
	if b.flow == 0 {
		end = maxInt(start, lineEndBeforeComment(b.text, b.lines, start))
	}
	return b.add(Node{Kind: KindNull, Start: start, End: end, Parent: parent, Implicit: true})
}

func isImplicitNull(y *yaml.Node) bool {
	return y.Kind == yaml.ScalarNode && y.Value == "" && y.Style == 0 &&
		(y.Tag == "" || y.Tag == "!!null")
}

func customTag(y *yaml.Node) string {
	if strings.HasPrefix(y.Tag, "!") && !strings.HasPrefix(y.Tag, "!!") {
		return y.Tag
	}
	return ""
}

func parseNumber(val string) (float64, bool) {
	trimmed := strings.TrimPrefix(val, "+")
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return float64(i), true
	}
	if i, err := strconv.ParseInt(trimmed, 0, 64); err == nil {
		return float64(i), true
	}
	switch strings.ToLower(val) {
	case ".inf", "+.inf":
		return math.Inf(1), false
	case "-.inf":
		return math.Inf(-1), false
	case ".nan":
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, f == math.Trunc(f) && !math.IsInf(f, 0)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
