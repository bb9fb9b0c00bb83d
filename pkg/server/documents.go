// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"sync"

	"carvel.dev/cfnls/pkg/completion"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/yamlast"
	"go.lsp.dev/protocol"
)

// Document is an immutable snapshot of an open document.
type Document struct {
	URI     string
	Version int32
	Text    string
	Parsed  *yamlast.Document
}

func (d *Document) Lines() *filepos.LineIndex { return d.Parsed.Lines() }

// Change replaces Range, or the whole text when Range is nil.
type Change struct {
	Range *protocol.Range `json:"range,omitempty"`
	Text  string          `json:"text"`
}

type DocumentStore struct {
	parser *yamlast.Parser

	mu   sync.RWMutex
	docs map[string]*Document
}

var _ completion.Documents = &DocumentStore{}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		parser: yamlast.NewParser(yamlast.ParserOpts{}),
		docs:   map[string]*Document{},
	}
}

func (ds *DocumentStore) Open(uri string, version int32, text string) *Document {
	doc := &Document{URI: uri, Version: version, Text: text, Parsed: ds.parser.Parse(text)}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[uri] = doc
	return doc
}

// Change applies changes in order on top of the current text.
func (ds *DocumentStore) Change(uri string, version int32, changes []Change) (*Document, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	current, found := ds.docs[uri]
	if !found {
		return nil, fmt.Errorf("Expected document '%s' to be open", uri)
	}
	if version <= current.Version {
		return nil, fmt.Errorf("Expected version of '%s' to be newer than %d, but was %d", uri, current.Version, version)
	}

	text := current.Text
	for _, change := range changes {
		text = applyChange(text, change)
	}

	doc := &Document{URI: uri, Version: version, Text: text, Parsed: ds.parser.Parse(text)}
	ds.docs[uri] = doc
	return doc, nil
}

func applyChange(text string, change Change) string {
	if change.Range == nil {
		return change.Text
	}
	lines := filepos.NewLineIndex(text)
	start := lines.Offset(int(change.Range.Start.Line), int(change.Range.Start.Character))
	end := lines.Offset(int(change.Range.End.Line), int(change.Range.End.Character))
	if end < start {
		start, end = end, start
	}
	return text[:start] + change.Text + text[end:]
}

func (ds *DocumentStore) Close(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, uri)
}

func (ds *DocumentStore) Get(uri string) (*Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	doc, found := ds.docs[uri]
	return doc, found
}

func (ds *DocumentStore) URIs() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	var uris []string
	for uri := range ds.docs {
		uris = append(uris, uri)
	}
	return uris
}

// Version satisfies validation.VersionFunc.
func (ds *DocumentStore) Version(uri string) (int32, bool) {
	doc, found := ds.Get(uri)
	if !found {
		return 0, false
	}
	return doc.Version, true
}

// Document satisfies completion.Documents.
func (ds *DocumentStore) Document(uri string) (*yamlast.Document, bool) {
	doc, found := ds.Get(uri)
	if !found {
		return nil, false
	}
	return doc.Parsed, true
}
