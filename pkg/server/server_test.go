// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"carvel.dev/cfnls/pkg/config"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/server"
	"carvel.dev/cfnls/pkg/validation"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

const template = `Resources:
  Topic:
    Type: AWS::SNS::Topic
    DependsOn: Queue
`

type client struct {
	t           *testing.T
	conn        jsonrpc2.Conn
	diagnostics chan protocol.PublishDiagnosticsParams
	served      chan error
}

func start(t *testing.T, opts server.Opts) *client {
	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	serverSide, clientSide := net.Pipe()
	c := &client{
		t:           t,
		conn:        jsonrpc2.NewConn(jsonrpc2.NewStream(clientSide)),
		diagnostics: make(chan protocol.PublishDiagnosticsParams, 32),
		served:      make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		c.conn.Close()
	})

	go func() { c.served <- srv.Serve(ctx, serverSide) }()

	c.conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() == protocol.MethodTextDocumentPublishDiagnostics {
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			c.diagnostics <- params
		}
		return reply(ctx, nil, nil)
	})
	return c
}

func (c *client) call(method string, params, result interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.conn.Call(ctx, method, params, result)
	return err
}

func (c *client) notify(method string, params interface{}) {
	require.NoError(c.t, c.conn.Notify(context.Background(), method, params))
}

// waitDiagnostics skips publications for other versions.
func (c *client) waitDiagnostics(docURI protocol.DocumentURI, version uint32) protocol.PublishDiagnosticsParams {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case params := <-c.diagnostics:
			if params.URI == docURI && params.Version == version {
				return params
			}
		case <-timeout:
			c.t.Fatalf("Expected diagnostics for %s at version %d", docURI, version)
		}
	}
}

func TestLifecycle(t *testing.T) {
	c := start(t, server.Opts{Settings: config.NewDefaultSettings()})
	docURI := uri.File("/tmp/template.yaml")

	var initResult protocol.InitializeResult
	require.NoError(t, c.call(protocol.MethodInitialize, &protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{Name: "test"},
	}, &initResult))
	assert.Equal(t, "cfnls", initResult.ServerInfo.Name)
	require.NotNil(t, initResult.Capabilities.CompletionProvider)

	c.notify(protocol.MethodInitialized, &protocol.InitializedParams{})
	c.notify(protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "yaml", Version: 1, Text: template},
	})

	published := c.waitDiagnostics(docURI, 1)
	require.Len(t, published.Diagnostics, 1)
	diag := published.Diagnostics[0]
	assert.Equal(t, "cfnls-unresolved-reference", diag.Code)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 3, Character: 15},
		End:   protocol.Position{Line: 3, Character: 20},
	}, diag.Range)

	// DependsOn values are completed from declared resources
	var list protocol.CompletionList
	require.NoError(t, c.call(protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     protocol.Position{Line: 3, Character: 20},
		},
	}, &list))

	c.notify(protocol.MethodTextDocumentDidChange, map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": docURI, "version": 2},
		"contentChanges": []map[string]interface{}{{
			"range": protocol.Range{
				Start: protocol.Position{Line: 4, Character: 0},
				End:   protocol.Position{Line: 4, Character: 0},
			},
			"text": "  Queue:\n    Type: AWS::SQS::Queue\n",
		}},
	})
	assert.Empty(t, c.waitDiagnostics(docURI, 2).Diagnostics)

	require.NoError(t, c.call(protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     protocol.Position{Line: 3, Character: 20},
		},
	}, &list))

	var queue *protocol.CompletionItem
	for i, item := range list.Items {
		if item.Label == "Queue" {
			queue = &list.Items[i]
		}
	}
	require.NotNil(t, queue, "items: %v", list.Items)
	require.NotNil(t, queue.TextEdit)
	assert.Equal(t, protocol.Position{Line: 3, Character: 15}, queue.TextEdit.Range.Start)

	c.notify(protocol.MethodTextDocumentDidClose, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	assert.Empty(t, c.waitDiagnostics(docURI, 0).Diagnostics)

	err := c.call("textDocument/hover", &protocol.HoverParams{}, nil)
	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr), "error: %v", err)
	assert.Equal(t, jsonrpc2.MethodNotFound, rpcErr.Code)

	require.NoError(t, c.call(protocol.MethodShutdown, nil, nil))
	require.Error(t, c.call(protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{}, nil))

	c.notify(protocol.MethodExit, nil)
	select {
	case err := <-c.served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected server to stop after exit")
	}
}

func TestCompletionForUnknownDocument(t *testing.T) {
	c := start(t, server.Opts{Settings: config.NewDefaultSettings()})

	var list protocol.CompletionList
	require.NoError(t, c.call(protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri.File("/tmp/unknown.yaml")},
		},
	}, &list))
	assert.Empty(t, list.Items)
}

type staticLinter []validation.Diagnostic

func (l staticLinter) Lint(context.Context, string, string) ([]validation.Diagnostic, error) {
	return l, nil
}

func TestLinterProviderFromSettings(t *testing.T) {
	settings := config.NewDefaultSettings()
	settings.ValidationProvider = validation.ProviderCfnLint

	c := start(t, server.Opts{
		Settings: settings,
		Linter: staticLinter{{
			Severity: validation.SeverityWarning,
			Message:  "W2001 Parameter not used",
			Range:    filepos.NewRange(0, 9),
			Source:   "cfn-lint",
			Rule:     "W2001",
		}},
	})
	docURI := uri.File("/tmp/linted.yaml")

	c.notify(protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, Version: 1, Text: "Resources:\n  Topic:\n    Type: AWS::SNS::Topic\n"},
	})

	published := c.waitDiagnostics(docURI, 1)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, "W2001", published.Diagnostics[0].Code)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, published.Diagnostics[0].Severity)
	assert.Equal(t, "cfn-lint", published.Diagnostics[0].Source)
}

func TestCustomTagsFromClient(t *testing.T) {
	c := start(t, server.Opts{Settings: config.NewDefaultSettings()})
	docURI := uri.File("/tmp/tags.yaml")

	c.notify(protocol.MethodWorkspaceDidChangeConfiguration, map[string]interface{}{
		"settings": map[string]interface{}{
			"cfnls": map[string]interface{}{"customTags": []string{"!Custom scalar"}},
		},
	})
	c.notify(protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, Version: 1, Text: "Description: \n"},
	})

	var list protocol.CompletionList
	require.NoError(t, c.call(protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     protocol.Position{Line: 0, Character: 13},
		},
	}, &list))

	var labels []string
	for _, item := range list.Items {
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "!Custom")
	assert.NotContains(t, labels, "!Ref")
}

func TestInvalidSettings(t *testing.T) {
	settings := config.NewDefaultSettings()
	settings.ValidationProvider = "eslint"

	_, err := server.NewServer(server.Opts{Settings: settings})
	require.Error(t, err)
}
