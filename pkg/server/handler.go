// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"

	"carvel.dev/cfnls/pkg/completion"
	"carvel.dev/cfnls/pkg/version"
	"github.com/goccy/go-json"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

var (
	errShutdown = jsonrpc2.NewError(jsonrpc2.InvalidRequest, "Server is shutting down")
)

// Handler dispatches on the request method. Requests are handled in order;
// only validation runs in the background.
func (s *Server) Handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("received", zap.String("method", req.Method()))

		if s.isShutdown() && req.Method() != protocol.MethodExit {
			return reply(ctx, nil, errShutdown)
		}

		switch req.Method() {
		case protocol.MethodInitialize:
			var params protocol.InitializeParams
			if err := decode(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, s.initialize(&params), nil)

		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)

		case protocol.MethodShutdown:
			s.stop()
			return reply(ctx, nil, nil)

		case protocol.MethodExit:
			s.mu.Lock()
			if !s.exited {
				s.exited = true
				close(s.exit)
			}
			s.mu.Unlock()
			return reply(ctx, nil, nil)

		case protocol.MethodTextDocumentDidOpen:
			var params protocol.DidOpenTextDocumentParams
			if err := decode(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			s.didOpen(&params)
			return reply(ctx, nil, nil)

		case protocol.MethodTextDocumentDidChange:
			var params didChangeParams
			if err := decode(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.didChange(&params))

		case protocol.MethodTextDocumentDidClose:
			var params protocol.DidCloseTextDocumentParams
			if err := decode(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.didClose(ctx, &params))

		case protocol.MethodTextDocumentCompletion:
			var params protocol.CompletionParams
			if err := decode(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.completion(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodWorkspaceDidChangeConfiguration:
			var params didChangeConfigurationParams
			if err := decode(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			s.didChangeConfiguration(&params)
			return reply(ctx, nil, nil)

		default:
			return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
		}
	}
}

func decode(req jsonrpc2.Request, v interface{}) error {
	err := json.Unmarshal(req.Params(), v)
	if err != nil {
		return fmt.Errorf("Decoding %s params: %s: %w", req.Method(), err, jsonrpc2.ErrInvalidParams)
	}
	return nil
}

func (s *Server) isShutdown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdown
}

func (s *Server) initialize(params *protocol.InitializeParams) *protocol.InitializeResult {
	if params.ClientInfo != nil {
		s.logger.Info("initializing", zap.String("client", params.ClientInfo.Name),
			zap.String("clientVersion", params.ClientInfo.Version))
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{" ", ":", "-", "!"},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    Name,
			Version: version.Version,
		},
	}
}

func (s *Server) didOpen(params *protocol.DidOpenTextDocumentParams) {
	doc := s.docs.Open(string(params.TextDocument.URI), params.TextDocument.Version, params.TextDocument.Text)
	s.logger.Debug("opened", zap.String("uri", doc.URI), zap.Int32("version", doc.Version))
	s.validateAsync(doc)
}

// didChangeParams keeps Range optional so full and incremental changes can
// be told apart.
type didChangeParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []Change                                 `json:"contentChanges"`
}

func (s *Server) didChange(params *didChangeParams) error {
	doc, err := s.docs.Change(string(params.TextDocument.URI), params.TextDocument.Version, params.ContentChanges)
	if err != nil {
		s.logger.Warn("applying change", zap.Error(err))
		return err
	}
	s.validateAsync(doc)
	return nil
}

func (s *Server) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.docs.Close(uri)
	s.reporter.Forget(uri)
	return s.clearDiagnostics(ctx, uri)
}

func (s *Server) completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	list := &protocol.CompletionList{Items: []protocol.CompletionItem{}}

	doc, found := s.docs.Get(string(params.TextDocument.URI))
	if !found {
		return list, nil
	}

	items, err := s.currentEngine().Complete(ctx, completion.Request{
		URI:    doc.URI,
		Doc:    doc.Parsed,
		Offset: toOffset(doc.Lines(), params.Position),
		Schema: s.schemas.Get(ctx),
	})
	if err != nil {
		return nil, err
	}

	list.Items = toCompletionItems(doc.Lines(), items)
	return list, nil
}

type didChangeConfigurationParams struct {
	Settings struct {
		CfnLs *clientSettings `json:"cfnls"`
	} `json:"settings"`
}

type clientSettings struct {
	CustomTags         []string `json:"customTags"`
	ValidationProvider string   `json:"validationProvider"`
}

// didChangeConfiguration applies client settings. The validation provider
// is fixed at startup.
func (s *Server) didChangeConfiguration(params *didChangeConfigurationParams) {
	client := params.Settings.CfnLs
	if client == nil {
		return
	}

	s.mu.Lock()
	settings := s.settings
	if client.ValidationProvider != "" && client.ValidationProvider != settings.ValidationProvider {
		s.logger.Warn("validation provider can only be set at startup",
			zap.String("requested", client.ValidationProvider), zap.String("current", settings.ValidationProvider))
	}
	if client.CustomTags != nil {
		settings.CustomTags = client.CustomTags
	}
	if err := settings.Validate(); err != nil {
		s.mu.Unlock()
		s.logger.Warn("ignoring client settings", zap.Error(err))
		return
	}
	s.settings = settings
	s.engine = s.newEngine(settings)
	s.mu.Unlock()

	for _, uri := range s.docs.URIs() {
		if doc, found := s.docs.Get(uri); found {
			s.validateAsync(doc)
		}
	}
}
