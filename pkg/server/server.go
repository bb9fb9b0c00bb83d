// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"io"
	"sync"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/completion"
	"carvel.dev/cfnls/pkg/config"
	"carvel.dev/cfnls/pkg/schemastore"
	"carvel.dev/cfnls/pkg/validation"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

const Name = "cfnls"

// Notifier sends notifications to the client; jsonrpc2.Conn is one.
type Notifier interface {
	Notify(ctx context.Context, method string, params interface{}) error
}

type Opts struct {
	Settings config.Settings
	Logger   *zap.Logger
	// Linter replaces the cfn-lint adapter built from Settings
	Linter validation.Linter
}

type Server struct {
	logger   *zap.Logger
	docs     *DocumentStore
	schemas  *schemastore.Store
	adapter  *cfn.Adapter
	pipeline *validation.Pipeline
	reporter *validation.Reporter

	mu       sync.RWMutex
	settings config.Settings
	engine   *completion.Engine
	notifier Notifier
	shutdown bool
	exited   bool
	exit     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewServer(opts Opts) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	err := opts.Settings.Validate()
	if err != nil {
		return nil, err
	}

	provider, err := opts.Settings.NewProvider(opts.Linter, logger.Named("cfn-lint"))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger:   logger,
		docs:     NewDocumentStore(),
		schemas:  schemastore.NewStore(opts.Settings.SchemaPath, logger.Named("schemas")),
		adapter:  cfn.NewAdapter(),
		settings: opts.Settings,
		exit:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.reporter = validation.NewReporter(validation.PublisherFunc(s.publish), s.docs.Version, logger.Named("reporter"))
	s.pipeline = validation.NewPipeline(validation.PipelineOpts{
		Provider: provider,
		Adapter:  s.adapter,
		Reporter: s.reporter,
		Logger:   logger.Named("validation"),
	})
	s.engine = s.newEngine(opts.Settings)

	return s, nil
}

func (s *Server) newEngine(settings config.Settings) *completion.Engine {
	opts := settings.CompletionOpts()
	opts.Adapter = s.adapter
	opts.Contributions = []completion.Contribution{completion.ReferenceContribution{Documents: s.docs}}
	opts.Logger = s.logger.Named("completion")
	return completion.NewEngine(opts)
}

// Serve handles requests from rwc until the stream ends or exit is received.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.SetNotifier(conn)
	conn.Go(ctx, s.Handler())

	// the reader may stay blocked on a stream that is never closed
	select {
	case <-conn.Done():
	case <-s.exit:
		conn.Close()
	case <-ctx.Done():
		conn.Close()
	}

	s.stop()

	s.mu.RLock()
	exited := s.exited
	s.mu.RUnlock()
	if exited {
		return nil
	}
	return conn.Err()
}

func (s *Server) SetNotifier(notifier Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = notifier
}

// Wait blocks until scheduled validations have finished.
func (s *Server) Wait() { s.wg.Wait() }

func (s *Server) stop() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Server) currentEngine() *completion.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *Server) notify(ctx context.Context, method string, params interface{}) error {
	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()

	if notifier == nil {
		return nil
	}
	return notifier.Notify(ctx, method, params)
}

// validateAsync schedules validation of doc. Results for versions that were
// superseded in the meantime are dropped by the reporter.
func (s *Server) validateAsync(doc *Document) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.shutdown {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pipeline.Validate(s.ctx, validation.Request{
			URI:     doc.URI,
			Version: doc.Version,
			Doc:     doc.Parsed,
			Schema:  s.schemas.Get(s.ctx),
		})
	}()
}

func (s *Server) publish(ctx context.Context, uri string, version int32, diags []validation.Diagnostic) error {
	doc, found := s.docs.Get(uri)
	if !found || doc.Version != version {
		return fmt.Errorf("Expected document '%s' to be at version %d", uri, version)
	}

	return s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Version:     uint32(version),
		Diagnostics: toDiagnostics(doc.Lines(), diags),
	})
}

func (s *Server) clearDiagnostics(ctx context.Context, uri string) error {
	return s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Diagnostics: []protocol.Diagnostic{},
	})
}
