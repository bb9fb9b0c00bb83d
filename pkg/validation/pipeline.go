// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"fmt"
	"sync"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/schema"
	"carvel.dev/cfnls/pkg/yamlast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseReporting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseReporting:
		return "reporting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type PipelineOpts struct {
	// Provider defaults to StructuralProvider
	Provider Provider
	Adapter  *cfn.Adapter
	// Reporter is optional; without it results are only returned
	Reporter *Reporter
	Logger   *zap.Logger
}

type Pipeline struct {
	provider Provider
	adapter  *cfn.Adapter
	reporter *Reporter
	logger   *zap.Logger

	mu     sync.Mutex
	runs   uint64
	phases map[string]runPhase
}

// runPhase is the phase of the latest run started for a document; older
// runs still in flight do not touch it.
type runPhase struct {
	run   uint64
	phase Phase
}

func NewPipeline(opts PipelineOpts) *Pipeline {
	p := &Pipeline{
		provider: opts.Provider,
		adapter:  opts.Adapter,
		reporter: opts.Reporter,
		logger:   opts.Logger,
		phases:   map[string]runPhase{},
	}
	if p.provider == nil {
		p.provider = StructuralProvider{}
	}
	if p.adapter == nil {
		p.adapter = cfn.NewAdapter()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

type Request struct {
	URI     string
	Version int32
	Doc     *yamlast.Document
	// Schema may be nil when no schema applies
	Schema *schema.Schema
}

type Result struct {
	URI         string
	Version     int32
	Diagnostics []Diagnostic
	// Delivered is false when the reporter discarded the result
	Delivered bool
}

// Phase returns the phase of the latest validation of uri.
func (p *Pipeline) Phase(uri string) Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phases[uri].phase
}

func (p *Pipeline) startRun(uri string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs++
	p.phases[uri] = runPhase{run: p.runs, phase: PhaseCollecting}
	return p.runs
}

func (p *Pipeline) setPhase(uri string, run uint64, phase Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, found := p.phases[uri]; !found || cur.run != run {
		return
	}
	if phase == PhaseIdle {
		delete(p.phases, uri)
	} else {
		p.phases[uri] = runPhase{run: run, phase: phase}
	}
}

func (p *Pipeline) Validate(ctx context.Context, req Request) Result {
	doc := req.Doc
	if doc == nil {
		doc = yamlast.Parse("")
	}

	run := p.startRun(req.URI)
	defer p.setPhase(req.URI, run, PhaseIdle)

	var diags []Diagnostic
	if doc.IsEmpty() {
		diags = []Diagnostic{{
			Severity: SeverityError,
			Message:  "Template is empty",
			Range:    filepos.NewRange(0, len(doc.Text)),
			Source:   SourceStructural,
			Rule:     RuleEmptyDocument,
		}}
	} else {
		diags = p.collect(ctx, req.URI, doc, p.adapter.Prepare(req.Schema, doc))
	}

	p.setPhase(req.URI, run, PhaseReporting)
	SortDiagnostics(diags)

	result := Result{URI: req.URI, Version: req.Version, Diagnostics: diags}
	if p.reporter != nil {
		result.Delivered = p.reporter.Report(ctx, req.URI, req.Version, diags)
	}

	p.logger.Debug("validated", zap.String("uri", req.URI), zap.Int32("version", req.Version),
		zap.Int("diagnostics", len(diags)), zap.Bool("delivered", result.Delivered))
	return result
}

// collect runs the provider next to the reference checker. A failing branch
// contributes nothing.
func (p *Pipeline) collect(ctx context.Context, uri string, doc *yamlast.Document, plan *cfn.Plan) []Diagnostic {
	var fromProvider, fromReferences []Diagnostic
	var group errgroup.Group

	group.Go(p.guard(uri, "provider", func() error {
		diags, err := p.provider.Validate(ctx, Input{URI: uri, Doc: doc, Plan: plan})
		if err != nil {
			return err
		}
		fromProvider = diags
		return nil
	}))

	group.Go(p.guard(uri, "references", func() error {
		fromReferences = referenceDiagnostics(cfn.CheckReferences(doc))
		return nil
	}))

	// errors are logged by guard
	_ = group.Wait()

	return append(fromProvider, fromReferences...)
}

func (p *Pipeline) guard(uri, branch string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("Panicked: %v", r)
				p.logger.Error("validation branch panicked", zap.String("uri", uri),
					zap.String("branch", branch), zap.Any("panic", r))
			}
		}()
		err = fn()
		if err != nil {
			p.logger.Warn("validation branch failed", zap.String("uri", uri),
				zap.String("branch", branch), zap.Error(err))
		}
		return err
	}
}

func referenceDiagnostics(problems []cfn.Problem) []Diagnostic {
	var diags []Diagnostic
	for _, problem := range problems {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  problem.Message,
			Range:    problem.Range,
			Source:   SourceStructural,
			Rule:     problem.Rule,
		})
	}
	return diags
}
