// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"fmt"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/yamlast"
)

const (
	ProviderDefault = "default"
	ProviderCfnLint = "cfn-lint"
)

// Input is what a Provider validates. Plan is never nil; its Schema is nil
// when no schema is known.
type Input struct {
	URI  string
	Doc  *yamlast.Document
	Plan *cfn.Plan
}

type Provider interface {
	Validate(ctx context.Context, in Input) ([]Diagnostic, error)
}

// Linter checks template text out of process.
type Linter interface {
	Lint(ctx context.Context, uri, text string) ([]Diagnostic, error)
}

type LinterProvider struct {
	Linter Linter
}

var _ Provider = LinterProvider{}

func (p LinterProvider) Validate(ctx context.Context, in Input) ([]Diagnostic, error) {
	if p.Linter == nil {
		return nil, fmt.Errorf("Expected linter to be configured")
	}
	return p.Linter.Lint(ctx, in.URI, in.Doc.Text)
}

// SelectProvider maps a configured provider name to a Provider.
func SelectProvider(name string, linter Linter) (Provider, error) {
	switch name {
	case "", ProviderDefault:
		return StructuralProvider{}, nil
	case ProviderCfnLint:
		if linter == nil {
			return nil, fmt.Errorf("Expected linter for validation provider '%s'", name)
		}
		return LinterProvider{Linter: linter}, nil
	default:
		return nil, fmt.Errorf("Unknown validation provider '%s' (expected '%s' or '%s')",
			name, ProviderDefault, ProviderCfnLint)
	}
}
