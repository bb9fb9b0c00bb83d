// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"fmt"
	"sort"

	"carvel.dev/cfnls/pkg/filepos"
)

// Severity values match the LSP DiagnosticSeverity numbering.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

const (
	SourceStructural = "cfnls"

	RuleEmptyDocument      = "cfnls-empty-document"
	RuleSyntax             = "cfnls-syntax"
	RuleRequiredProperty   = "cfnls-required-property"
	RuleOneOf              = "cfnls-one-of"
	RuleAnyOf              = "cfnls-any-of"
	RuleTypeMismatch       = "cfnls-type-mismatch"
	RuleEnum               = "cfnls-enum"
	RuleAdditionalProperty = "cfnls-additional-property"
	RuleUnknownType        = "cfnls-unknown-resource-type"
	RuleDuplicateKey       = "cfnls-duplicate-key"
)

// Diagnostic ranges are byte offsets into the validated text.
type Diagnostic struct {
	Severity Severity
	Message  string
	Range    filepos.Range
	Source   string
	Rule     string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s (%s)", d.Range, d.Severity, d.Message, d.Rule)
}

// SortDiagnostics orders by position, then by message so that output is
// stable regardless of which provider finished first.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Range.Start != b.Range.Start {
			return a.Range.Start < b.Range.Start
		}
		if a.Range.End != b.Range.End {
			return a.Range.End < b.Range.End
		}
		if a.Message != b.Message {
			return a.Message < b.Message
		}
		return a.Rule < b.Rule
	})
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
