// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfnlint

import (
	"fmt"

	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/validation"
	"github.com/goccy/go-json"
)

// Finding is one entry of the JSON report.
type Finding struct {
	Level    string   `json:"Level"`
	Message  string   `json:"Message"`
	Filename string   `json:"Filename"`
	Location Location `json:"Location"`
	Rule     Rule     `json:"Rule"`
}

type Location struct {
	Start Point         `json:"Start"`
	End   Point         `json:"End"`
	Path  []interface{} `json:"Path"`
}

// Point is 1 based.
type Point struct {
	LineNumber   int `json:"LineNumber"`
	ColumnNumber int `json:"ColumnNumber"`
}

type Rule struct {
	ID               string `json:"Id"`
	Description      string `json:"Description"`
	ShortDescription string `json:"ShortDescription"`
	Source           string `json:"Source"`
}

func ParseReport(data []byte) ([]Finding, error) {
	var findings []Finding
	if len(data) == 0 {
		return nil, nil
	}
	err := json.Unmarshal(data, &findings)
	if err != nil {
		return nil, fmt.Errorf("Unmarshaling cfn-lint report: %s", err)
	}
	return findings, nil
}

func Diagnostics(text string, findings []Finding) []validation.Diagnostic {
	lines := filepos.NewLineIndex(text)

	var diags []validation.Diagnostic
	for _, f := range findings {
		start := lines.OffsetOfRune(f.Location.Start.LineNumber, f.Location.Start.ColumnNumber)
		end := lines.OffsetOfRune(f.Location.End.LineNumber, f.Location.End.ColumnNumber)

		diags = append(diags, validation.Diagnostic{
			Severity: severityOf(f.Level),
			Message:  f.Message,
			Range:    filepos.NewRange(start, end),
			Source:   Source,
			Rule:     f.Rule.ID,
		})
	}
	return diags
}

func severityOf(level string) validation.Severity {
	switch level {
	case "Error":
		return validation.SeverityError
	case "Warning":
		return validation.SeverityWarning
	case "Informational", "Info":
		return validation.SeverityInformation
	default:
		return validation.SeverityHint
	}
}
