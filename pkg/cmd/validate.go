// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"carvel.dev/cfnls/pkg/cmd/ui"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/files"
	"carvel.dev/cfnls/pkg/schemastore"
	"carvel.dev/cfnls/pkg/validation"
	"carvel.dev/cfnls/pkg/yamlast"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

type ValidateOptions struct {
	CommonFlags

	Files  []string
	Output string

	ui ui.UI
}

func NewValidateOptions() *ValidateOptions {
	return &ValidateOptions{}
}

func NewValidateCmd(o *ValidateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate templates",
		Example: `
  # Check a template with the configured provider
  cfnls validate -f template.yaml

  # Check a template piped on stdin, reporting as JSON
  cat template.yaml | cfnls validate -f - -o json`,
		RunE: func(c *cobra.Command, _ []string) error { return o.Run(c.Context()) },
	}
	o.CommonFlags.Set(cmd)
	cmd.Flags().StringArrayVarP(&o.Files, "file", "f", nil, "File (ie local path, HTTP URL, -) (can be specified multiple times)")
	cmd.Flags().StringVarP(&o.Output, "output", "o", OutputText, "Output format (text, json)")
	return cmd
}

type fileReport struct {
	File        string             `json:"file"`
	URI         string             `json:"uri"`
	Diagnostics []diagnosticReport `json:"diagnostics"`
}

// diagnosticReport positions are 1 based.
type diagnosticReport struct {
	Severity  string `json:"severity"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine"`
	EndColumn int    `json:"endColumn"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	Rule      string `json:"rule"`

	position *filepos.Position
}

func (o *ValidateOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.ui == nil {
		o.ui = ui.NewTTY(o.Debug)
	}
	t1 := time.Now()

	defer func() {
		o.ui.Debugf("total: %s\n", time.Now().Sub(t1))
	}()

	if len(o.Files) == 0 {
		return fmt.Errorf("Expected at least one file to be specified via --file (-f)")
	}
	if o.Output != OutputText && o.Output != OutputJSON {
		return fmt.Errorf("Expected output format to be '%s' or '%s', but was '%s'", OutputText, OutputJSON, o.Output)
	}

	settings, err := o.Settings()
	if err != nil {
		return err
	}
	logger, err := o.Logger(zapcore.WarnLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	provider, err := settings.NewProvider(nil, logger.Named("cfn-lint"))
	if err != nil {
		return err
	}
	pipeline := validation.NewPipeline(validation.PipelineOpts{Provider: provider, Logger: logger.Named("validation")})
	schemas := schemastore.NewStore(settings.SchemaPath, logger.Named("schemas"))

	var reports []fileReport
	var errorCount, warningCount int

	for _, path := range o.Files {
		src := files.NewSource(path)
		data, err := src.Bytes(ctx)
		if err != nil {
			return err
		}
		docURI, err := src.URI()
		if err != nil {
			return err
		}

		doc := yamlast.Parse(string(data))
		result := pipeline.Validate(ctx, validation.Request{
			URI:    docURI,
			Doc:    doc,
			Schema: schemas.Get(ctx),
		})

		report := fileReport{File: path, URI: docURI, Diagnostics: []diagnosticReport{}}
		for _, diag := range result.Diagnostics {
			report.Diagnostics = append(report.Diagnostics, newDiagnosticReport(path, doc, diag))
			switch diag.Severity {
			case validation.SeverityError:
				errorCount++
			case validation.SeverityWarning:
				warningCount++
			}
		}
		reports = append(reports, report)
	}

	switch o.Output {
	case OutputJSON:
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("Marshaling report: %s", err)
		}
		o.ui.Printf("%s\n", data)
	default:
		o.printText(reports, errorCount, warningCount)
	}

	if errorCount > 0 {
		return fmt.Errorf("Validation found %d error(s)", errorCount)
	}
	return nil
}

func newDiagnosticReport(file string, doc *yamlast.Document, diag validation.Diagnostic) diagnosticReport {
	lines := doc.Lines()
	line, col := lines.LineCol(diag.Range.Start)
	endLine, endCol := lines.LineCol(diag.Range.End)
	return diagnosticReport{
		Severity:  diag.Severity.String(),
		Line:      line + 1,
		Column:    col + 1,
		EndLine:   endLine + 1,
		EndColumn: endCol + 1,
		Message:   diag.Message,
		Source:    diag.Source,
		Rule:      diag.Rule,
		position:  lines.Position(diag.Range.Start, file),
	}
}

func (o *ValidateOptions) printText(reports []fileReport, errorCount, warningCount int) {
	for _, report := range reports {
		for _, diag := range report.Diagnostics {
			o.ui.Printf("%s %s %s %s\n", o.ui.Colorize(ui.StyleLocation, diag.position.AsCompactString()+":"),
				o.ui.Colorize(severityStyle(diag.Severity), diag.Severity+":"),
				diag.Message, o.ui.Colorize(ui.StyleFaint, "["+diag.Rule+"]"))
			o.ui.Printf("%s\n", o.ui.Colorize(ui.StyleFaint, diag.position.As4DigitString()+" | "+diag.position.GetLine()))
		}
	}

	summary := fmt.Sprintf("%d file(s) checked, %d error(s), %d warning(s)", len(reports), errorCount, warningCount)
	if errorCount > 0 {
		summary = o.ui.Colorize(ui.StyleError, summary)
	}
	o.ui.Printf("\n%s\n", summary)
}

func severityStyle(severity string) ui.Style {
	switch severity {
	case validation.SeverityError.String():
		return ui.StyleError
	case validation.SeverityWarning.String():
		return ui.StyleWarning
	case validation.SeverityInformation.String():
		return ui.StyleInfo
	default:
		return ui.StyleHint
	}
}
