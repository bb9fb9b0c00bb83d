// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"carvel.dev/cfnls/pkg/cmd/ui"
	"carvel.dev/cfnls/pkg/completion"
	"carvel.dev/cfnls/pkg/files"
	"carvel.dev/cfnls/pkg/schemastore"
	"carvel.dev/cfnls/pkg/yamlast"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

type CompleteOptions struct {
	CommonFlags

	File      string
	Line      int
	Character int
	Output    string

	ui ui.UI
}

func NewCompleteOptions() *CompleteOptions {
	return &CompleteOptions{}
}

func NewCompleteCmd(o *CompleteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Print completion proposals for a position in a template",
		Example: `
  # Proposals for line 12, character 7 (both 1 based)
  cfnls complete -f template.yaml --line 12 --character 7`,
		RunE: func(c *cobra.Command, _ []string) error { return o.Run(c.Context()) },
	}
	o.CommonFlags.Set(cmd)
	cmd.Flags().StringVarP(&o.File, "file", "f", "", "File (ie local path, HTTP URL, -)")
	cmd.Flags().IntVar(&o.Line, "line", 1, "Line of the cursor (1 based)")
	cmd.Flags().IntVar(&o.Character, "character", 1, "Character of the cursor within the line (1 based, UTF-16)")
	cmd.Flags().StringVarP(&o.Output, "output", "o", OutputText, "Output format (text, json)")
	return cmd
}

type itemReport struct {
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail,omitempty"`
	InsertText string `json:"insertText"`
	Snippet    bool   `json:"snippet"`
	Replace    [2]int `json:"replace"`
}

func (o *CompleteOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.ui == nil {
		o.ui = ui.NewTTY(o.Debug)
	}

	if o.File == "" {
		return fmt.Errorf("Expected file to be specified via --file (-f)")
	}
	if o.Line < 1 || o.Character < 1 {
		return fmt.Errorf("Expected --line and --character to be at least 1")
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

	src := files.NewSource(o.File)
	data, err := src.Bytes(ctx)
	if err != nil {
		return err
	}
	docURI, err := src.URI()
	if err != nil {
		return err
	}

	doc := yamlast.Parse(string(data))
	offset := doc.Lines().Offset(o.Line-1, o.Character-1)

	engineOpts := settings.CompletionOpts()
	engineOpts.Logger = logger.Named("completion")
	engineOpts.Contributions = []completion.Contribution{
		completion.ReferenceContribution{Documents: completion.StaticDocuments{docURI: doc}},
	}

	items, err := completion.NewEngine(engineOpts).Complete(ctx, completion.Request{
		URI:    docURI,
		Doc:    doc,
		Offset: offset,
		Schema: schemastore.NewStore(settings.SchemaPath, logger.Named("schemas")).Get(ctx),
	})
	if err != nil {
		return err
	}

	reports := []itemReport{}
	for _, item := range items {
		reports = append(reports, itemReport{
			Label:      item.Label,
			Kind:       item.Kind.String(),
			Detail:     item.Detail,
			InsertText: item.InsertText,
			Snippet:    item.Format == completion.FormatSnippet,
			Replace:    [2]int{item.Replace.Start, item.Replace.End},
		})
	}

	if o.Output == OutputJSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("Marshaling completion items: %s", err)
		}
		o.ui.Printf("%s\n", data)
		return nil
	}

	for _, item := range reports {
		insert := strings.ReplaceAll(item.InsertText, "\n", `\n`)
		o.ui.Printf("%s\t%s\t%s\n", item.Label, o.ui.Colorize(ui.StyleFaint, item.Kind), insert)
	}
	return nil
}
