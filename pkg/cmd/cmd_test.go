// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carvel.dev/cfnls/pkg/cmd/ui"
	"carvel.dev/cfnls/pkg/version"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referencesTemplate = `Resources:
  Topic:
    Type: AWS::SNS::Topic
    DependsOn: Queue
`

func writeTemplate(t *testing.T, name, text string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))
	return path
}

func testUI() (ui.UI, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return ui.NewCustomWriterTTY(false, &stdout, &stderr, false), &stdout
}

func TestValidateText(t *testing.T) {
	path := writeTemplate(t, "template.yaml", referencesTemplate)
	tty, stdout := testUI()

	o := NewValidateOptions()
	o.Files = []string{path}
	o.Output = OutputText
	o.ui = tty

	err := o.Run(context.Background())
	require.EqualError(t, err, "Validation found 1 error(s)")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], path+":4:16: error: "), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "[cfnls-unresolved-reference]"), lines[0])
	assert.Equal(t, "   4 |     DependsOn: Queue", lines[1])
	assert.Equal(t, "1 file(s) checked, 1 error(s), 0 warning(s)", lines[3])
}

func TestValidateJSON(t *testing.T) {
	clean := writeTemplate(t, "clean.yaml", referencesTemplate+"  Queue:\n    Type: AWS::SQS::Queue\n")
	empty := writeTemplate(t, "empty.yaml", "")
	tty, stdout := testUI()

	o := NewValidateOptions()
	o.Files = []string{clean, empty}
	o.Output = OutputJSON
	o.ui = tty

	err := o.Run(context.Background())
	require.EqualError(t, err, "Validation found 1 error(s)")

	var reports []fileReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &reports))
	require.Len(t, reports, 2)

	assert.Equal(t, clean, reports[0].File)
	assert.Empty(t, reports[0].Diagnostics)

	require.Len(t, reports[1].Diagnostics, 1)
	assert.Equal(t, diagnosticReport{
		Severity: "error", Line: 1, Column: 1, EndLine: 1, EndColumn: 1,
		Message: "Template is empty", Source: "cfnls", Rule: "cfnls-empty-document",
	}, reports[1].Diagnostics[0])
}

func TestValidateErrors(t *testing.T) {
	o := NewValidateOptions()
	o.ui, _ = testUI()
	require.EqualError(t, o.Run(context.Background()), "Expected at least one file to be specified via --file (-f)")

	o.Files = []string{writeTemplate(t, "template.yaml", referencesTemplate)}
	o.Output = "xml"
	require.EqualError(t, o.Run(context.Background()), "Expected output format to be 'text' or 'json', but was 'xml'")

	o.Output = OutputText
	o.ConfigPath = writeTemplate(t, "cfnls.toml", "validation_provider = \"eslint\"\n")
	err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected validation_provider to be 'default' or 'cfn-lint', but was 'eslint'")
}

func TestComplete(t *testing.T) {
	path := writeTemplate(t, "template.yaml", "Resources:\n  Bucket:\n    Type: AWS::S3\n")
	tty, stdout := testUI()

	o := NewCompleteOptions()
	o.File = path
	o.Line = 3
	o.Character = 18
	o.Output = OutputJSON
	o.ui = tty

	require.NoError(t, o.Run(context.Background()))

	var items []itemReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &items))

	var labels []string
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "AWS::S3::Bucket")
	assert.NotContains(t, labels, "AWS::Serverless::Function")

	o.Line = 0
	require.EqualError(t, o.Run(context.Background()), "Expected --line and --character to be at least 1")
}

func TestConfig(t *testing.T) {
	tty, stdout := testUI()

	o := NewConfigOptions()
	o.ConfigPath = writeTemplate(t, "cfnls.toml", "completion_timeout = \"1s\"\n")
	o.ui = tty

	require.NoError(t, o.Run())
	assert.Contains(t, stdout.String(), `validation_provider = "default"`)
	assert.Contains(t, stdout.String(), `completion_timeout = "1s"`)
	assert.Contains(t, stdout.String(), "[linter]")
}

func TestVersion(t *testing.T) {
	tty, stdout := testUI()

	o := NewVersionOptions()
	o.ui = tty

	require.NoError(t, o.Run())
	assert.Equal(t, "cfnls version "+version.Version+"\n", stdout.String())
}

func TestCommandTree(t *testing.T) {
	cmd := NewDefaultCfnlsCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"serve", "validate", "complete", "config", "version"} {
		assert.Contains(t, names, expected)
	}
}
