// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"carvel.dev/cfnls/pkg/cmd/ui"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestTTYColors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	plain := ui.NewCustomWriterTTY(false, &stdout, &stderr, false)
	assert.Equal(t, "error", plain.Colorize(ui.StyleError, "error"))

	colored := ui.NewCustomWriterTTY(false, &stdout, &stderr, true)
	expected := color.New(color.FgRed, color.Bold)
	expected.EnableColor()
	assert.Equal(t, expected.Sprint("error"), colored.Colorize(ui.StyleError, "error"))
	assert.True(t, strings.HasPrefix(colored.Colorize(ui.StyleError, "error"), "\x1b[31;1merror"))

	assert.False(t, ui.IsTerminal(&stdout))
}

func TestTTYDebug(t *testing.T) {
	var stdout, stderr bytes.Buffer

	ui.NewCustomWriterTTY(false, &stdout, &stderr, false).Debugf("hidden\n")
	assert.Empty(t, stderr.String())

	tty := ui.NewCustomWriterTTY(true, &stdout, &stderr, false)
	tty.Debugf("shown\n")
	tty.Printf("out\n")
	assert.Equal(t, "shown\n", stderr.String())
	assert.Equal(t, "out\n", stdout.String())
}
