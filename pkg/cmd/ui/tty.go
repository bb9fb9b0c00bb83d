// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Style int

const (
	StyleError Style = iota
	StyleWarning
	StyleInfo
	StyleHint
	StyleLocation
	StyleFaint
)

type TTY struct {
	debug  bool
	stdout io.Writer
	stderr io.Writer
	styles map[Style]*color.Color
}

var _ UI = TTY{}

// NewTTY colours output only when stdout is a terminal.
func NewTTY(debug bool) TTY {
	return NewCustomWriterTTY(debug, os.Stdout, os.Stderr, IsTerminal(os.Stdout))
}

// Used for testing whether TTY writes correct output to stdout/stderr
func NewCustomWriterTTY(debug bool, stdout, stderr io.Writer, colored bool) TTY {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	styles := map[Style]*color.Color{
		StyleError:    color.New(color.FgRed, color.Bold),
		StyleWarning:  color.New(color.FgYellow, color.Bold),
		StyleInfo:     color.New(color.FgBlue),
		StyleHint:     color.New(color.FgCyan),
		StyleLocation: color.New(color.Bold),
		StyleFaint:    color.New(color.Faint),
	}
	for _, c := range styles {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return TTY{debug, stdout, stderr, styles}
}

func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (t TTY) Printf(str string, args ...interface{}) {
	fmt.Fprintf(t.stdout, str, args...)
}

func (t TTY) Warnf(str string, args ...interface{}) {
	fmt.Fprintf(t.stderr, str, args...)
}

func (t TTY) Debugf(str string, args ...interface{}) {
	if t.debug {
		fmt.Fprintf(t.stderr, str, args...)
	}
}

func (t TTY) DebugWriter() io.Writer {
	if t.debug {
		return t.stderr
	}
	return noopWriter{}
}

func (t TTY) Colorize(style Style, s string) string {
	c, found := t.styles[style]
	if !found {
		return s
	}
	return c.Sprint(s)
}

type noopWriter struct{}

var _ io.Writer = noopWriter{}

func (w noopWriter) Write(data []byte) (int, error) { return len(data), nil }
