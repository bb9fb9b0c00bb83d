// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfnlint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"carvel.dev/cfnls/pkg/validation"
	"go.uber.org/zap"
)

const (
	DefaultPath    = "cfn-lint"
	DefaultTimeout = 30 * time.Second

	Source = "cfn-lint"
)

// cfn-lint exit codes are a bitmask; 2, 4 and 8 signal findings
const (
	exitFailure = 1
)

// Runner executes name with args and reports its exit code. A non-zero exit
// code is not an error.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)

type Opts struct {
	Path string
	Args []string
	// VersionConstraint such as ">= 0.70"; empty disables the check
	VersionConstraint string
	Timeout           time.Duration
	Logger            *zap.Logger
	Runner            Runner
}

type Linter struct {
	opts Opts

	// versionOK is set once the installed version satisfied the
	// constraint; failed checks are retried on the next invocation
	versionMu sync.Mutex
	versionOK bool
}

var _ validation.Linter = &Linter{}

func NewLinter(opts Opts) *Linter {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner
	}
	return &Linter{opts: opts}
}

func (l *Linter) Lint(ctx context.Context, uri, text string) ([]validation.Diagnostic, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	if err := l.ensureVersion(ctx); err != nil {
		return nil, err
	}

	file, err := os.CreateTemp("", "cfnls-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("Creating temp file: %s", err)
	}
	defer os.Remove(file.Name())

	_, err = file.WriteString(text)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("Writing temp file: %s", err)
	}

	args := append(append([]string{}, l.opts.Args...), "--format", "json", "--", file.Name())
	started := time.Now()

	stdout, stderr, exitCode, err := l.opts.Runner(ctx, l.opts.Path, args...)
	if err != nil {
		return nil, fmt.Errorf("Running %s: %s", l.opts.Path, err)
	}
	if exitCode&exitFailure != 0 {
		return nil, fmt.Errorf("Running %s: exit code %d: %s", l.opts.Path, exitCode, strings.TrimSpace(string(stderr)))
	}

	findings, err := ParseReport(stdout)
	if err != nil {
		return nil, err
	}

	l.opts.Logger.Debug("linted", zap.String("uri", uri), zap.Int("findings", len(findings)),
		zap.Int("exitCode", exitCode), zap.Duration("took", time.Since(started)))

	return Diagnostics(text, findings), nil
}

func (l *Linter) ensureVersion(ctx context.Context) error {
	l.versionMu.Lock()
	defer l.versionMu.Unlock()

	if l.versionOK {
		return nil
	}
	if err := l.checkVersion(ctx); err != nil {
		return err
	}
	l.versionOK = true
	return nil
}

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
		}
		if ctx.Err() != nil {
			return nil, nil, 0, ctx.Err()
		}
		return nil, nil, 0, err
	}
	return stdout.Bytes(), stderr.Bytes(), 0, nil
}
