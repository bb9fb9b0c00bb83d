// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfnlint

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

var (
	// eg "cfn-lint 0.77.5"
	versionRegexp = regexp.MustCompile(`\d+\.\d+(\.\d+)?\S*`)
)

func (l *Linter) checkVersion(ctx context.Context) error {
	if l.opts.VersionConstraint == "" {
		return nil
	}

	constraint, err := version.NewConstraint(l.opts.VersionConstraint)
	if err != nil {
		return fmt.Errorf("Parsing version constraint '%s': %s", l.opts.VersionConstraint, err)
	}

	stdout, stderr, exitCode, err := l.opts.Runner(ctx, l.opts.Path, "--version")
	if err != nil {
		return fmt.Errorf("Checking %s version: %s", l.opts.Path, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("Checking %s version: exit code %d: %s", l.opts.Path, exitCode, strings.TrimSpace(string(stderr)))
	}

	found, err := ParseVersion(string(stdout))
	if err != nil {
		return err
	}
	if !constraint.Check(found) {
		return fmt.Errorf("%s version %s does not meet the required version %s",
			l.opts.Path, found, l.opts.VersionConstraint)
	}

	l.opts.Logger.Info("using cfn-lint", zap.String("path", l.opts.Path), zap.Stringer("version", found))
	return nil
}

// ParseVersion extracts the version from "cfn-lint --version" output.
func ParseVersion(output string) (*version.Version, error) {
	match := versionRegexp.FindString(output)
	if match == "" {
		return nil, fmt.Errorf("Expected version in output '%s'", strings.TrimSpace(output))
	}
	ver, err := version.NewVersion(match)
	if err != nil {
		return nil, fmt.Errorf("Parsing version '%s': %s", match, err)
	}
	return ver, nil
}
