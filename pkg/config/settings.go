// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/cfnlint"
	"carvel.dev/cfnls/pkg/completion"
	"carvel.dev/cfnls/pkg/validation"
	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

type Settings struct {
	ValidationProvider string   `toml:"validation_provider"`
	CustomTags         []string `toml:"custom_tags"`
	// SchemaPath replaces the bundled schema when set
	SchemaPath        string         `toml:"schema_path"`
	CompletionTimeout Duration       `toml:"completion_timeout"`
	Linter            LinterSettings `toml:"linter"`
}

type LinterSettings struct {
	Path              string   `toml:"path"`
	Args              []string `toml:"args"`
	VersionConstraint string   `toml:"version_constraint"`
	Timeout           Duration `toml:"timeout"`
}

// Duration is written as a Go duration string, eg "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func NewDefaultSettings() Settings {
	return Settings{
		ValidationProvider: validation.ProviderDefault,
		CustomTags:         cfn.IntrinsicTags(),
		CompletionTimeout:  Duration{completion.DefaultTimeout},
		Linter: LinterSettings{
			Path:              cfnlint.DefaultPath,
			VersionConstraint: ">= 0.70",
			Timeout:           Duration{cfnlint.DefaultTimeout},
		},
	}
}

// Load reads settings from path on top of the defaults. An empty path
// yields the defaults.
func Load(path string) (Settings, error) {
	settings := NewDefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("Reading config file: %s", err)
	}

	err = settings.Decode(data)
	if err != nil {
		return Settings{}, fmt.Errorf("Loading config file '%s': %s", path, err)
	}
	return settings, nil
}

// Decode applies TOML data over s. Unknown keys are rejected.
func (s *Settings) Decode(data []byte) error {
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(s)
	if err != nil {
		return fmt.Errorf("Unmarshaling TOML: %s", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		var keys []string
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("Unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func (s Settings) Validate() error {
	var errs []string

	switch s.ValidationProvider {
	case validation.ProviderDefault, validation.ProviderCfnLint:
	default:
		errs = append(errs, fmt.Sprintf("Expected validation_provider to be '%s' or '%s', but was '%s'",
			validation.ProviderDefault, validation.ProviderCfnLint, s.ValidationProvider))
	}

	for _, tag := range s.CustomTags {
		if err := validateCustomTag(tag); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if s.SchemaPath != "" {
		if _, err := os.Stat(s.SchemaPath); err != nil {
			errs = append(errs, fmt.Sprintf("Checking schema_path: %s", err))
		}
	}

	if s.CompletionTimeout.Duration < 0 {
		errs = append(errs, "Expected completion_timeout to be positive")
	}
	if s.Linter.Timeout.Duration < 0 {
		errs = append(errs, "Expected linter.timeout to be positive")
	}

	if s.Linter.VersionConstraint != "" {
		if _, err := version.NewConstraint(s.Linter.VersionConstraint); err != nil {
			errs = append(errs, fmt.Sprintf("Parsing linter.version_constraint: %s", err))
		}
	}
	if s.ValidationProvider == validation.ProviderCfnLint && s.Linter.Path == "" {
		errs = append(errs, "Expected linter.path when validation_provider is 'cfn-lint'")
	}

	if len(errs) > 0 {
		return fmt.Errorf("Invalid settings:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// validateCustomTag accepts "!Tag" optionally followed by the node kind it
// applies to, eg "!Ref scalar".
func validateCustomTag(tag string) error {
	fields := strings.Fields(tag)
	if len(fields) == 0 || len(fields) > 2 || !strings.HasPrefix(fields[0], "!") || len(fields[0]) == 1 {
		return fmt.Errorf("Expected custom tag '%s' to be of the form '!Tag [scalar|sequence|mapping]'", tag)
	}
	if len(fields) == 2 {
		switch fields[1] {
		case "scalar", "sequence", "mapping":
		default:
			return fmt.Errorf("Expected custom tag '%s' kind to be one of scalar, sequence, mapping", tag)
		}
	}
	return nil
}

// WriteTOML writes s in the format Load reads.
func (s Settings) WriteTOML(w io.Writer) error {
	encoder := toml.NewEncoder(w)
	encoder.Indent = "  "
	return encoder.Encode(s)
}

func (s Settings) CompletionOpts() completion.EngineOpts {
	return completion.EngineOpts{
		CustomTags: s.CustomTags,
		Timeout:    s.CompletionTimeout.Duration,
	}
}

func (s Settings) LinterOpts() cfnlint.Opts {
	return cfnlint.Opts{
		Path:              s.Linter.Path,
		Args:              s.Linter.Args,
		VersionConstraint: s.Linter.VersionConstraint,
		Timeout:           s.Linter.Timeout.Duration,
	}
}

// NewProvider returns the configured validation provider. linter, when set,
// replaces the cfn-lint adapter built from the linter settings.
func (s Settings) NewProvider(linter validation.Linter, logger *zap.Logger) (validation.Provider, error) {
	if linter == nil && s.ValidationProvider == validation.ProviderCfnLint {
		opts := s.LinterOpts()
		opts.Logger = logger
		linter = cfnlint.NewLinter(opts)
	}
	return validation.SelectProvider(s.ValidationProvider, linter)
}
