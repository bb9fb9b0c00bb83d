// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"carvel.dev/cfnls/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CommonFlags are shared by commands that load settings.
type CommonFlags struct {
	ConfigPath string
	Debug      bool
}

func (f *CommonFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "Settings file (TOML); defaults are used when not set")
	cmd.Flags().BoolVar(&f.Debug, "debug", false, "Enable debug output")
}

func (f *CommonFlags) Settings() (config.Settings, error) {
	settings, err := config.Load(f.ConfigPath)
	if err != nil {
		return config.Settings{}, err
	}
	err = settings.Validate()
	if err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// Logger writes JSON lines to stderr; stdout may carry the protocol.
func (f *CommonFlags) Logger(level zapcore.Level) (*zap.Logger, error) {
	if f.Debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("Building logger: %s", err)
	}
	return logger, nil
}
