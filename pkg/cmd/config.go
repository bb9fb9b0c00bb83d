// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"

	"carvel.dev/cfnls/pkg/cmd/ui"
	"github.com/spf13/cobra"
)

type ConfigOptions struct {
	CommonFlags

	ui ui.UI
}

func NewConfigOptions() *ConfigOptions {
	return &ConfigOptions{}
}

func NewConfigCmd(o *ConfigOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print effective settings",
		Long:  "Print effective settings as TOML. The output can be used as a starting point for --config.",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	o.CommonFlags.Set(cmd)
	return cmd
}

func (o *ConfigOptions) Run() error {
	if o.ui == nil {
		o.ui = ui.NewTTY(o.Debug)
	}

	settings, err := o.Settings()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = settings.WriteTOML(&buf)
	if err != nil {
		return err
	}
	o.ui.Printf("%s", buf.String())
	return nil
}
