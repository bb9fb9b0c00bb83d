// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"carvel.dev/cfnls/pkg/version"
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"
)

type CfnlsOptions struct{}

func NewDefaultCfnlsOptions() *CfnlsOptions {
	return &CfnlsOptions{}
}

func NewDefaultCfnlsCmd() *cobra.Command {
	return NewCfnlsCmd(NewDefaultCfnlsOptions())
}

func NewCfnlsCmd(o *CfnlsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cfnls",
		Version: version.Version,
		Short:   "cfnls is a language server for CloudFormation and SAM templates",
		Long: `cfnls is a language server for CloudFormation and SAM templates.

Run "cfnls serve" from an editor to get completion and diagnostics over stdio.`,
	}

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewServeCmd(NewServeOptions()))
	cmd.AddCommand(NewValidateCmd(NewValidateOptions()))
	cmd.AddCommand(NewCompleteCmd(NewCompleteOptions()))
	cmd.AddCommand(NewConfigCmd(NewConfigOptions()))
	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.DisallowExtraArgs, cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
