// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"carvel.dev/cfnls/pkg/server"
	"carvel.dev/cfnls/pkg/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ServeOptions struct {
	CommonFlags
}

func NewServeOptions() *ServeOptions {
	return &ServeOptions{}
}

func NewServeCmd(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server over stdio",
		RunE:  func(c *cobra.Command, _ []string) error { return o.Run(c.Context()) },
	}
	o.CommonFlags.Set(cmd)
	return cmd
}

func (o *ServeOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings, err := o.Settings()
	if err != nil {
		return err
	}

	logger, err := o.Logger(zapcore.InfoLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv, err := server.NewServer(server.Opts{Settings: settings, Logger: logger})
	if err != nil {
		return err
	}

	logger.Info("serving", zap.String("version", version.Version),
		zap.String("validationProvider", settings.ValidationProvider))

	return srv.Serve(ctx, server.Stdio(os.Stdin, os.Stdout))
}
