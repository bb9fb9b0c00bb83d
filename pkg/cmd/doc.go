// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package cmd is home to the full set of cfnls "commands" -- instances of cobra.Command
(not to be confused with ./cmd which contains the bootstrapping for executing cfnls).

A cobra.Command is the starting point of execution.

For a list of commands run:

	$ cfnls help

Editors start the language server with "cfnls serve"; the other commands
run the same validation and completion on templates from the command line.
*/
package cmd
