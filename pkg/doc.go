// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package pkg is the collection of packages that make up the implementation of cfnls.

Packages are organized into layers. Each package keeps to one concern and
depends on the others only as far as required.

In the inventory, below, individual packages are named alongside their coupling
with the other packages in the codebase.

	(# of dependents) => <package name> => (# of dependencies)

# Entry Point

cfnls is built into a single executable:

	./cmd/cfnls                // a command-line tool and language server

# Commands

"serve" runs the language server; "validate" and "complete" run the same
machinery over templates given on the command line.

	(1) => pkg/cmd => (9)
	(1) => pkg/cmd/ui => (0)
	(1) => pkg/files => (0)

# Transport

The language server speaks JSON-RPC over stdio, keeps the open documents
and publishes diagnostics as validations finish.

	(1) => pkg/server => (8)
	(2) => pkg/config => (4)

# Features

Completion and validation work on a parsed document and the schema that
applies to it.

	(3) => pkg/completion => (4)
	(3) => pkg/validation => (4)
	(2) => pkg/cfnlint => (2)

# Template Semantics

CloudFormation and SAM rules that plain JSON Schema cannot express: the
serverless transform, Globals, intrinsic functions and references between
template sections.

	(4) => pkg/cfn => (4)
	(3) => pkg/schemastore => (1)

# Schema Matching

	(6) => pkg/schema => (3)

# YAML Structures

Templates are parsed with gopkg.in/yaml.v3 into a tree that keeps byte
ranges of keys, values and separators, and that survives syntax errors.

	(8) => pkg/yamlast => (1)

# Utilities

	(7) => pkg/filepos => (0)
	(1) => pkg/orderedmap => (0)
	(1) => pkg/spell => (0)
	(3) => pkg/version => (0)
*/
package pkg
