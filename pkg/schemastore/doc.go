// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package schemastore loads template schemas: the bundled CloudFormation schema
or a schema file named in configuration. Every schema is compiled as JSON
Schema before use, and loads are cached.
*/
package schemastore
