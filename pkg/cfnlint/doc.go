// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package cfnlint runs the cfn-lint command line tool and converts its JSON
// report into diagnostics.
package cfnlint
