// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package validation produces diagnostics for templates.

A Pipeline runs the configured Provider (structural schema checks or an
external linter) next to the reference checker and hands the sorted result
to a Reporter. The Reporter delivers last-write-wins per document: results
computed for a version that is no longer current are dropped.
*/
package validation
