// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package files loads templates given on the command line from local files,
standard input or HTTP URLs.

Each Source also names the document URI the template is checked under, so
that diagnostics and completions refer to the same document an editor
would.
*/
package files
