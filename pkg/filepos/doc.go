// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package filepos provides the concept of Position: a source name (usually a file)
and line/column within that source, as well as byte offset Ranges and a
LineIndex that converts between the two.

Editors address text by line and UTF-16 character, while the AST addresses it
by byte offset. LineIndex is the single place where that conversion happens.

Not all Position point within a file (e.g. a template read from memory). The
zero-value of Position (can be created using NewUnknownPosition()) represents
this case.
*/
package filepos
