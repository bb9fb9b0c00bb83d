// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package yamlast parses a YAML template into a position-annotated tree
(yamlast.Node's stored in a Document arena) that completion and validation
navigate by byte offset.

Nodes reference their parent by NodeID, an index into the owning Document;
the Document is the only owner of nodes.

Parsing is best-effort: a syntax error is recorded and the offending line is
blanked before retrying, so a template being edited still yields a tree.
*/
package yamlast
