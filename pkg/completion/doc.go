// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package completion proposes edits at a cursor in a template.

The engine parses a patched copy of the text so that a partially typed key
(or a blank line) forms a property, resolves schema matches through the
template plan, and collects, in order: property items, value items,
resource snippets, contributed items and custom tags. Labels are unique
within a result; the first item with a label wins.
*/
package completion
