// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package schema loads JSON Schema documents into Schema descriptors and
resolves which of them apply to each node of a template.

Loading (see Load) keeps the declaration order of properties and replaces
local "$ref"s with direct pointers, so a descriptor graph may be cyclic.

Resolution (see Resolver) walks the template tree and the descriptor graph
together and reports every (node, schema) pairing it reaches as a
MatchingSchema. Branches of anyOf/oneOf that do not apply to a node are still
reported, flagged Inverted, so callers can tell "offered" from "enforced".
*/
package schema
