// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package spell provides the ability to suggest an exact spelling of a word.

In the context of templates, this is useful for errors that involve misspelled
logical ids and property names.
*/
package spell
