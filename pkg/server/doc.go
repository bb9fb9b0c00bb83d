// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package server speaks the Language Server Protocol over a jsonrpc2 stream.

Open documents live in a versioned store. Every open or change schedules a
validation in the background; its diagnostics are published only if the
document has not moved on to another version in the meantime.
*/
package server
