// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"io"
)

// Stdio joins a reader and a writer into the stream Serve expects. Closing
// it leaves both open; the process owns its standard streams.
func Stdio(in io.Reader, out io.Writer) io.ReadWriteCloser {
	return stdio{in, out}
}

type stdio struct {
	in  io.Reader
	out io.Writer
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdio) Close() error                { return nil }
