// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.lsp.dev/uri"
)

const StdinPath = "-"

type Source interface {
	Description() string
	URI() (string, error)
	Bytes(ctx context.Context) ([]byte, error)
}

var _ []Source = []Source{BytesSource{}, &StdinSource{}, LocalSource{}, HTTPSource{}}

// NewSource picks a source by the shape of path: "-" is standard input,
// http(s) URLs are fetched, anything else is a local file.
func NewSource(path string) Source {
	switch {
	case path == StdinPath:
		return NewStdinSource(os.Stdin)
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return NewHTTPSource(path)
	default:
		return NewLocalSource(path)
	}
}

type BytesSource struct {
	uri  string
	data []byte
}

func NewBytesSource(uri string, data []byte) BytesSource { return BytesSource{uri, data} }

func (s BytesSource) Description() string                  { return s.uri }
func (s BytesSource) URI() (string, error)                 { return s.uri, nil }
func (s BytesSource) Bytes(context.Context) ([]byte, error) { return s.data, nil }

// StdinSource reads its reader at most once.
type StdinSource struct {
	reader io.Reader

	once  sync.Once
	bytes []byte
	err   error
}

func NewStdinSource(reader io.Reader) *StdinSource { return &StdinSource{reader: reader} }

func (s *StdinSource) Description() string  { return "stdin" }
func (s *StdinSource) URI() (string, error) { return "untitled:stdin.yaml", nil }

func (s *StdinSource) Bytes(context.Context) ([]byte, error) {
	s.once.Do(func() {
		s.bytes, s.err = io.ReadAll(s.reader)
		if s.err != nil {
			s.err = fmt.Errorf("Reading standard input: %s", s.err)
		}
	})
	return s.bytes, s.err
}

type LocalSource struct {
	path string
}

func NewLocalSource(path string) LocalSource { return LocalSource{path} }

func (s LocalSource) Description() string { return fmt.Sprintf("file '%s'", s.path) }

func (s LocalSource) URI() (string, error) {
	abs, err := filepath.Abs(filepath.Clean(s.path))
	if err != nil {
		return "", fmt.Errorf("Resolving path '%s': %s", s.path, err)
	}
	return string(uri.File(abs)), nil
}

func (s LocalSource) Bytes(context.Context) ([]byte, error) {
	bs, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("Reading %s: %s", s.Description(), err)
	}
	return bs, nil
}

type HTTPSource struct {
	url    string
	Client *http.Client
}

func NewHTTPSource(url string) HTTPSource { return HTTPSource{url, &http.Client{}} }

func (s HTTPSource) Description() string {
	return fmt.Sprintf("HTTP URL '%s'", s.url)
}

func (s HTTPSource) URI() (string, error) { return s.url, nil }

func (s HTTPSource) Bytes(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("Building request for URL '%s': %s", s.url, err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Requesting URL '%s': %s", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Requesting URL '%s': %s", s.url, resp.Status)
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Reading URL '%s': %s", s.url, err)
	}

	return result, nil
}
