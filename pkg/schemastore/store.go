// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package schemastore

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"carvel.dev/cfnls/pkg/schema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	bundledKey = "bundled:cloudformation.schema.json"
)

//go:embed schemas/cloudformation.schema.json
var bundledSchema []byte

// Bundled returns the raw bundled schema.
func Bundled() []byte { return bundledSchema }

// Store is safe for concurrent use.
type Store struct {
	// Path overrides the bundled schema when non-empty
	Path   string
	Logger *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	cached map[string]*schema.Schema
}

func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{Path: path, Logger: logger, cached: map[string]*schema.Schema{}}
}

// Get returns the configured schema. On failure it logs and returns nil,
// which callers treat as "no schema".
func (s *Store) Get(ctx context.Context) *schema.Schema {
	key := bundledKey
	if s.Path != "" {
		key = s.Path
	}

	s.mu.RLock()
	cached, found := s.cached[key]
	s.mu.RUnlock()
	if found {
		return cached
	}

	result := s.group.DoChan(key, func() (interface{}, error) {
		root, err := s.load(key)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cached[key] = root
		s.mu.Unlock()
		return root, nil
	})

	select {
	case <-ctx.Done():
		s.Logger.Warn("schema load abandoned", zap.String("schema", key), zap.Error(ctx.Err()))
		return nil
	case res := <-result:
		if res.Err != nil {
			s.Logger.Error("schema load failed", zap.String("schema", key), zap.Error(res.Err))
			return nil
		}
		return res.Val.(*schema.Schema)
	}
}

// Invalidate drops cached schemas so the next Get reloads.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = map[string]*schema.Schema{}
}

func (s *Store) load(key string) (*schema.Schema, error) {
	data := bundledSchema
	if key != bundledKey {
		var err error
		data, err = os.ReadFile(key)
		if err != nil {
			return nil, fmt.Errorf("Reading schema file: %s", err)
		}
	}

	err := Check(key, data)
	if err != nil {
		return nil, err
	}

	root, err := schema.Load(data)
	if err != nil {
		return nil, fmt.Errorf("Loading schema '%s': %s", key, err)
	}
	s.Logger.Debug("schema loaded", zap.String("schema", key))
	return root, nil
}

// Check compiles data as a JSON Schema document.
func Check(name string, data []byte) error {
	const resource = "schema.json"

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("Unmarshaling schema '%s': %s", name, err)
	}

	c := jsonschema.NewCompiler()
	err = c.AddResource(resource, doc)
	if err != nil {
		return fmt.Errorf("Adding schema '%s': %s", name, err)
	}
	_, err = c.Compile(resource)
	if err != nil {
		return fmt.Errorf("Compiling schema '%s': %s", name, err)
	}
	return nil
}
