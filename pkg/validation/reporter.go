// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, uri string, version int32, diags []Diagnostic) error
}

type PublisherFunc func(ctx context.Context, uri string, version int32, diags []Diagnostic) error

func (f PublisherFunc) Publish(ctx context.Context, uri string, version int32, diags []Diagnostic) error {
	return f(ctx, uri, version, diags)
}

// VersionFunc returns the current version of an open document.
type VersionFunc func(uri string) (version int32, open bool)

// Reporter delivers results last-write-wins: a result for a version other
// than the document's current one, or older than the last delivered one,
// is discarded. Deliveries for one document are serialized; documents do
// not wait on each other.
type Reporter struct {
	publisher Publisher
	current   VersionFunc
	logger    *zap.Logger

	mu         sync.Mutex
	delivered  map[string]int32
	publishing map[string]*sync.Mutex
}

// NewReporter does not check versions against open documents when current
// is nil.
func NewReporter(publisher Publisher, current VersionFunc, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		publisher:  publisher,
		current:    current,
		logger:     logger,
		delivered:  map[string]int32{},
		publishing: map[string]*sync.Mutex{},
	}
}

// Report returns true if diags were delivered.
func (r *Reporter) Report(ctx context.Context, uri string, version int32, diags []Diagnostic) bool {
	lock := r.documentLock(uri)
	lock.Lock()
	defer lock.Unlock()

	if !r.deliverable(uri, version) {
		return false
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, uri, version, diags); err != nil {
			r.logger.Warn("publishing diagnostics", zap.String("uri", uri), zap.Error(err))
			return false
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if last, found := r.delivered[uri]; !found || version >= last {
		r.delivered[uri] = version
	}
	return true
}

func (r *Reporter) documentLock(uri string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, found := r.publishing[uri]
	if !found {
		lock = &sync.Mutex{}
		r.publishing[uri] = lock
	}
	return lock
}

func (r *Reporter) deliverable(uri string, version int32) bool {
	if r.current != nil {
		if cur, open := r.current(uri); !open || cur != version {
			r.logger.Debug("discarding stale diagnostics", zap.String("uri", uri),
				zap.Int32("version", version), zap.Int32("current", cur), zap.Bool("open", open))
			return false
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if last, found := r.delivered[uri]; found && version < last {
		r.logger.Debug("discarding out of order diagnostics", zap.String("uri", uri),
			zap.Int32("version", version), zap.Int32("delivered", last))
		return false
	}
	return true
}

// Forget drops delivery history of a closed document so that a reopened
// document may start over at a lower version.
func (r *Reporter) Forget(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.delivered, uri)
}
