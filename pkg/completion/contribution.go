// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carvel.dev/cfnls/pkg/yamlast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Contribution supplies completions from outside the schema.
type Contribution interface {
	// CollectDefaultCompletions is asked when the template has no content
	CollectDefaultCompletions(ctx context.Context, uri string) ([]Item, error)
	// CollectValueCompletions is asked for the value of key within the
	// object at path
	CollectValueCompletions(ctx context.Context, uri string, path yamlast.Path, key string) ([]Item, error)
}

type contributionFn func(context.Context, Contribution) ([]Item, error)

// contributed holds one slot per contribution; slots are read once the
// wait ends and writes after that are dropped.
type contributed struct {
	mu     sync.Mutex
	slots  [][]Item
	closed bool
}

func (c *contributed) set(i int, items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.slots[i] = items
	}
}

func (c *contributed) close() [][]Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.slots
}

// contribute runs fn for every contribution in parallel and waits at most
// timeout. Late and failing contributions add nothing.
func (e *Engine) contribute(ctx context.Context, uri string, fn contributionFn) []Item {
	if len(e.contributions) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	results := &contributed{slots: make([][]Item, len(e.contributions))}
	var group errgroup.Group

	for i, contribution := range e.contributions {
		i, contribution := i, contribution
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("Panicked: %v", r)
				}
				if err != nil {
					e.logger.Warn("completion contribution failed",
						zap.String("uri", uri), zap.Int("contribution", i), zap.Error(err))
				}
			}()

			items, err := fn(ctx, contribution)
			if err != nil {
				return err
			}
			results.set(i, items)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(done)
	}()

	start := time.Now()
	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("completion contributions timed out",
			zap.String("uri", uri), zap.Duration("waited", time.Since(start)))
	}

	var items []Item
	for _, slot := range results.close() {
		items = append(items, slot...)
	}
	return items
}
