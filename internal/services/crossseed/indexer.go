// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"
	"strings"
	"sync"

	"github.com/autobrr/crossseed/pkg/torznab"
)

// Indexer is one configured Torznab endpoint. Its client is created on first
// use and reused for the rest of the process.
type Indexer struct {
	Name    string
	URL     string
	APIKey  string
	Enabled bool

	mu     sync.RWMutex
	ready  bool
	client *torznab.Client
	err    error
}

func NewIndexer(name, url, apiKey string, enabled bool) *Indexer {
	return &Indexer{
		Name:    strings.TrimSpace(name),
		URL:     strings.TrimSpace(url),
		APIKey:  apiKey,
		Enabled: enabled,
	}
}

// Client returns the cached client, building it with build when absent.
// Only one caller runs build; the others wait on the write lock and then
// observe its result. A failed build is cached so the indexer stays
// unavailable, unless it failed because ctx was cancelled.
func (ix *Indexer) Client(ctx context.Context, build func(context.Context) (*torznab.Client, error)) (*torznab.Client, error) {
	ix.mu.RLock()
	if ix.ready {
		client, err := ix.client, ix.err
		ix.mu.RUnlock()
		return client, err
	}
	ix.mu.RUnlock()

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.ready {
		return ix.client, ix.err
	}

	client, err := build(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}

	ix.client, ix.err, ix.ready = client, err, true
	return client, err
}

// Initialized reports whether a client build has completed, successfully or not.
func (ix *Indexer) Initialized() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

// InitError returns the cached build failure, if any.
func (ix *Indexer) InitError() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.ready {
		return nil
	}
	return ix.err
}

// resetFailed clears a cached build failure so the next run retries it.
// Working clients are kept.
func (ix *Indexer) resetFailed() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.ready && ix.err != nil {
		ix.ready = false
		ix.client = nil
		ix.err = nil
	}
}
