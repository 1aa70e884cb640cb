// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package cache keeps an in-memory projection of the local store for
// read-heavy surfaces. The store stays the source of truth; the view is
// rebuilt wholesale on Refresh and served lock-cheap in between.
package cache

import (
	"context"
	"sync"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/record"
)

// View is a point-in-time snapshot of one owner's rankings plus the
// pending-upload count. Safe for concurrent readers; Refresh swaps the
// whole snapshot under a write lock.
type View struct {
	records *record.Service

	mu       sync.RWMutex
	owner    string
	rankings map[int64]ranked.Ranking
	order    []int64
	pending  int
}

// NewView builds an empty view over records. Call Refresh before
// reading.
func NewView(records *record.Service) *View {
	return &View{
		records:  records,
		rankings: make(map[int64]ranked.Ranking),
	}
}

// Refresh reloads the snapshot for owner from the store.
func (v *View) Refresh(ctx context.Context, owner string) error {
	rankings, err := v.records.LoadAll(ctx, owner)
	if err != nil {
		return err
	}
	pending, err := v.records.PendingSyncCount(ctx, owner)
	if err != nil {
		return err
	}

	byID := make(map[int64]ranked.Ranking, len(rankings))
	order := make([]int64, 0, len(rankings))
	for _, r := range rankings {
		byID[r.ID] = r
		order = append(order, r.ID)
	}

	v.mu.Lock()
	v.owner = owner
	v.rankings = byID
	v.order = order
	v.pending = pending
	v.mu.Unlock()
	return nil
}

// Rankings returns the snapshot's rankings in creation order.
func (v *View) Rankings() []ranked.Ranking {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]ranked.Ranking, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.rankings[id])
	}
	return out
}

// Ranking returns one ranking from the snapshot.
func (v *View) Ranking(id int64) (ranked.Ranking, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.rankings[id]
	return r, ok
}

// PendingSync returns how many outbox entries were waiting at the last
// Refresh.
func (v *View) PendingSync() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pending
}

// Owner returns the owner the snapshot was taken for.
func (v *View) Owner() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.owner
}
