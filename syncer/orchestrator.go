// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/record"
	"github.com/ddong19/ranked/remote"
	"github.com/ddong19/ranked/store"
)

// Orchestrator owns the background sync loop: a ticker that drains the
// outbox for the active owner, plus the login and logout transitions
// that reshape local data around account changes.
type Orchestrator struct {
	store   *store.Store
	records *record.Service
	drainer *Drainer
	backend remote.Backend
	reach   remote.Reachability
	logger  *slog.Logger

	interval time.Duration

	mu     sync.Mutex
	owner  string
	cancel context.CancelFunc
	done   chan struct{}

	// busy guards against overlapping drains when a pass outlives the
	// tick interval.
	busy int32
}

// NewOrchestrator wires the sync loop. interval is how often the loop
// attempts a drain; reach may be nil to always attempt.
func NewOrchestrator(st *store.Store, records *record.Service, drainer *Drainer, backend remote.Backend, reach remote.Reachability, interval time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:    st,
		records:  records,
		drainer:  drainer,
		backend:  backend,
		reach:    reach,
		logger:   logger,
		interval: interval,
	}
}

// Start launches the periodic drain loop for owner. Starting for the
// anonymous owner is a no-op: anonymous data never syncs. Starting while
// already running for the same owner is a no-op too.
func (o *Orchestrator) Start(ctx context.Context, owner string) {
	if ranked.IsAnonymous(owner) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		if o.owner == owner {
			return
		}
		o.stopLocked()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	o.owner = owner
	o.cancel = cancel
	o.done = make(chan struct{})
	go o.loop(loopCtx, owner, o.done)
	o.logger.Info("sync loop started", "owner", owner, "interval", o.interval)
}

// Stop halts the loop. An in-flight drain pass finishes; only future
// ticks are cancelled.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

func (o *Orchestrator) stopLocked() {
	if o.cancel == nil {
		return
	}
	o.cancel()
	<-o.done
	o.cancel = nil
	o.done = nil
	o.owner = ""
}

// Owner returns the owner the loop is currently running for, or "" when
// stopped.
func (o *Orchestrator) Owner() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owner
}

func (o *Orchestrator) loop(ctx context.Context, owner string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	// First pass right away so a freshly started loop does not sit on a
	// full queue for a whole interval.
	o.tryDrain(context.WithoutCancel(ctx), owner)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Cancelling the loop must not abort an upload already in
			// flight, so the drain runs on a detached context.
			o.tryDrain(context.WithoutCancel(ctx), owner)
		}
	}
}

// tryDrain runs one drain pass unless one is already running or the
// backend is unreachable. Both conditions are silent skips: the next
// tick tries again.
func (o *Orchestrator) tryDrain(ctx context.Context, owner string) {
	if !atomic.CompareAndSwapInt32(&o.busy, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&o.busy, 0)

	if o.reach != nil && !o.reach.Online(ctx) {
		return
	}
	if _, err := o.drainer.Drain(ctx, owner); err != nil {
		o.logger.Warn("sync pass failed", "owner", owner, "err", err)
	}
}

// SyncNow runs a single drain pass immediately, outside the loop's
// schedule. Unlike the loop it reports the outcome to the caller. It
// shares the loop's busy flag: at most one drain is ever in flight, and
// a manual sync overlapping a ticker pass is refused, not queued.
func (o *Orchestrator) SyncNow(ctx context.Context, owner string) (int, error) {
	if ranked.IsAnonymous(owner) {
		return 0, nil
	}
	if !atomic.CompareAndSwapInt32(&o.busy, 0, 1) {
		return 0, &ranked.TransientSyncError{Err: errors.New("a sync pass is already running")}
	}
	defer atomic.StoreInt32(&o.busy, 0)

	if o.reach != nil && !o.reach.Online(ctx) {
		return 0, &ranked.TransientSyncError{Err: fmt.Errorf("backend unreachable")}
	}
	return o.drainer.Drain(ctx, owner)
}

// HandleLogin reconciles local data with the account that just signed
// in, then starts the loop. Exactly one of three things happens:
//
//  1. Anonymous data exists locally: it is claimed by the account and
//     queued for upload. Local data wins; nothing is downloaded.
//  2. The account already has local data on this device: nothing moves.
//  3. The device is empty: the account's rankings are downloaded and
//     stored as already-synced.
func (o *Orchestrator) HandleLogin(ctx context.Context, owner string) error {
	if ranked.IsAnonymous(owner) {
		return &ranked.ValidationError{Field: "owner", Reason: "is required"}
	}

	migrated, err := o.records.MigrateAnonymous(ctx, owner)
	if err != nil {
		return err
	}
	if migrated > 0 {
		o.logger.Info("claimed anonymous data", "owner", owner, "rankings", migrated)
		o.Start(ctx, owner)
		return nil
	}

	existing, err := o.records.CountRankings(ctx, owner)
	if err != nil {
		return err
	}
	if existing == 0 {
		if err := o.download(ctx, owner); err != nil {
			return err
		}
	}
	o.Start(ctx, owner)
	return nil
}

func (o *Orchestrator) download(ctx context.Context, owner string) error {
	records, err := o.backend.ListRankings(ctx)
	if err != nil {
		return &ranked.TransientSyncError{Err: fmt.Errorf("initial download: %w", err)}
	}
	if len(records) == 0 {
		return nil
	}

	rankings := make([]ranked.Ranking, 0, len(records))
	for _, rec := range records {
		r := ranked.Ranking{
			Title:       rec.Title,
			Description: rec.Description,
			RemoteID:    rec.RemoteID,
		}
		if t, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil {
			r.CreatedAt = t
		}
		for _, it := range rec.Items {
			r.Items = append(r.Items, ranked.Item{
				Name:     it.Name,
				Notes:    it.Notes,
				Rank:     it.Rank,
				RemoteID: it.RemoteID,
			})
		}
		rankings = append(rankings, r)
	}
	if err := o.records.InsertSynced(ctx, owner, rankings); err != nil {
		return err
	}
	o.logger.Info("downloaded account data", "owner", owner, "rankings", len(rankings))
	return nil
}

// HandleLogout stops the loop and wipes the local database. Whatever was
// still queued is gone; the account's copy on the backend is the
// surviving one.
func (o *Orchestrator) HandleLogout(ctx context.Context) error {
	o.Stop()
	if err := o.store.Reset(ctx); err != nil {
		return err
	}
	o.logger.Info("local data wiped on logout")
	return nil
}
