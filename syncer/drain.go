// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package syncer replays the pending outbox against the backend and runs
// the background loop that keeps doing so.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/outbox"
	"github.com/ddong19/ranked/record"
	"github.com/ddong19/ranked/remote"
)

var errParentNotSynced = errors.New("parent ranking has no remote id yet")

// Drainer replays pending outbox entries oldest-first. Each entry uploads
// the entity's CURRENT local state, not the snapshot taken at enqueue
// time; the queue records that something must reach the backend, the
// rows say what. A replayed entry whose local row has vanished is
// already satisfied and is dropped.
type Drainer struct {
	records  *record.Service
	queue    *outbox.Queue
	backend  remote.Backend
	deviceID string
	logger   *slog.Logger
}

// NewDrainer builds a Drainer. deviceID seeds the idempotency keys sent
// with creates, so a retried upload never duplicates server state.
func NewDrainer(records *record.Service, queue *outbox.Queue, backend remote.Backend, deviceID string, logger *slog.Logger) *Drainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{
		records:  records,
		queue:    queue,
		backend:  backend,
		deviceID: deviceID,
		logger:   logger,
	}
}

// Drain replays owner's queue in order, removing each entry once the
// backend confirms it. The first failure stops the pass: later entries
// may depend on earlier ones, so skipping is never safe. Failures come
// back as TransientSyncError; the queue is intact and the next pass
// picks up where this one stopped. Returns how many entries were
// confirmed and removed.
func (d *Drainer) Drain(ctx context.Context, owner string) (int, error) {
	if ranked.IsAnonymous(owner) {
		return 0, nil
	}
	entries, err := d.queue.Pending(ctx, owner)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, e := range entries {
		if err := d.apply(ctx, e); err != nil {
			return done, &ranked.TransientSyncError{
				Err: fmt.Errorf("outbox entry %d (%s %s): %w", e.ID, e.Op, e.Entity, err),
			}
		}
		if err := d.queue.Remove(ctx, e.ID); err != nil {
			return done, err
		}
		done++
	}
	if done > 0 {
		d.logger.Info("drained outbox", "owner", owner, "entries", done)
	}
	return done, nil
}

func (d *Drainer) apply(ctx context.Context, e outbox.Entry) error {
	switch e.Entity {
	case outbox.EntityRanking:
		if e.Op == outbox.OpDelete {
			if e.RemoteID == "" {
				return nil
			}
			return d.backend.DeleteRanking(ctx, e.RemoteID)
		}
		return d.pushRanking(ctx, e.EntityID)
	case outbox.EntityItem:
		if e.Op == outbox.OpDelete {
			if e.RemoteID == "" {
				return nil
			}
			return d.backend.DeleteItem(ctx, e.RemoteID)
		}
		return d.pushItemEntry(ctx, e.EntityID)
	default:
		return fmt.Errorf("unknown entity kind %q", e.Entity)
	}
}

// pushRanking uploads a ranking and then sweeps every one of its items.
// The sweep makes a single queued ranking entry carry the whole tree:
// a create queued at import time, or an update queued by a reorder,
// lands the items' current names, notes and ranks in one pass.
func (d *Drainer) pushRanking(ctx context.Context, id int64) error {
	r, err := d.records.GetRanking(ctx, id)
	if err != nil {
		var nf *ranked.NotFoundError
		if errors.As(err, &nf) {
			d.logger.Debug("skipping entry for deleted ranking", "ranking_id", id)
			return nil
		}
		return err
	}

	rec := remote.RankingRecord{
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339Nano),
		ClientRef:   d.ref("ranking", r.ID),
	}
	if r.RemoteID == "" {
		remoteID, err := d.backend.CreateRanking(ctx, rec)
		if err != nil {
			return err
		}
		if err := d.records.SetRankingRemoteID(ctx, r.ID, remoteID); err != nil {
			return err
		}
		r.RemoteID = remoteID
	} else {
		if err := d.backend.UpdateRanking(ctx, r.RemoteID, rec); err != nil {
			return err
		}
	}

	for i := range r.Items {
		if err := d.pushItem(ctx, &r.Items[i], r.RemoteID); err != nil {
			return err
		}
	}
	return nil
}

func (d *Drainer) pushItemEntry(ctx context.Context, id int64) error {
	it, err := d.records.GetItem(ctx, id)
	if err != nil {
		var nf *ranked.NotFoundError
		if errors.As(err, &nf) {
			d.logger.Debug("skipping entry for deleted item", "item_id", id)
			return nil
		}
		return err
	}
	r, err := d.records.GetRanking(ctx, it.RankingID)
	if err != nil {
		return err
	}
	return d.pushItem(ctx, it, r.RemoteID)
}

func (d *Drainer) pushItem(ctx context.Context, it *ranked.Item, rankingRemoteID string) error {
	if rankingRemoteID == "" {
		// The parent's create is still queued ahead of us or failed.
		// Halting keeps the ordering guarantee intact.
		return errParentNotSynced
	}
	rec := remote.ItemRecord{
		Name:      it.Name,
		Notes:     it.Notes,
		Rank:      it.Rank,
		ClientRef: d.ref("item", it.ID),
	}
	if it.RemoteID == "" {
		remoteID, err := d.backend.CreateItem(ctx, rankingRemoteID, rec)
		if err != nil {
			return err
		}
		if err := d.records.SetItemRemoteID(ctx, it.ID, remoteID); err != nil {
			return err
		}
		it.RemoteID = remoteID
		return nil
	}
	rec.RemoteID = it.RemoteID
	return d.backend.UpdateItem(ctx, it.RemoteID, rec)
}

// ref builds the idempotency key for a locally-created entity. Local ids
// are never reused within one database, and the device id scopes them
// across installations.
func (d *Drainer) ref(kind string, localID int64) string {
	return fmt.Sprintf("%s:%s:%d", d.deviceID, kind, localID)
}
