// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package outbox implements the durable sync queue: an ordered log of
// pending remote mutations, appended by the record service as part of each
// mutating transaction and replayed against the backend by the sync engine.
// An entry is removed only after its remote effect is confirmed durable.
package outbox

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/store"
)

// Op is the kind of remote mutation an entry describes.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// EntityKind is the kind of entity an entry refers to.
type EntityKind string

const (
	EntityRanking EntityKind = "ranking"
	EntityItem    EntityKind = "item"
)

// Entry is one queued remote mutation. Insertion order (ascending ID)
// defines replay order per owner.
type Entry struct {
	ID        int64
	Owner     string
	Op        Op
	Entity    EntityKind
	EntityID  int64  // local id; zero for deletes of already-synced entities
	RemoteID  string // set for deletes and entities already known remotely
	Payload   []byte // optional; the drain replays from current rows, not from here
	CreatedAt time.Time
}

// Queue provides durable access to the sync_outbox table.
type Queue struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewQueue(st *store.Store, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{db: st.DB(), logger: logger}
}

// Enqueue appends an entry to the outbox. Anonymous-owner operations are
// never queued: anonymous data does not leave the device. The Querier lets
// the record service enqueue inside the same transaction as the mutation
// the entry describes.
func (q *Queue) Enqueue(ctx context.Context, db store.Querier, e Entry) error {
	if ranked.IsAnonymous(e.Owner) {
		return nil
	}
	var entityID any
	if e.EntityID != 0 {
		entityID = e.EntityID
	}
	var remoteID any
	if e.RemoteID != "" {
		remoteID = e.RemoteID
	}
	var payload any
	if len(e.Payload) > 0 {
		payload = string(e.Payload)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_outbox (owner, operation, entity_kind, entity_id, remote_id, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Owner, string(e.Op), string(e.Entity), entityID, remoteID, payload)
	if err != nil {
		return &ranked.StoreError{Op: "enqueue", Err: err}
	}
	return nil
}

// Pending returns every entry for owner in replay order (ascending id).
func (q *Queue) Pending(ctx context.Context, owner string) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, owner, operation, entity_kind, entity_id, remote_id, payload, created_at
		FROM sync_outbox
		WHERE owner = ?
		ORDER BY id ASC
	`, owner)
	if err != nil {
		return nil, &ranked.StoreError{Op: "load pending", Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			op, kind  string
			entityID  sql.NullInt64
			remoteID  sql.NullString
			payload   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Owner, &op, &kind, &entityID, &remoteID, &payload, &createdAt); err != nil {
			return nil, &ranked.StoreError{Op: "scan pending", Err: err}
		}
		e.Op = Op(op)
		e.Entity = EntityKind(kind)
		e.EntityID = entityID.Int64
		e.RemoteID = remoteID.String
		if payload.Valid {
			e.Payload = []byte(payload.String)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &ranked.StoreError{Op: "iterate pending", Err: err}
	}
	return entries, nil
}

// PendingCount returns the number of queued entries for owner. The UI may
// surface this as a "pending sync" indicator.
func (q *Queue) PendingCount(ctx context.Context, owner string) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_outbox WHERE owner = ?`, owner).Scan(&count)
	if err != nil {
		return 0, &ranked.StoreError{Op: "count pending", Err: err}
	}
	return count, nil
}

// Remove deletes a replayed entry. Called only after the remote effect is
// confirmed durable; a failed entry stays queued for the next drain.
func (q *Queue) Remove(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sync_outbox WHERE id = ?`, id); err != nil {
		return &ranked.StoreError{Op: "remove entry", Err: err}
	}
	return nil
}
