// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package remote defines the wire representation of rankings and the
// backend operations the sync engine replays outbox entries against.
package remote

import "context"

// RankingRecord is a ranking as the backend sees it. ClientRef is the
// uploader's idempotency key: the backend deduplicates creates carrying a
// client_ref it has already accepted, so replaying a confirmed-but-lost
// upload yields the original record instead of a duplicate.
type RankingRecord struct {
	RemoteID    string       `json:"remote_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
	Items       []ItemRecord `json:"items,omitempty"`
	ClientRef   string       `json:"client_ref,omitempty"`
}

// ItemRecord is a single ranked item on the wire.
type ItemRecord struct {
	RemoteID  string `json:"remote_id,omitempty"`
	Name      string `json:"name"`
	Notes     string `json:"notes,omitempty"`
	Rank      int    `json:"rank"`
	ClientRef string `json:"client_ref,omitempty"`
}

// Backend is the remote surface the outbox drains into. The owner is
// carried by the caller's credentials, not by parameters; every call acts
// on the authenticated user's data. Creates return the backend-assigned
// remote id. Deletes of unknown ids succeed.
type Backend interface {
	CreateRanking(ctx context.Context, r RankingRecord) (string, error)
	UpdateRanking(ctx context.Context, remoteID string, r RankingRecord) error
	DeleteRanking(ctx context.Context, remoteID string) error
	ListRankings(ctx context.Context) ([]RankingRecord, error)

	CreateItem(ctx context.Context, rankingRemoteID string, it ItemRecord) (string, error)
	UpdateItem(ctx context.Context, remoteID string, it ItemRecord) error
	DeleteItem(ctx context.Context, remoteID string) error
}

// Reachability answers whether the backend is worth talking to right now.
// A false answer is advisory; the drain treats it as "skip this pass".
type Reachability interface {
	Online(ctx context.Context) bool
}
