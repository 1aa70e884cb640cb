// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package ranked defines the domain model shared by the local store, the
// record service, and the sync engine: rankings, their ranked items, and
// the owner identities they belong to.
package ranked

import "time"

// OwnerAnonymous is the reserved owner identifier for data that has not
// been claimed by a signed-in account. Anonymous data never leaves the
// device and never produces outbox entries.
const OwnerAnonymous = "anonymous"

// IsAnonymous reports whether owner is the anonymous sentinel (or unset).
func IsAnonymous(owner string) bool {
	return owner == "" || owner == OwnerAnonymous
}

// Ranking is a named, ordered collection of items.
type Ranking struct {
	ID          int64
	Owner       string
	Title       string
	Description string
	RemoteID    string // backend-assigned identity; empty until first synced
	CreatedAt   time.Time
	Items       []Item // rank ascending when loaded with items
}

// Item is a single ranked entry belonging to exactly one ranking. Within
// one ranking the ranks at rest are exactly {1..N}: contiguous, starting
// at 1, no duplicates.
type Item struct {
	ID        int64
	RankingID int64
	Owner     string
	Name      string
	Notes     string
	Rank      int
	RemoteID  string
}
