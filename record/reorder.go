// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"context"
	"database/sql"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/outbox"
)

// UpdateItemRanks applies a target rank assignment to a subset (or all) of
// a ranking's items inside one transaction. The store enforces rank
// uniqueness per ranking, so the move happens in two phases: first every
// touched item is relocated past the current maximum rank (a disjoint
// range no existing or final rank can collide with), then each is settled
// onto its final rank. No reader ever observes duplicate ranks, and a
// partial reorder is never visible.
//
// The composed result — touched items on their targets, untouched items
// keeping their ranks — must be exactly {1..N}, otherwise the call is
// rejected with a ValidationError before anything moves.
func (s *Service) UpdateItemRanks(ctx context.Context, rankingID int64, targets map[int64]int) error {
	if len(targets) == 0 {
		return nil
	}

	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		r, err := fetchRanking(ctx, tx, rankingID)
		if err != nil {
			return err
		}
		items, err := fetchRankingItems(ctx, tx, rankingID)
		if err != nil {
			return err
		}

		byID := make(map[int64]*ranked.Item, len(items))
		maxRank := 0
		for i := range items {
			byID[items[i].ID] = &items[i]
			if items[i].Rank > maxRank {
				maxRank = items[i].Rank
			}
		}

		// Compose the final assignment and verify it is a permutation of 1..N.
		final := make(map[int]int64, len(items))
		for i := range items {
			target, touched := targets[items[i].ID]
			if !touched {
				target = items[i].Rank
			}
			if target < 1 || target > len(items) {
				return &ranked.ValidationError{Field: "rank", Reason: "is out of range"}
			}
			if _, dup := final[target]; dup {
				return &ranked.ValidationError{Field: "rank", Reason: "is duplicated"}
			}
			final[target] = items[i].ID
		}
		for id := range targets {
			if _, ok := byID[id]; !ok {
				return &ranked.NotFoundError{Kind: "item", ID: id}
			}
		}

		// Phase 1: relocate touched items past the current maximum rank.
		// Temporary ranks stay unique (source ranks were) and cannot collide
		// with any untouched rank or any final rank, both of which are <= max.
		for id := range targets {
			if _, err := tx.ExecContext(ctx,
				`UPDATE item SET rank = rank + ? WHERE id = ?`, maxRank, id); err != nil {
				return &ranked.StoreError{Op: "relocate item rank", Err: err}
			}
		}

		// Phase 2: settle each touched item onto its final rank.
		for id, target := range targets {
			if _, err := tx.ExecContext(ctx,
				`UPDATE item SET rank = ? WHERE id = ?`, target, id); err != nil {
				return &ranked.StoreError{Op: "settle item rank", Err: err}
			}
		}

		// The net remote effect of a reorder is an update of the whole
		// ranking: replaying a ranking update re-syncs all of its items,
		// which uploads the new ranks.
		return s.queue.Enqueue(ctx, tx, outbox.Entry{
			Owner:    r.Owner,
			Op:       outbox.OpUpdate,
			Entity:   outbox.EntityRanking,
			EntityID: rankingID,
			RemoteID: r.RemoteID,
		})
	})
}

// Reorder assigns ranks from a complete ordering of the ranking's item
// ids: the first id gets rank 1, and so on. This is the shape the UI's
// drag-and-drop surface produces.
func (s *Service) Reorder(ctx context.Context, rankingID int64, orderedItemIDs []int64) error {
	if len(orderedItemIDs) == 0 {
		return nil
	}
	targets := make(map[int64]int, len(orderedItemIDs))
	for pos, id := range orderedItemIDs {
		if _, dup := targets[id]; dup {
			return &ranked.ValidationError{Field: "items", Reason: "is duplicated"}
		}
		targets[id] = pos + 1
	}
	return s.UpdateItemRanks(ctx, rankingID, targets)
}
