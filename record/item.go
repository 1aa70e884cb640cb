// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/outbox"
)

// AddItem appends a new item at the end of the ranking's sequence
// (rank = current count + 1). Insertion at an arbitrary position is add
// then reorder, never a direct mid-sequence insert.
func (s *Service) AddItem(ctx context.Context, rankingID int64, in AddItemInput) (*ranked.Item, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	var out *ranked.Item
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		r, err := fetchRanking(ctx, tx, rankingID)
		if err != nil {
			return err
		}
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM item WHERE ranking_id = ?`, rankingID).Scan(&count); err != nil {
			return &ranked.StoreError{Op: "count items", Err: err}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO item (ranking_id, owner, name, notes, rank) VALUES (?, ?, ?, ?, ?)
		`, rankingID, r.Owner, in.Name, nullIfEmpty(in.Notes), count+1)
		if err != nil {
			return &ranked.StoreError{Op: "insert item", Err: err}
		}
		id, err := res.LastInsertId()
		if err != nil {
			return &ranked.StoreError{Op: "item id", Err: err}
		}

		it, err := fetchItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.queue.Enqueue(ctx, tx, outbox.Entry{
			Owner:    it.Owner,
			Op:       outbox.OpCreate,
			Entity:   outbox.EntityItem,
			EntityID: id,
		}); err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateItem applies a partial update to name/notes in place. Rank is
// never changed here; that is the reorderer's job.
func (s *Service) UpdateItem(ctx context.Context, id int64, in UpdateItemInput) (*ranked.Item, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	var out *ranked.Item
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		it, err := fetchItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			it.Name = strings.TrimSpace(*in.Name)
			if it.Name == "" {
				return &ranked.ValidationError{Field: "name", Reason: "is required"}
			}
		}
		if in.Notes != nil {
			it.Notes = *in.Notes
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE item SET name = ?, notes = ? WHERE id = ?
		`, it.Name, nullIfEmpty(it.Notes), id); err != nil {
			return &ranked.StoreError{Op: "update item", Err: err}
		}

		if err := s.queue.Enqueue(ctx, tx, outbox.Entry{
			Owner:    it.Owner,
			Op:       outbox.OpUpdate,
			Entity:   outbox.EntityItem,
			EntityID: id,
			RemoteID: it.RemoteID,
		}); err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteItem removes an item and closes the gap it leaves: every item in
// the same ranking with a higher rank shifts down by one, restoring the
// {1..N} invariant before the transaction commits. Items are shifted in
// ascending rank order so the unique (ranking, rank) constraint never sees
// a transient collision.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		it, err := fetchItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM item WHERE id = ?`, id); err != nil {
			return &ranked.StoreError{Op: "delete item", Err: err}
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT id FROM item WHERE ranking_id = ? AND rank > ? ORDER BY rank ASC
		`, it.RankingID, it.Rank)
		if err != nil {
			return &ranked.StoreError{Op: "load shifted items", Err: err}
		}
		var shifted []int64
		for rows.Next() {
			var sid int64
			if err := rows.Scan(&sid); err != nil {
				rows.Close()
				return &ranked.StoreError{Op: "scan shifted item", Err: err}
			}
			shifted = append(shifted, sid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return &ranked.StoreError{Op: "iterate shifted items", Err: err}
		}
		for _, sid := range shifted {
			if _, err := tx.ExecContext(ctx,
				`UPDATE item SET rank = rank - 1 WHERE id = ?`, sid); err != nil {
				return &ranked.StoreError{Op: "shift item rank", Err: err}
			}
		}

		if it.RemoteID == "" || ranked.IsAnonymous(it.Owner) {
			return nil
		}
		return s.queue.Enqueue(ctx, tx, outbox.Entry{
			Owner:    it.Owner,
			Op:       outbox.OpDelete,
			Entity:   outbox.EntityItem,
			RemoteID: it.RemoteID,
		})
	})
}
