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

// CreateRanking inserts a new ranking for owner, optionally seeding items
// from imported lines (rank = 1-based position in input order, blank lines
// skipped). For authenticated owners one create entry is queued; the
// ranking's items are swept in when that entry replays.
func (s *Service) CreateRanking(ctx context.Context, owner string, in CreateRankingInput) (*ranked.Ranking, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if owner == "" {
		owner = ranked.OwnerAnonymous
	}

	var out *ranked.Ranking
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO ranking (owner, title, description) VALUES (?, ?, ?)
		`, owner, in.Title, nullIfEmpty(in.Description))
		if err != nil {
			return &ranked.StoreError{Op: "insert ranking", Err: err}
		}
		id, err := res.LastInsertId()
		if err != nil {
			return &ranked.StoreError{Op: "ranking id", Err: err}
		}

		rank := 0
		for _, line := range in.ImportedLines {
			name, notes := ParseImportLine(line)
			if name == "" {
				continue
			}
			if len(name) > 255 {
				return &ranked.ValidationError{Field: "name", Reason: "must not exceed 255 characters"}
			}
			rank++
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO item (ranking_id, owner, name, notes, rank) VALUES (?, ?, ?, ?, ?)
			`, id, owner, name, nullIfEmpty(notes), rank); err != nil {
				return &ranked.StoreError{Op: "insert imported item", Err: err}
			}
		}

		r, err := fetchRanking(ctx, tx, id)
		if err != nil {
			return err
		}
		r.Items, err = fetchRankingItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.queue.Enqueue(ctx, tx, outbox.Entry{
			Owner:    owner,
			Op:       outbox.OpCreate,
			Entity:   outbox.EntityRanking,
			EntityID: id,
		}); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRanking applies a partial update to title/description and returns
// the refreshed ranking.
func (s *Service) UpdateRanking(ctx context.Context, id int64, in UpdateRankingInput) (*ranked.Ranking, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	var out *ranked.Ranking
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		r, err := fetchRanking(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Title != nil {
			r.Title = strings.TrimSpace(*in.Title)
			if r.Title == "" {
				return &ranked.ValidationError{Field: "title", Reason: "is required"}
			}
		}
		if in.Description != nil {
			r.Description = *in.Description
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE ranking SET title = ?, description = ? WHERE id = ?
		`, r.Title, nullIfEmpty(r.Description), id); err != nil {
			return &ranked.StoreError{Op: "update ranking", Err: err}
		}

		if err := s.queue.Enqueue(ctx, tx, outbox.Entry{
			Owner:    r.Owner,
			Op:       outbox.OpUpdate,
			Entity:   outbox.EntityRanking,
			EntityID: id,
			RemoteID: r.RemoteID,
		}); err != nil {
			return err
		}
		r.Items, err = fetchRankingItems(ctx, tx, id)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRanking removes a ranking; the store cascades to its items. A
// remote delete is queued only when the ranking is known remotely — local
// ids mean nothing to the backend, so a never-synced ranking has nothing
// to retract.
func (s *Service) DeleteRanking(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		r, err := fetchRanking(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ranking WHERE id = ?`, id); err != nil {
			return &ranked.StoreError{Op: "delete ranking", Err: err}
		}
		if r.RemoteID == "" || ranked.IsAnonymous(r.Owner) {
			return nil
		}
		return s.queue.Enqueue(ctx, tx, outbox.Entry{
			Owner:    r.Owner,
			Op:       outbox.OpDelete,
			Entity:   outbox.EntityRanking,
			RemoteID: r.RemoteID,
		})
	})
}

// MigrateAnonymous reassigns every anonymously-owned ranking (and its
// items) to owner in one transaction and queues a create for each migrated
// ranking. Anonymous data always wins this merge: nothing is discarded or
// merged field-by-field with remote state. Returns the number of rankings
// migrated.
func (s *Service) MigrateAnonymous(ctx context.Context, owner string) (int, error) {
	if ranked.IsAnonymous(owner) {
		return 0, &ranked.ValidationError{Field: "owner", Reason: "is required"}
	}

	migrated := 0
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM ranking WHERE owner = ? ORDER BY id ASC`, ranked.OwnerAnonymous)
		if err != nil {
			return &ranked.StoreError{Op: "load anonymous rankings", Err: err}
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return &ranked.StoreError{Op: "scan ranking id", Err: err}
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return &ranked.StoreError{Op: "iterate rankings", Err: err}
		}
		if len(ids) == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE ranking SET owner = ? WHERE owner = ?`, owner, ranked.OwnerAnonymous); err != nil {
			return &ranked.StoreError{Op: "migrate rankings", Err: err}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE item SET owner = ? WHERE owner = ?`, owner, ranked.OwnerAnonymous); err != nil {
			return &ranked.StoreError{Op: "migrate items", Err: err}
		}

		for _, id := range ids {
			if err := s.queue.Enqueue(ctx, tx, outbox.Entry{
				Owner:    owner,
				Op:       outbox.OpCreate,
				Entity:   outbox.EntityRanking,
				EntityID: id,
			}); err != nil {
				return err
			}
		}
		migrated = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return migrated, nil
}

// InsertSynced stores rankings downloaded from the backend, remote ids
// attached, without touching the outbox — the rows arrive already synced
// and need no upload.
func (s *Service) InsertSynced(ctx context.Context, owner string, rankings []ranked.Ranking) error {
	if len(rankings) == 0 {
		return nil
	}
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rankings {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO ranking (owner, title, description, remote_id) VALUES (?, ?, ?, ?)
			`, owner, r.Title, nullIfEmpty(r.Description), r.RemoteID)
			if err != nil {
				return &ranked.StoreError{Op: "insert downloaded ranking", Err: err}
			}
			id, err := res.LastInsertId()
			if err != nil {
				return &ranked.StoreError{Op: "ranking id", Err: err}
			}
			for _, it := range r.Items {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO item (ranking_id, owner, name, notes, rank, remote_id)
					VALUES (?, ?, ?, ?, ?, ?)
				`, id, owner, it.Name, nullIfEmpty(it.Notes), it.Rank, it.RemoteID); err != nil {
					return &ranked.StoreError{Op: "insert downloaded item", Err: err}
				}
			}
		}
		return nil
	})
}
