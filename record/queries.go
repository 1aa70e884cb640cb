// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/store"
)

// nullIfEmpty maps "" to NULL for optional text columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fetchRanking(ctx context.Context, q store.Querier, id int64) (*ranked.Ranking, error) {
	var (
		r           ranked.Ranking
		description sql.NullString
		remoteID    sql.NullString
		createdAt   string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, owner, title, description, remote_id, created_at
		FROM ranking WHERE id = ?
	`, id).Scan(&r.ID, &r.Owner, &r.Title, &description, &remoteID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ranked.NotFoundError{Kind: "ranking", ID: id}
	}
	if err != nil {
		return nil, &ranked.StoreError{Op: "load ranking", Err: err}
	}
	r.Description = description.String
	r.RemoteID = remoteID.String
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

func fetchRankingItems(ctx context.Context, q store.Querier, rankingID int64) ([]ranked.Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, ranking_id, owner, name, notes, rank, remote_id
		FROM item WHERE ranking_id = ?
		ORDER BY rank ASC
	`, rankingID)
	if err != nil {
		return nil, &ranked.StoreError{Op: "load items", Err: err}
	}
	defer rows.Close()
	return scanItems(rows)
}

func fetchItem(ctx context.Context, q store.Querier, id int64) (*ranked.Item, error) {
	var (
		it       ranked.Item
		notes    sql.NullString
		remoteID sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, ranking_id, owner, name, notes, rank, remote_id
		FROM item WHERE id = ?
	`, id).Scan(&it.ID, &it.RankingID, &it.Owner, &it.Name, &notes, &it.Rank, &remoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ranked.NotFoundError{Kind: "item", ID: id}
	}
	if err != nil {
		return nil, &ranked.StoreError{Op: "load item", Err: err}
	}
	it.Notes = notes.String
	it.RemoteID = remoteID.String
	return &it, nil
}

func scanItems(rows *sql.Rows) ([]ranked.Item, error) {
	var items []ranked.Item
	for rows.Next() {
		var (
			it       ranked.Item
			notes    sql.NullString
			remoteID sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.RankingID, &it.Owner, &it.Name, &notes, &it.Rank, &remoteID); err != nil {
			return nil, &ranked.StoreError{Op: "scan item", Err: err}
		}
		it.Notes = notes.String
		it.RemoteID = remoteID.String
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &ranked.StoreError{Op: "iterate items", Err: err}
	}
	return items, nil
}

// GetRanking loads one ranking with its items, rank ascending.
func (s *Service) GetRanking(ctx context.Context, id int64) (*ranked.Ranking, error) {
	r, err := fetchRanking(ctx, s.store.DB(), id)
	if err != nil {
		return nil, err
	}
	items, err := fetchRankingItems(ctx, s.store.DB(), id)
	if err != nil {
		return nil, err
	}
	r.Items = items
	return r, nil
}

// GetItem loads one item.
func (s *Service) GetItem(ctx context.Context, id int64) (*ranked.Item, error) {
	return fetchItem(ctx, s.store.DB(), id)
}

// LoadAll returns every ranking owned by owner, each with its items in
// rank order. This is the read surface the UI projection consumes.
func (s *Service) LoadAll(ctx context.Context, owner string) ([]ranked.Ranking, error) {
	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT id, owner, title, description, remote_id, created_at
		FROM ranking WHERE owner = ?
		ORDER BY id ASC
	`, owner)
	if err != nil {
		return nil, &ranked.StoreError{Op: "load rankings", Err: err}
	}
	defer rows.Close()

	var rankings []ranked.Ranking
	for rows.Next() {
		var (
			r           ranked.Ranking
			description sql.NullString
			remoteID    sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&r.ID, &r.Owner, &r.Title, &description, &remoteID, &createdAt); err != nil {
			return nil, &ranked.StoreError{Op: "scan ranking", Err: err}
		}
		r.Description = description.String
		r.RemoteID = remoteID.String
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		rankings = append(rankings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &ranked.StoreError{Op: "iterate rankings", Err: err}
	}

	itemRows, err := s.store.DB().QueryContext(ctx, `
		SELECT id, ranking_id, owner, name, notes, rank, remote_id
		FROM item WHERE owner = ?
		ORDER BY ranking_id ASC, rank ASC
	`, owner)
	if err != nil {
		return nil, &ranked.StoreError{Op: "load items", Err: err}
	}
	defer itemRows.Close()

	items, err := scanItems(itemRows)
	if err != nil {
		return nil, err
	}
	byRanking := make(map[int64][]ranked.Item, len(rankings))
	for _, it := range items {
		byRanking[it.RankingID] = append(byRanking[it.RankingID], it)
	}
	for i := range rankings {
		rankings[i].Items = byRanking[rankings[i].ID]
	}
	return rankings, nil
}

// CountRankings returns how many rankings owner has locally.
func (s *Service) CountRankings(ctx context.Context, owner string) (int, error) {
	var count int
	err := s.store.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ranking WHERE owner = ?`, owner).Scan(&count)
	if err != nil {
		return 0, &ranked.StoreError{Op: "count rankings", Err: err}
	}
	return count, nil
}

// SetRankingRemoteID records the backend-assigned identity of a ranking.
// Called by the sync engine once a create is confirmed remotely.
func (s *Service) SetRankingRemoteID(ctx context.Context, id int64, remoteID string) error {
	if _, err := s.store.DB().ExecContext(ctx,
		`UPDATE ranking SET remote_id = ? WHERE id = ?`, remoteID, id); err != nil {
		return &ranked.StoreError{Op: "set ranking remote id", Err: err}
	}
	return nil
}

// SetItemRemoteID records the backend-assigned identity of an item.
func (s *Service) SetItemRemoteID(ctx context.Context, id int64, remoteID string) error {
	if _, err := s.store.DB().ExecContext(ctx,
		`UPDATE item SET remote_id = ? WHERE id = ?`, remoteID, id); err != nil {
		return &ranked.StoreError{Op: "set item remote id", Err: err}
	}
	return nil
}
