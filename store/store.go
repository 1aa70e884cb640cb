// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package store owns the on-device SQLite database: schema creation,
// additive migration, transaction handling, and the persisted device
// identity. All relational integrity (cascade delete of a ranking's items,
// rank uniqueness within a ranking) is enforced here at the schema level,
// not in application code.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ddong19/ranked"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Helpers that must work both inside and outside a transaction accept a
// Querier instead of a concrete handle.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the SQLite handle for the local database file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at path, enables WAL and
// foreign-key enforcement, and brings the schema up to date. Open failure
// is fatal to the caller: there is no degraded mode without a local store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &ranked.StoreError{Op: "open", Err: err}
	}
	// One connection serializes all access; every multi-statement operation
	// additionally runs in a transaction so no half-applied step is visible.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA foreign_keys=ON`,
		`PRAGMA busy_timeout=5000`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &ranked.StoreError{Op: "configure", Err: err}
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying handle for single-statement reads and writes.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a transaction. An error from fn rolls the
// transaction back and is returned unchanged; begin and commit failures
// surface as StoreError. Either every statement in fn commits or none do.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &ranked.StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback() // Safe to call after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &ranked.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// Reset drops all application data and recreates an empty schema. Used on
// sign-out: the device keeps no authenticated user's data after logout.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"sync_outbox", "item", "ranking", "client_info"} {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return &ranked.StoreError{Op: "reset", Err: err}
		}
	}
	return migrate(s.db)
}

// DeviceID returns the persisted device identity, generating and storing a
// new one on first use. The id survives restarts and distinguishes this
// device's uploads on the backend.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT device_id FROM client_info WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id = uuid.New().String()
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO client_info (id, device_id) VALUES (1, ?)`, id); err != nil {
			return "", &ranked.StoreError{Op: "persist device id", Err: err}
		}
		return id, nil
	}
	if err != nil {
		return "", &ranked.StoreError{Op: "load device id", Err: err}
	}
	return id, nil
}

// Owner returns the persisted signed-in owner, or the anonymous sentinel
// when nobody is signed in.
func (s *Store) Owner(ctx context.Context) (string, error) {
	var owner sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT owner FROM client_info WHERE id = 1`).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ranked.OwnerAnonymous, nil
	}
	if err != nil {
		return "", &ranked.StoreError{Op: "load owner", Err: err}
	}
	if owner.String == "" {
		return ranked.OwnerAnonymous, nil
	}
	return owner.String, nil
}

// SetOwner persists the signed-in owner across restarts. Pass the
// anonymous sentinel to record sign-out.
func (s *Store) SetOwner(ctx context.Context, owner string) error {
	// The client_info row may not exist yet; DeviceID creates it.
	if _, err := s.DeviceID(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE client_info SET owner = ? WHERE id = 1`, owner); err != nil {
		return &ranked.StoreError{Op: "persist owner", Err: err}
	}
	return nil
}
