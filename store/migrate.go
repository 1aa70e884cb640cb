// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"fmt"

	"github.com/ddong19/ranked"
)

// schema is the create-if-missing DDL for the current release. Statements
// are idempotent so running them against an already-migrated database is a
// no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ranking (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		owner       TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT,
		remote_id   TEXT,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS item (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		ranking_id INTEGER NOT NULL REFERENCES ranking(id) ON DELETE CASCADE,
		owner      TEXT NOT NULL,
		name       TEXT NOT NULL,
		notes      TEXT,
		rank       INTEGER NOT NULL,
		remote_id  TEXT,
		UNIQUE (ranking_id, rank)
	)`,

	`CREATE TABLE IF NOT EXISTS sync_outbox (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		owner       TEXT NOT NULL,
		operation   TEXT NOT NULL CHECK (operation IN ('create','update','delete')),
		entity_kind TEXT NOT NULL CHECK (entity_kind IN ('ranking','item')),
		entity_id   INTEGER,
		remote_id   TEXT,
		payload     TEXT,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	// One row holding this device's persisted identity and sign-in state.
	`CREATE TABLE IF NOT EXISTS client_info (
		id        INTEGER PRIMARY KEY CHECK (id = 1),
		device_id TEXT NOT NULL,
		owner     TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_item_ranking ON item(ranking_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ranking_owner ON ranking(owner)`,
	`CREATE INDEX IF NOT EXISTS idx_item_owner ON item(owner)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_owner ON sync_outbox(owner, id)`,
}

type columnDef struct {
	name string
	decl string
}

// requiredColumns lists columns introduced after the initial release.
// Databases created by older builds gain them via ALTER TABLE; migration is
// additive only and never drops or rewrites existing data.
var requiredColumns = map[string][]columnDef{
	"ranking": {
		{"description", "TEXT"},
		{"remote_id", "TEXT"},
	},
	"item": {
		{"notes", "TEXT"},
		{"remote_id", "TEXT"},
	},
	"client_info": {
		{"owner", "TEXT"},
	},
}

func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return &ranked.StoreError{Op: "migrate", Err: err}
		}
	}

	for table, cols := range requiredColumns {
		existing, err := tableColumns(db, table)
		if err != nil {
			return err
		}
		for _, col := range cols {
			if existing[col.name] {
				continue
			}
			stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, col.name, col.decl)
			if _, err := db.Exec(stmt); err != nil {
				return &ranked.StoreError{Op: "add column " + table + "." + col.name, Err: err}
			}
		}
	}
	return nil
}

// tableColumns reads the column set of table from PRAGMA table_info.
func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, &ranked.StoreError{Op: "table info " + table, Err: err}
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid      int
			name     string
			colType  string
			notNull  int
			dflt     sql.NullString
			pkColumn int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pkColumn); err != nil {
			return nil, &ranked.StoreError{Op: "scan table info", Err: err}
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, &ranked.StoreError{Op: "iterate table info", Err: err}
	}
	return cols, nil
}
