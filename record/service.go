// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package record implements the record service: the only path by which
// rankings and items are created, mutated, or deleted. Every multi-row
// mutation runs in a single transaction, rank contiguity is restored before
// any transaction commits, and each mutating call by an authenticated owner
// appends exactly one outbox entry describing its net remote effect.
package record

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ddong19/ranked"
	"github.com/ddong19/ranked/outbox"
	"github.com/ddong19/ranked/store"
)

// Service mediates all ranking/item mutations against the local store.
type Service struct {
	store    *store.Store
	queue    *outbox.Queue
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(st *store.Store, queue *outbox.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		queue:    queue,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateRankingInput carries the fields for a new ranking. ImportedLines
// become items ranked by their 1-based position; a line with a trailing
// parenthetical ("Beta (great)") splits into name and notes.
type CreateRankingInput struct {
	Title         string `validate:"required,max=255"`
	Description   string
	ImportedLines []string
}

// UpdateRankingInput carries a partial ranking update; nil fields are left
// unchanged.
type UpdateRankingInput struct {
	Title       *string `validate:"omitempty,min=1,max=255"`
	Description *string
}

// AddItemInput carries the fields for a new item. The item is always
// appended at the end of the rank sequence; callers wanting a specific
// position add then reorder.
type AddItemInput struct {
	Name  string `validate:"required,max=255"`
	Notes string
}

// UpdateItemInput carries a partial item update; nil fields are left
// unchanged. Rank never changes through this path.
type UpdateItemInput struct {
	Name  *string `validate:"omitempty,min=1,max=255"`
	Notes *string
}

// check runs struct validation and converts the first failure into a
// domain ValidationError.
func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return &ranked.ValidationError{Field: strings.ToLower(e.Field()), Reason: reasonFor(e)}
	}
	return err
}

func reasonFor(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "max":
		return "must not exceed " + e.Param() + " characters"
	default:
		return "is invalid"
	}
}

// ParseImportLine splits an imported line into an item name and optional
// notes. A trailing parenthetical separated by a space becomes the notes:
// "Beta (great)" -> ("Beta", "great").
func ParseImportLine(line string) (name, notes string) {
	line = strings.TrimSpace(line)
	if strings.HasSuffix(line, ")") {
		if i := strings.LastIndex(line, " ("); i > 0 {
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+2 : len(line)-1])
		}
	}
	return line, ""
}

// PendingSyncCount reports how many outbox entries are queued for owner.
func (s *Service) PendingSyncCount(ctx context.Context, owner string) (int, error) {
	return s.queue.PendingCount(ctx, owner)
}
