// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package remoteserver is a reference backend for the sync client: an
// in-memory, per-user ranking store behind the same HTTP surface the
// production service exposes. It exists for development and for
// exercising the full sync path in tests.
package remoteserver

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ddong19/ranked/auth"
	"github.com/ddong19/ranked/remote"
)

type ctxKey int

const ownerKey ctxKey = iota

type rankingData struct {
	id          string
	title       string
	description string
	createdAt   string
}

type itemData struct {
	id        string
	rankingID string
	name      string
	notes     string
	rank      int
}

// userData holds one user's rankings. byRef maps a client's idempotency
// key to the remote id it produced, so a replayed create returns the
// original record instead of minting a duplicate.
type userData struct {
	rankings map[string]*rankingData
	order    []string
	items    map[string]*itemData
	byRef    map[string]string
}

func newUserData() *userData {
	return &userData{
		rankings: make(map[string]*rankingData),
		items:    make(map[string]*itemData),
		byRef:    make(map[string]string),
	}
}

// Server implements the backend HTTP surface over in-memory state.
type Server struct {
	secret string
	logger *slog.Logger

	mu    sync.Mutex
	users map[string]*userData

	router chi.Router
}

// New builds a Server validating tokens against secret.
func New(secret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		secret: secret,
		logger: logger,
		users:  make(map[string]*userData),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/rankings", s.handleCreateRanking)
		r.Get("/rankings", s.handleListRankings)
		r.Put("/rankings/{remoteID}", s.handleUpdateRanking)
		r.Delete("/rankings/{remoteID}", s.handleDeleteRanking)
		r.Post("/rankings/{remoteID}/items", s.handleCreateItem)
		r.Put("/items/{remoteID}", s.handleUpdateItem)
		r.Delete("/items/{remoteID}", s.handleDeleteItem)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// authenticate resolves the bearer token to an owner and stashes it in
// the request context. The device claim is required but not otherwise
// used here.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.Parse(s.secret, token)
		if err != nil {
			s.logger.Debug("rejected token", "err", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}

// user returns the caller's data bucket, creating it on first touch.
// Callers must hold s.mu.
func (s *Server) user(owner string) *userData {
	u, ok := s.users[owner]
	if !ok {
		u = newUserData()
		s.users[owner] = u
	}
	return u
}

// newRemoteID mints a prefixed NanoID, e.g. "rnk-V1StGXR8_Z5jdHi6B-myT".
func newRemoteID(prefix string) string {
	return prefix + "-" + gonanoid.Must()
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (u *userData) rankingRecord(rd *rankingData) remote.RankingRecord {
	rec := remote.RankingRecord{
		RemoteID:    rd.id,
		Title:       rd.title,
		Description: rd.description,
		CreatedAt:   rd.createdAt,
	}
	for _, it := range u.items {
		if it.rankingID != rd.id {
			continue
		}
		rec.Items = append(rec.Items, remote.ItemRecord{
			RemoteID: it.id,
			Name:     it.name,
			Notes:    it.notes,
			Rank:     it.rank,
		})
	}
	sort.Slice(rec.Items, func(i, j int) bool { return rec.Items[i].Rank < rec.Items[j].Rank })
	return rec
}

func (u *userData) dropRanking(id string) {
	delete(u.rankings, id)
	for i, rid := range u.order {
		if rid == id {
			u.order = append(u.order[:i], u.order[i+1:]...)
			break
		}
	}
	for itemID, it := range u.items {
		if it.rankingID == id {
			delete(u.items, itemID)
		}
	}
}
