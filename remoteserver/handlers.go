// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package remoteserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ddong19/ranked/remote"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRanking(w http.ResponseWriter, r *http.Request) {
	var rec remote.RankingRecord
	if !decode(w, r, &rec) {
		return
	}
	if rec.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ownerFrom(r))

	if rec.ClientRef != "" {
		if existing, ok := u.byRef[rec.ClientRef]; ok {
			writeJSON(w, http.StatusOK, map[string]string{"remote_id": existing})
			return
		}
	}

	rd := &rankingData{
		id:          newRemoteID("rnk"),
		title:       rec.Title,
		description: rec.Description,
		createdAt:   rec.CreatedAt,
	}
	if rd.createdAt == "" {
		rd.createdAt = nowStamp()
	}
	u.rankings[rd.id] = rd
	u.order = append(u.order, rd.id)
	if rec.ClientRef != "" {
		u.byRef[rec.ClientRef] = rd.id
	}
	for _, it := range rec.Items {
		itemID := newRemoteID("itm")
		u.items[itemID] = &itemData{
			id:        itemID,
			rankingID: rd.id,
			name:      it.Name,
			notes:     it.Notes,
			rank:      it.Rank,
		}
		if it.ClientRef != "" {
			u.byRef[it.ClientRef] = itemID
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{"remote_id": rd.id})
}

func (s *Server) handleListRankings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ownerFrom(r))

	rankings := make([]remote.RankingRecord, 0, len(u.order))
	for _, id := range u.order {
		rankings = append(rankings, u.rankingRecord(u.rankings[id]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": rankings})
}

// handleUpdateRanking upserts: an update for an id this server has never
// seen (state lost, or a different environment) recreates the ranking
// under that id rather than failing the client's queue forever.
func (s *Server) handleUpdateRanking(w http.ResponseWriter, r *http.Request) {
	var rec remote.RankingRecord
	if !decode(w, r, &rec) {
		return
	}
	remoteID := chi.URLParam(r, "remoteID")

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ownerFrom(r))

	rd, ok := u.rankings[remoteID]
	if !ok {
		rd = &rankingData{id: remoteID, createdAt: nowStamp()}
		u.rankings[remoteID] = rd
		u.order = append(u.order, remoteID)
	}
	rd.title = rec.Title
	rd.description = rec.Description

	writeJSON(w, http.StatusOK, map[string]string{"remote_id": remoteID})
}

func (s *Server) handleDeleteRanking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ownerFrom(r))

	// Deleting the already-deleted succeeds: the client may replay a
	// delete whose confirmation was lost.
	u.dropRanking(chi.URLParam(r, "remoteID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var rec remote.ItemRecord
	if !decode(w, r, &rec) {
		return
	}
	if rec.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	rankingID := chi.URLParam(r, "remoteID")

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ownerFrom(r))

	if _, ok := u.rankings[rankingID]; !ok {
		writeError(w, http.StatusNotFound, "ranking not found")
		return
	}
	if rec.ClientRef != "" {
		if existing, ok := u.byRef[rec.ClientRef]; ok {
			writeJSON(w, http.StatusOK, map[string]string{"remote_id": existing})
			return
		}
	}

	itemID := newRemoteID("itm")
	u.items[itemID] = &itemData{
		id:        itemID,
		rankingID: rankingID,
		name:      rec.Name,
		notes:     rec.Notes,
		rank:      rec.Rank,
	}
	if rec.ClientRef != "" {
		u.byRef[rec.ClientRef] = itemID
	}

	writeJSON(w, http.StatusCreated, map[string]string{"remote_id": itemID})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var rec remote.ItemRecord
	if !decode(w, r, &rec) {
		return
	}
	remoteID := chi.URLParam(r, "remoteID")

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ownerFrom(r))

	it, ok := u.items[remoteID]
	if !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	it.name = rec.Name
	it.notes = rec.Notes
	it.rank = rec.Rank

	writeJSON(w, http.StatusOK, map[string]string{"remote_id": remoteID})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ownerFrom(r))

	delete(u.items, chi.URLParam(r, "remoteID"))
	w.WriteHeader(http.StatusNoContent)
}
