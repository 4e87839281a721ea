package server

import (
	"net/http"
	"strconv"

	"github.com/aegeanview/hotelhub/internal/store"
)

// handleCreateTicket records a staff support ticket.
func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var in store.TicketInput
	if err := s.decodeBody(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ticket, err := s.tickets.Create(in)
	if err != nil {
		s.log.Error().Err(err).Msg("ticket insert failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusCreated, ticket)
}

// handleGetTickets lists recent tickets, newest first.
func (s *Server) handleGetTickets(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	tickets, err := s.tickets.List(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("tickets query failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}
