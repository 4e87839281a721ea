package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aegeanview/hotelhub/internal/metrics"
	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/store"
)

// handleGetBookings returns the bookings overlapping a date, plus the day's
// arrivals and departures. Defaults to today.
func (s *Server) handleGetBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	bookings, err := s.bookings.ByDate(date)
	if err != nil {
		s.log.Error().Err(err).Msg("bookings query failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	checkIns, err := s.bookings.CheckInsOn(date)
	if err != nil {
		s.log.Error().Err(err).Msg("check-ins query failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	checkOuts, err := s.bookings.CheckOutsOn(date)
	if err != nil {
		s.log.Error().Err(err).Msg("check-outs query failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":       date,
		"bookings":   bookings,
		"check_ins":  checkIns,
		"check_outs": checkOuts,
	})
}

// handleGetRoomBooking returns the active booking for one room, or null.
func (s *Server) handleGetRoomBooking(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	booking, err := s.bookings.ActiveForRoom(room)
	if errors.Is(err, sql.ErrNoRows) {
		respondJSON(w, http.StatusOK, map[string]any{"booking": nil})
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("room", room).Msg("booking query failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

// handleCreateBooking records a new reservation.
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in store.CreateInput
	if err := s.decodeBody(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !routing.ValidRoom(in.RoomID) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}
	if in.CheckOut <= in.CheckIn {
		respondError(w, http.StatusBadRequest, "check_out must be after check_in")
		return
	}

	booking, err := s.bookings.Create(in)
	if err != nil {
		s.log.Error().Err(err).Msg("booking insert failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// handleCheckIn marks a room occupied on the platform when a guest arrives.
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	s.invoke(w, r, "checkin", "input_select", "select_option",
		map[string]any{"entity_id": routing.StatusEntity(room), "option": "Occupied"})
}

// handleCheckOut closes the room's active booking and flips the room to
// Cleaning. The booking is closed even if the platform call fails so the
// timeline stays correct; the status can be retried from the room card.
func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	if err := s.bookings.Checkout(room); err != nil {
		s.log.Error().Err(err).Str("room", room).Msg("checkout update failed")
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := s.upstream.Invoke(r.Context(), "input_select", "select_option",
		map[string]any{"entity_id": routing.StatusEntity(room), "option": "Cleaning"}); err != nil {
		metrics.Commands.WithLabelValues("checkout", "error").Inc()
		s.log.Error().Err(err).Str("room", room).Msg("checkout status update failed")
		respondError(w, http.StatusServiceUnavailable, msgUpstreamDown)
		return
	}

	metrics.Commands.WithLabelValues("checkout", "ok").Inc()
	respondOK(w)
}
