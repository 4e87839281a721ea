package server

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/aegeanview/hotelhub/internal/routing"
)

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"upstream": s.upstream.Status(),
	})
}

const diagnosticSampleSize = 5

// handleDiagnostic reports pipeline health: connection status, cache
// coverage of the routing table, a small entity sample and the subscriber
// count. Meant for humans debugging a blank dashboard.
func (s *Server) handleDiagnostic(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.cache.Snapshot()

	tracked := s.routes.TrackedIDs()
	inCache := 0
	var missing []string
	for _, id := range tracked {
		if _, ok := snapshot[id]; ok {
			inCache++
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > diagnosticSampleSize {
		missing = missing[:diagnosticSampleSize]
	}

	sample := make(map[string]string, diagnosticSampleSize)
	for id, state := range snapshot {
		if len(sample) == diagnosticSampleSize {
			break
		}
		sample[id] = state.State
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"upstream_status":  s.upstream.Status(),
		"cache_size":       s.cache.Len(),
		"tracked_expected": len(tracked),
		"tracked_in_cache": inCache,
		"missing_sample":   missing,
		"entity_sample":    sample,
		"subscribers":      s.registry.Count(),
	})
}

// handleGetRooms returns every room with its cached status entity and the
// active booking, for the initial page render.
func (s *Server) handleGetRooms(w http.ResponseWriter, _ *http.Request) {
	type roomInfo struct {
		ID      string `json:"id"`
		Floor   string `json:"floor"`
		Status  string `json:"status"`
		Booking any    `json:"booking"`
	}

	snapshot := s.cache.Snapshot()

	var rooms []roomInfo
	for floor, ids := range routing.FloorRooms {
		for _, id := range ids {
			info := roomInfo{ID: id, Floor: floor, Status: "unknown"}
			if state, ok := snapshot[routing.StatusEntity(id)]; ok {
				info.Status = state.State
			}
			booking, err := s.bookings.ActiveForRoom(id)
			if err == nil {
				info.Booking = booking
			} else if !errors.Is(err, sql.ErrNoRows) {
				s.log.Error().Err(err).Str("room", id).Msg("booking query failed")
				respondError(w, http.StatusInternalServerError, "database error")
				return
			}
			rooms = append(rooms, info)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}
