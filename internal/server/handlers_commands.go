package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/aegeanview/hotelhub/internal/metrics"
	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

// decodeBody unmarshals the request body and runs struct validation.
func (s *Server) decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

// invoke runs one platform service call and writes the response, mapping
// upstream failures to a localized 503.
func (s *Server) invoke(w http.ResponseWriter, r *http.Request, endpoint, domain, service string, data map[string]any) {
	if err := s.upstream.Invoke(r.Context(), domain, service, data); err != nil {
		metrics.Commands.WithLabelValues(endpoint, "error").Inc()
		s.log.Error().Err(err).Str("endpoint", endpoint).Msg("command failed")
		if errors.Is(err, upstream.ErrUpstreamUnavailable) {
			respondError(w, http.StatusServiceUnavailable, msgUpstreamDown)
			return
		}
		respondError(w, http.StatusBadGateway, msgUpstreamDown)
		return
	}
	metrics.Commands.WithLabelValues(endpoint, "ok").Inc()
	respondOK(w)
}

type acRequest struct {
	Mode string   `json:"mode" validate:"omitempty,oneof=heat cool auto off"`
	Temp *float64 `json:"temp" validate:"omitempty,gte=16,lte=30"`
}

// handleAC sets the HVAC mode and/or target temperature of a room unit.
func (s *Server) handleAC(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	var req acRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Mode == "" && req.Temp == nil {
		respondError(w, http.StatusBadRequest, "mode or temp required")
		return
	}

	entity := routing.ACEntity(room)

	if req.Mode != "" {
		if err := s.upstream.Invoke(r.Context(), "climate", "set_hvac_mode",
			map[string]any{"entity_id": entity, "hvac_mode": req.Mode}); err != nil {
			metrics.Commands.WithLabelValues("ac", "error").Inc()
			s.log.Error().Err(err).Str("room", room).Msg("set_hvac_mode failed")
			respondError(w, http.StatusServiceUnavailable, msgUpstreamDown)
			return
		}
	}

	// No point setting a target temperature on a unit we just turned off.
	if req.Temp != nil && req.Mode != "off" {
		if err := s.upstream.Invoke(r.Context(), "climate", "set_temperature",
			map[string]any{"entity_id": entity, "temperature": *req.Temp}); err != nil {
			metrics.Commands.WithLabelValues("ac", "error").Inc()
			s.log.Error().Err(err).Str("room", room).Msg("set_temperature failed")
			respondError(w, http.StatusServiceUnavailable, msgUpstreamDown)
			return
		}
	}

	metrics.Commands.WithLabelValues("ac", "ok").Inc()
	respondOK(w)
}

type onRequest struct {
	On *bool `json:"on" validate:"required"`
}

// handleLight turns one light zone of a room on or off.
func (s *Server) handleLight(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	zone := chi.URLParam(r, "zone")
	if !routing.ValidRoom(room) || !routing.ValidZone(zone) {
		respondError(w, http.StatusBadRequest, "unknown room or zone")
		return
	}

	var req onRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	service := "turn_off"
	if *req.On {
		service = "turn_on"
	}
	s.invoke(w, r, "light", "light", service,
		map[string]any{"entity_id": routing.LightEntity(room, zone)})
}

type stateRequest struct {
	Status string `json:"status" validate:"required,oneof=Occupied Vacant Cleaning Preparing"`
}

// handleRoomState sets the housekeeping status of a room.
func (s *Server) handleRoomState(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	var req stateRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s.invoke(w, r, "room_state", "input_select", "select_option",
		map[string]any{"entity_id": routing.StatusEntity(room), "option": req.Status})
}

type lockRequest struct {
	Action string `json:"action" validate:"required,oneof=lock unlock"`
}

// handleLock locks or unlocks a room door.
func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	var req lockRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s.invoke(w, r, "lock", "lock", req.Action,
		map[string]any{"entity_id": routing.LockEntity(room)})
}

type windowRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// handleWindow sets the window-open flag for a room.
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	var req windowRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	service := "turn_off"
	if *req.Open {
		service = "turn_on"
	}
	s.invoke(w, r, "window", "input_boolean", service,
		map[string]any{"entity_id": routing.WindowEntity(room)})
}

// handleBoiler switches a room boiler on or off.
func (s *Server) handleBoiler(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if !routing.ValidRoom(room) {
		respondError(w, http.StatusBadRequest, "unknown room")
		return
	}

	var req onRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	service := "turn_off"
	if *req.On {
		service = "turn_on"
	}
	s.invoke(w, r, "boiler", "switch", service,
		map[string]any{"entity_id": routing.BoilerSwitchEntity(room)})
}

type heaterRequest struct {
	Min float64 `json:"min" validate:"gte=30,lte=75"`
	Max float64 `json:"max" validate:"gte=30,lte=75"`
}

// handleHeater sets the min/max temperature thresholds of a solar heater.
func (s *Server) handleHeater(w http.ResponseWriter, r *http.Request) {
	heater := chi.URLParam(r, "id")
	if !routing.ValidHeater(heater) {
		respondError(w, http.StatusBadRequest, "unknown heater")
		return
	}

	var req heaterRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Min >= req.Max {
		respondError(w, http.StatusBadRequest, "min must be below max")
		return
	}

	if err := s.upstream.Invoke(r.Context(), "input_number", "set_value",
		map[string]any{"entity_id": routing.HeaterMinEntity(heater), "value": req.Min}); err != nil {
		metrics.Commands.WithLabelValues("heater", "error").Inc()
		s.log.Error().Err(err).Str("heater", heater).Msg("set min threshold failed")
		respondError(w, http.StatusServiceUnavailable, msgUpstreamDown)
		return
	}
	if err := s.upstream.Invoke(r.Context(), "input_number", "set_value",
		map[string]any{"entity_id": routing.HeaterMaxEntity(heater), "value": req.Max}); err != nil {
		metrics.Commands.WithLabelValues("heater", "error").Inc()
		s.log.Error().Err(err).Str("heater", heater).Msg("set max threshold failed")
		respondError(w, http.StatusServiceUnavailable, msgUpstreamDown)
		return
	}

	metrics.Commands.WithLabelValues("heater", "ok").Inc()
	respondOK(w)
}

type automationRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// handleAutomation enables or disables one of the fixed automations.
func (s *Server) handleAutomation(w http.ResponseWriter, r *http.Request) {
	auto, ok := routing.AutomationByID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown automation")
		return
	}

	var req automationRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	service := "turn_off"
	if *req.Enabled {
		service = "turn_on"
	}
	s.invoke(w, r, "automation", "automation", service,
		map[string]any{"entity_id": auto.EntityID})
}
