// Package server wires the HTTP surface of the dashboard: login, the live
// event stream, device command endpoints, bookings and support CRUD, and
// diagnostics.
package server

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/config"
	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/sse"
	"github.com/aegeanview/hotelhub/internal/store"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

// Server is the dashboard HTTP server.
type Server struct {
	cfg      *config.Config
	log      zerolog.Logger
	auth     *AuthService
	bookings *store.Bookings
	tickets  *store.Tickets

	routes   *routing.Table
	cache    *upstream.Cache
	upstream *upstream.Manager
	registry *sse.Registry
	stream   http.Handler

	validate *validator.Validate
	router   *chi.Mux
}

// New assembles the server from its collaborators.
func New(cfg *config.Config, db *sql.DB, routes *routing.Table, cache *upstream.Cache,
	manager *upstream.Manager, registry *sse.Registry, log zerolog.Logger) *Server {

	s := &Server{
		cfg:      cfg,
		log:      log.With().Str("component", "server").Logger(),
		auth:     NewAuthService(cfg, store.NewUsers(db), store.NewSessions(db)),
		bookings: store.NewBookings(db),
		tickets:  store.NewTickets(db),
		routes:   routes,
		cache:    cache,
		upstream: manager,
		registry: registry,
		stream:   sse.NewHandler(cache, manager, registry, cfg.Stream.Keepalive, log),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.securityHeaders)
	r.Use(s.requestLogger)

	// Public routes.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/login", s.handleLogin)

	// Everything else requires a session.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/api/stream", s.stream.ServeHTTP)
		r.Get("/api/diagnostic", s.handleDiagnostic)

		r.Get("/api/rooms", s.handleGetRooms)
		r.Get("/api/bookings", s.handleGetBookings)
		r.Get("/api/bookings/room/{id}", s.handleGetRoomBooking)
		r.Get("/api/support", s.handleGetTickets)

		// State-changing routes need CSRF on top of the session.
		r.Group(func(r chi.Router) {
			r.Use(s.requireCSRF)

			r.Post("/api/logout", s.handleLogout)

			r.Post("/api/rooms/{id}/ac", s.handleAC)
			r.Post("/api/rooms/{id}/lights/{zone}", s.handleLight)
			r.Post("/api/rooms/{id}/state", s.handleRoomState)
			r.Post("/api/rooms/{id}/checkin", s.handleCheckIn)
			r.Post("/api/rooms/{id}/checkout", s.handleCheckOut)
			r.Post("/api/lock/{id}", s.handleLock)
			r.Post("/api/window/{id}", s.handleWindow)
			r.Post("/api/hotwater/boiler/{id}", s.handleBoiler)
			r.Post("/api/hotwater/heater/{id}", s.handleHeater)
			r.Post("/api/automations/{id}", s.handleAutomation)

			r.Post("/api/bookings", s.handleCreateBooking)
			r.Post("/api/support", s.handleCreateTicket)
		})
	})

	s.router = r
}

// securityHeaders adds security headers to responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// requireAuth rejects requests without a valid session.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.auth.GetSessionFromRequest(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

// requireCSRF validates the CSRF token on state-changing requests.
func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		session := sessionFromContext(r.Context())
		if session == nil {
			respondError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		token := r.Header.Get("X-CSRF-Token")
		if !s.auth.ValidateCSRF(session, token) {
			respondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP normalizes RemoteAddr by stripping the port.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if colon := strings.LastIndex(ip, ":"); colon != -1 {
		if bracket := strings.LastIndex(ip, "]"); bracket == -1 || colon > bracket {
			ip = ip[:colon]
		}
	}
	return ip
}

// Run starts the server.
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.cfg.Server.Listen).Msg("starting dashboard server")
	return http.ListenAndServe(s.cfg.Server.Listen, s.router)
}

// Router returns the HTTP router (for testing).
func (s *Server) Router() http.Handler {
	return s.router
}
