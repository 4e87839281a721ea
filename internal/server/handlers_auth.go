package server

import (
	"errors"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code"`
}

// handleLogin verifies staff credentials and issues a session cookie. The
// CSRF token comes back in the body; the browser sends it on every mutation.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if s.auth.IsRateLimited(ip) {
		s.log.Warn().Str("ip", ip).Msg("login rate limited")
		respondError(w, http.StatusTooManyRequests, "Too many attempts, try again later")
		return
	}

	var req loginRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	session, err := s.auth.Login(req.Email, req.Password, req.TOTPCode)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			respondError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		s.log.Error().Err(err).Msg("login failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.auth.ResetRateLimit(ip)
	s.auth.SetSessionCookie(w, session)
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"csrf_token": session.CSRFToken,
	})
}

// handleLogout destroys the session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session != nil {
		if err := s.auth.DeleteSession(session.ID); err != nil {
			s.log.Error().Err(err).Msg("session delete failed")
		}
	}
	s.auth.ClearSessionCookie(w)
	respondOK(w)
}
