package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/aegeanview/hotelhub/internal/config"
	"github.com/aegeanview/hotelhub/internal/store"
)

const sessionCookie = "hotelhub_session"

// ErrBadCredentials is returned for any login failure. Deliberately vague.
var ErrBadCredentials = errors.New("invalid credentials")

// RateLimiter tracks login attempts per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit attempts per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether another attempt from ip is permitted, recording it
// if so.
func (r *RateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.attempts[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.attempts[ip] = recent
		return false
	}

	r.attempts[ip] = append(recent, now)
	return true
}

// Reset clears attempts for an IP after a successful login.
func (r *RateLimiter) Reset(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, ip)
}

// AuthService verifies staff logins and manages browser sessions.
type AuthService struct {
	cfg         *config.Config
	users       *store.Users
	sessions    *store.Sessions
	rateLimiter *RateLimiter
}

// NewAuthService creates the auth service.
func NewAuthService(cfg *config.Config, users *store.Users, sessions *store.Sessions) *AuthService {
	return &AuthService{
		cfg:         cfg,
		users:       users,
		sessions:    sessions,
		rateLimiter: NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateWindow),
	}
}

// Login verifies credentials (and TOTP when configured) and creates a
// session.
func (a *AuthService) Login(email, password, totpCode string) (*store.Session, error) {
	user, err := a.users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if !user.CheckPassword(password) {
		return nil, ErrBadCredentials
	}
	if a.cfg.HasTOTP() && !totp.Validate(totpCode, a.cfg.Auth.TOTPSecret) {
		return nil, ErrBadCredentials
	}
	return a.sessions.Create(a.cfg.Auth.SessionTTL)
}

// GetSessionFromRequest extracts and validates the session cookie.
func (a *AuthService) GetSessionFromRequest(r *http.Request) (*store.Session, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, err
	}
	return a.sessions.Get(cookie.Value)
}

// DeleteSession removes a session on logout.
func (a *AuthService) DeleteSession(id string) error {
	return a.sessions.Delete(id)
}

// ValidateCSRF checks a CSRF token against the session in constant time.
func (a *AuthService) ValidateCSRF(session *store.Session, token string) bool {
	return subtle.ConstantTimeCompare([]byte(session.CSRFToken), []byte(token)) == 1
}

// IsRateLimited reports whether the IP has exhausted its login attempts.
func (a *AuthService) IsRateLimited(ip string) bool {
	return !a.rateLimiter.Allow(ip)
}

// ResetRateLimit clears the login rate limit for an IP.
func (a *AuthService) ResetRateLimit(ip string) {
	a.rateLimiter.Reset(ip)
}

// SetSessionCookie sets the session cookie on the response.
func (a *AuthService) SetSessionCookie(w http.ResponseWriter, session *store.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
}

// ClearSessionCookie removes the session cookie.
func (a *AuthService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
