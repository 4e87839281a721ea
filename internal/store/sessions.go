package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"
)

// Session is one logged-in browser session.
type Session struct {
	ID        string
	CSRFToken string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Sessions provides session persistence.
type Sessions struct {
	db *sql.DB
}

// NewSessions wraps the database with session queries.
func NewSessions(db *sql.DB) *Sessions {
	return &Sessions{db: db}
}

// Create inserts a new session valid for the given duration.
func (s *Sessions) Create(ttl time.Duration) (*Session, error) {
	id, err := secureToken(32)
	if err != nil {
		return nil, err
	}
	csrf, err := secureToken(32)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        id,
		CSRFToken: csrf,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	_, err = s.db.Exec(`INSERT INTO sessions (id, csrf_token, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.CSRFToken, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session if it exists and has not expired. Expired
// sessions are deleted on read.
func (s *Sessions) Get(id string) (*Session, error) {
	session := &Session{}
	err := s.db.QueryRow(`SELECT id, csrf_token, created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&session.ID, &session.CSRFToken, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.Delete(id)
		return nil, sql.ErrNoRows
	}
	return session, nil
}

// Delete removes a session.
func (s *Sessions) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func secureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
