package store

import (
	"database/sql"

	"golang.org/x/crypto/bcrypt"
)

// User is one staff account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    string
}

// Users provides staff account queries.
type Users struct {
	db *sql.DB
}

// NewUsers wraps the database with user queries.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// ByEmail returns the user with the given email, or sql.ErrNoRows.
func (s *Users) ByEmail(email string) (User, error) {
	var u User
	err := s.db.QueryRow(`SELECT id, name, email, password_hash, created_at
		FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// Create inserts a user with a bcrypt-hashed password.
func (s *Users) Create(name, email, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	var u User
	err = s.db.QueryRow(`INSERT INTO users (name, email, password_hash)
		VALUES (?, ?, ?) RETURNING id, name, email, password_hash, created_at`,
		name, email, string(hash)).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// CheckPassword verifies a candidate password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
