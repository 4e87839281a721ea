package store

import "database/sql"

// Ticket is one support request filed from the dashboard.
type Ticket struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Status      string `json:"status"`
	MachineID   string `json:"machine_id"`
	AppVersion  string `json:"app_version"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Tickets provides support ticket queries.
type Tickets struct {
	db *sql.DB
}

// NewTickets wraps the database with support ticket queries.
func NewTickets(db *sql.DB) *Tickets {
	return &Tickets{db: db}
}

const ticketColumns = `id, type, description, status, machine_id, app_version, created_at, updated_at`

// TicketInput is the payload for a new ticket.
type TicketInput struct {
	Type        string `json:"type" validate:"required,oneof=bug general automation"`
	Description string `json:"description" validate:"required,max=4000"`
	MachineID   string `json:"machine_id" validate:"max=128"`
	AppVersion  string `json:"app_version" validate:"max=64"`
}

// Create inserts a ticket and returns the stored row.
func (s *Tickets) Create(in TicketInput) (Ticket, error) {
	var t Ticket
	err := s.db.QueryRow(`INSERT INTO support_tickets (type, description, machine_id, app_version)
		VALUES (?, ?, ?, ?) RETURNING `+ticketColumns,
		in.Type, in.Description, in.MachineID, in.AppVersion).
		Scan(&t.ID, &t.Type, &t.Description, &t.Status, &t.MachineID, &t.AppVersion, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// List returns the most recent tickets.
func (s *Tickets) List(limit int) ([]Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+ticketColumns+` FROM support_tickets
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.Type, &t.Description, &t.Status, &t.MachineID, &t.AppVersion, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
