package store

import (
	"database/sql"
)

// Booking is one guest reservation for a room.
type Booking struct {
	ID            int64  `json:"id"`
	RoomID        string `json:"room_id"`
	GuestName     string `json:"guest_name"`
	CheckIn       string `json:"check_in"`  // ISO 8601 date
	CheckOut      string `json:"check_out"` // ISO 8601 date
	BookingSource string `json:"booking_source"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// BookingSources are the accepted booking_source values.
var BookingSources = []string{"Airbnb", "Booking.com", "Direct", "Walk-in"}

// Bookings provides booking queries over the shared database.
type Bookings struct {
	db *sql.DB
}

// NewBookings wraps the database with booking queries.
func NewBookings(db *sql.DB) *Bookings {
	return &Bookings{db: db}
}

const bookingColumns = `id, room_id, guest_name, check_in, check_out, booking_source, status, created_at`

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.RoomID, &b.GuestName, &b.CheckIn, &b.CheckOut, &b.BookingSource, &b.Status, &b.CreatedAt)
	return b, err
}

func (s *Bookings) queryAll(query string, args ...any) ([]Booking, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ByDate returns active bookings overlapping the given date, for the
// timeline view.
func (s *Bookings) ByDate(date string) ([]Booking, error) {
	return s.queryAll(`SELECT `+bookingColumns+` FROM bookings WHERE status = 'active'
		AND date(check_in) <= date(?) AND date(check_out) >= date(?)
		ORDER BY check_in ASC`, date, date)
}

// CheckInsOn returns active bookings arriving on the given date.
func (s *Bookings) CheckInsOn(date string) ([]Booking, error) {
	return s.queryAll(`SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'active' AND date(check_in) = date(?) ORDER BY check_in ASC`, date)
}

// CheckOutsOn returns active bookings departing on the given date.
func (s *Bookings) CheckOutsOn(date string) ([]Booking, error) {
	return s.queryAll(`SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'active' AND date(check_out) = date(?) ORDER BY check_out ASC`, date)
}

// ActiveForRoom returns the current active booking for a room, or
// sql.ErrNoRows when the room is free.
func (s *Bookings) ActiveForRoom(roomID string) (Booking, error) {
	row := s.db.QueryRow(`SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = ? AND status = 'active' ORDER BY check_in DESC LIMIT 1`, roomID)
	return scanBooking(row)
}

// CreateInput is the payload for a new booking.
type CreateInput struct {
	RoomID        string `json:"room_id" validate:"required"`
	GuestName     string `json:"guest_name" validate:"required,max=200"`
	CheckIn       string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut      string `json:"check_out" validate:"required,datetime=2006-01-02"`
	BookingSource string `json:"booking_source" validate:"required,oneof=Airbnb Booking.com Direct Walk-in"`
}

// Create inserts a booking and returns the stored row.
func (s *Bookings) Create(in CreateInput) (Booking, error) {
	row := s.db.QueryRow(`INSERT INTO bookings (room_id, guest_name, check_in, check_out, booking_source)
		VALUES (?, ?, ?, ?, ?) RETURNING `+bookingColumns,
		in.RoomID, in.GuestName, in.CheckIn, in.CheckOut, in.BookingSource)
	return scanBooking(row)
}

// Checkout marks every active booking for the room as checked out.
func (s *Bookings) Checkout(roomID string) error {
	_, err := s.db.Exec(`UPDATE bookings SET status = 'checked_out'
		WHERE room_id = ? AND status = 'active'`, roomID)
	return err
}
