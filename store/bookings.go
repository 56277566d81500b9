package store

import (
	"context"
	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lefinal/vrcafe-server/errors"
	"time"
)

// Booking is a stored session booking.
type Booking struct {
	ID          uuid.UUID
	UserID      string
	UserName    string
	PhoneNumber string
	// Date is the booked day in the format 2006-01-02.
	Date string
	// Time is the booked time slot in the format 15:04.
	Time        string
	StartsAt    time.Time
	Duration    int
	PlayerCount int
	GameMode    string
	TotalAmount int
	GameCode    string
	Status      string
	CreatedAt   time.Time
}

// CreateBooking inserts the given Booking.
func (m *Mall) CreateBooking(ctx context.Context, booking Booking) error {
	q, _, err := m.dialect.Insert(goqu.T("bookings")).Rows(goqu.Record{
		"id":           booking.ID,
		"user_id":      booking.UserID,
		"user_name":    booking.UserName,
		"phone_number": booking.PhoneNumber,
		"date":         booking.Date,
		"time":         booking.Time,
		"starts_at":    booking.StartsAt,
		"duration":     booking.Duration,
		"player_count": booking.PlayerCount,
		"game_mode":    booking.GameMode,
		"total_amount": booking.TotalAmount,
		"game_code":    booking.GameCode,
		"status":       booking.Status,
		"created_at":   booking.CreatedAt,
	}).ToSQL()
	if err != nil {
		return errors.NewQueryToSQLError(err, errors.Details{"booking_id": booking.ID})
	}
	_, err = m.db.Exec(ctx, q)
	if err != nil {
		return errors.NewExecQueryError(err, "exec query", q)
	}
	return nil
}

// BookingsByUser retrieves all bookings of the user with the given id, newest
// first.
func (m *Mall) BookingsByUser(ctx context.Context, userID string) ([]Booking, error) {
	q, _, err := m.dialect.From(goqu.T("bookings")).
		Select(goqu.C("id"),
			goqu.C("user_id"),
			goqu.C("user_name"),
			goqu.C("phone_number"),
			goqu.L(`to_char("date", 'YYYY-MM-DD')`),
			goqu.C("time"),
			goqu.C("starts_at"),
			goqu.C("duration"),
			goqu.C("player_count"),
			goqu.C("game_mode"),
			goqu.C("total_amount"),
			goqu.C("game_code"),
			goqu.C("status"),
			goqu.C("created_at")).
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Desc()).ToSQL()
	if err != nil {
		return nil, errors.NewQueryToSQLError(err, errors.Details{"user_id": userID})
	}
	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return nil, errors.NewExecQueryError(err, "query db", q)
	}
	defer rows.Close()
	bookings := make([]Booking, 0)
	for rows.Next() {
		var booking Booking
		err = rows.Scan(&booking.ID,
			&booking.UserID,
			&booking.UserName,
			&booking.PhoneNumber,
			&booking.Date,
			&booking.Time,
			&booking.StartsAt,
			&booking.Duration,
			&booking.PlayerCount,
			&booking.GameMode,
			&booking.TotalAmount,
			&booking.GameCode,
			&booking.Status,
			&booking.CreatedAt)
		if err != nil {
			return nil, errors.NewScanDBRowError(err, "scan row", q)
		}
		bookings = append(bookings, booking)
	}
	if rows.Err() != nil {
		return nil, errors.NewExecQueryError(rows.Err(), "read rows", q)
	}
	return bookings, nil
}

// UpdateBookingStatusStartedBefore sets the status of all bookings with status
// from to the status to, if they started before the given time. It returns the
// number of updated bookings.
func (m *Mall) UpdateBookingStatusStartedBefore(ctx context.Context, from string, to string, before time.Time) (int, error) {
	q, _, err := m.dialect.Update(goqu.T("bookings")).
		Set(goqu.Record{"status": to}).
		Where(goqu.C("status").Eq(from),
			goqu.C("starts_at").Lt(before)).ToSQL()
	if err != nil {
		return 0, errors.NewQueryToSQLError(err, errors.Details{"from": from, "to": to})
	}
	result, err := m.db.Exec(ctx, q)
	if err != nil {
		return 0, errors.NewExecQueryError(err, "exec query", q)
	}
	return int(result.RowsAffected()), nil
}
