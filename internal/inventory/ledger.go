// Package inventory owns the authoritative seat counts. It is the only
// writer of events.booked_seats.
package inventory

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"eventsure/internal/models"
)

var (
	ErrEventNotFound     = errors.New("inventory: event not found")
	ErrInsufficientSeats = errors.New("inventory: insufficient seats")
)

// Ledger runs against whatever bun handle the caller passes in, so hold and
// release join the caller's transaction when one is open.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// TryHold atomically increments booked_seats by quantity if the seats fit.
// The capacity check and the increment are a single conditional UPDATE, so
// two racing bookings for the last seats cannot both pass the check.
func (l *Ledger) TryHold(ctx context.Context, db bun.IDB, eventID string, quantity int) error {
	res, err := db.NewUpdate().
		Model((*models.Event)(nil)).
		Set("booked_seats = booked_seats + ?", quantity).
		Where("id = ?", eventID).
		Where("booked_seats + ? <= total_seats", quantity).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Zero rows: either the event does not exist or it is full.
	exists, err := db.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEventNotFound
	}
	return ErrInsufficientSeats
}

// Release returns quantity seats to the event, clamped so booked_seats never
// goes below zero. Releasing against a missing event is a no-op: the event
// was deleted and there is nothing to return the seats to.
func (l *Ledger) Release(ctx context.Context, db bun.IDB, eventID string, quantity int) error {
	_, err := db.NewUpdate().
		Model((*models.Event)(nil)).
		Set("booked_seats = CASE WHEN booked_seats > ? THEN booked_seats - ? ELSE 0 END", quantity, quantity).
		Where("id = ?", eventID).
		Exec(ctx)
	return err
}
