package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"eventsure/internal/inventory"
	"eventsure/internal/models"
)

var ErrNotFound = errors.New("record not found")

// DB is the booking core's view of the document store. Compound operations
// (hold + ticket insert, release + ticket delete) run inside a single bun
// transaction so a partial outcome is never committed.
type DB struct {
	Bun    *bun.DB
	Ledger *inventory.Ledger
}

func New(bunDB *bun.DB, ledger *inventory.Ledger) *DB {
	return &DB{Bun: bunDB, Ledger: ledger}
}

func (d *DB) GetEvent(id string) (*models.Event, error) {
	var ev models.Event
	err := d.Bun.NewSelect().
		Model(&ev).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (d *DB) GetTicketByID(id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketsByUser(userID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicketWithHold commits the seat hold and the pending ticket as one
// unit. If either half fails the transaction rolls back and no seats leak.
func (d *DB) CreateTicketWithHold(ticket models.Ticket) error {
	return d.Bun.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		if err := d.Ledger.TryHold(ctx, tx, ticket.EventID, ticket.Quantity); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&ticket).Exec(ctx)
		return err
	})
}

// UpdateTicket persists the confirmation fields of a ticket.
func (d *DB) UpdateTicket(ticket models.Ticket) error {
	res, err := d.Bun.NewUpdate().
		Model(&ticket).
		Column("status", "payment_intent_id", "payment_id", "payment_signature", "payment_date", "qr_code").
		Where("ticket_id = ?", ticket.TicketID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTicketWithRelease removes the ticket and returns its seats to the
// ledger in one transaction.
func (d *DB) DeleteTicketWithRelease(ticket models.Ticket) error {
	return d.Bun.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Ticket)(nil)).
			Where("ticket_id = ?", ticket.TicketID).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			// Already gone; nothing to release.
			return ErrNotFound
		}
		return d.Ledger.Release(ctx, tx, ticket.EventID, ticket.Quantity)
	})
}

// DeletePendingTicketWithRelease removes the ticket and returns its seats,
// but only while it is still pending. A ticket confirmed after the caller
// read it is left alone and ErrNotFound is returned with nothing released.
// The reaper must use this variant: its sweep races against Confirm, and a
// confirmed ticket is terminal.
func (d *DB) DeletePendingTicketWithRelease(ticket models.Ticket) error {
	return d.Bun.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Ticket)(nil)).
			Where("ticket_id = ?", ticket.TicketID).
			Where("status = ?", models.TicketPending).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return d.Ledger.Release(ctx, tx, ticket.EventID, ticket.Quantity)
	})
}

// ListPendingOlderThan returns pending tickets created before the cutoff.
// The reaper uses it to find holds whose timer may have lapsed.
func (d *DB) ListPendingOlderThan(cutoff time.Time) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("status = ?", models.TicketPending).
		Where("created_at < ?", cutoff).
		Order("created_at").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
