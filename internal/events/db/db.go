package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"eventsure/internal/models"
)

var ErrNotFound = errors.New("record not found")

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) CreateEvent(event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(context.Background())
	return err
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

// UpdateEvent writes the mutable event fields. Seat counts are never
// touched here; booked_seats belongs to the inventory ledger.
func (d *DB) UpdateEvent(event models.Event) error {
	res, err := d.Bun.NewUpdate().
		Model(&event).
		Column("name", "description", "date", "time", "location", "price", "discount", "event_photo", "status").
		Where("id = ?", event.ID).
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

func (d *DB) DeleteEvent(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
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

func (d *DB) ListByOrganizer(userID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("created_by = ?", userID).
		Order("date").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) ListApproved() ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", models.EventApproved).
		Order("date").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

// TicketHolders returns the distinct purchasers holding tickets for an
// event, for notification fan-out.
func (d *DB) TicketHolders(eventID string) ([]string, error) {
	var userIDs []string
	err := d.Bun.NewSelect().
		ColumnExpr("DISTINCT user_id").
		Table("tickets").
		Where("event_id = ?", eventID).
		Scan(context.Background(), &userIDs)
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (d *DB) CreateNotification(notification models.Notification) error {
	_, err := d.Bun.NewInsert().Model(&notification).Exec(context.Background())
	return err
}

func (d *DB) GetNotificationsForUser(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := d.Bun.NewSelect().
		Model(&notifications).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
