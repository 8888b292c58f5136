package db

import (
	"context"

	"github.com/uptrace/bun"

	"eventsure/internal/models"
)

// Migrate creates the booking tables if they are missing.
func Migrate(db *bun.DB) error {
	ctx := context.Background()

	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.Ticket)(nil),
		(*models.Notification)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
