package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	NotificationEventUpdated    = "event_updated"
	NotificationEventCancelled  = "event_cancelled"
	NotificationTicketCancelled = "ticket_cancelled"
)

type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	ID         string    `bun:"id,pk" json:"id"`
	UserID     string    `bun:"user_id,notnull" json:"user_id"`
	Message    string    `bun:"message,notnull" json:"message"`
	Type       string    `bun:"type,notnull" json:"type"`
	EventID    string    `bun:"event_id,notnull" json:"event_id"`
	ReadStatus bool      `bun:"read_status" json:"read_status"`
	CreatedAt  time.Time `bun:"created_at" json:"created_at"`
}
