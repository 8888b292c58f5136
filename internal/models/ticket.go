package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TicketPending   = "pending"
	TicketConfirmed = "confirmed"
)

// Ticket is a seat reservation against an event. It is created in "pending"
// the moment seats are held and moves to "confirmed" only after the payment
// assertion verifies. Cancellation deletes the row and returns the seats.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID   string  `bun:"ticket_id,pk" json:"ticket_id"`
	EventID    string  `bun:"event_id,notnull" json:"event_id"`
	UserID     string  `bun:"user_id,notnull" json:"user_id"`
	Quantity   int     `bun:"quantity,notnull" json:"quantity"`
	TotalPrice float64 `bun:"total_price,notnull" json:"total_price"`
	Status     string  `bun:"status" json:"status"`

	// Payment correlation, populated only once payment is confirmed.
	PaymentIntentID  string    `bun:"payment_intent_id,nullzero" json:"payment_intent_id,omitempty"`
	PaymentID        string    `bun:"payment_id,nullzero" json:"payment_id,omitempty"`
	PaymentSignature string    `bun:"payment_signature,nullzero" json:"-"`
	PaymentDate      time.Time `bun:"payment_date,nullzero" json:"payment_date,omitempty"`

	QRCode    []byte    `bun:"qr_code" json:"qr_code,omitempty"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

type BookingRequest struct {
	EventID  string `json:"event_id"`
	Quantity int    `json:"quantity"`
}

type BookingResponse struct {
	TicketID        string  `json:"ticket_id"`
	EventID         string  `json:"event_id"`
	Status          string  `json:"status"`
	Quantity        int     `json:"quantity"`
	TotalPrice      float64 `json:"total_price"`
	PaymentIntentID string  `json:"payment_intent_id,omitempty"`
}

// ConfirmRequest is the externally-asserted payment result. It is untrusted
// input: ownership and event existence are re-validated before the signature
// is checked.
type ConfirmRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}
