package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EventStatus string

const (
	EventPendingApproval EventStatus = "pending-approval"
	EventApproved        EventStatus = "approved"
	EventRejected        EventStatus = "rejected"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID            string      `bun:"id,pk" json:"id"`
	Name          string      `bun:"name,notnull" json:"name"`
	Description   string      `bun:"description" json:"description"`
	Date          time.Time   `bun:"date,notnull" json:"date"`
	Time          string      `bun:"time" json:"time"`
	Location      string      `bun:"location" json:"location"`
	Price         float64     `bun:"price,notnull" json:"price"`
	Discount      float64     `bun:"discount" json:"discount"`
	TotalSeats    int         `bun:"total_seats,notnull" json:"total_seats"`
	BookedSeats   int         `bun:"booked_seats" json:"booked_seats"`
	CreatedBy     string      `bun:"created_by,notnull" json:"created_by"`
	OrganizerName string      `bun:"organizer_name" json:"organizer_name"`
	EventPhoto    string      `bun:"event_photo" json:"event_photo,omitempty"`
	Status        EventStatus `bun:"status" json:"status"`
	CreatedAt     time.Time   `bun:"created_at" json:"created_at"`
}

// DiscountedPrice is the per-seat price after the event discount.
func (e *Event) DiscountedPrice() float64 {
	return e.Price * (100 - e.Discount) / 100
}

// AvailableSeats never goes negative: booked_seats is capped at total_seats
// by the inventory ledger.
func (e *Event) AvailableSeats() int {
	return e.TotalSeats - e.BookedSeats
}

// EventUpdate is the allow-listed patch shape for event updates. Nil fields
// are left untouched. Seat counts are deliberately absent: total_seats is
// immutable after creation and booked_seats belongs to the inventory ledger.
type EventUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Time        *string    `json:"time,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Discount    *float64   `json:"discount,omitempty"`
	EventPhoto  *string    `json:"event_photo,omitempty"`
}

type EventResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Date            time.Time   `json:"date"`
	Time            string      `json:"time"`
	Location        string      `json:"location"`
	Price           float64     `json:"price"`
	Discount        float64     `json:"discount"`
	DiscountedPrice float64     `json:"discounted_price"`
	TotalSeats      int         `json:"total_seats"`
	BookedSeats     int         `json:"booked_seats"`
	AvailableSeats  int         `json:"available_seats"`
	OrganizerName   string      `json:"organizer_name"`
	Status          EventStatus `json:"status"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Date:            e.Date,
		Time:            e.Time,
		Location:        e.Location,
		Price:           e.Price,
		Discount:        e.Discount,
		DiscountedPrice: e.DiscountedPrice(),
		TotalSeats:      e.TotalSeats,
		BookedSeats:     e.BookedSeats,
		AvailableSeats:  e.AvailableSeats(),
		OrganizerName:   e.OrganizerName,
		Status:          e.Status,
	}
}
