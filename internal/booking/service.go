package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"eventsure/internal/booking/db"
	"eventsure/internal/inventory"
	"eventsure/internal/logger"
	"eventsure/internal/models"
	"eventsure/internal/monitoring"
	"eventsure/internal/payment"
)

type DBLayer interface {
	GetEvent(id string) (*models.Event, error)
	GetTicketByID(id string) (*models.Ticket, error)
	GetTicketsByUser(userID string) ([]models.Ticket, error)
	CreateTicketWithHold(ticket models.Ticket) error
	UpdateTicket(ticket models.Ticket) error
	DeleteTicketWithRelease(ticket models.Ticket) error
	DeletePendingTicketWithRelease(ticket models.Ticket) error
	ListPendingOlderThan(cutoff time.Time) ([]models.Ticket, error)
}

// HoldTimer tracks the expiry clock of each pending hold.
type HoldTimer interface {
	Arm(ticketID string) error
	Clear(ticketID string) error
	Active(ticketID string) (bool, error)
}

// IntentClient is the external payment-intent service. Amounts are in minor
// currency units.
type IntentClient interface {
	CreateIntent(amountMinorUnits int64, receiptRef string) (string, error)
}

type Publisher interface {
	Publish(userID string, payload []byte) error
}

// Service is the reservation state machine: pending the instant a hold
// succeeds, confirmed only via verified payment, cancelled (deleted) under
// the cancellation policy. It is the sole writer of ticket status and
// payment fields.
type Service struct {
	DB        DBLayer
	Holds     HoldTimer
	Intents   IntentClient
	Publisher Publisher

	secret  string
	holdTTL time.Duration
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(dbLayer DBLayer, holds HoldTimer, intents IntentClient, publisher Publisher, sharedSecret string, holdTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		DB:        dbLayer,
		Holds:     holds,
		Intents:   intents,
		Publisher: publisher,
		secret:    sharedSecret,
		holdTTL:   holdTTL,
		logger:    log,
		now:       time.Now,
	}
}

// BeginBooking holds seats and creates the pending ticket as one atomic
// unit, then creates the payment intent outside the transaction. This is
// the only path that creates tickets.
func (s *Service) BeginBooking(eventID, userID string, quantity int) (*models.Ticket, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	if event.Status != models.EventApproved {
		return nil, ErrEventNotFound
	}

	ticket := models.Ticket{
		TicketID:   uuid.NewString(),
		EventID:    eventID,
		UserID:     userID,
		Quantity:   quantity,
		TotalPrice: event.DiscountedPrice() * float64(quantity),
		Status:     models.TicketPending,
		CreatedAt:  s.now(),
	}

	if err := s.DB.CreateTicketWithHold(ticket); err != nil {
		switch {
		case errors.Is(err, inventory.ErrInsufficientSeats):
			monitoring.CapacityRejections.Inc()
			return nil, ErrCapacityExceeded
		case errors.Is(err, inventory.ErrEventNotFound):
			return nil, ErrEventNotFound
		default:
			return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
		}
	}
	monitoring.BookingsStarted.Inc()
	s.logger.Info("BOOKING", fmt.Sprintf("Held %d seat(s) on event %s, ticket %s pending", quantity, eventID, ticket.TicketID))

	if err := s.Holds.Arm(ticket.TicketID); err != nil {
		// The reaper treats a missing timer as already lapsed, so a failed
		// arm shortens the hold rather than leaking it.
		s.logger.Warn("BOOKING", fmt.Sprintf("Failed to arm hold timer for ticket %s: %v", ticket.TicketID, err))
	}

	// Payment is pursued after the hold is committed; the inventory
	// transaction is never held open across this round trip.
	intentID, err := s.Intents.CreateIntent(minorUnits(ticket.TotalPrice), ticket.TicketID)
	if err != nil {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Failed to create payment intent for ticket %s: %v", ticket.TicketID, err))
		return &ticket, nil
	}

	ticket.PaymentIntentID = intentID
	if err := s.DB.UpdateTicket(ticket); err != nil {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Failed to store intent id on ticket %s: %v", ticket.TicketID, err))
	}
	return &ticket, nil
}

// RequestPaymentIntent returns the ticket's payment intent, creating one if
// booking-time creation failed. Pending tickets only.
func (s *Service) RequestPaymentIntent(ticketID, requesterID string) (string, error) {
	ticket, err := s.getOwnedTicket(ticketID, requesterID)
	if err != nil {
		return "", err
	}
	if ticket.Status != models.TicketPending {
		return "", fmt.Errorf("cannot create payment intent for a %s ticket", ticket.Status)
	}
	if ticket.PaymentIntentID != "" {
		return ticket.PaymentIntentID, nil
	}

	intentID, err := s.Intents.CreateIntent(minorUnits(ticket.TotalPrice), ticket.TicketID)
	if err != nil {
		return "", err
	}
	ticket.PaymentIntentID = intentID
	if err := s.DB.UpdateTicket(*ticket); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return intentID, nil
}

// Confirm applies an externally-asserted payment result. The assertion is
// untrusted input: ticket ownership and event existence are re-validated
// before the signature is checked. Idempotent for already-confirmed tickets.
func (s *Service) Confirm(ticketID, requesterID string, assertion models.ConfirmRequest) (*models.Ticket, error) {
	ticket, err := s.getOwnedTicket(ticketID, requesterID)
	if err != nil {
		return nil, err
	}

	if _, err := s.DB.GetEvent(ticket.EventID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}

	// When an intent was recorded at booking time the assertion must be for
	// that intent: a validly-signed assertion for some other (cheaper) order
	// must not confirm this ticket.
	if ticket.PaymentIntentID != "" && assertion.OrderID != ticket.PaymentIntentID {
		monitoring.VerificationFailures.Inc()
		s.logger.Warn("PAYMENT", fmt.Sprintf("Order id mismatch on ticket %s: asserted %s, recorded %s", ticketID, assertion.OrderID, ticket.PaymentIntentID))
		return nil, ErrVerificationFailed
	}

	if !payment.Verify(assertion.OrderID, assertion.PaymentID, assertion.Signature, s.secret) {
		monitoring.VerificationFailures.Inc()
		s.logger.Warn("PAYMENT", fmt.Sprintf("Signature mismatch on ticket %s", ticketID))
		// The ticket stays pending and its seats stay held: a failed
		// verification does not prove the payment did not happen. The
		// reaper's TTL is the backstop.
		return nil, ErrVerificationFailed
	}

	if ticket.Status == models.TicketConfirmed {
		return ticket, nil
	}

	qr, err := entryQR(*ticket)
	if err != nil {
		s.logger.Warn("BOOKING", fmt.Sprintf("Failed to generate entry QR for ticket %s: %v", ticketID, err))
	}

	ticket.Status = models.TicketConfirmed
	if ticket.PaymentIntentID == "" {
		// Booking-time intent creation failed; adopt the asserted order id.
		ticket.PaymentIntentID = assertion.OrderID
	}
	ticket.PaymentID = assertion.PaymentID
	ticket.PaymentSignature = assertion.Signature
	ticket.PaymentDate = s.now()
	ticket.QRCode = qr

	if err := s.DB.UpdateTicket(*ticket); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	monitoring.BookingsConfirmed.Inc()
	s.logger.Info("BOOKING", fmt.Sprintf("Ticket %s confirmed (payment %s)", ticketID, assertion.PaymentID))

	if err := s.Holds.Clear(ticketID); err != nil {
		s.logger.Warn("BOOKING", fmt.Sprintf("Failed to clear hold timer for ticket %s: %v", ticketID, err))
	}
	return ticket, nil
}

// Cancel removes the ticket and returns its seats, gated by the 24 hour
// cancellation policy.
func (s *Service) Cancel(ticketID, requesterID string) error {
	ticket, err := s.getOwnedTicket(ticketID, requesterID)
	if err != nil {
		return err
	}

	event, err := s.DB.GetEvent(ticket.EventID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	}

	if !CanCancel(event.Date, s.now()) {
		return ErrPolicyViolation
	}

	if err := s.DB.DeleteTicketWithRelease(*ticket); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	monitoring.BookingsCancelled.Inc()
	s.logger.Info("BOOKING", fmt.Sprintf("Ticket %s cancelled, %d seat(s) released on event %s", ticketID, ticket.Quantity, ticket.EventID))

	if err := s.Holds.Clear(ticketID); err != nil {
		s.logger.Warn("BOOKING", fmt.Sprintf("Failed to clear hold timer for ticket %s: %v", ticketID, err))
	}
	s.notifyCancellation(*ticket, event)
	return nil
}

func (s *Service) GetTicketsForUser(userID string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return tickets, nil
}

// ReleaseExpired deletes pending tickets whose hold timer has lapsed and
// returns their seats. Returns the number of holds released.
func (s *Service) ReleaseExpired() (int, error) {
	cutoff := s.now().Add(-s.holdTTL)
	stale, err := s.DB.ListPendingOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}

	released := 0
	for _, ticket := range stale {
		active, err := s.Holds.Active(ticket.TicketID)
		if err != nil {
			s.logger.Warn("REAPER", fmt.Sprintf("Hold timer check failed for ticket %s: %v", ticket.TicketID, err))
			continue
		}
		if active {
			continue
		}

		// Pending-only delete: a ticket confirmed between the listing and
		// this point must survive the sweep with its seats intact.
		if err := s.DB.DeletePendingTicketWithRelease(ticket); err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				s.logger.Error("REAPER", fmt.Sprintf("Failed to release expired hold %s: %v", ticket.TicketID, err))
			}
			continue
		}
		monitoring.HoldsExpired.Inc()
		released++
		s.logger.Info("REAPER", fmt.Sprintf("Released expired hold %s (%d seat(s) on event %s)", ticket.TicketID, ticket.Quantity, ticket.EventID))
	}
	return released, nil
}

func (s *Service) getOwnedTicket(ticketID, requesterID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	if ticket.UserID != requesterID {
		return nil, ErrForbidden
	}
	return ticket, nil
}

func (s *Service) notifyCancellation(ticket models.Ticket, event *models.Event) {
	payload, err := json.Marshal(map[string]string{
		"type":      models.NotificationTicketCancelled,
		"ticket_id": ticket.TicketID,
		"event_id":  ticket.EventID,
		"message":   fmt.Sprintf("Your booking for %q was cancelled. Refund will process in a few days.", event.Name),
	})
	if err != nil {
		return
	}
	if err := s.Publisher.Publish(ticket.UserID, payload); err != nil {
		s.logger.Warn("NOTIFY", fmt.Sprintf("Failed to publish cancellation for ticket %s: %v", ticket.TicketID, err))
	}
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
