// Package events manages the event catalogue: organizer CRUD, admin
// approval, and notification fan-out to ticket holders on changes. Seat
// counts are read-only here; the inventory ledger owns them.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventsure/internal/events/db"
	"eventsure/internal/logger"
	"eventsure/internal/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrForbidden     = errors.New("caller does not own this resource")
	ErrInvalidEvent  = errors.New("invalid event")
)

type DBLayer interface {
	CreateEvent(event models.Event) error
	GetEvent(id string) (*models.Event, error)
	UpdateEvent(event models.Event) error
	DeleteEvent(id string) error
	ListByOrganizer(userID string) ([]models.Event, error)
	ListApproved() ([]models.Event, error)
	TicketHolders(eventID string) ([]string, error)
	CreateNotification(notification models.Notification) error
	GetNotificationsForUser(userID string) ([]models.Notification, error)
}

type Publisher interface {
	Publish(userID string, payload []byte) error
}

type Service struct {
	DB        DBLayer
	Publisher Publisher

	logger *logger.Logger
	now    func() time.Time
}

func NewService(dbLayer DBLayer, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		DB:        dbLayer,
		Publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

type CreateEventInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	Discount    float64   `json:"discount"`
	TotalSeats  int       `json:"total_seats"`
	EventPhoto  string    `json:"event_photo"`
}

// Create registers a new event awaiting admin approval.
func (s *Service) Create(in CreateEventInput, organizerID, organizerName string) (*models.Event, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidEvent)
	}
	if in.Discount < 0 || in.Discount > 100 {
		return nil, fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidEvent)
	}
	if in.TotalSeats < 1 {
		return nil, fmt.Errorf("%w: total seats must be at least 1", ErrInvalidEvent)
	}

	event := models.Event{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		Date:          in.Date,
		Time:          in.Time,
		Location:      in.Location,
		Price:         in.Price,
		Discount:      in.Discount,
		TotalSeats:    in.TotalSeats,
		BookedSeats:   0,
		CreatedBy:     organizerID,
		OrganizerName: organizerName,
		EventPhoto:    in.EventPhoto,
		Status:        models.EventPendingApproval,
		CreatedAt:     s.now(),
	}
	if err := s.DB.CreateEvent(event); err != nil {
		return nil, err
	}
	s.logger.Info("EVENT", fmt.Sprintf("Event %s created by %s, awaiting approval", event.ID, organizerID))
	return &event, nil
}

func (s *Service) Get(id string) (*models.Event, error) {
	event, err := s.DB.GetEvent(id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return event, err
}

func (s *Service) ListApproved() ([]models.Event, error) {
	return s.DB.ListApproved()
}

func (s *Service) ListByOrganizer(userID string) ([]models.Event, error) {
	return s.DB.ListByOrganizer(userID)
}

// Update applies an allow-listed patch to an event the requester owns, then
// notifies every ticket holder. Notification delivery is best effort.
func (s *Service) Update(eventID, requesterID string, patch models.EventUpdate) (*models.Event, error) {
	event, err := s.DB.GetEvent(eventID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != requesterID {
		return nil, ErrForbidden
	}

	if err := applyPatch(event, patch); err != nil {
		return nil, err
	}
	if err := s.DB.UpdateEvent(*event); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	s.notifyTicketHolders(event, models.NotificationEventUpdated,
		fmt.Sprintf("Event %q has been updated. Check the latest details.", event.Name))
	return event, nil
}

// Delete removes an owned event and tells ticket holders.
func (s *Service) Delete(eventID, requesterID string) error {
	event, err := s.DB.GetEvent(eventID)
	if errors.Is(err, db.ErrNotFound) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if event.CreatedBy != requesterID {
		return ErrForbidden
	}

	if err := s.DB.DeleteEvent(eventID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	s.notifyTicketHolders(event, models.NotificationEventCancelled,
		fmt.Sprintf("Event %q has been cancelled by the organizer.", event.Name))
	return nil
}

// SetStatus is the admin approval gate.
func (s *Service) SetStatus(eventID string, status models.EventStatus) (*models.Event, error) {
	if status != models.EventApproved && status != models.EventRejected {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidEvent, status)
	}

	event, err := s.DB.GetEvent(eventID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	event.Status = status
	if err := s.DB.UpdateEvent(*event); err != nil {
		return nil, err
	}
	s.logger.Info("EVENT", fmt.Sprintf("Event %s marked %s", eventID, status))
	return event, nil
}

func (s *Service) NotificationsForUser(userID string) ([]models.Notification, error) {
	return s.DB.GetNotificationsForUser(userID)
}

func applyPatch(event *models.Event, patch models.EventUpdate) error {
	if patch.Price != nil && *patch.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidEvent)
	}
	if patch.Discount != nil && (*patch.Discount < 0 || *patch.Discount > 100) {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidEvent)
	}

	if patch.Name != nil {
		event.Name = *patch.Name
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Date != nil {
		event.Date = *patch.Date
	}
	if patch.Time != nil {
		event.Time = *patch.Time
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.Price != nil {
		event.Price = *patch.Price
	}
	if patch.Discount != nil {
		event.Discount = *patch.Discount
	}
	if patch.EventPhoto != nil {
		event.EventPhoto = *patch.EventPhoto
	}
	return nil
}

// notifyTicketHolders persists a notification per holder and publishes it on
// the realtime channel. Failures are logged and swallowed: event changes
// never fail because a notification could not be delivered.
func (s *Service) notifyTicketHolders(event *models.Event, notificationType, message string) {
	holders, err := s.DB.TicketHolders(event.ID)
	if err != nil {
		s.logger.Warn("NOTIFY", fmt.Sprintf("Failed to list ticket holders for event %s: %v", event.ID, err))
		return
	}

	for _, userID := range holders {
		notification := models.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Message:   message,
			Type:      notificationType,
			EventID:   event.ID,
			CreatedAt: s.now(),
		}
		if err := s.DB.CreateNotification(notification); err != nil {
			s.logger.Warn("NOTIFY", fmt.Sprintf("Failed to store notification for user %s: %v", userID, err))
			continue
		}

		payload, err := json.Marshal(notification)
		if err != nil {
			continue
		}
		if err := s.Publisher.Publish(userID, payload); err != nil {
			s.logger.Warn("NOTIFY", fmt.Sprintf("Failed to publish notification to user %s: %v", userID, err))
		}
	}
}
