package booking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventsure/internal/booking/db"
	"eventsure/internal/inventory"
	"eventsure/internal/logger"
	"eventsure/internal/models"
)

const testSecret = "test-shared-secret"

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetEvent(id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetTicketByID(id string) (*models.Ticket, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockDBLayer) GetTicketsByUser(userID string) ([]models.Ticket, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockDBLayer) CreateTicketWithHold(ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateTicket(ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteTicketWithRelease(ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockDBLayer) DeletePendingTicketWithRelease(ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockDBLayer) ListPendingOlderThan(cutoff time.Time) ([]models.Ticket, error) {
	args := m.Called(cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

type MockHoldTimer struct {
	mock.Mock
}

func (m *MockHoldTimer) Arm(ticketID string) error {
	args := m.Called(ticketID)
	return args.Error(0)
}

func (m *MockHoldTimer) Clear(ticketID string) error {
	args := m.Called(ticketID)
	return args.Error(0)
}

func (m *MockHoldTimer) Active(ticketID string) (bool, error) {
	args := m.Called(ticketID)
	return args.Bool(0), args.Error(1)
}

type MockIntentClient struct {
	mock.Mock
}

func (m *MockIntentClient) CreateIntent(amountMinorUnits int64, receiptRef string) (string, error) {
	args := m.Called(amountMinorUnits, receiptRef)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(userID string, payload []byte) error {
	args := m.Called(userID, payload)
	return args.Error(0)
}

// Helpers

func newTestService(dbLayer *MockDBLayer, holds *MockHoldTimer, intents *MockIntentClient, publisher *MockPublisher) *Service {
	return NewService(dbLayer, holds, intents, publisher, testSecret, 15*time.Minute, logger.NewQuiet())
}

func approvedEvent(id string) *models.Event {
	return &models.Event{
		ID:          id,
		Name:        "Summer Concert",
		Date:        time.Now().Add(7 * 24 * time.Hour),
		Price:       200,
		Discount:    10,
		TotalSeats:  100,
		BookedSeats: 0,
		CreatedBy:   "organizer-1",
		Status:      models.EventApproved,
	}
}

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// BeginBooking

func TestBeginBooking_Success(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	intents := new(MockIntentClient)
	svc := newTestService(dbLayer, holds, intents, new(MockPublisher))

	dbLayer.On("GetEvent", "ev-1").Return(approvedEvent("ev-1"), nil)
	dbLayer.On("CreateTicketWithHold", mock.AnythingOfType("models.Ticket")).Return(nil)
	dbLayer.On("UpdateTicket", mock.AnythingOfType("models.Ticket")).Return(nil)
	holds.On("Arm", mock.AnythingOfType("string")).Return(nil)
	// 200 * 0.9 * 3 = 540.00 → 54000 minor units
	intents.On("CreateIntent", int64(54000), mock.AnythingOfType("string")).Return("pi_123", nil)

	ticket, err := svc.BeginBooking("ev-1", "user-1", 3)
	require.NoError(t, err)
	assert.Equal(t, models.TicketPending, ticket.Status)
	assert.Equal(t, 540.0, ticket.TotalPrice)
	assert.Equal(t, "pi_123", ticket.PaymentIntentID)

	dbLayer.AssertExpectations(t)
	holds.AssertExpectations(t)
	intents.AssertExpectations(t)
}

func TestBeginBooking_InvalidQuantity(t *testing.T) {
	svc := newTestService(new(MockDBLayer), new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	_, err := svc.BeginBooking("ev-1", "user-1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestBeginBooking_EventNotFound(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	dbLayer.On("GetEvent", "missing").Return(nil, db.ErrNotFound)

	_, err := svc.BeginBooking("missing", "user-1", 1)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestBeginBooking_UnapprovedEventNotBookable(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	ev := approvedEvent("ev-1")
	ev.Status = models.EventPendingApproval
	dbLayer.On("GetEvent", "ev-1").Return(ev, nil)

	_, err := svc.BeginBooking("ev-1", "user-1", 1)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestBeginBooking_CapacityExceeded(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	intents := new(MockIntentClient)
	svc := newTestService(dbLayer, holds, intents, new(MockPublisher))

	dbLayer.On("GetEvent", "ev-1").Return(approvedEvent("ev-1"), nil)
	dbLayer.On("CreateTicketWithHold", mock.AnythingOfType("models.Ticket")).Return(inventory.ErrInsufficientSeats)

	_, err := svc.BeginBooking("ev-1", "user-1", 6)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// No hold timer and no payment intent for a booking that never held.
	holds.AssertNotCalled(t, "Arm", mock.Anything)
	intents.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestBeginBooking_IntentFailureKeepsHold(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	intents := new(MockIntentClient)
	svc := newTestService(dbLayer, holds, intents, new(MockPublisher))

	dbLayer.On("GetEvent", "ev-1").Return(approvedEvent("ev-1"), nil)
	dbLayer.On("CreateTicketWithHold", mock.AnythingOfType("models.Ticket")).Return(nil)
	holds.On("Arm", mock.AnythingOfType("string")).Return(nil)
	intents.On("CreateIntent", mock.AnythingOfType("int64"), mock.AnythingOfType("string")).
		Return("", errors.New("gateway unreachable"))

	ticket, err := svc.BeginBooking("ev-1", "user-1", 1)
	require.NoError(t, err, "intent failure must not fail the booking; the hold stands")
	assert.Equal(t, models.TicketPending, ticket.Status)
	assert.Empty(t, ticket.PaymentIntentID)
	dbLayer.AssertNotCalled(t, "UpdateTicket", mock.Anything)
}

// Confirm

func pendingTicket(id string) *models.Ticket {
	return &models.Ticket{
		TicketID:   id,
		EventID:    "ev-1",
		UserID:     "user-1",
		Quantity:   2,
		TotalPrice: 360,
		Status:     models.TicketPending,
		CreatedAt:  time.Now(),
	}
}

func TestConfirm_Success(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), new(MockPublisher))

	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)
	dbLayer.On("GetEvent", "ev-1").Return(approvedEvent("ev-1"), nil)
	dbLayer.On("UpdateTicket", mock.AnythingOfType("models.Ticket")).Return(nil)
	holds.On("Clear", "t-1").Return(nil)

	assertion := models.ConfirmRequest{
		OrderID:   "order_9",
		PaymentID: "pay_9",
		Signature: sign("order_9", "pay_9"),
	}
	ticket, err := svc.Confirm("t-1", "user-1", assertion)
	require.NoError(t, err)
	assert.Equal(t, models.TicketConfirmed, ticket.Status)
	assert.Equal(t, "pay_9", ticket.PaymentID)
	assert.Equal(t, "order_9", ticket.PaymentIntentID)
	assert.False(t, ticket.PaymentDate.IsZero())
	assert.NotEmpty(t, ticket.QRCode)

	dbLayer.AssertExpectations(t)
	holds.AssertExpectations(t)
}

func TestConfirm_Idempotent(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), new(MockPublisher))

	confirmed := pendingTicket("t-1")
	confirmed.Status = models.TicketConfirmed
	confirmed.PaymentID = "pay_9"
	confirmed.PaymentDate = time.Now()

	dbLayer.On("GetTicketByID", "t-1").Return(confirmed, nil)
	dbLayer.On("GetEvent", "ev-1").Return(approvedEvent("ev-1"), nil)

	assertion := models.ConfirmRequest{
		OrderID:   "order_9",
		PaymentID: "pay_9",
		Signature: sign("order_9", "pay_9"),
	}
	ticket, err := svc.Confirm("t-1", "user-1", assertion)
	require.NoError(t, err)
	assert.Equal(t, models.TicketConfirmed, ticket.Status)

	// No second write: seats were taken at hold time and the record is
	// already confirmed.
	dbLayer.AssertNotCalled(t, "UpdateTicket", mock.Anything)
}

func TestConfirm_SignatureMismatchLeavesPending(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), new(MockPublisher))

	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)
	dbLayer.On("GetEvent", "ev-1").Return(approvedEvent("ev-1"), nil)

	assertion := models.ConfirmRequest{
		OrderID:   "order_9",
		PaymentID: "pay_9",
		Signature: "forged",
	}
	_, err := svc.Confirm("t-1", "user-1", assertion)
	assert.ErrorIs(t, err, ErrVerificationFailed)

	// Deliberately no compensating release: the seats stay held and the
	// reaper's TTL is the backstop.
	dbLayer.AssertNotCalled(t, "UpdateTicket", mock.Anything)
	dbLayer.AssertNotCalled(t, "DeleteTicketWithRelease", mock.Anything)
	holds.AssertNotCalled(t, "Clear", mock.Anything)
}

func TestConfirm_OrderMismatchRejected(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), new(MockPublisher))

	ticket := pendingTicket("t-1")
	ticket.PaymentIntentID = "order_real"
	dbLayer.On("GetTicketByID", "t-1").Return(ticket, nil)
	dbLayer.On("GetEvent", "ev-1").Return(approvedEvent("ev-1"), nil)

	// Validly signed, but for a different order than the one recorded on
	// this ticket. A cheap order's signature must not confirm it.
	assertion := models.ConfirmRequest{
		OrderID:   "order_cheap",
		PaymentID: "pay_cheap",
		Signature: sign("order_cheap", "pay_cheap"),
	}
	_, err := svc.Confirm("t-1", "user-1", assertion)
	assert.ErrorIs(t, err, ErrVerificationFailed)
	dbLayer.AssertNotCalled(t, "UpdateTicket", mock.Anything)
	holds.AssertNotCalled(t, "Clear", mock.Anything)
}

func TestConfirm_NotOwner(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)

	assertion := models.ConfirmRequest{
		OrderID:   "order_9",
		PaymentID: "pay_9",
		Signature: sign("order_9", "pay_9"),
	}
	_, err := svc.Confirm("t-1", "intruder", assertion)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConfirm_TicketNotFound(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	dbLayer.On("GetTicketByID", "missing").Return(nil, db.ErrNotFound)

	_, err := svc.Confirm("missing", "user-1", models.ConfirmRequest{})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

// Cancel

func TestCancel_Success(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	publisher := new(MockPublisher)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), publisher)

	ev := approvedEvent("ev-1")
	ev.Date = time.Now().Add(25 * time.Hour)
	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)
	dbLayer.On("GetEvent", "ev-1").Return(ev, nil)
	dbLayer.On("DeleteTicketWithRelease", mock.AnythingOfType("models.Ticket")).Return(nil)
	holds.On("Clear", "t-1").Return(nil)
	publisher.On("Publish", "user-1", mock.Anything).Return(nil)

	err := svc.Cancel("t-1", "user-1")
	require.NoError(t, err)

	dbLayer.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCancel_WithinWindow(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	ev := approvedEvent("ev-1")
	ev.Date = time.Now().Add(23 * time.Hour)
	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)
	dbLayer.On("GetEvent", "ev-1").Return(ev, nil)

	err := svc.Cancel("t-1", "user-1")
	assert.ErrorIs(t, err, ErrPolicyViolation)
	dbLayer.AssertNotCalled(t, "DeleteTicketWithRelease", mock.Anything)
}

func TestCancel_NotOwner(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)

	err := svc.Cancel("t-1", "intruder")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancel_PublishFailureDoesNotFailCancel(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	publisher := new(MockPublisher)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), publisher)

	ev := approvedEvent("ev-1")
	ev.Date = time.Now().Add(48 * time.Hour)
	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)
	dbLayer.On("GetEvent", "ev-1").Return(ev, nil)
	dbLayer.On("DeleteTicketWithRelease", mock.AnythingOfType("models.Ticket")).Return(nil)
	holds.On("Clear", "t-1").Return(nil)
	publisher.On("Publish", "user-1", mock.Anything).Return(errors.New("broker down"))

	assert.NoError(t, svc.Cancel("t-1", "user-1"))
}

// RequestPaymentIntent

func TestRequestPaymentIntent_ReturnsExisting(t *testing.T) {
	dbLayer := new(MockDBLayer)
	intents := new(MockIntentClient)
	svc := newTestService(dbLayer, new(MockHoldTimer), intents, new(MockPublisher))

	ticket := pendingTicket("t-1")
	ticket.PaymentIntentID = "pi_existing"
	dbLayer.On("GetTicketByID", "t-1").Return(ticket, nil)

	intentID, err := svc.RequestPaymentIntent("t-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_existing", intentID)
	intents.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestRequestPaymentIntent_CreatesWhenMissing(t *testing.T) {
	dbLayer := new(MockDBLayer)
	intents := new(MockIntentClient)
	svc := newTestService(dbLayer, new(MockHoldTimer), intents, new(MockPublisher))

	dbLayer.On("GetTicketByID", "t-1").Return(pendingTicket("t-1"), nil)
	dbLayer.On("UpdateTicket", mock.AnythingOfType("models.Ticket")).Return(nil)
	intents.On("CreateIntent", int64(36000), "t-1").Return("pi_new", nil)

	intentID, err := svc.RequestPaymentIntent("t-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_new", intentID)
}

func TestRequestPaymentIntent_ConfirmedTicketRejected(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	confirmed := pendingTicket("t-1")
	confirmed.Status = models.TicketConfirmed
	dbLayer.On("GetTicketByID", "t-1").Return(confirmed, nil)

	_, err := svc.RequestPaymentIntent("t-1", "user-1")
	assert.Error(t, err)
}

// ReleaseExpired

func TestReleaseExpired(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), new(MockPublisher))

	lapsed := *pendingTicket("t-lapsed")
	lapsed.TicketID = "t-lapsed"
	running := *pendingTicket("t-running")
	running.TicketID = "t-running"

	dbLayer.On("ListPendingOlderThan", mock.AnythingOfType("time.Time")).
		Return([]models.Ticket{lapsed, running}, nil)
	holds.On("Active", "t-lapsed").Return(false, nil)
	holds.On("Active", "t-running").Return(true, nil)
	dbLayer.On("DeletePendingTicketWithRelease", lapsed).Return(nil)

	released, err := svc.ReleaseExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	dbLayer.AssertCalled(t, "DeletePendingTicketWithRelease", lapsed)
	dbLayer.AssertNotCalled(t, "DeletePendingTicketWithRelease", running)
}

func TestReleaseExpired_ConfirmedDuringSweepSurvives(t *testing.T) {
	dbLayer := new(MockDBLayer)
	holds := new(MockHoldTimer)
	svc := newTestService(dbLayer, holds, new(MockIntentClient), new(MockPublisher))

	// The listing saw the ticket pending, but it was confirmed before the
	// delete landed: the pending-only delete finds no row and the sweep
	// counts nothing released.
	stale := *pendingTicket("t-1")
	dbLayer.On("ListPendingOlderThan", mock.AnythingOfType("time.Time")).
		Return([]models.Ticket{stale}, nil)
	holds.On("Active", "t-1").Return(false, nil)
	dbLayer.On("DeletePendingTicketWithRelease", stale).Return(db.ErrNotFound)

	released, err := svc.ReleaseExpired()
	require.NoError(t, err)
	assert.Zero(t, released)
	dbLayer.AssertNotCalled(t, "DeleteTicketWithRelease", mock.Anything)
}

func TestReleaseExpired_NothingStale(t *testing.T) {
	dbLayer := new(MockDBLayer)
	svc := newTestService(dbLayer, new(MockHoldTimer), new(MockIntentClient), new(MockPublisher))

	dbLayer.On("ListPendingOlderThan", mock.AnythingOfType("time.Time")).
		Return([]models.Ticket{}, nil)

	released, err := svc.ReleaseExpired()
	require.NoError(t, err)
	assert.Zero(t, released)
}
