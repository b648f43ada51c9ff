package repository

import (
	"context"
	"errors"
	"time"

	"github.com/paseospeludos/backend/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrVersionConflict   = errors.New("optimistic lock failed")
	ErrCashLimitExceeded = errors.New("weekly cash limit exceeded")
	ErrAlreadyExists     = errors.New("record already exists")
)

// BookingWrite is everything persisted when a walk is booked. It is written
// atomically: either all parts are stored or none is.
type BookingWrite struct {
	WalkRequest *models.WalkRequest
	Payment     *models.Payment
	CashHold    *models.CashHold // nil for non-cash bookings
}

type CashUsageRepository interface {
	// GetCashHours returns 0 when the client has no usage row for the week.
	GetCashHours(ctx context.Context, clientID, weekStart string) (float64, error)
	// AddCashHours increments the week's usage in a single statement and
	// returns the new total.
	AddCashHours(ctx context.Context, clientID, weekStart string, hours float64) (float64, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	// UpdatePayment persists p only if the stored version still equals
	// expectedVersion. On success p.Version is bumped.
	UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int) error
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

type WalkRequestRepository interface {
	// CreateBooking returns the client's new weekly cash total when a hold
	// was applied, or ErrCashLimitExceeded when it did not fit.
	CreateBooking(ctx context.Context, w BookingWrite) (float64, error)
	GetWalkRequest(ctx context.Context, id string) (*models.WalkRequest, error)
}

type ClarificationRepository interface {
	CreateClarification(ctx context.Context, c *models.Clarification) error
	GetClarification(ctx context.Context, id string) (*models.Clarification, error)
	ListClarifications(ctx context.Context, statuses []models.ClarificationStatus, limit int) ([]models.Clarification, error)
	UpdateClarificationStatus(ctx context.Context, id string, status models.ClarificationStatus, resolvedAt *time.Time, updatedAt time.Time) error
}

type Store interface {
	CashUsageRepository
	PaymentRepository
	WalkRequestRepository
	ClarificationRepository
}
