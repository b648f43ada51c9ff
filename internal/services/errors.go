package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paseospeludos/backend/internal/models"
)

// ValidationError lists the request fields that were rejected
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// QuotaExceededError is returned when a cash booking does not fit in the
// client's weekly cash allowance
type QuotaExceededError struct {
	WeekStart string
	Limit     float64
	Used      float64
	Remaining float64
	Requested float64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf(
		"weekly cash limit reached: at most %g hours per week can be paid in cash (used %g, remaining %g); pay by bank transfer instead",
		e.Limit, e.Used, e.Remaining,
	)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvalidTransitionError is returned when a payment event is not allowed in
// the payment's current state. The payment is left unchanged.
type InvalidTransitionError struct {
	PaymentID string
	From      models.PaymentStatus
	Event     PaymentEvent
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s payment %s in status %s", e.Event, e.PaymentID, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ConcurrentModificationError is returned when another request changed the
// record between read and write
type ConcurrentModificationError struct {
	Resource string
	ID       string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently, retry the request", e.Resource, e.ID)
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
