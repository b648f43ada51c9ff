package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"event_type"`
	PaymentID string          `json:"payment_id,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Details   any             `json:"details,omitempty"`
}

// Logger writes one AUDIT line per money-affecting event
type Logger struct {
	now func() time.Time
}

func NewLogger() *Logger {
	return &Logger{now: time.Now}
}

func (a *Logger) LogBooking(walkRequestID, paymentID, clientID string, amount decimal.Decimal, method, status string) {
	a.log(Event{
		EventType: "BOOKING_CREATED",
		PaymentID: paymentID,
		ClientID:  clientID,
		Amount:    amount,
		Status:    status,
		Details: map[string]string{
			"walk_request_id": walkRequestID,
			"method":          method,
		},
	})
}

func (a *Logger) LogCashReserved(clientID, weekStart string, hours, total float64) {
	a.log(Event{
		EventType: "CASH_HOURS_RESERVED",
		ClientID:  clientID,
		Status:    "SUCCESS",
		Details: map[string]any{
			"week_start":  weekStart,
			"hours":       hours,
			"total_hours": total,
		},
	})
}

func (a *Logger) LogTransition(paymentID, clientID string, amount decimal.Decimal, from, to, event string) {
	a.log(Event{
		EventType: "PAYMENT_TRANSITION",
		PaymentID: paymentID,
		ClientID:  clientID,
		Amount:    amount,
		Status:    to,
		Details: map[string]string{
			"from":  from,
			"event": event,
		},
	})
}

func (a *Logger) LogError(paymentID, clientID string, err error) {
	a.log(Event{
		EventType: "ERROR",
		PaymentID: paymentID,
		ClientID:  clientID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
