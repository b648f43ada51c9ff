package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type WalkType string

const (
	WalkTypeImmediate WalkType = "immediate"
	WalkTypeScheduled WalkType = "scheduled"
	WalkTypeRecurring WalkType = "recurring"
)

type WalkStatus string

const (
	WalkStatusPending   WalkStatus = "pending"
	WalkStatusAssigned  WalkStatus = "assigned"
	WalkStatusConfirmed WalkStatus = "confirmed"
	WalkStatusCancelled WalkStatus = "cancelled"
)

// Schedule is when a walk starts and how long it lasts
type Schedule struct {
	StartAt      time.Time `json:"startAt"`
	DurationMins int       `json:"durationMins"`
}

// Origin is the pickup point of a walk
type Origin struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Value implements driver.Valuer for Origin
func (o *Origin) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

// Scan implements sql.Scanner for Origin
func (o *Origin) Scan(value any) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, o)
}

// WalkRequest is a client's booking of a walk
type WalkRequest struct {
	ID              string          `json:"id" db:"id"`
	ClientID        string          `json:"clientId" db:"client_id"`
	DogIDs          []string        `json:"dogIds" db:"dog_ids"`
	Type            WalkType        `json:"type" db:"type"`
	When            Schedule        `json:"when"`
	Origin          *Origin         `json:"origin,omitempty" db:"origin"`
	Notes           string          `json:"notes" db:"notes"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	IsPromo         bool            `json:"isPromo" db:"is_promo"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	PricingSnapshot PricingSnapshot `json:"pricingSnapshot" db:"pricing_snapshot"`
	PaymentID       string          `json:"paymentId" db:"payment_id"`
	Status          WalkStatus      `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}
