package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

type PricingScheme string

const (
	SchemeFixedAppFee PricingScheme = "FIXED_APP_FEE"
	SchemePromoSplit  PricingScheme = "PROMO_SPLIT"
)

// PricingSnapshot is the revenue split frozen at booking time
type PricingSnapshot struct {
	OperationalFee decimal.Decimal `json:"operationalFee"`
	AppShare       decimal.Decimal `json:"appShare"`
	WalkerShare    decimal.Decimal `json:"walkerShare"`
	Scheme         PricingScheme   `json:"scheme"`
}

// Total returns the sum of all three shares
func (p PricingSnapshot) Total() decimal.Decimal {
	return p.OperationalFee.Add(p.AppShare).Add(p.WalkerShare)
}

// Value implements driver.Valuer for PricingSnapshot
func (p PricingSnapshot) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for PricingSnapshot
func (p *PricingSnapshot) Scan(value any) error {
	if value == nil {
		*p = PricingSnapshot{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("type assertion to []byte failed")
	}
}
