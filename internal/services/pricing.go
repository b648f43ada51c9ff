package services

import (
	"github.com/paseospeludos/backend/internal/config"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/shopspring/decimal"
)

// PricingEngine prices walks and splits the amount between the operational
// fee, the platform and the walker. It holds no state besides its tariff.
type PricingEngine struct {
	cfg config.PricingConfig
}

func NewPricingEngine(cfg config.PricingConfig) *PricingEngine {
	return &PricingEngine{cfg: cfg}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeSplit is total: any amount yields a snapshot, even one with a
// negative walker share. Callers that must refuse such bookings use CheckPayout.
func (e *PricingEngine) ComputeSplit(amount decimal.Decimal, isPromo bool) models.PricingSnapshot {
	operationalFee := round2(amount.Mul(e.cfg.OperationalPercent))
	net := amount.Sub(operationalFee)

	if isPromo {
		return models.PricingSnapshot{
			OperationalFee: operationalFee,
			AppShare:       round2(net.Mul(e.cfg.PromoAppShare)),
			WalkerShare:    round2(net.Mul(e.cfg.PromoWalkerShare)),
			Scheme:         models.SchemePromoSplit,
		}
	}

	return models.PricingSnapshot{
		OperationalFee: operationalFee,
		AppShare:       e.cfg.FixedAppFee,
		WalkerShare:    net.Sub(e.cfg.FixedAppFee),
		Scheme:         models.SchemeFixedAppFee,
	}
}

// BillableHours rounds a duration up to whole hours
func (e *PricingEngine) BillableHours(durationMins int) int {
	if durationMins <= 0 {
		return 0
	}
	return (durationMins + 59) / 60
}

func (e *PricingEngine) AmountFor(durationMins int) decimal.Decimal {
	return e.cfg.BasePrice.Mul(decimal.NewFromInt(int64(e.BillableHours(durationMins))))
}

// Quote prices a walk and returns its amount with the frozen split
func (e *PricingEngine) Quote(durationMins int, isPromo bool) (decimal.Decimal, models.PricingSnapshot) {
	amount := e.AmountFor(durationMins)
	return amount, e.ComputeSplit(amount, isPromo)
}

func (e *PricingEngine) Currency() string {
	return e.cfg.Currency
}

// CheckPayout rejects splits that would leave the walker owing money
func CheckPayout(snapshot models.PricingSnapshot) error {
	if snapshot.WalkerShare.IsNegative() {
		return newValidationError("amount", "amount is too low to cover the operational fee and the app fee")
	}
	return nil
}
