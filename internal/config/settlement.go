package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// PricingConfig holds the tariff used to price walks and split revenue
type PricingConfig struct {
	BasePrice          decimal.Decimal // price of one billable hour
	OperationalPercent decimal.Decimal // fraction of the amount kept as operational fee
	FixedAppFee        decimal.Decimal // platform share for non-promo bookings
	PromoAppShare      decimal.Decimal // platform fraction of the net for promo bookings
	PromoWalkerShare   decimal.Decimal // walker fraction of the net for promo bookings
	Currency           string
}

// CashConfig holds the weekly cash quota settings
type CashConfig struct {
	MaxHoursPerWeek float64
	Location        *time.Location // week boundaries are computed in this zone
}

// BankConfig holds the static instructions shown for bank transfers
type BankConfig struct {
	Beneficiary  string
	CLABE        string
	BankName     string
	Instructions string
}

type SettlementConfig struct {
	Pricing PricingConfig
	Cash    CashConfig
	Bank    BankConfig
}

func setSettlementDefaults() {
	viper.SetDefault("pricing.base_price", "150")
	viper.SetDefault("pricing.operational_percent", "0.10")
	viper.SetDefault("pricing.fixed_app_fee", "50")
	viper.SetDefault("pricing.promo_app_share", "1/3")
	viper.SetDefault("pricing.promo_walker_share", "2/3")
	viper.SetDefault("pricing.currency", "MXN")

	viper.SetDefault("cash.max_hours_per_week", 3.0)
	viper.SetDefault("app.timezone", "America/Mexico_City")

	viper.SetDefault("bank.beneficiary", "Beneficiario Ejemplo S.A. de C.V.")
	viper.SetDefault("bank.clabe", "000000000000000000")
	viper.SetDefault("bank.name", "BANCO EJEMPLO")
	viper.SetDefault("bank.instructions", "Realiza transferencia SPEI y adjunta el comprobante.")
}

// LoadSettlementConfig reads pricing, cash quota and bank settings from viper
func LoadSettlementConfig() (*SettlementConfig, error) {
	setSettlementDefaults()

	var errs []error
	ratio := func(key string) decimal.Decimal {
		d, err := ParseRatio(viper.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	cfg := &SettlementConfig{
		Pricing: PricingConfig{
			BasePrice:          ratio("pricing.base_price"),
			OperationalPercent: ratio("pricing.operational_percent"),
			FixedAppFee:        ratio("pricing.fixed_app_fee"),
			PromoAppShare:      ratio("pricing.promo_app_share"),
			PromoWalkerShare:   ratio("pricing.promo_walker_share"),
			Currency:           viper.GetString("pricing.currency"),
		},
		Cash: CashConfig{
			MaxHoursPerWeek: viper.GetFloat64("cash.max_hours_per_week"),
		},
		Bank: BankConfig{
			Beneficiary:  viper.GetString("bank.beneficiary"),
			CLABE:        viper.GetString("bank.clabe"),
			BankName:     viper.GetString("bank.name"),
			Instructions: viper.GetString("bank.instructions"),
		},
	}

	loc, err := time.LoadLocation(viper.GetString("app.timezone"))
	if err != nil {
		errs = append(errs, fmt.Errorf("app.timezone: %w", err))
	}
	cfg.Cash.Location = loc

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultSettlementConfig returns the production tariff evaluated in the given zone
func DefaultSettlementConfig(loc *time.Location) *SettlementConfig {
	if loc == nil {
		loc = time.UTC
	}
	return &SettlementConfig{
		Pricing: PricingConfig{
			BasePrice:          decimal.NewFromInt(150),
			OperationalPercent: decimal.RequireFromString("0.10"),
			FixedAppFee:        decimal.NewFromInt(50),
			PromoAppShare:      decimal.NewFromInt(1).Div(decimal.NewFromInt(3)),
			PromoWalkerShare:   decimal.NewFromInt(2).Div(decimal.NewFromInt(3)),
			Currency:           "MXN",
		},
		Cash: CashConfig{
			MaxHoursPerWeek: 3,
			Location:        loc,
		},
		Bank: BankConfig{
			Beneficiary:  "Beneficiario Ejemplo S.A. de C.V.",
			CLABE:        "000000000000000000",
			BankName:     "BANCO EJEMPLO",
			Instructions: "Realiza transferencia SPEI y adjunta el comprobante.",
		},
	}
}

func (c *SettlementConfig) Validate() error {
	p := c.Pricing
	if !p.BasePrice.IsPositive() {
		return fmt.Errorf("pricing.base_price must be positive, got %s", p.BasePrice)
	}
	if p.OperationalPercent.IsNegative() || p.OperationalPercent.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("pricing.operational_percent must be in [0, 1), got %s", p.OperationalPercent)
	}
	if p.FixedAppFee.IsNegative() {
		return fmt.Errorf("pricing.fixed_app_fee must not be negative, got %s", p.FixedAppFee)
	}
	sum := p.PromoAppShare.Add(p.PromoWalkerShare)
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(decimal.New(1, -6)) {
		return fmt.Errorf("promo shares must add up to 1, got %s", sum)
	}
	if p.Currency == "" {
		return errors.New("pricing.currency is required")
	}
	if c.Cash.MaxHoursPerWeek <= 0 {
		return fmt.Errorf("cash.max_hours_per_week must be positive, got %v", c.Cash.MaxHoursPerWeek)
	}
	if c.Cash.Location == nil {
		return errors.New("app.timezone is required")
	}
	return nil
}

// ParseRatio parses a decimal ("0.10") or a fraction ("2/3")
func ParseRatio(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	num, den, isFraction := strings.Cut(s, "/")
	if !isFraction {
		return decimal.NewFromString(s)
	}

	n, err := decimal.NewFromString(strings.TrimSpace(num))
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(den))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, fmt.Errorf("zero denominator in %q", s)
	}
	return n.Div(d), nil
}
