package models

import "time"

// WeeklyCashUsage is the hours a client booked in cash during one week
type WeeklyCashUsage struct {
	ClientID        string    `json:"clientId" db:"client_id"`
	WeekStart       string    `json:"weekStart" db:"week_start"` // YYYY-MM-DD, Monday
	HoursBookedCash float64   `json:"hoursBookedCash" db:"hours_booked_cash"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// CashHold is a conditional increment of a client's weekly cash hours
type CashHold struct {
	ClientID  string
	WeekStart string
	Hours     float64
	Limit     float64
}

// CashQuota is the read model returned to clients
type CashQuota struct {
	WeekStart      string  `json:"weekStart"`
	LimitHours     float64 `json:"limitHours"`
	UsedHours      float64 `json:"usedHours"`
	RemainingHours float64 `json:"remainingHours"`
}

// QuotaCheck is the result of asking whether more cash hours fit in a week
type QuotaCheck struct {
	Allowed   bool    `json:"allowed"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
	Limit     float64 `json:"limit"`
}
