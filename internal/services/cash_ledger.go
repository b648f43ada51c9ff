package services

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/repository"
)

// cashQuotaEpsilon absorbs float error when comparing hours to the limit
const cashQuotaEpsilon = 1e-6

// WeekStart returns the Monday of t's week in loc, as YYYY-MM-DD
func WeekStart(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	daysSinceMonday := (int(local.Weekday()) + 6) % 7
	monday := time.Date(local.Year(), local.Month(), local.Day()-daysSinceMonday, 0, 0, 0, 0, loc)
	return monday.Format("2006-01-02")
}

// CashLedger tracks how many hours each client booked in cash per week.
// Usage only grows; cancelled walks do not give hours back.
type CashLedger struct {
	repo     repository.CashUsageRepository
	maxHours float64
	loc      *time.Location
}

func NewCashLedger(repo repository.CashUsageRepository, maxHours float64, loc *time.Location) *CashLedger {
	if loc == nil {
		loc = time.UTC
	}
	return &CashLedger{repo: repo, maxHours: maxHours, loc: loc}
}

func (l *CashLedger) WeekStart(t time.Time) string {
	return WeekStart(t, l.loc)
}

func (l *CashLedger) MaxHours() float64 {
	return l.maxHours
}

// CheckQuota reports whether addHours more cash hours fit in the week. It
// does not reserve anything.
func (l *CashLedger) CheckQuota(ctx context.Context, clientID, weekStart string, addHours float64) (models.QuotaCheck, error) {
	used, err := l.repo.GetCashHours(ctx, clientID, weekStart)
	if err != nil {
		return models.QuotaCheck{}, &StorageError{Op: "read cash usage", Err: err}
	}

	return models.QuotaCheck{
		Allowed:   used+addHours <= l.maxHours+cashQuotaEpsilon,
		Used:      used,
		Remaining: math.Max(0, l.maxHours-used),
		Limit:     l.maxHours,
	}, nil
}

// Commit adds hours to the week unconditionally and returns the new total
func (l *CashLedger) Commit(ctx context.Context, clientID, weekStart string, addHours float64) (float64, error) {
	if addHours < 0 {
		return 0, newValidationError("hours", "cash usage can only be incremented")
	}

	total, err := l.repo.AddCashHours(ctx, clientID, weekStart, addHours)
	if err != nil {
		return 0, &StorageError{Op: "commit cash usage", Err: err}
	}

	log.Printf("[CASH_LEDGER] client %s week %s: +%g hours, total %g", clientID, weekStart, addHours, total)
	return total, nil
}

// Hold describes a conditional increment that the store applies only while
// the weekly total stays within the limit
func (l *CashLedger) Hold(clientID, weekStart string, addHours float64) models.CashHold {
	return models.CashHold{
		ClientID:  clientID,
		WeekStart: weekStart,
		Hours:     addHours,
		Limit:     l.maxHours + cashQuotaEpsilon,
	}
}

// Quota returns the client's cash allowance for the week containing now
func (l *CashLedger) Quota(ctx context.Context, clientID string, now time.Time) (models.CashQuota, error) {
	weekStart := l.WeekStart(now)
	used, err := l.repo.GetCashHours(ctx, clientID, weekStart)
	if err != nil {
		return models.CashQuota{}, &StorageError{Op: "read cash usage", Err: err}
	}

	return models.CashQuota{
		WeekStart:      weekStart,
		LimitHours:     l.maxHours,
		UsedHours:      used,
		RemainingHours: math.Max(0, l.maxHours-used),
	}, nil
}

func (l *CashLedger) quotaExceeded(check models.QuotaCheck, weekStart string, requested float64) *QuotaExceededError {
	return &QuotaExceededError{
		WeekStart: weekStart,
		Limit:     check.Limit,
		Used:      check.Used,
		Remaining: check.Remaining,
		Requested: requested,
	}
}
