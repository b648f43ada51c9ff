package services

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/paseospeludos/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	mexico, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		loc  *time.Location
		want string
	}{
		{"wednesday", time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC), time.UTC, "2025-03-10"},
		{"monday midnight", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.UTC, "2025-03-10"},
		{"sunday night", time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC), time.UTC, "2025-03-10"},
		{"across month", time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC), time.UTC, "2025-03-31"},
		{"across year", time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), time.UTC, "2025-12-29"},
		// 03:00 UTC Monday is still Sunday evening in Mexico City
		{"local zone", time.Date(2025, 3, 17, 3, 0, 0, 0, time.UTC), mexico, "2025-03-10"},
		{"local monday", time.Date(2025, 3, 17, 7, 0, 0, 0, time.UTC), mexico, "2025-03-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekStart(tt.at, tt.loc))
		})
	}
}

func TestCashLedger_CheckQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("boundary", func(t *testing.T) {
		ledger := NewCashLedger(repository.NewMemoryStore(), 3, time.UTC)
		_, err := ledger.Commit(ctx, "client-1", "2025-03-10", 2.5)
		require.NoError(t, err)

		check, err := ledger.CheckQuota(ctx, "client-1", "2025-03-10", 0.5)
		require.NoError(t, err)
		assert.True(t, check.Allowed)
		assert.Equal(t, 2.5, check.Used)
		assert.Equal(t, 0.5, check.Remaining)

		check, err = ledger.CheckQuota(ctx, "client-1", "2025-03-10", 0.51)
		require.NoError(t, err)
		assert.False(t, check.Allowed)
	})

	t.Run("float error stays within tolerance", func(t *testing.T) {
		ledger := NewCashLedger(repository.NewMemoryStore(), 3, time.UTC)
		for i := 0; i < 10; i++ {
			_, err := ledger.Commit(ctx, "client-1", "2025-03-10", 0.1)
			require.NoError(t, err)
		}

		check, err := ledger.CheckQuota(ctx, "client-1", "2025-03-10", 2)
		require.NoError(t, err)
		assert.True(t, check.Allowed)
	})

	t.Run("weeks are isolated", func(t *testing.T) {
		ledger := NewCashLedger(repository.NewMemoryStore(), 3, time.UTC)
		_, err := ledger.Commit(ctx, "client-1", "2025-03-10", 3)
		require.NoError(t, err)

		check, err := ledger.CheckQuota(ctx, "client-1", "2025-03-17", 3)
		require.NoError(t, err)
		assert.True(t, check.Allowed)
		assert.Zero(t, check.Used)

		check, err = ledger.CheckQuota(ctx, "client-2", "2025-03-10", 3)
		require.NoError(t, err)
		assert.True(t, check.Allowed)
	})
}

func TestCashLedger_Commit(t *testing.T) {
	ctx := context.Background()
	ledger := NewCashLedger(repository.NewMemoryStore(), 3, time.UTC)

	t.Run("usage only grows", func(t *testing.T) {
		previous := 0.0
		for _, h := range []float64{1, 0.5, 0, 1.25} {
			total, err := ledger.Commit(ctx, "client-1", "2025-03-10", h)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, total, previous)
			previous = total
		}
		assert.Equal(t, 2.75, previous)
	})

	t.Run("negative hours are rejected", func(t *testing.T) {
		_, err := ledger.Commit(ctx, "client-1", "2025-03-10", -1)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestCashLedger_Quota(t *testing.T) {
	ctx := context.Background()
	ledger := NewCashLedger(repository.NewMemoryStore(), 3, time.UTC)

	quota, err := ledger.Quota(ctx, "client-1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", quota.WeekStart)
	assert.Equal(t, 3.0, quota.LimitHours)
	assert.Zero(t, quota.UsedHours)
	assert.Equal(t, 3.0, quota.RemainingHours)

	_, err = ledger.Commit(ctx, "client-1", "2025-03-10", 4)
	require.NoError(t, err)

	quota, err = ledger.Quota(ctx, "client-1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 4.0, quota.UsedHours)
	assert.Zero(t, quota.RemainingHours)
}
