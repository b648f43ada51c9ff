package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking(withHold bool) BookingWrite {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	walkRequestID := "wr-1"
	snapshot := models.PricingSnapshot{
		OperationalFee: decimal.NewFromInt(15),
		AppShare:       decimal.NewFromInt(50),
		WalkerShare:    decimal.NewFromInt(85),
		Scheme:         models.SchemeFixedAppFee,
	}

	w := BookingWrite{
		WalkRequest: &models.WalkRequest{
			ID:              walkRequestID,
			ClientID:        "client-1",
			DogIDs:          []string{"dog-1"},
			Type:            models.WalkTypeScheduled,
			When:            models.Schedule{StartAt: now.Add(time.Hour), DurationMins: 60},
			PaymentMethod:   models.PaymentMethodCash,
			Amount:          decimal.NewFromInt(150),
			PricingSnapshot: snapshot,
			PaymentID:       "pay-1",
			Status:          models.WalkStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		Payment: &models.Payment{
			ID:            "pay-1",
			WalkRequestID: &walkRequestID,
			ClientID:      "client-1",
			Method:        models.PaymentMethodCash,
			Status:        models.PaymentStatusPending,
			Amount:        decimal.NewFromInt(150),
			Currency:      "MXN",
			Distribution:  snapshot,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	if withHold {
		w.CashHold = &models.CashHold{ClientID: "client-1", WeekStart: "2025-03-10", Hours: 1, Limit: 3.000001}
	}
	return w
}

func TestPostgresStore_CreateBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	t.Run("cash booking within quota", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO walk_requests").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO payments").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("INSERT INTO weekly_cash_usage .* WHERE weekly_cash_usage.hours_booked_cash \\+ EXCLUDED.hours_booked_cash <= \\$4").
			WithArgs("client-1", "2025-03-10", 1.0, 3.000001).
			WillReturnRows(sqlmock.NewRows([]string{"hours_booked_cash"}).AddRow(2.0))
		mock.ExpectCommit()

		total, err := store.CreateBooking(ctx, testBooking(true))
		assert.NoError(t, err)
		assert.Equal(t, 2.0, total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cash limit reached rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO walk_requests").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO payments").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("INSERT INTO weekly_cash_usage").
			WillReturnRows(sqlmock.NewRows([]string{"hours_booked_cash"}))
		mock.ExpectRollback()

		_, err := store.CreateBooking(ctx, testBooking(true))
		assert.ErrorIs(t, err, ErrCashLimitExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("payment insert failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO walk_requests").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO payments").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := store.CreateBooking(ctx, testBooking(true))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert payment")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate walk request", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO walk_requests").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := store.CreateBooking(ctx, testBooking(true))
		assert.ErrorIs(t, err, ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bank transfer booking skips cash usage", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO walk_requests").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO payments").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		total, err := store.CreateBooking(ctx, testBooking(false))
		assert.NoError(t, err)
		assert.Zero(t, total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hold larger than limit never reaches the database", func(t *testing.T) {
		w := testBooking(true)
		w.CashHold.Hours = 4

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO walk_requests").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO payments").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		_, err := store.CreateBooking(ctx, w)
		assert.ErrorIs(t, err, ErrCashLimitExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_CashHours(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	t.Run("no usage row yet", func(t *testing.T) {
		mock.ExpectQuery("SELECT hours_booked_cash FROM weekly_cash_usage WHERE client_id = \\$1 AND week_start = \\$2").
			WithArgs("client-1", "2025-03-10").
			WillReturnError(sql.ErrNoRows)

		hours, err := store.GetCashHours(ctx, "client-1", "2025-03-10")
		assert.NoError(t, err)
		assert.Zero(t, hours)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("atomic increment", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO weekly_cash_usage .* ON CONFLICT \\(client_id, week_start\\) DO UPDATE").
			WithArgs("client-1", "2025-03-10", 0.5).
			WillReturnRows(sqlmock.NewRows([]string{"hours_booked_cash"}).AddRow(3.0))

		total, err := store.AddCashHours(ctx, "client-1", "2025-03-10", 0.5)
		assert.NoError(t, err)
		assert.Equal(t, 3.0, total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_UpdatePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()
	p := testBooking(false).Payment
	p.Status = models.PaymentStatusPaid

	t.Run("version matches", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments SET status = \\$1, .* WHERE id = \\$7 AND version = \\$8").
			WithArgs(models.PaymentStatusPaid, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), "pay-1", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdatePayment(ctx, p, 1)
		assert.NoError(t, err)
		assert.Equal(t, 2, p.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments SET status").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdatePayment(ctx, p, 1)
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_GetPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()
	columns := []string{"id", "walk_request_id", "client_id", "walker_id", "method", "status", "amount",
		"currency", "distribution", "is_promo", "proof_url", "proof_note", "settled_at", "version",
		"created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\$1").
			WithArgs("pay-1").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				"pay-1", "wr-1", "client-1", nil, "BANK_TRANSFER", "UNDER_REVIEW", "150.00", "MXN",
				[]byte(`{"operationalFee":"15","appShare":"45","walkerShare":"90","scheme":"PROMO_SPLIT"}`),
				true, "https://files.example/proof.jpg", nil, nil, 2, now, now))

		p, err := store.GetPayment(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusUnderReview, p.Status)
		assert.Equal(t, "wr-1", *p.WalkRequestID)
		assert.Nil(t, p.WalkerID)
		assert.Equal(t, "https://files.example/proof.jpg", *p.ProofURL)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, models.SchemePromoSplit, p.Distribution.Scheme)
		assert.True(t, p.Distribution.WalkerShare.Equal(decimal.NewFromInt(90)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\$1").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := store.GetPayment(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_ListPayments(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	method := models.PaymentMethodBankTransfer
	status := models.PaymentStatusUnderReview

	mock.ExpectQuery("FROM payments WHERE method = \\$1 AND status = \\$2 ORDER BY created_at DESC LIMIT \\$3").
		WithArgs(method, status, 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "walk_request_id", "client_id", "walker_id", "method",
			"status", "amount", "currency", "distribution", "is_promo", "proof_url", "proof_note", "settled_at",
			"version", "created_at", "updated_at"}))

	payments, err := store.ListPayments(context.Background(), models.PaymentFilter{Method: &method, Status: &status, Limit: 200})
	assert.NoError(t, err)
	assert.Empty(t, payments)
	assert.NotNil(t, payments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateClarificationStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	now := time.Now()

	mock.ExpectExec("UPDATE clarifications SET status = \\$1, resolved_at = \\$2, updated_at = \\$3 WHERE id = \\$4").
		WithArgs(models.ClarificationResolved, &now, now, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.UpdateClarificationStatus(context.Background(), "missing", models.ClarificationResolved, &now, now)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
