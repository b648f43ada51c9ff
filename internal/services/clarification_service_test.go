package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newClarificationService(s *testServices) *ClarificationService {
	svc := NewClarificationService(s.store, s.payments)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestClarificationService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("payment dispute flags the payment", func(t *testing.T) {
		s := newTestServices()
		svc := newClarificationService(s)
		p := createIntent(t, s, models.PaymentMethodCash)

		c, err := svc.Create(ctx, CreateClarificationInput{
			PaymentID:   &p.ID,
			ClientID:    "client-1",
			WalkerID:    "walker-1",
			Category:    models.ClarificationNoPayment,
			Description: "client did not pay at the end of the walk",
		})
		require.NoError(t, err)
		assert.Equal(t, models.ClarificationOpen, c.Status)
		assert.Equal(t, "walker", c.CreatedBy)
		assert.NotNil(t, c.EvidenceURLs)

		stored, err := s.payments.GetPayment(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusDisputed, stored.Status)
	})

	t.Run("service issue leaves the payment alone", func(t *testing.T) {
		s := newTestServices()
		svc := newClarificationService(s)
		p := createIntent(t, s, models.PaymentMethodCash)

		_, err := svc.Create(ctx, CreateClarificationInput{
			PaymentID: &p.ID,
			ClientID:  "client-1",
			WalkerID:  "walker-1",
			Category:  models.ClarificationServiceIssue,
			CreatedBy: "client",
		})
		require.NoError(t, err)

		stored, err := s.payments.GetPayment(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, stored.Status)
	})

	t.Run("unknown payment", func(t *testing.T) {
		s := newTestServices()
		svc := newClarificationService(s)
		missing := "missing"

		_, err := svc.Create(ctx, CreateClarificationInput{
			PaymentID: &missing,
			ClientID:  "client-1",
			WalkerID:  "walker-1",
			Category:  models.ClarificationPartialPayment,
		})
		var nerr *NotFoundError
		assert.True(t, errors.As(err, &nerr))
	})

	t.Run("payment of another client is not found", func(t *testing.T) {
		s := newTestServices()
		svc := newClarificationService(s)
		p := createIntent(t, s, models.PaymentMethodBankTransfer)

		_, err := svc.Create(ctx, CreateClarificationInput{
			PaymentID: &p.ID,
			ClientID:  "client-2",
			WalkerID:  "walker-1",
			Category:  models.ClarificationNoPayment,
			CreatedBy: "client",
		})
		var nerr *NotFoundError
		require.True(t, errors.As(err, &nerr))

		stored, err := s.payments.GetPayment(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusRequiresProof, stored.Status)

		open, err := svc.ListOpen(ctx)
		require.NoError(t, err)
		assert.Empty(t, open)
	})

	t.Run("payment assigned to another walker is not found", func(t *testing.T) {
		s := newTestServices()
		svc := newClarificationService(s)
		walkerID := "walker-2"
		p, _, err := s.payments.CreatePaymentIntent(ctx, PaymentIntentInput{
			ClientID: "client-1",
			WalkerID: &walkerID,
			Method:   models.PaymentMethodCash,
			Amount:   dec("150"),
		})
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateClarificationInput{
			PaymentID: &p.ID,
			ClientID:  "client-1",
			WalkerID:  "walker-1",
			Category:  models.ClarificationPartialPayment,
		})
		var nerr *NotFoundError
		require.True(t, errors.As(err, &nerr))

		stored, err := s.payments.GetPayment(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, stored.Status)
	})

	t.Run("already disputed payment still records the clarification", func(t *testing.T) {
		s := newTestServices()
		svc := newClarificationService(s)
		p := createIntent(t, s, models.PaymentMethodCash)
		_, err := s.payments.Dispute(ctx, p.ID)
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateClarificationInput{
			PaymentID: &p.ID,
			ClientID:  "client-1",
			WalkerID:  "walker-1",
			Category:  models.ClarificationNoPayment,
		})
		assert.NoError(t, err)
	})

	t.Run("invalid input", func(t *testing.T) {
		s := newTestServices()
		svc := newClarificationService(s)

		_, err := svc.Create(ctx, CreateClarificationInput{
			Category:  models.ClarificationNoPayment,
			CreatedBy: "neighbour",
		})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "clientId")
		assert.Contains(t, verr.Fields, "walkerId")
		assert.Contains(t, verr.Fields, "createdBy")
		assert.Contains(t, verr.Fields, "paymentId")
	})
}

func TestClarificationService_DisputeConflictSurfaces(t *testing.T) {
	cfg := testConfig()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	repo := &MockPaymentRepository{}

	pricing := NewPricingEngine(cfg.Pricing)
	payments := NewPaymentService(repo, pricing, NewBankTransferService(cfg.Bank), nil, nil)
	svc := NewClarificationService(store, payments)

	paymentID := "pay-1"
	repo.On("GetPayment", mock.Anything, paymentID).Return(&models.Payment{
		ID:       paymentID,
		ClientID: "client-1",
		Method:   models.PaymentMethodCash,
		Status:   models.PaymentStatusPending,
		Amount:   dec("150"),
		Version:  3,
	}, nil)
	repo.On("UpdatePayment", mock.Anything, mock.Anything, 3).Return(repository.ErrVersionConflict)

	_, err := svc.Create(ctx, CreateClarificationInput{
		PaymentID: &paymentID,
		ClientID:  "client-1",
		WalkerID:  "walker-1",
		Category:  models.ClarificationNoPayment,
	})
	var cerr *ConcurrentModificationError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	repo.AssertExpectations(t)

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestClarificationService_ListAndResolve(t *testing.T) {
	s := newTestServices()
	svc := newClarificationService(s)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateClarificationInput{
		ClientID: "client-1",
		WalkerID: "walker-1",
		Category: models.ClarificationOther,
	})
	require.NoError(t, err)

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)

	resolved, err := svc.Resolve(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClarificationResolved, resolved.Status)
	assert.Equal(t, fixedNow, *resolved.ResolvedAt)

	open, err = svc.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = svc.Resolve(ctx, "missing")
	var nerr *NotFoundError
	assert.True(t, errors.As(err, &nerr))
}
