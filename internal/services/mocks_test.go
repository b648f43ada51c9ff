package services

import (
	"context"
	"time"

	"github.com/paseospeludos/backend/internal/audit"
	"github.com/paseospeludos/backend/internal/config"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int) error {
	args := m.Called(ctx, p, expectedVersion)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

type MockWalkRequestRepository struct {
	mock.Mock
}

func (m *MockWalkRequestRepository) CreateBooking(ctx context.Context, w repository.BookingWrite) (float64, error) {
	args := m.Called(ctx, w)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockWalkRequestRepository) GetWalkRequest(ctx context.Context, id string) (*models.WalkRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalkRequest), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

// fixedNow is a Wednesday; its week starts on 2025-03-10
var fixedNow = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func testConfig() *config.SettlementConfig {
	return config.DefaultSettlementConfig(time.UTC)
}

type testServices struct {
	store     *repository.MemoryStore
	pricing   *PricingEngine
	ledger    *CashLedger
	payments  *PaymentService
	walks     *WalkRequestService
	publisher *MockPublisher
}

func newTestServices() *testServices {
	cfg := testConfig()
	store := repository.NewMemoryStore()
	publisher := &MockPublisher{}
	publisher.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	pricing := NewPricingEngine(cfg.Pricing)
	ledger := NewCashLedger(store, cfg.Cash.MaxHoursPerWeek, cfg.Cash.Location)
	bank := NewBankTransferService(cfg.Bank)
	auditLogger := audit.NewLogger()

	payments := NewPaymentService(store, pricing, bank, publisher, auditLogger)
	payments.now = func() time.Time { return fixedNow }

	walks := NewWalkRequestService(store, pricing, ledger, bank, publisher, auditLogger)
	walks.now = func() time.Time { return fixedNow }

	return &testServices{
		store:     store,
		pricing:   pricing,
		ledger:    ledger,
		payments:  payments,
		walks:     walks,
		publisher: publisher,
	}
}
