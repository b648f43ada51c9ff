package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paseospeludos/backend/internal/audit"
	"github.com/paseospeludos/backend/internal/events"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/repository"
	"github.com/shopspring/decimal"
)

const maxUnderReviewListing = 200

type PaymentEvent string

const (
	EventUploadProof PaymentEvent = "upload_proof"
	EventMarkPaid    PaymentEvent = "mark_paid"
	EventMarkFailed  PaymentEvent = "mark_failed"
	EventDispute     PaymentEvent = "dispute"
)

// NextPaymentStatus applies event to a payment in status from. Terminal
// statuses reject every settlement event; only a dispute may follow them.
func NextPaymentStatus(method models.PaymentMethod, from models.PaymentStatus, event PaymentEvent) (models.PaymentStatus, error) {
	invalid := func(reason string) (models.PaymentStatus, error) {
		return from, &InvalidTransitionError{From: from, Event: event, Reason: reason}
	}

	switch event {
	case EventUploadProof:
		if method != models.PaymentMethodBankTransfer {
			return invalid("proof can only be uploaded for bank transfers")
		}
		if from != models.PaymentStatusRequiresProof {
			return invalid("payment is not waiting for proof")
		}
		return models.PaymentStatusUnderReview, nil

	case EventMarkPaid:
		if from != models.PaymentStatusPending && from != models.PaymentStatusUnderReview {
			return invalid("only pending or under review payments can be marked paid")
		}
		return models.PaymentStatusPaid, nil

	case EventMarkFailed:
		if from.IsTerminal() {
			return invalid("payment is already settled")
		}
		return models.PaymentStatusFailed, nil

	case EventDispute:
		if from == models.PaymentStatusDisputed {
			return invalid("payment is already disputed")
		}
		return models.PaymentStatusDisputed, nil
	}

	return invalid("unknown event")
}

type PaymentIntentInput struct {
	ClientID      string
	WalkRequestID *string
	WalkerID      *string
	Method        models.PaymentMethod
	Amount        decimal.Decimal
	IsPromo       bool
}

type PaymentService struct {
	repo      repository.PaymentRepository
	pricing   *PricingEngine
	bank      *BankTransferService
	publisher events.Publisher
	audit     *audit.Logger
	now       func() time.Time
}

func NewPaymentService(repo repository.PaymentRepository, pricing *PricingEngine, bank *BankTransferService, publisher events.Publisher, auditLogger *audit.Logger) *PaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &PaymentService{
		repo:      repo,
		pricing:   pricing,
		bank:      bank,
		publisher: publisher,
		audit:     auditLogger,
		now:       time.Now,
	}
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "payment", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get payment", Err: err}
	}
	return p, nil
}

// ListUnderReview returns bank transfers waiting for an admin, newest first
func (s *PaymentService) ListUnderReview(ctx context.Context, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > maxUnderReviewListing {
		limit = maxUnderReviewListing
	}

	method := models.PaymentMethodBankTransfer
	status := models.PaymentStatusUnderReview
	payments, err := s.repo.ListPayments(ctx, models.PaymentFilter{Method: &method, Status: &status, Limit: limit})
	if err != nil {
		return nil, &StorageError{Op: "list payments", Err: err}
	}
	return payments, nil
}

// CreatePaymentIntent records a payment that is not created through a booking
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*models.Payment, *models.BankInstructions, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(in.ClientID) == "" {
		verr.add("clientId", "client is required")
	}
	if !in.Method.Valid() {
		verr.add("method", "must be CASH or BANK_TRANSFER")
	}
	if !in.Amount.IsPositive() {
		verr.add("amount", "must be greater than zero")
	}
	if err := verr.orNil(); err != nil {
		return nil, nil, err
	}

	snapshot := s.pricing.ComputeSplit(round2(in.Amount), in.IsPromo)
	if err := CheckPayout(snapshot); err != nil {
		return nil, nil, err
	}

	now := s.now()
	p := &models.Payment{
		ID:            uuid.NewString(),
		WalkRequestID: in.WalkRequestID,
		ClientID:      in.ClientID,
		WalkerID:      in.WalkerID,
		Method:        in.Method,
		Status:        models.InitialPaymentStatus(in.Method),
		Amount:        round2(in.Amount),
		Currency:      s.pricing.Currency(),
		Distribution:  snapshot,
		IsPromo:       in.IsPromo,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreatePayment(ctx, p); err != nil {
		s.audit.LogError(p.ID, p.ClientID, err)
		return nil, nil, &StorageError{Op: "create payment", Err: err}
	}
	s.audit.LogTransition(p.ID, p.ClientID, p.Amount, "", string(p.Status), "create")

	var instructions *models.BankInstructions
	if p.Method == models.PaymentMethodBankTransfer {
		instructions = s.bank.Instructions(p.ID, p.Amount, p.Currency)
	}
	return p, instructions, nil
}

// UploadProof attaches a transfer receipt and sends the payment to review
func (s *PaymentService) UploadProof(ctx context.Context, paymentID, proofURL, note string) (*models.Payment, error) {
	if strings.TrimSpace(proofURL) == "" {
		return nil, newValidationError("proofUrl", "proof URL is required")
	}

	return s.transition(ctx, paymentID, EventUploadProof, events.PaymentProofUploaded, func(p *models.Payment) {
		p.ProofURL = &proofURL
		if note != "" {
			p.ProofNote = &note
		}
	})
}

func (s *PaymentService) MarkPaid(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.transition(ctx, paymentID, EventMarkPaid, events.PaymentPaid, func(p *models.Payment) {
		settledAt := s.now()
		p.SettledAt = &settledAt
	})
}

// MarkFailed stores the reason, if any, in the proof note
func (s *PaymentService) MarkFailed(ctx context.Context, paymentID, reason string) (*models.Payment, error) {
	return s.transition(ctx, paymentID, EventMarkFailed, events.PaymentFailed, func(p *models.Payment) {
		if reason != "" {
			p.ProofNote = &reason
		}
	})
}

// Dispute flags a payment raised in a clarification
func (s *PaymentService) Dispute(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.transition(ctx, paymentID, EventDispute, events.PaymentDisputed, func(*models.Payment) {})
}

func (s *PaymentService) transition(ctx context.Context, paymentID string, event PaymentEvent, routingKey string, apply func(p *models.Payment)) (*models.Payment, error) {
	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	from := p.Status
	next, err := NextPaymentStatus(p.Method, from, event)
	if err != nil {
		var terr *InvalidTransitionError
		if errors.As(err, &terr) {
			terr.PaymentID = p.ID
		}
		return nil, err
	}

	expectedVersion := p.Version
	apply(p)
	p.Status = next
	p.UpdatedAt = s.now()

	if err := s.repo.UpdatePayment(ctx, p, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, &ConcurrentModificationError{Resource: "payment", ID: p.ID}
		}
		s.audit.LogError(p.ID, p.ClientID, err)
		return nil, &StorageError{Op: "update payment", Err: err}
	}

	log.Printf("[PAYMENT] %s: %s -> %s (%s)", p.ID, from, next, event)
	s.audit.LogTransition(p.ID, p.ClientID, p.Amount, string(from), string(next), string(event))

	if err := s.publisher.PublishJSON(ctx, routingKey, p); err != nil {
		log.Printf("[PAYMENT] failed to publish %s for %s: %v", routingKey, p.ID, err)
	}
	return p, nil
}
