package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paseospeludos/backend/internal/audit"
	"github.com/paseospeludos/backend/internal/events"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/repository"
)

type CreateWalkRequestInput struct {
	ClientID      string
	DogIDs        []string
	PaymentMethod models.PaymentMethod
	IsPromo       bool
	Type          models.WalkType
	When          models.Schedule
	Origin        *models.Origin
	Notes         string
}

type WalkRequestResult struct {
	WalkRequest      *models.WalkRequest      `json:"walkRequest"`
	Payment          *models.Payment          `json:"payment"`
	BankInstructions *models.BankInstructions `json:"bankInstructions,omitempty"`
}

// WalkRequestService books walks: it prices them, enforces the weekly cash
// allowance and stores the walk together with its payment.
type WalkRequestService struct {
	repo      repository.WalkRequestRepository
	pricing   *PricingEngine
	ledger    *CashLedger
	bank      *BankTransferService
	publisher events.Publisher
	audit     *audit.Logger
	now       func() time.Time
	newID     func() string
}

func NewWalkRequestService(repo repository.WalkRequestRepository, pricing *PricingEngine, ledger *CashLedger, bank *BankTransferService, publisher events.Publisher, auditLogger *audit.Logger) *WalkRequestService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &WalkRequestService{
		repo:      repo,
		pricing:   pricing,
		ledger:    ledger,
		bank:      bank,
		publisher: publisher,
		audit:     auditLogger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func validateWalkRequest(in *CreateWalkRequestInput) error {
	verr := &ValidationError{}

	if strings.TrimSpace(in.ClientID) == "" {
		verr.add("clientId", "client is required")
	}
	if len(in.DogIDs) == 0 {
		verr.add("dogIds", "at least one dog is required")
	} else if slices.ContainsFunc(in.DogIDs, func(id string) bool { return strings.TrimSpace(id) == "" }) {
		verr.add("dogIds", "dog ids must not be empty")
	}
	if !in.PaymentMethod.Valid() {
		verr.add("paymentMethod", "must be CASH or BANK_TRANSFER")
	}
	if in.When.DurationMins <= 0 {
		verr.add("when.durationMins", "must be greater than zero")
	}

	switch in.Type {
	case "":
		in.Type = models.WalkTypeScheduled
	case models.WalkTypeImmediate, models.WalkTypeScheduled, models.WalkTypeRecurring:
	default:
		verr.add("type", "must be immediate, scheduled or recurring")
	}

	return verr.orNil()
}

// CreateWalkRequest books a walk. A cash booking that does not fit in the
// week's allowance fails with QuotaExceededError and leaves nothing behind.
// The walk, its payment and the cash usage are stored in one write, so a walk
// never exists without its payment.
func (s *WalkRequestService) CreateWalkRequest(ctx context.Context, in CreateWalkRequestInput) (*WalkRequestResult, error) {
	if err := validateWalkRequest(&in); err != nil {
		return nil, err
	}

	referenceTime := s.now()
	if in.When.StartAt.IsZero() {
		in.When.StartAt = referenceTime
	}

	amount, snapshot := s.pricing.Quote(in.When.DurationMins, in.IsPromo)
	if err := CheckPayout(snapshot); err != nil {
		return nil, err
	}

	var hold *models.CashHold
	if in.PaymentMethod == models.PaymentMethodCash {
		weekStart := s.ledger.WeekStart(referenceTime)
		addHours := float64(in.When.DurationMins) / 60

		check, err := s.ledger.CheckQuota(ctx, in.ClientID, weekStart, addHours)
		if err != nil {
			return nil, err
		}
		if !check.Allowed {
			log.Printf("[WALK_REQUEST] cash quota denied for client %s week %s: used %g + %g > %g",
				in.ClientID, weekStart, check.Used, addHours, check.Limit)
			return nil, s.ledger.quotaExceeded(check, weekStart, addHours)
		}

		h := s.ledger.Hold(in.ClientID, weekStart, addHours)
		hold = &h
	}

	walkRequestID := s.newID()
	paymentID := s.newID()

	walkRequest := &models.WalkRequest{
		ID:              walkRequestID,
		ClientID:        in.ClientID,
		DogIDs:          slices.Clone(in.DogIDs),
		Type:            in.Type,
		When:            in.When,
		Origin:          in.Origin,
		Notes:           in.Notes,
		PaymentMethod:   in.PaymentMethod,
		IsPromo:         in.IsPromo,
		Amount:          amount,
		PricingSnapshot: snapshot,
		PaymentID:       paymentID,
		Status:          models.WalkStatusPending,
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}

	payment := &models.Payment{
		ID:            paymentID,
		WalkRequestID: &walkRequestID,
		ClientID:      in.ClientID,
		Method:        in.PaymentMethod,
		Status:        models.InitialPaymentStatus(in.PaymentMethod),
		Amount:        amount,
		Currency:      s.pricing.Currency(),
		Distribution:  snapshot,
		IsPromo:       in.IsPromo,
		Version:       1,
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}

	total, err := s.repo.CreateBooking(ctx, repository.BookingWrite{
		WalkRequest: walkRequest,
		Payment:     payment,
		CashHold:    hold,
	})
	if errors.Is(err, repository.ErrCashLimitExceeded) {
		return nil, s.lostQuotaRace(ctx, *hold)
	}
	if err != nil {
		s.audit.LogError(paymentID, in.ClientID, err)
		return nil, &StorageError{Op: "create walk request", Err: err}
	}

	log.Printf("[WALK_REQUEST] created %s for client %s: %s %s, payment %s %s",
		walkRequestID, in.ClientID, amount.StringFixed(2), payment.Currency, paymentID, payment.Status)
	s.audit.LogBooking(walkRequestID, paymentID, in.ClientID, amount, string(in.PaymentMethod), string(payment.Status))
	if hold != nil {
		s.audit.LogCashReserved(in.ClientID, hold.WeekStart, hold.Hours, total)
	}

	result := &WalkRequestResult{WalkRequest: walkRequest, Payment: payment}
	if in.PaymentMethod == models.PaymentMethodBankTransfer {
		result.BankInstructions = s.bank.Instructions(paymentID, amount, payment.Currency)
	}

	if err := s.publisher.PublishJSON(ctx, events.WalkRequestCreated, result); err != nil {
		log.Printf("[WALK_REQUEST] failed to publish %s for %s: %v", events.WalkRequestCreated, walkRequestID, err)
	}
	return result, nil
}

// lostQuotaRace builds the error for a booking whose cash hold was refused at
// write time because a concurrent booking used the remaining hours
func (s *WalkRequestService) lostQuotaRace(ctx context.Context, hold models.CashHold) error {
	check, err := s.ledger.CheckQuota(ctx, hold.ClientID, hold.WeekStart, hold.Hours)
	if err != nil {
		log.Printf("[WALK_REQUEST] failed to re-read cash usage for client %s: %v", hold.ClientID, err)
		check = models.QuotaCheck{Limit: s.ledger.MaxHours()}
	}
	return s.ledger.quotaExceeded(check, hold.WeekStart, hold.Hours)
}

func (s *WalkRequestService) GetWalkRequest(ctx context.Context, id string) (*models.WalkRequest, error) {
	wr, err := s.repo.GetWalkRequest(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "walk request", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get walk request", Err: fmt.Errorf("walk request %s: %w", id, err)}
	}
	return wr, nil
}
