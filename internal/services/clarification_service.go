package services

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/repository"
)

const maxOpenClarifications = 100

var clarificationCategories = []models.ClarificationCategory{
	models.ClarificationNoPayment,
	models.ClarificationPartialPayment,
	models.ClarificationServiceIssue,
	models.ClarificationOther,
}

var clarificationAuthors = []string{"walker", "client", "system"}

type CreateClarificationInput struct {
	WalkRequestID *string
	PaymentID     *string
	ClientID      string
	WalkerID      string
	Category      models.ClarificationCategory
	Description   string
	EvidenceURLs  []string
	CreatedBy     string
}

type ClarificationService struct {
	repo     repository.ClarificationRepository
	payments *PaymentService
	now      func() time.Time
}

func NewClarificationService(repo repository.ClarificationRepository, payments *PaymentService) *ClarificationService {
	return &ClarificationService{repo: repo, payments: payments, now: time.Now}
}

// Create records a clarification. When it contests a payment, the payment is
// moved to DISPUTED.
func (s *ClarificationService) Create(ctx context.Context, in CreateClarificationInput) (*models.Clarification, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(in.ClientID) == "" {
		verr.add("clientId", "client is required")
	}
	if strings.TrimSpace(in.WalkerID) == "" {
		verr.add("walkerId", "walker is required")
	}
	if !slices.Contains(clarificationCategories, in.Category) {
		verr.add("category", "must be NO_PAYMENT, PARTIAL_PAYMENT, SERVICE_ISSUE or OTHER")
	}
	if in.CreatedBy == "" {
		in.CreatedBy = "walker"
	} else if !slices.Contains(clarificationAuthors, in.CreatedBy) {
		verr.add("createdBy", "must be walker, client or system")
	}
	if in.Category.DisputesPayment() && in.PaymentID == nil {
		verr.add("paymentId", "payment is required for payment disputes")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if in.PaymentID != nil {
		p, err := s.payments.GetPayment(ctx, *in.PaymentID)
		if err != nil {
			return nil, err
		}
		// a payment is only contested by its own client or its walker
		if p.ClientID != in.ClientID || (p.WalkerID != nil && *p.WalkerID != in.WalkerID) {
			return nil, &NotFoundError{Resource: "payment", ID: *in.PaymentID}
		}
	}

	// The dispute goes first so a stored payment clarification always has a
	// disputed payment behind it. An already disputed payment is fine.
	if in.Category.DisputesPayment() {
		_, err := s.payments.Dispute(ctx, *in.PaymentID)
		var terr *InvalidTransitionError
		if err != nil && !errors.As(err, &terr) {
			log.Printf("[CLARIFICATION] failed to dispute payment %s: %v", *in.PaymentID, err)
			return nil, err
		}
	}

	now := s.now()
	c := &models.Clarification{
		ID:            uuid.NewString(),
		WalkRequestID: in.WalkRequestID,
		PaymentID:     in.PaymentID,
		ClientID:      in.ClientID,
		WalkerID:      in.WalkerID,
		Category:      in.Category,
		Status:        models.ClarificationOpen,
		Description:   in.Description,
		EvidenceURLs:  slices.Clone(in.EvidenceURLs),
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if c.EvidenceURLs == nil {
		c.EvidenceURLs = []string{}
	}

	if err := s.repo.CreateClarification(ctx, c); err != nil {
		return nil, &StorageError{Op: "create clarification", Err: err}
	}

	return c, nil
}

// ListOpen returns clarifications still waiting for a resolution, newest first
func (s *ClarificationService) ListOpen(ctx context.Context) ([]models.Clarification, error) {
	list, err := s.repo.ListClarifications(ctx,
		[]models.ClarificationStatus{models.ClarificationOpen, models.ClarificationInReview},
		maxOpenClarifications)
	if err != nil {
		return nil, &StorageError{Op: "list clarifications", Err: err}
	}
	return list, nil
}

func (s *ClarificationService) Resolve(ctx context.Context, id string) (*models.Clarification, error) {
	c, err := s.repo.GetClarification(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "clarification", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get clarification", Err: err}
	}
	if c.Status == models.ClarificationResolved {
		return c, nil
	}

	now := s.now()
	if err := s.repo.UpdateClarificationStatus(ctx, id, models.ClarificationResolved, &now, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "clarification", ID: id}
		}
		return nil, &StorageError{Op: "resolve clarification", Err: err}
	}

	c.Status = models.ClarificationResolved
	c.ResolvedAt = &now
	c.UpdatedAt = now
	return c, nil
}
