package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/paseospeludos/backend/internal/models"
)

// MemoryStore keeps everything in process. A single mutex serialises all
// writes, which gives bookings the same all-or-nothing behaviour as the
// Postgres transaction.
type MemoryStore struct {
	mu             sync.Mutex
	cashUsage      map[string]float64
	payments       map[string]models.Payment
	walkRequests   map[string]models.WalkRequest
	clarifications map[string]models.Clarification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cashUsage:      make(map[string]float64),
		payments:       make(map[string]models.Payment),
		walkRequests:   make(map[string]models.WalkRequest),
		clarifications: make(map[string]models.Clarification),
	}
}

func cashKey(clientID, weekStart string) string {
	return clientID + "|" + weekStart
}

func (s *MemoryStore) GetCashHours(_ context.Context, clientID, weekStart string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cashUsage[cashKey(clientID, weekStart)], nil
}

func (s *MemoryStore) AddCashHours(_ context.Context, clientID, weekStart string, hours float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cashKey(clientID, weekStart)
	s.cashUsage[key] += hours
	return s.cashUsage[key], nil
}

func (s *MemoryStore) CreateBooking(_ context.Context, w BookingWrite) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.walkRequests[w.WalkRequest.ID]; exists {
		return 0, fmt.Errorf("walk request %s: %w", w.WalkRequest.ID, ErrAlreadyExists)
	}
	if _, exists := s.payments[w.Payment.ID]; exists {
		return 0, fmt.Errorf("payment %s: %w", w.Payment.ID, ErrAlreadyExists)
	}

	var total float64
	if hold := w.CashHold; hold != nil {
		key := cashKey(hold.ClientID, hold.WeekStart)
		total = s.cashUsage[key] + hold.Hours
		if total > hold.Limit {
			return 0, ErrCashLimitExceeded
		}
		s.cashUsage[key] = total
	}

	wr := *w.WalkRequest
	wr.DogIDs = slices.Clone(wr.DogIDs)
	s.walkRequests[wr.ID] = wr
	s.payments[w.Payment.ID] = *w.Payment
	return total, nil
}

func (s *MemoryStore) GetWalkRequest(_ context.Context, id string) (*models.WalkRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wr, ok := s.walkRequests[id]
	if !ok {
		return nil, ErrNotFound
	}
	wr.DogIDs = slices.Clone(wr.DogIDs)
	return &wr, nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return fmt.Errorf("payment %s: %w", p.ID, ErrAlreadyExists)
	}
	s.payments[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpdatePayment(_ context.Context, p *models.Payment, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.payments[p.ID]
	if !ok || stored.Version != expectedVersion {
		return fmt.Errorf("payment %s: %w", p.ID, ErrVersionConflict)
	}

	p.Version = expectedVersion + 1
	s.payments[p.ID] = *p
	return nil
}

func (s *MemoryStore) ListPayments(_ context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments := []models.Payment{}
	for _, p := range s.payments {
		if filter.Method != nil && p.Method != *filter.Method {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		payments = append(payments, p)
	}

	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	if filter.Limit > 0 && len(payments) > filter.Limit {
		payments = payments[:filter.Limit]
	}
	return payments, nil
}

func (s *MemoryStore) CreateClarification(_ context.Context, c *models.Clarification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	stored.EvidenceURLs = slices.Clone(c.EvidenceURLs)
	s.clarifications[c.ID] = stored
	return nil
}

func (s *MemoryStore) GetClarification(_ context.Context, id string) (*models.Clarification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clarifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListClarifications(_ context.Context, statuses []models.ClarificationStatus, limit int) ([]models.Clarification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []models.Clarification{}
	for _, c := range s.clarifications {
		if slices.Contains(statuses, c.Status) {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) UpdateClarificationStatus(_ context.Context, id string, status models.ClarificationStatus, resolvedAt *time.Time, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clarifications[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.ResolvedAt = resolvedAt
	c.UpdatedAt = updatedAt
	s.clarifications[id] = c
	return nil
}
