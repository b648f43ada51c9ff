package models

import "time"

type ClarificationCategory string

const (
	ClarificationNoPayment      ClarificationCategory = "NO_PAYMENT"
	ClarificationPartialPayment ClarificationCategory = "PARTIAL_PAYMENT"
	ClarificationServiceIssue   ClarificationCategory = "SERVICE_ISSUE"
	ClarificationOther          ClarificationCategory = "OTHER"
)

// DisputesPayment reports whether the category contests a payment
func (c ClarificationCategory) DisputesPayment() bool {
	return c == ClarificationNoPayment || c == ClarificationPartialPayment
}

type ClarificationStatus string

const (
	ClarificationOpen      ClarificationStatus = "OPEN"
	ClarificationInReview  ClarificationStatus = "IN_REVIEW"
	ClarificationResolved  ClarificationStatus = "RESOLVED"
	ClarificationEscalated ClarificationStatus = "ESCALATED"
)

// Clarification is a walker or client complaint about a walk or its payment
type Clarification struct {
	ID            string                `json:"id" db:"id"`
	WalkRequestID *string               `json:"walkRequestId,omitempty" db:"walk_request_id"`
	PaymentID     *string               `json:"paymentId,omitempty" db:"payment_id"`
	ClientID      string                `json:"clientId" db:"client_id"`
	WalkerID      string                `json:"walkerId" db:"walker_id"`
	Category      ClarificationCategory `json:"category" db:"category"`
	Status        ClarificationStatus   `json:"status" db:"status"`
	Description   string                `json:"description" db:"description"`
	EvidenceURLs  []string              `json:"evidenceUrls" db:"evidence_urls"`
	CreatedBy     string                `json:"createdBy" db:"created_by"` // walker, client or system
	ResolvedAt    *time.Time            `json:"resolvedAt,omitempty" db:"resolved_at"`
	CreatedAt     time.Time             `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time             `json:"updatedAt" db:"updated_at"`
}
