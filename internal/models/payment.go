package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodBankTransfer
}

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusRequiresProof PaymentStatus = "REQUIRES_PROOF"
	PaymentStatusUnderReview   PaymentStatus = "UNDER_REVIEW"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusDisputed      PaymentStatus = "DISPUTED"
)

// IsTerminal reports whether no settlement event may leave this status
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// InitialPaymentStatus returns the status a new payment starts in
func InitialPaymentStatus(method PaymentMethod) PaymentStatus {
	if method == PaymentMethodBankTransfer {
		return PaymentStatusRequiresProof
	}
	return PaymentStatusPending
}

// Payment is the settlement record of a walk
type Payment struct {
	ID            string          `json:"id" db:"id"`
	WalkRequestID *string         `json:"walkRequestId,omitempty" db:"walk_request_id"`
	ClientID      string          `json:"clientId" db:"client_id"`
	WalkerID      *string         `json:"walkerId,omitempty" db:"walker_id"`
	Method        PaymentMethod   `json:"method" db:"method"`
	Status        PaymentStatus   `json:"status" db:"status"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	Distribution  PricingSnapshot `json:"distribution" db:"distribution"`
	IsPromo       bool            `json:"isPromo" db:"is_promo"`
	ProofURL      *string         `json:"proofUrl,omitempty" db:"proof_url"`
	ProofNote     *string         `json:"proofNote,omitempty" db:"proof_note"`
	SettledAt     *time.Time      `json:"settledAt,omitempty" db:"settled_at"`
	Version       int             `json:"version" db:"version"` // for optimistic locking
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// BankInstructions tells the client where to send a bank transfer
type BankInstructions struct {
	Beneficiary  string          `json:"beneficiary"`
	CLABE        string          `json:"clabe"`
	BankName     string          `json:"bankName"`
	Instructions string          `json:"instructions"`
	Reference    string          `json:"reference"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	QRImage      string          `json:"qrImage,omitempty"` // base64 PNG
}

type PaymentFilter struct {
	Method *PaymentMethod
	Status *PaymentStatus
	Limit  int
}
