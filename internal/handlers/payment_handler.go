package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/services"
	"github.com/shopspring/decimal"
)

type paymentIntentRequest struct {
	ClientID      string          `json:"clientId" validate:"max=64"`
	WalkRequestID *string         `json:"walkRequestId" validate:"omitempty,max=64"`
	WalkerID      *string         `json:"walkerId" validate:"omitempty,max=64"`
	Method        string          `json:"method" validate:"required,oneof=CASH BANK_TRANSFER"`
	Amount        decimal.Decimal `json:"amount"`
	IsPromo       bool            `json:"isPromo"`
}

type uploadProofRequest struct {
	ProofURL string `json:"proofUrl" validate:"required,url,max=2048"`
	Note     string `json:"note" validate:"max=500"`
}

type markFailedRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type PaymentHandler struct {
	service   *services.PaymentService
	validator *services.ValidationHelper
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// CreatePaymentIntent creates a standalone payment
// @Summary Create payment intent
// @Description Create a payment outside of a booking. Bank transfers include transfer instructions.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body paymentIntentRequest true "Payment intent"
// @Success 201 {object} object{success=bool,payment=models.Payment,bankInstructions=models.BankInstructions}
// @Failure 400 {object} services.ErrorResponse
// @Router /payments/intent [post]
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	clientID, err := resolveClientID(r, req.ClientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	payment, instructions, err := h.service.CreatePaymentIntent(r.Context(), services.PaymentIntentInput{
		ClientID:      clientID,
		WalkRequestID: req.WalkRequestID,
		WalkerID:      req.WalkerID,
		Method:        models.PaymentMethod(req.Method),
		Amount:        req.Amount,
		IsPromo:       req.IsPromo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":          true,
		"payment":          payment,
		"bankInstructions": instructions,
	})
}

// GetPayment returns one payment
// @Summary Get payment
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 404 {object} services.ErrorResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !canSeePayment(r, payment) {
		writeServiceError(w, &services.NotFoundError{Resource: "payment", ID: payment.ID})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": payment,
	})
}

// ListUnderReview lists bank transfers waiting for review
// @Summary List payments under review
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum results (max 200)"
// @Success 200 {array} models.Payment
// @Router /payments/under-review [get]
func (h *PaymentHandler) ListUnderReview(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	payments, err := h.service.ListUnderReview(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"payments": payments,
	})
}

// UploadProof attaches a bank transfer receipt
// @Summary Upload payment proof
// @Description Only bank transfer payments waiting for proof accept a receipt
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param request body uploadProofRequest true "Proof"
// @Success 200 {object} models.Payment
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /payments/{id}/proof [post]
func (h *PaymentHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	var req uploadProofRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	paymentID := chi.URLParam(r, "id")
	current, err := h.service.GetPayment(r.Context(), paymentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !canSeeClient(r, current.ClientID) {
		writeServiceError(w, &services.NotFoundError{Resource: "payment", ID: paymentID})
		return
	}

	payment, err := h.service.UploadProof(r.Context(), paymentID, req.ProofURL, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": payment,
	})
}

// MarkPaid settles a payment
// @Summary Mark payment paid
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /payments/{id}/mark-paid [post]
func (h *PaymentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": payment,
	})
}

// MarkFailed fails a payment
// @Summary Mark payment failed
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param request body markFailedRequest false "Failure reason"
// @Success 200 {object} models.Payment
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /payments/{id}/mark-failed [post]
func (h *PaymentHandler) MarkFailed(w http.ResponseWriter, r *http.Request) {
	var req markFailedRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := h.validator.ValidateStruct(&req); err != nil {
			services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
			return
		}
	}

	payment, err := h.service.MarkFailed(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": payment,
	})
}
