package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mW "github.com/paseospeludos/backend/internal/middleware"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/services"
)

type createClarificationRequest struct {
	WalkRequestID *string  `json:"walkRequestId" validate:"omitempty,max=64"`
	PaymentID     *string  `json:"paymentId" validate:"omitempty,max=64"`
	ClientID      string   `json:"clientId" validate:"omitempty,max=64"`
	WalkerID      string   `json:"walkerId" validate:"omitempty,max=64"`
	Category      string   `json:"category" validate:"required,oneof=NO_PAYMENT PARTIAL_PAYMENT SERVICE_ISSUE OTHER"`
	Description   string   `json:"description" validate:"max=2000"`
	EvidenceURLs  []string `json:"evidenceUrls" validate:"max=10,dive,url"`
}

type ClarificationHandler struct {
	service   *services.ClarificationService
	validator *services.ValidationHelper
}

func NewClarificationHandler(service *services.ClarificationService) *ClarificationHandler {
	return &ClarificationHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// CreateClarification opens a clarification about a walk or a payment
// @Summary Create clarification
// @Description NO_PAYMENT and PARTIAL_PAYMENT clarifications put the payment in dispute
// @Tags Clarifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createClarificationRequest true "Clarification"
// @Success 201 {object} models.Clarification
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /clarifications [post]
func (h *ClarificationHandler) CreateClarification(w http.ResponseWriter, r *http.Request) {
	var req createClarificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	clientID, walkerID, err := clarificationParties(r, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	createdBy := mW.RoleFromContext(r.Context())
	if createdBy == mW.RoleAdmin {
		createdBy = "system"
	}

	c, err := h.service.Create(r.Context(), services.CreateClarificationInput{
		WalkRequestID: req.WalkRequestID,
		PaymentID:     req.PaymentID,
		ClientID:      clientID,
		WalkerID:      walkerID,
		Category:      models.ClarificationCategory(req.Category),
		Description:   req.Description,
		EvidenceURLs:  req.EvidenceURLs,
		CreatedBy:     createdBy,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"clarification": c,
	})
}

// clarificationParties binds the caller to its side of the clarification.
// Clients speak for themselves, walkers only as themselves, admins for anyone.
func clarificationParties(r *http.Request, req createClarificationRequest) (clientID, walkerID string, err error) {
	switch mW.RoleFromContext(r.Context()) {
	case mW.RoleAdmin:
		return req.ClientID, req.WalkerID, nil
	case mW.RoleWalker:
		userID := mW.UserIDFromContext(r.Context())
		if req.WalkerID != "" && req.WalkerID != userID {
			return "", "", errForbiddenClient
		}
		return req.ClientID, userID, nil
	default:
		clientID, err = resolveClientID(r, req.ClientID)
		return clientID, req.WalkerID, err
	}
}

// ListOpen lists unresolved clarifications
// @Summary List open clarifications
// @Tags Clarifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Clarification
// @Router /clarifications/open [get]
func (h *ClarificationHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListOpen(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"clarifications": list,
	})
}

// Resolve closes a clarification
// @Summary Resolve clarification
// @Tags Clarifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Clarification ID"
// @Success 200 {object} models.Clarification
// @Failure 404 {object} services.ErrorResponse
// @Router /clarifications/{id}/resolve [post]
func (h *ClarificationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"clarification": c,
	})
}
