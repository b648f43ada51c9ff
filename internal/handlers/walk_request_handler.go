package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/services"
)

type scheduleRequest struct {
	StartAt      *time.Time `json:"startAt"`
	DurationMins int        `json:"durationMins" validate:"required,gt=0,lte=1440"`
}

type originRequest struct {
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Address string  `json:"address" validate:"max=300"`
}

type createWalkRequestRequest struct {
	ClientID      string          `json:"clientId" validate:"max=64"`
	DogIDs        []string        `json:"dogIds" validate:"required,min=1,dive,required"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,oneof=CASH BANK_TRANSFER"`
	IsPromo       bool            `json:"isPromo"`
	Type          string          `json:"type" validate:"omitempty,oneof=immediate scheduled recurring"`
	When          scheduleRequest `json:"when"`
	Origin        *originRequest  `json:"origin"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

type WalkRequestHandler struct {
	service   *services.WalkRequestService
	validator *services.ValidationHelper
}

func NewWalkRequestHandler(service *services.WalkRequestService) *WalkRequestHandler {
	return &WalkRequestHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// CreateWalkRequest books a walk
// @Summary Create walk request
// @Description Price a walk, check the weekly cash allowance and create the walk with its payment
// @Tags Walks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replay protection key"
// @Param request body createWalkRequestRequest true "Walk request"
// @Success 201 {object} services.WalkRequestResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse "Weekly cash limit reached"
// @Router /walk-requests [post]
func (h *WalkRequestHandler) CreateWalkRequest(w http.ResponseWriter, r *http.Request) {
	var req createWalkRequestRequest
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

	in := services.CreateWalkRequestInput{
		ClientID:      clientID,
		DogIDs:        req.DogIDs,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		IsPromo:       req.IsPromo,
		Type:          models.WalkType(req.Type),
		When:          models.Schedule{DurationMins: req.When.DurationMins},
		Notes:         req.Notes,
	}
	if req.When.StartAt != nil {
		in.When.StartAt = *req.When.StartAt
	}
	if req.Origin != nil {
		in.Origin = &models.Origin{Lat: req.Origin.Lat, Lng: req.Origin.Lng, Address: req.Origin.Address}
	}

	result, err := h.service.CreateWalkRequest(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":          true,
		"walkRequest":      result.WalkRequest,
		"payment":          result.Payment,
		"bankInstructions": result.BankInstructions,
	})
}

// GetWalkRequest returns one walk request
// @Summary Get walk request
// @Tags Walks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Walk request ID"
// @Success 200 {object} models.WalkRequest
// @Failure 404 {object} services.ErrorResponse
// @Router /walk-requests/{id} [get]
func (h *WalkRequestHandler) GetWalkRequest(w http.ResponseWriter, r *http.Request) {
	wr, err := h.service.GetWalkRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !canSeeClient(r, wr.ClientID) {
		writeServiceError(w, &services.NotFoundError{Resource: "walk request", ID: wr.ID})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"walkRequest": wr,
	})
}
