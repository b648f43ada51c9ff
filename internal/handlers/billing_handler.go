package handlers

import (
	"net/http"
	"time"

	"github.com/paseospeludos/backend/internal/services"
)

type BillingHandler struct {
	ledger *services.CashLedger
	now    func() time.Time
}

func NewBillingHandler(ledger *services.CashLedger) *BillingHandler {
	return &BillingHandler{ledger: ledger, now: time.Now}
}

// CashQuota returns the weekly cash allowance of a client
// @Summary Weekly cash quota
// @Description Hours the client can still book in cash this week
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param clientId query string false "Client ID (staff only, clients get their own)"
// @Success 200 {object} models.CashQuota
// @Failure 403 {object} services.ErrorResponse
// @Router /billing/cash-quota [get]
func (h *BillingHandler) CashQuota(w http.ResponseWriter, r *http.Request) {
	clientID, err := resolveClientID(r, r.URL.Query().Get("clientId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if clientID == "" {
		services.SendErrorResponse(w, "clientId is required", http.StatusBadRequest, nil)
		return
	}

	quota, err := h.ledger.Quota(r.Context(), clientID, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quota)
}
