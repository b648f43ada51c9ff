package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	mW "github.com/paseospeludos/backend/internal/middleware"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/paseospeludos/backend/internal/services"
)

const maxBodyBytes = 1_048_576

var errForbiddenClient = errors.New("callers may only act on their own account")

// decodeJSON reads exactly one JSON object into dst and writes the error
// response itself when it cannot
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// writeServiceError maps service errors to HTTP responses
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		verr *services.ValidationError
		qerr *services.QuotaExceededError
		nerr *services.NotFoundError
		terr *services.InvalidTransitionError
		cerr *services.ConcurrentModificationError
	)

	switch {
	case errors.As(err, &verr):
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, verr)
	case errors.As(err, &qerr):
		writeJSON(w, http.StatusForbidden, services.ErrorResponse{
			Error: qerr.Error(),
			Details: map[string]string{
				"weekStart":      qerr.WeekStart,
				"limitHours":     formatHours(qerr.Limit),
				"usedHours":      formatHours(qerr.Used),
				"remainingHours": formatHours(qerr.Remaining),
			},
		})
	case errors.As(err, &nerr):
		services.SendErrorResponse(w, nerr.Error(), http.StatusNotFound, nil)
	case errors.As(err, &terr):
		writeJSON(w, http.StatusBadRequest, services.ErrorResponse{
			Error: terr.Error(),
			Details: map[string]string{
				"currentStatus": string(terr.From),
				"event":         string(terr.Event),
			},
		})
	case errors.As(err, &cerr):
		services.SendErrorResponse(w, cerr.Error(), http.StatusConflict, nil)
	case errors.Is(err, errForbiddenClient):
		services.SendErrorResponse(w, err.Error(), http.StatusForbidden, nil)
	default:
		log.Printf("[HTTP] internal error: %v", err)
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}

// resolveClientID picks the client a request acts for. Only admins may act
// for another client; everyone else acts for themselves.
func resolveClientID(r *http.Request, requested string) (string, error) {
	userID := mW.UserIDFromContext(r.Context())
	if mW.RoleFromContext(r.Context()) == mW.RoleAdmin {
		if requested == "" {
			return userID, nil
		}
		return requested, nil
	}
	if requested != "" && requested != userID {
		return "", errForbiddenClient
	}
	return userID, nil
}

// canSeeClient reports whether the caller may read data owned by clientID
func canSeeClient(r *http.Request, clientID string) bool {
	if mW.RoleFromContext(r.Context()) == mW.RoleAdmin {
		return true
	}
	return mW.UserIDFromContext(r.Context()) == clientID
}

// canSeePayment also lets the walker assigned to a payment read it
func canSeePayment(r *http.Request, p *models.Payment) bool {
	if canSeeClient(r, p.ClientID) {
		return true
	}
	return mW.RoleFromContext(r.Context()) == mW.RoleWalker &&
		p.WalkerID != nil && *p.WalkerID == mW.UserIDFromContext(r.Context())
}
