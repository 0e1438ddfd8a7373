package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ukydev/fleet-operations/internal/correction"
	"github.com/ukydev/fleet-operations/internal/db"
	"github.com/ukydev/fleet-operations/internal/middleware"
	"github.com/ukydev/fleet-operations/internal/models"
)

// CorrectionHandler exposes the odometer correction service over HTTP.
type CorrectionHandler struct {
	service *correction.Service
}

// NewCorrectionHandler creates a new correction handler
func NewCorrectionHandler(service *correction.Service) *CorrectionHandler {
	return &CorrectionHandler{service: service}
}

// correctionRequest is the body of preview and correct calls. Reason is
// required for the correction itself and ignored on preview.
type correctionRequest struct {
	TripID   string `json:"trip_id"`
	NewEndKm int64  `json:"new_end_km"`
	Reason   string `json:"reason,omitempty"`
}

// Preview handles POST /api/corrections/preview. It computes the full
// cascade impact without changing anything.
func (h *CorrectionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeCorrectionRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.PreviewCascadeImpact(r.Context(), req.TripID, req.NewEndKm)
	writeResult(w, result, err)
}

// Correct handles POST /api/corrections. It commits the cascade and returns
// the applied change set.
func (h *CorrectionHandler) Correct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeCorrectionRequest(w, r)
	if !ok {
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	result, err := h.service.CascadeOdometerCorrection(r.Context(), req.TripID, req.NewEndKm, req.Reason, claims.Username)
	writeResult(w, result, err)
}

// History handles GET /api/corrections/history?trip_id=. It returns the
// trip's corrections, most recent first.
func (h *CorrectionHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tripID := r.URL.Query().Get("trip_id")
	if tripID == "" {
		http.Error(w, "trip_id is required", http.StatusBadRequest)
		return
	}

	corrections, err := h.service.GetCorrectionHistory(r.Context(), tripID)
	if err != nil {
		http.Error(w, "Failed to load correction history", http.StatusInternalServerError)
		return
	}
	if corrections == nil {
		corrections = []models.Correction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(corrections)
}

// AuditTrail handles GET /api/corrections/audit?trip_id=. It returns the
// trip's audit entries, including ones cascaded from corrections of earlier
// trips.
func (h *CorrectionHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tripID := r.URL.Query().Get("trip_id")
	if tripID == "" {
		http.Error(w, "trip_id is required", http.StatusBadRequest)
		return
	}

	entries, err := h.service.GetAuditTrail(r.Context(), tripID)
	if err != nil {
		http.Error(w, "Failed to load audit trail", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func decodeCorrectionRequest(w http.ResponseWriter, r *http.Request) (*correctionRequest, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}

	var req correctionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return nil, false
	}

	if req.TripID == "" {
		http.Error(w, "trip_id is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// writeResult maps the service error taxonomy onto HTTP status codes and
// writes the cascade result as JSON. Conflicts get 409 so the client knows
// to re-preview rather than blindly retry.
func writeResult(w http.ResponseWriter, result *models.CascadeResult, err error) {
	status := http.StatusOK
	if err != nil {
		var validation *correction.ValidationError
		var conflict *correction.ConflictError
		var persistence *correction.PersistenceError
		switch {
		case errors.As(err, &validation):
			if errors.Is(err, db.ErrTripNotFound) {
				status = http.StatusNotFound
			} else {
				status = http.StatusBadRequest
			}
		case errors.As(err, &conflict):
			status = http.StatusConflict
		case errors.As(err, &persistence):
			status = http.StatusInternalServerError
		default:
			status = http.StatusInternalServerError
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}
