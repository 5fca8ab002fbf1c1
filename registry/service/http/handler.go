package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	core "medichain/registry/service/core"

	"medichain/internal/apperrors"
	"medichain/internal/models"
)

// RegistryHandler encapsulates the logic for handling HTTP registry requests
type RegistryHandler struct {
	svc     *core.Service
	logger  *log.Logger
	devMode bool
}

// NewRegistryHandler creates a new RegistryHandler
func NewRegistryHandler(s *core.Service, l *log.Logger, devMode bool) *RegistryHandler {
	return &RegistryHandler{svc: s, logger: l, devMode: devMode}
}

// RegisterBatch handles POST /api/v1/batches requests
func (h *RegistryHandler) RegisterBatch(w http.ResponseWriter, r *http.Request) {
	// Content-Type validation
	if r.Header.Get("Content-Type") != "application/json" {
		h.respondError(w, string(apperrors.KindValidation), "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	// Request size limit
	if r.ContentLength > 1*1024*1024 { // 1MB limit; batch metadata is small
		h.respondError(w, string(apperrors.KindValidation), "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var reqPayload struct {
		BatchID           string `json:"batchId"`
		DrugName          string `json:"drugName"`
		Manufacturer      string `json:"manufacturer"`
		Dosage            string `json:"dosage"`
		Quantity          any    `json:"quantity"`
		ManufacturingDate string `json:"manufacturingDate"`
		ExpiryDate        string `json:"expiryDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.logger.Printf("HTTP Handler: Failed to parse registration JSON: %v", err)
		h.respondError(w, string(apperrors.KindValidation), "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Quantity tolerates both numeric and quoted inputs
	quantity := 0
	switch q := reqPayload.Quantity.(type) {
	case nil:
	case float64:
		quantity = int(q)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil {
			h.respondError(w, string(apperrors.KindValidation), "quantity must be a positive integer", http.StatusBadRequest)
			return
		}
		quantity = n
	default:
		h.respondError(w, string(apperrors.KindValidation), "quantity must be a positive integer", http.StatusBadRequest)
		return
	}

	input := &core.RegisterInput{
		BatchID:           reqPayload.BatchID,
		DrugName:          reqPayload.DrugName,
		Manufacturer:      reqPayload.Manufacturer,
		Dosage:            reqPayload.Dosage,
		Quantity:          quantity,
		ManufacturingDate: reqPayload.ManufacturingDate,
		ExpiryDate:        reqPayload.ExpiryDate,
	}

	result, err := h.svc.RegisterBatch(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respPayload := map[string]interface{}{
		"success": true,
		"batchId": result.BatchID,
		"assetId": result.AssetID,
		"txRef":   result.TxRef,
	}
	h.respondJSON(w, respPayload, http.StatusCreated)
}

// VerifyBatch handles POST /api/v1/verify requests
func (h *RegistryHandler) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		h.respondError(w, string(apperrors.KindValidation), "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	var reqPayload struct {
		BatchID   string `json:"batchId"`
		Submitter string `json:"submitter,omitempty"`
		// Accepted for compatibility with older scanner clients
		PharmacyID string `json:"pharmacyId,omitempty"`
		Location   string `json:"location,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.logger.Printf("HTTP Handler: Failed to parse verification JSON: %v", err)
		h.respondError(w, string(apperrors.KindValidation), "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	submitter := reqPayload.Submitter
	if submitter == "" {
		submitter = reqPayload.PharmacyID
	}

	result, err := h.svc.VerifyBatch(r.Context(), &core.VerifyInput{
		BatchID:   reqPayload.BatchID,
		Submitter: submitter,
		Location:  reqPayload.Location,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respPayload := map[string]interface{}{
		"batchId":   result.BatchID,
		"isValid":   result.IsValid,
		"attemptId": result.AttemptID,
		"metadata":  result.Batch,
		"txRef":     result.TxRef,
		"timestamp": result.Timestamp,
	}
	if result.Reason != "" {
		respPayload["reason"] = result.Reason
	}
	h.respondJSON(w, respPayload, http.StatusOK)
}

// ListBatches handles GET /api/v1/batches requests
func (h *RegistryHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 10)
	offset := parseIntQuery(r, "offset", 0)

	batches, total, err := h.svc.ListBatches(r.Context(), limit, offset)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if batches == nil {
		batches = []models.BatchWithLatestAttempt{}
	}

	respPayload := map[string]interface{}{
		"batches": batches,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	}
	h.respondJSON(w, respPayload, http.StatusOK)
}

// Analytics handles GET /api/v1/analytics requests
func (h *RegistryHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summarize(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, summary, http.StatusOK)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// respondServiceError maps the error taxonomy onto HTTP status codes
func (h *RegistryHandler) respondServiceError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	status := http.StatusInternalServerError
	message := err.Error()

	switch kind {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindMint:
		status = http.StatusBadGateway
	case apperrors.KindPersistence:
		status = http.StatusInternalServerError
	default:
		kind = "INTERNAL_ERROR"
		if !h.devMode {
			message = "Internal Server Error"
		}
		h.logger.Printf("HTTP Handler: Internal error: %v", err)
	}

	h.respondError(w, string(kind), message, status)
}

// respondJSON sends JSON response
func (h *RegistryHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
		// Cannot send error to client at this point
	}
}

// respondError sends error response
func (h *RegistryHandler) respondError(w http.ResponseWriter, kind, message string, statusCode int) {
	errorResp := map[string]interface{}{
		"error": map[string]interface{}{
			"kind":    kind,
			"message": message,
		},
		"status": statusCode,
	}

	h.respondJSON(w, errorResp, statusCode)
}
