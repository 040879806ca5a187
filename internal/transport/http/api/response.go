// Package api defines the JSON wire format shared by every payroll
// endpoint: one envelope, one problem shape, one set of common codes.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes shared across handlers. Endpoint-specific codes
// (not_released, not_pending, run_in_progress) live with their handler.
const (
	CodeInvalidPayload = "invalid_payload"
	CodeInvalidPeriod  = "invalid_period"
	CodeNotFound       = "not_found"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeInternal       = "internal_error"
)

type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope carries exactly one of Data and Error; the status code says
// which. RequestID ties the body to the request log line.
type Envelope struct {
	Data      any      `json:"data,omitempty"`
	Error     *Problem `json:"error,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Error: &Problem{Code: code, Message: message}, RequestID: requestID})
}
