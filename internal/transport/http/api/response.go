package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"hrcore/internal/apperrors"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("write json failed")
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message, Details: details}, RequestID: requestID})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters only for wrapped chains that carry two kinds.
var errorMappings = []errorMapping{
	{apperrors.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperrors.ErrInvalidCredential, http.StatusBadRequest, "invalid_credential"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrDuplicateIdentity, http.StatusConflict, "duplicate_identity"},
	{apperrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{apperrors.ErrAlreadyCheckedIn, http.StatusConflict, "already_checked_in"},
	{apperrors.ErrAlreadyCheckedOut, http.StatusConflict, "already_checked_out"},
	{apperrors.ErrNotCheckedIn, http.StatusConflict, "not_checked_in"},
	{apperrors.ErrDuplicatePeriod, http.StatusConflict, "duplicate_period"},
	{apperrors.ErrLedgerRegistered, http.StatusConflict, "ledger_entry_registered"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict"},
}

// Classify maps a domain error onto an HTTP status and error code. Unknown
// errors become 500 internal_error.
func Classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// FailErr writes the envelope for a service error. Messages of known kinds
// are passed through; internal errors are logged and replaced.
func FailErr(w http.ResponseWriter, err error, requestID string) {
	status, code := Classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("requestId", requestID).Msg("request failed")
		message = "internal server error"
	}
	Fail(w, status, code, message, requestID)
}
