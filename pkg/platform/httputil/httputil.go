package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	dErrors "voicegate/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// ErrorResponse is the JSON body for every failed request.
type ErrorResponse struct {
	Error       string     `json:"error"`
	Description string     `json:"error_description,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// WriteError centralizes domain error translation to HTTP responses.
// Locked profiles additionally get a Retry-After header and the lock expiry.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
		})
		return
	}

	resp := ErrorResponse{
		Error:       DomainCodeToHTTPCode(domainErr.Code),
		Description: domainErr.Message,
	}
	if domainErr.Code == dErrors.CodeInternal {
		resp.Description = ""
	}
	if until, ok := dErrors.LockedUntil(err); ok {
		resp.LockedUntil = &until
		if secs := int(time.Until(until).Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), resp)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeIncompleteEnrollment:
		return http.StatusConflict
	case dErrors.CodeProfileLocked:
		return http.StatusLocked
	case dErrors.CodeProfileNotActive:
		return http.StatusForbidden
	case dErrors.CodeTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the error string in JSON responses.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeIncompleteEnrollment:
		return "incomplete_enrollment"
	case dErrors.CodeProfileLocked:
		return "profile_locked"
	case dErrors.CodeProfileNotActive:
		return "profile_not_active"
	case dErrors.CodeTimeout:
		return "session_expired"
	default:
		return "internal_error"
	}
}
