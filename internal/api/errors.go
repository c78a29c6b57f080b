package api

import (
	"errors"
	"net/http"
	"time"

	"skylark/opscommand/internal/common"
	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/dispatch"
	"skylark/opscommand/internal/providers"
)

// handleServiceError maps errors from sessions, dispatch and the row store to responses
func handleServiceError(w http.ResponseWriter, initTime time.Time, err error) {
	code := ""
	var provErr *providers.ProviderError
	switch {
	case errors.Is(err, common.ErrSessionNotFound):
		code = constants.ErrCodeSessionNotFound
	case errors.Is(err, dispatch.ErrSessionBusy):
		code = constants.ErrCodeSessionBusy
	case errors.As(err, &provErr):
		code = provErr.Code
	}

	if code == "" {
		common.RespondError(w, initTime, err, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}
	common.RespondError(w, initTime, err, constants.GetErrorMessage(code), mapErrorCodeToHTTPStatus(code))
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(errorCode string) int {
	switch errorCode {
	// 400 Bad Request
	case constants.ErrCodeInvalidDataFormat:
		return http.StatusBadRequest

	// 404 Not Found
	case constants.ErrCodeSessionNotFound, constants.ErrCodeRowNotFound,
		constants.ErrCodeTableNotFound, constants.ErrCodeColumnNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case constants.ErrCodeSessionBusy:
		return http.StatusConflict

	// 429 Too Many Requests
	case constants.ErrCodeRateLimited:
		return http.StatusTooManyRequests

	// 502 Bad Gateway - upstream credentials or document are wrong
	case constants.ErrCodeInvalidAPIKey, constants.ErrCodeAuthenticationFailed,
		constants.ErrCodeInvalidDocument:
		return http.StatusBadGateway

	// 503 Service Unavailable
	case constants.ErrCodeNetworkError, constants.ErrCodeBackendFailure,
		constants.ErrCodeModelUnavailable, constants.ErrCodeModelEmpty:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
