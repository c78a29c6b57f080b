package constants

// Row Store Error Codes
// These constants define specific error scenarios for external row stores

// Credential-related errors
const (
	ErrCodeInvalidAPIKey        = "INVALID_API_KEY"
	ErrCodeInvalidDocument      = "INVALID_DOCUMENT"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
)

// Table-related errors
const (
	ErrCodeTableNotFound  = "TABLE_NOT_FOUND"
	ErrCodeColumnNotFound = "COLUMN_NOT_FOUND"
	ErrCodeRowNotFound    = "ROW_NOT_FOUND"
)

// Data errors
const (
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
	ErrCodeBackendFailure    = "BACKEND_FAILURE"
)

// Model service errors
const (
	ErrCodeModelUnavailable = "MODEL_UNAVAILABLE"
	ErrCodeModelEmpty       = "MODEL_EMPTY_RESPONSE"
)

// Session errors
const (
	ErrCodeSessionNotFound = "SESSION_NOT_FOUND"
	ErrCodeSessionBusy     = "SESSION_BUSY"
)

// Error Messages
// Human-readable messages corresponding to error codes

var RowStoreErrorMessages = map[string]string{
	// Credentials
	ErrCodeInvalidAPIKey:        "The row store credentials are invalid or have been revoked",
	ErrCodeInvalidDocument:      "The row store document is invalid or you don't have access to it",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:         "Unable to reach the row store. Please check the network connection",
	ErrCodeAuthenticationFailed: "Authentication with the row store failed",

	// Tables
	ErrCodeTableNotFound:  "The requested worksheet was not found in the document",
	ErrCodeColumnNotFound: "The requested column does not exist in the worksheet",
	ErrCodeRowNotFound:    "No row matches the requested key",

	// Data
	ErrCodeInvalidDataFormat: "The data format is invalid",
	ErrCodeBackendFailure:    "The row store returned an unexpected error",

	// Model
	ErrCodeModelUnavailable: "The language model service could not be reached",
	ErrCodeModelEmpty:       "The language model returned an empty response",

	// Sessions
	ErrCodeSessionNotFound: "Chat session not found or expired",
	ErrCodeSessionBusy:     "A message for this session is still being processed",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := RowStoreErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
