package dto

import (
	"errors"
	"net/http"

	"github.com/marketsync/backend/internal/domain/shared"
)

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal         = "ERR_INTERNAL"
	ErrCodeStoreUnavailable = "ERR_STORE_UNAVAILABLE"
	ErrCodeUnavailable      = "ERR_SERVICE_UNAVAILABLE"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
	ErrCodeInvalidState  = "ERR_INVALID_STATE"

	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeStoreUnavailable: http.StatusInternalServerError,
	ErrCodeUnavailable:      http.StatusServiceUnavailable,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeInvalidState:  http.StatusConflict,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// kindCodes maps the root domain error codes to API codes
var kindCodes = map[string]string{
	shared.ErrNotFound.Code:         ErrCodeNotFound,
	shared.ErrAlreadyExists.Code:    ErrCodeAlreadyExists,
	shared.ErrConflict.Code:         ErrCodeConflict,
	shared.ErrInvalidInput.Code:     ErrCodeInvalidInput,
	shared.ErrValidation.Code:       ErrCodeValidation,
	shared.ErrInvalidState.Code:     ErrCodeInvalidState,
	shared.ErrStoreUnavailable.Code: ErrCodeStoreUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// APIError is a domain error resolved to its wire shape
type APIError struct {
	Status  int
	Code    string
	Message string
}

// FromError resolves err to a status, code and message.
// The status follows the root kind of a domain error; a refined error keeps
// its own code (ERR_INGESTION_IN_PROGRESS is still a 409). Anything that is
// not a domain error becomes an opaque 500.
func FromError(err error) APIError {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return APIError{
			Status:  http.StatusInternalServerError,
			Code:    ErrCodeInternal,
			Message: "An unexpected error occurred",
		}
	}

	kindCode, ok := kindCodes[domainErr.Kind()]
	if !ok {
		kindCode = ErrCodeInternal
	}
	code := kindCode
	if domainErr.Code != domainErr.Kind() {
		code = "ERR_" + domainErr.Code
	}
	return APIError{
		Status:  GetHTTPStatus(kindCode),
		Code:    code,
		Message: domainErr.Message,
	}
}
