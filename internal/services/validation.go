package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jhsfully/account/internal/models"
)

// ErrorResponse is the caller-facing error envelope. ErrorCode is set
// for business errors; validation failures carry per-field details
// instead.
type ErrorResponse struct {
	ErrorCode    string            `json:"errorCode,omitempty"`
	ErrorMessage string            `json:"errorMessage"`
	Details      map[string]string `json:"details,omitempty"`
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{ErrorMessage: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendBusinessError maps a tagged business error to its transport
// status and writes the code+description envelope. Raw internal faults
// never reach the caller through this path.
func SendBusinessError(w http.ResponseWriter, accErr *models.AccountError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(businessErrorStatus(accErr.Code))

	json.NewEncoder(w).Encode(ErrorResponse{
		ErrorCode:    string(accErr.Code),
		ErrorMessage: accErr.Message,
	})
}

func businessErrorStatus(code models.ErrorCode) int {
	switch code {
	case models.ErrOwnerNotFound, models.ErrAccountNotFound, models.ErrTransactionNotFound:
		return http.StatusNotFound
	case models.ErrAccountTransactionLock:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
