package browsable

import (
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// ErrorResponse represents a generic error response structure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse represents validation error responses with field-level details.
type ValidationErrorResponse struct {
	Message string                 `json:"error"`
	Details serializer.ErrorDetail `json:"details,omitempty"`
}

// Error implements the error interface for ValidationErrorResponse.
func (v *ValidationErrorResponse) Error() string {
	return v.Message
}

// BulkValidationErrorResponse reports the errors of a list payload. Details
// holds one entry per input item, empty for valid items.
type BulkValidationErrorResponse struct {
	Message string                   `json:"error"`
	Details []serializer.ErrorDetail `json:"details"`
}

// Error implements the error interface for BulkValidationErrorResponse.
func (v *BulkValidationErrorResponse) Error() string {
	return v.Message
}

const validationFailed = "Validation failed"

func newValidationErrorResponse(detail serializer.ErrorDetail) *ValidationErrorResponse {
	return &ValidationErrorResponse{Message: validationFailed, Details: detail}
}

func newBulkValidationErrorResponse(b *serializer.Bound) any {
	if errs := b.Errors(); !errs.Empty() {
		return newValidationErrorResponse(errs)
	}
	return &BulkValidationErrorResponse{Message: validationFailed, Details: b.ListErrors()}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(logger logr.Logger, w http.ResponseWriter, code int, err error) {
	// For 5xx errors, avoid leaking internal details to clients
	clientMessage := err.Error()
	if code >= 500 {
		clientMessage = http.StatusText(code)
		logger.Error(err, "request failed", "status", code)
	}
	writeJSON(w, code, ErrorResponse{Error: clientMessage})
}
