package lineage

import "fmt"

// Application-specific error codes carried in API error responses.
const (
	ErrorCodeValidation          = "VALIDATION_ERROR"
	ErrorCodeNotFound            = "NOT_FOUND"
	ErrorCodeInvalidRequest      = "INVALID_REQUEST"
	ErrorCodeInvalidJSON         = "INVALID_JSON"
	ErrorCodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// APIError is the standardized error response envelope.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ValidationError reports a missing or malformed required field on create.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced node, edge, or source is absent.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// InvalidRequestError reports an operation whose precondition is not met,
// e.g. anomaly-impact analysis on a node without a linked source.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}
