package types

// Engine error codes surfaced to the caller. Precondition codes are
// detected before any transport call and are never retried.
const (
	ErrMissingSystemPrompt    = "MISSING_SYSTEM_PROMPT"
	ErrMissingOutputSchema    = "MISSING_OUTPUT_SCHEMA"
	ErrMissingTranscript      = "MISSING_TRANSCRIPT"
	ErrSchemaTooDeep          = "SCHEMA_TOO_DEEP"
	ErrAPIError               = "API_ERROR"
	ErrInvalidAuth            = "INVALID_AUTH"
	ErrInvalidResponse        = "INVALID_RESPONSE"
	ErrRepairFailed           = "REPAIR_FAILED"
	ErrSchemaValidationFailed = "SCHEMA_VALIDATION_FAILED"
	ErrInternalError          = "INTERNAL_ERROR"
)

// EngineError is the single structured error object a caller receives.
// Details carries code-specific context, e.g. validationErrors for
// SCHEMA_VALIDATION_FAILED.
type EngineError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return e.Code + ": " + e.Message
}

// NewEngineError creates an EngineError without details.
func NewEngineError(code, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// ValidationErrors extracts the validation error list from Details, if any.
func (e *EngineError) ValidationErrors() []string {
	if e.Details == nil {
		return nil
	}
	if errs, ok := e.Details["validationErrors"].([]string); ok {
		return errs
	}
	return nil
}
