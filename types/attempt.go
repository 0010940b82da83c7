package types

import "context"

// Usage mirrors the token accounting reported by the model provider.
type Usage struct {
	PromptTokens     int32 `json:"prompt_tokens"`
	CompletionTokens int32 `json:"completion_tokens"`
	TotalTokens      int32 `json:"total_tokens"`
}

// CompletionResult is the raw outcome of one successful transport call.
type CompletionResult struct {
	Text  string
	Usage *Usage
}

// Attempt is the audit record for one logical model call. Attempts within a
// request share a monotonically increasing counter (initial call and repair
// calls alike) and are append-only: once handed to a Recorder they are never
// updated. IsFinal is set only on the attempt whose output was accepted, so
// a fully failed request records no final attempt.
type Attempt struct {
	RequestID       string      `json:"request_id,omitempty"`
	AttemptNumber   int         `json:"attempt_number"`
	IsRepairAttempt bool        `json:"is_repair_attempt"`
	RawResponse     string      `json:"raw_response,omitempty"`
	ExtractedJSON   interface{} `json:"extracted_json,omitempty"`
	IsValid         *bool       `json:"is_valid,omitempty"`
	IsFinal         bool        `json:"is_final"`
	ErrorCode       string      `json:"error_code,omitempty"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	Usage           *Usage      `json:"usage,omitempty"`
}

// Transport is the black-box call to the model provider. Implementations may
// fail transiently or be rate-limited; classification and retries live in the
// transport retry controller, not here.
type Transport interface {
	Call(ctx context.Context, systemPrompt, userPrompt string) (*CompletionResult, error)
}

// Recorder is the external audit sink. A recording failure is logged by the
// caller but never aborts the pipeline.
type Recorder interface {
	Record(ctx context.Context, attempt Attempt) error
}

// BoolPtr is a convenience for populating Attempt.IsValid.
func BoolPtr(b bool) *bool { return &b }
