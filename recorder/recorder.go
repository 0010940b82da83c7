// Package recorder persists the per-attempt audit trail. Attempts are
// append-only: once recorded they are never updated.
package recorder

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"transcript-engine/types"
)

// JSONLRecorder appends one JSON line per attempt, formatted for Loki
// ingestion alongside the service logs.
type JSONLRecorder struct {
	logger *logrus.Logger
	file   *os.File
}

// NewJSONLRecorder opens (or creates) the attempt log under logDir.
func NewJSONLRecorder(logDir string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	logPath := filepath.Join(logDir, "attempts.jsonl")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetLevel(logrus.InfoLevel)

	return &JSONLRecorder{logger: logger, file: file}, nil
}

// Record appends one attempt line.
func (r *JSONLRecorder) Record(_ context.Context, attempt types.Attempt) error {
	fields := logrus.Fields{
		"request_id":        attempt.RequestID,
		"attempt_number":    attempt.AttemptNumber,
		"is_repair_attempt": attempt.IsRepairAttempt,
		"is_final":          attempt.IsFinal,
	}
	if attempt.RawResponse != "" {
		fields["raw_response"] = attempt.RawResponse
	}
	if attempt.ExtractedJSON != nil {
		fields["extracted_json"] = attempt.ExtractedJSON
	}
	if attempt.IsValid != nil {
		fields["is_valid"] = *attempt.IsValid
	}
	if attempt.ErrorCode != "" {
		fields["error_code"] = attempt.ErrorCode
		fields["error_message"] = attempt.ErrorMessage
	}
	if attempt.Usage != nil {
		fields["prompt_tokens"] = attempt.Usage.PromptTokens
		fields["completion_tokens"] = attempt.Usage.CompletionTokens
		fields["total_tokens"] = attempt.Usage.TotalTokens
	}
	r.logger.WithFields(fields).Info("model attempt")
	return nil
}

// Close closes the attempt log file.
func (r *JSONLRecorder) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// MemoryRecorder keeps attempts in memory. Used in tests and as a safe
// default when no log directory is configured.
type MemoryRecorder struct {
	mu       sync.Mutex
	attempts []types.Attempt
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends the attempt.
func (r *MemoryRecorder) Record(_ context.Context, attempt types.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

// Attempts returns a copy of everything recorded so far.
func (r *MemoryRecorder) Attempts() []types.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Attempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}
