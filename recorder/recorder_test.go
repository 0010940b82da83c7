package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcript-engine/types"
)

func TestJSONLRecorderAppendsAttempts(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewJSONLRecorder(dir)
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	require.NoError(t, rec.Record(ctx, types.Attempt{
		RequestID:     "req_1",
		AttemptNumber: 1,
		RawResponse:   `{"a":1}`,
		ExtractedJSON: map[string]interface{}{"a": float64(1)},
		IsValid:       types.BoolPtr(true),
		IsFinal:       true,
		Usage:         &types.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}))
	require.NoError(t, rec.Record(ctx, types.Attempt{
		RequestID:       "req_1",
		AttemptNumber:   2,
		IsRepairAttempt: true,
		ErrorCode:       types.ErrInvalidResponse,
		ErrorMessage:    "not json",
	}))

	file, err := os.Open(filepath.Join(dir, "attempts.jsonl"))
	require.NoError(t, err)
	defer file.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)

	assert.Equal(t, "req_1", lines[0]["request_id"])
	assert.Equal(t, float64(1), lines[0]["attempt_number"])
	assert.Equal(t, true, lines[0]["is_valid"])
	assert.Equal(t, true, lines[0]["is_final"])
	assert.Equal(t, float64(15), lines[0]["total_tokens"])

	assert.Equal(t, true, lines[1]["is_repair_attempt"])
	assert.Equal(t, types.ErrInvalidResponse, lines[1]["error_code"])
	_, hasValid := lines[1]["is_valid"]
	assert.False(t, hasValid)
}

func TestMemoryRecorder(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, types.Attempt{AttemptNumber: 1}))
	require.NoError(t, rec.Record(ctx, types.Attempt{AttemptNumber: 2, IsFinal: true}))

	attempts := rec.Attempts()
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.True(t, attempts[1].IsFinal)

	// Returned slice is a copy
	attempts[0].AttemptNumber = 99
	assert.Equal(t, 1, rec.Attempts()[0].AttemptNumber)
}
