package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"transcript-engine/logger"
	"transcript-engine/types"
)

// flakyTransport fails a set number of times before succeeding.
type flakyTransport struct {
	failures    int
	err         error
	calls       int
	invalidated bool
}

func (f *flakyTransport) Call(_ context.Context, _, _ string) (*types.CompletionResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &types.CompletionResult{Text: `{"ok": true}`}, nil
}

func (f *flakyTransport) Invalidate() {
	f.invalidated = true
}

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		CallTimeout: time.Second,
	}
}

func TestCallerSucceedsFirstAttempt(t *testing.T) {
	tr := &flakyTransport{}
	caller := NewCaller(tr, testRetryConfig(), nil)

	res, engErr := caller.Call(context.Background(), "sys", "user")
	require.Nil(t, engErr)
	assert.Equal(t, `{"ok": true}`, res.Text)
	assert.Equal(t, 1, tr.calls)
}

func TestCallerRetriesTransientFailures(t *testing.T) {
	tr := &flakyTransport{failures: 2, err: errors.New("connection reset")}
	caller := NewCaller(tr, testRetryConfig(), nil)

	res, engErr := caller.Call(context.Background(), "sys", "user")
	require.Nil(t, engErr)
	assert.Equal(t, `{"ok": true}`, res.Text)
	assert.Equal(t, 3, tr.calls)
	assert.False(t, tr.invalidated)
}

func TestCallerExhaustsRetries(t *testing.T) {
	tr := &flakyTransport{failures: 10, err: errors.New("connection reset")}
	caller := NewCaller(tr, testRetryConfig(), nil)

	res, engErr := caller.Call(context.Background(), "sys", "user")
	require.NotNil(t, engErr)
	assert.Nil(t, res)
	assert.Equal(t, types.ErrAPIError, engErr.Code)
	assert.Contains(t, engErr.Message, "connection reset")
	assert.Equal(t, 3, tr.calls)
}

// Auth failures abort on the first attempt and invalidate the cached client.
func TestCallerAuthFailFast(t *testing.T) {
	tr := &flakyTransport{
		failures: 10,
		err:      &googleapi.Error{Code: 401, Message: "invalid credentials"},
	}
	caller := NewCaller(tr, testRetryConfig(), nil)

	res, engErr := caller.Call(context.Background(), "sys", "user")
	require.NotNil(t, engErr)
	assert.Nil(t, res)
	assert.Equal(t, types.ErrInvalidAuth, engErr.Code)
	assert.Equal(t, 1, tr.calls)
	assert.True(t, tr.invalidated)
}

// Every transport attempt inside one logical call shows up in the
// structured log with its own attempt index.
func TestCallerTracesEveryTransportAttempt(t *testing.T) {
	logDir := t.TempDir()
	obs, err := logger.NewObservabilityLogger(logDir)
	require.NoError(t, err)

	tr := &flakyTransport{failures: 2, err: errors.New("connection reset")}
	caller := NewCaller(tr, testRetryConfig(), obs)

	res, engErr := caller.Call(context.Background(), "sys", "user")
	require.Nil(t, engErr)
	assert.Equal(t, `{"ok": true}`, res.Text)
	require.NoError(t, obs.Close())

	file, err := os.Open(filepath.Join(logDir, "transcript-engine.jsonl"))
	require.NoError(t, err)
	defer file.Close()

	var attempts []float64
	var categories []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		if entry["component"] != logger.ComponentTransport {
			continue
		}
		attempts = append(attempts, entry["transport_attempt"].(float64))
		categories = append(categories, entry["category"].(string))
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, []float64{1, 2, 3}, attempts)
	assert.Equal(t, []string{logger.CategoryWarning, logger.CategoryWarning, logger.CategorySuccess}, categories)
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"googleapi_401", &googleapi.Error{Code: 401}, true},
		{"googleapi_403", &googleapi.Error{Code: 403}, true},
		{"googleapi_500", &googleapi.Error{Code: 500}, false},
		{"wrapped_googleapi_403", fmt.Errorf("model call: %w", &googleapi.Error{Code: 403}), true},
		{"api_key_marker", errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key."), true},
		{"permission_marker", errors.New("rpc error: code = PermissionDenied desc = PERMISSION_DENIED"), true},
		{"unauthenticated_marker", errors.New("rpc error: code = Unauthenticated desc = request not authenticated"), true},
		{"transient", errors.New("connection reset by peer"), false},
		{"rate_limit", errors.New("googleapi: Error 429: quota exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAuthError(tt.err))
		})
	}
}

func TestGeminiTransportInvalidate(t *testing.T) {
	tr := NewGeminiTransport("test-key", "test-model")
	// No client created yet; invalidation of the empty cache is a no-op
	tr.Invalidate()
	assert.Nil(t, tr.client)
}

func TestGeminiTransportRequiresAPIKey(t *testing.T) {
	tr := NewGeminiTransport("   ", "test-model")
	_, err := tr.getClient(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
}
