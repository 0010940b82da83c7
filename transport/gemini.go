// Package transport wraps the model provider. The Gemini client is a
// process-wide, lazily-constructed resource: auth failures invalidate it so
// the next call recreates it with fresh credentials, while in-flight calls
// keep the reference they already captured.
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"transcript-engine/types"
)

// GeminiTransport implements types.Transport against the Gemini API.
type GeminiTransport struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiTransport creates a transport for the given model. The underlying
// client is not created until the first call.
func NewGeminiTransport(apiKey, model string) *GeminiTransport {
	return &GeminiTransport{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
}

// getClient returns the cached client, creating it on first use or after an
// invalidation.
func (t *GeminiTransport) getClient(ctx context.Context) (*genai.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	if t.apiKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(t.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	t.client = client
	return client, nil
}

// Invalidate drops the cached client so the next call recreates it. The old
// client is not closed here: a concurrent request that already captured the
// reference must be allowed to finish its own attempt.
func (t *GeminiTransport) Invalidate() {
	t.mu.Lock()
	t.client = nil
	t.mu.Unlock()
}

// Call sends one prompt pair to the model and returns the raw text plus
// usage metadata. Retries and error classification live in Caller.
func (t *GeminiTransport) Call(ctx context.Context, systemPrompt, userPrompt string) (*types.CompletionResult, error) {
	client, err := t.getClient(ctx)
	if err != nil {
		return nil, err
	}

	m := client.GenerativeModel(t.model)
	// Deterministic structured output: temperature 0, JSON-only responses.
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return nil, err
	}

	text := collectText(resp)
	if text == "" {
		return nil, fmt.Errorf("gemini: empty completion")
	}

	result := &types.CompletionResult{Text: text}
	if resp.UsageMetadata != nil {
		result.Usage = &types.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func ptrFloat32(f float32) *float32 { return &f }
