package transport

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"transcript-engine/internal"
	"transcript-engine/logger"
	"transcript-engine/types"
)

// RetryConfig bounds a single logical call.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CallTimeout time.Duration
}

// DefaultRetryConfig returns the standard retry policy: up to 3 transport
// attempts per logical call with linear backoff between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		CallTimeout: 60 * time.Second,
	}
}

// Invalidator is implemented by transports whose cached client can be
// dropped after an authentication failure.
type Invalidator interface {
	Invalidate()
}

// Caller wraps a Transport with bounded retries and auth fail-fast. One
// Call here is one logical model call regardless of how many transport
// attempts it takes; every individual attempt is traced to the structured
// log so the audit trail covers retries, not just logical calls.
type Caller struct {
	transport types.Transport
	config    RetryConfig
	obs       *logger.ObservabilityLogger
}

// NewCaller wraps the given transport with the retry policy. obs may be nil.
func NewCaller(transport types.Transport, config RetryConfig, obs *logger.ObservabilityLogger) *Caller {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Caller{transport: transport, config: config, obs: obs}
}

// trace mirrors one transport attempt to the structured log.
func (c *Caller) trace(requestID, category, message string, fields map[string]interface{}) {
	if c.obs != nil {
		c.obs.Info(logger.ComponentTransport, category, requestID, message, fields)
	}
}

// Call performs one logical call. Transient failures are retried with
// linear backoff; authentication failures abort immediately, invalidating
// the cached client so the next logical call starts fresh.
func (c *Caller) Call(ctx context.Context, systemPrompt, userPrompt string) (*types.CompletionResult, *types.EngineError) {
	requestID := internal.GetRequestID(ctx)
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if c.config.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
		}

		start := time.Now()
		result, err := c.transport.Call(callCtx, systemPrompt, userPrompt)
		logger.TransportCallDuration.Observe(time.Since(start).Seconds())
		if cancel != nil {
			cancel()
		}

		if err == nil {
			logger.TransportCallsTotal.WithLabelValues("success").Inc()
			c.trace(requestID, logger.CategorySuccess, "Transport attempt succeeded", map[string]interface{}{
				"transport_attempt": attempt,
				"max_attempts":      c.config.MaxAttempts,
				"duration_ms":       time.Since(start).Milliseconds(),
			})
			return result, nil
		}
		lastErr = err

		if IsAuthError(err) {
			logger.TransportCallsTotal.WithLabelValues("auth_error").Inc()
			log.Printf("🔐 [%s] Authentication failure on attempt %d, not retrying: %v", requestID, attempt, err)
			c.trace(requestID, logger.CategoryError, "Transport attempt rejected credentials", map[string]interface{}{
				"transport_attempt": attempt,
				"max_attempts":      c.config.MaxAttempts,
				"error":             err.Error(),
			})
			if inv, ok := c.transport.(Invalidator); ok {
				inv.Invalidate()
			}
			return nil, types.NewEngineError(types.ErrInvalidAuth,
				"Model API rejected the configured credentials: "+err.Error())
		}

		logger.TransportCallsTotal.WithLabelValues("error").Inc()
		log.Printf("⚠️ [%s] Model call attempt %d/%d failed: %v", requestID, attempt, c.config.MaxAttempts, err)
		c.trace(requestID, logger.CategoryWarning, "Transport attempt failed", map[string]interface{}{
			"transport_attempt": attempt,
			"max_attempts":      c.config.MaxAttempts,
			"error":             err.Error(),
		})

		if attempt < c.config.MaxAttempts {
			logger.TransportRetriesTotal.Inc()
			delay := time.Duration(attempt) * c.config.BaseDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, types.NewEngineError(types.ErrAPIError,
					"Model call aborted: "+ctx.Err().Error())
			}
		}
	}

	log.Printf("❌ [%s] Model call failed after %d attempts: %v", requestID, c.config.MaxAttempts, lastErr)
	return nil, types.NewEngineError(types.ErrAPIError,
		"Model call failed after retries: "+lastErr.Error())
}

// authMarkers cover providers that surface auth failures as plain error
// strings rather than typed HTTP errors.
var authMarkers = []string{
	"api key not valid",
	"api_key_invalid",
	"permission_denied",
	"permission denied",
	"unauthenticated",
	"unauthorized",
	"invalid authentication",
}

// IsAuthError reports whether err is an authentication or authorization
// failure that retrying cannot fix.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
