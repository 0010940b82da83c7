package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transcript-engine/config"
	"transcript-engine/engine"
	"transcript-engine/logger"
	"transcript-engine/normalize"
	"transcript-engine/recorder"
	"transcript-engine/transport"
	"transcript-engine/types"
)

func main() {
	// Print version information
	fmt.Println(GetBuildInfo())
	fmt.Println()

	// Load configuration with .env support
	cfg, err := config.LoadConfigWithEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Structured JSONL logging for Loki ingestion
	obsLogger, err := logger.NewObservabilityLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize structured logger: %v", err)
	}
	defer obsLogger.Close()

	obsLogger.Info(logger.ComponentConfig, logger.CategoryRequest, "", "Transcript engine configuration loaded", map[string]interface{}{
		"model":                  cfg.GeminiModel,
		"port":                   cfg.Port,
		"max_transport_attempts": cfg.MaxTransportAttempts,
		"synonym_overrides":      len(cfg.SynonymOverrides),
		"version":                GetVersionInfo(),
		"git_commit":             GetGitCommit(),
	})

	// Attempt audit trail
	attemptRecorder, err := recorder.NewJSONLRecorder(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize attempt recorder: %v", err)
	}
	defer attemptRecorder.Close()

	// Transport with bounded retries and auth fail-fast
	gemini := transport.NewGeminiTransport(cfg.GeminiAPIKey, cfg.GeminiModel)
	caller := transport.NewCaller(gemini, transport.RetryConfig{
		MaxAttempts: cfg.MaxTransportAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		CallTimeout: cfg.CallTimeout,
	}, obsLogger)

	normalizer := normalize.NewWithSynonyms(cfg.SynonymOverrides)
	service := engine.NewService(caller, attemptRecorder, normalizer, obsLogger)

	// Setup HTTP routes
	http.HandleFunc("/", handleRoot)
	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/process", handleProcess(service, obsLogger))
	http.Handle("/metrics", promhttp.Handler())

	// Setup HTTP server with reasonable timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Repair loops can take several model round trips
		IdleTimeout:  60 * time.Second,
	}

	obsLogger.Info(logger.ComponentServer, logger.CategoryRequest, "", "Transcript engine started", map[string]interface{}{
		"address":  fmt.Sprintf("http://localhost:%s", cfg.Port),
		"endpoint": fmt.Sprintf("http://localhost:%s/process", cfg.Port),
	})

	// Start server
	if err := server.ListenAndServe(); err != nil {
		obsLogger.Error(logger.ComponentServer, logger.CategoryError, "", "Server failed to start", map[string]interface{}{"error": err.Error()})
		log.Fatalf("Server failed to start: %v", err)
	}
}

// handleProcess runs a transcript through the validation and repair engine
func handleProcess(service *engine.Service, obsLogger *logger.ObservabilityLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":{"code":"METHOD_NOT_ALLOWED","message":"POST required"}}`, http.StatusMethodNotAllowed)
			return
		}

		var req types.ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(types.ProcessResult{
				Error: types.NewEngineError(types.ErrInternalError, "Request body is not valid JSON: "+err.Error()),
			})
			return
		}

		result := service.ProcessTranscript(r.Context(), &req)

		status := http.StatusOK
		if result.Error != nil {
			status = statusForCode(result.Error.Code)
			obsLogger.Warn(logger.ComponentServer, logger.CategoryError, req.RequestID, "Request failed", map[string]interface{}{
				"error_code": result.Error.Code,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(result)
	}
}

// statusForCode maps engine error codes to HTTP statuses
func statusForCode(code string) int {
	switch code {
	case types.ErrMissingSystemPrompt, types.ErrMissingOutputSchema, types.ErrMissingTranscript, types.ErrSchemaTooDeep:
		return http.StatusBadRequest
	case types.ErrInvalidAuth:
		return http.StatusBadGateway
	case types.ErrAPIError:
		return http.StatusBadGateway
	case types.ErrInvalidResponse, types.ErrRepairFailed, types.ErrSchemaValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot provides basic information about the service
func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{
	"service": "Transcript Engine",
	"version": "1.0.0",
	"status": "running",
	"endpoints": [
		"GET /health - Health check",
		"POST /process - Schema-guided transcript structuring",
		"GET /metrics - Prometheus metrics"
	]
}`)
}

// handleHealth provides a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{
	"status": "ok",
	"timestamp": "%s"
}`, time.Now().UTC().Format(time.RFC3339))
}
