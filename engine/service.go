// Package engine drives the schema-guided validation and repair loop: one
// initial model call, at most one JSON repair, at most one schema repair.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"transcript-engine/extract"
	"transcript-engine/internal"
	"transcript-engine/logger"
	"transcript-engine/normalize"
	"transcript-engine/schema"
	"transcript-engine/types"
	"transcript-engine/validate"
)

// ModelCaller is one logical model call with retries already applied.
type ModelCaller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string) (*types.CompletionResult, *types.EngineError)
}

// Service orchestrates the pipeline: prompt augmentation, transport,
// extraction, normalization, validation, repair.
type Service struct {
	caller     ModelCaller
	recorder   types.Recorder
	normalizer *normalize.Normalizer
	validator  *validate.Validator
	obs        *logger.ObservabilityLogger
}

// NewService wires the engine. The validator shares the normalizer so the
// targeted re-normalization pass uses the same matching tiers.
func NewService(caller ModelCaller, recorder types.Recorder, normalizer *normalize.Normalizer, obs *logger.ObservabilityLogger) *Service {
	return &Service{
		caller:     caller,
		recorder:   recorder,
		normalizer: normalizer,
		validator:  validate.New(normalizer),
		obs:        obs,
	}
}

// ProcessTranscript converts transcript segments into a structured JSON
// artifact conforming to the request's output schema. The caller receives
// exactly one of a validated artifact or a single structured error.
func (s *Service) ProcessTranscript(ctx context.Context, req *types.ProcessRequest) (result types.ProcessResult) {
	start := time.Now()
	requestID := req.RequestID
	if requestID == "" {
		requestID = internal.GenerateRequestID()
	}
	ctx = internal.WithRequestID(ctx, requestID)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 [%s] Panic during transcript processing: %v", requestID, r)
			result = failure(types.ErrInternalError, fmt.Sprintf("Unexpected processing failure: %v", r))
		}
		outcome := "success"
		if result.Error != nil {
			outcome = result.Error.Code
		}
		logger.RequestsTotal.WithLabelValues(outcome).Inc()
		logger.RequestDuration.Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(req.SystemPrompt) == "" {
		return failure(types.ErrMissingSystemPrompt, "System prompt must not be empty")
	}
	if req.OutputSchema == nil {
		return failure(types.ErrMissingOutputSchema, "Output schema must not be null")
	}
	if !req.HasTranscriptText() {
		return failure(types.ErrMissingTranscript, "At least one transcript segment with non-blank text is required")
	}

	enumPaths, err := schema.FindEnumPaths(req.OutputSchema)
	if err != nil {
		return failure(types.ErrSchemaTooDeep, "Output schema nesting exceeds the supported depth")
	}
	arrayPaths, err := schema.FindStringArrayPaths(req.OutputSchema)
	if err != nil {
		return failure(types.ErrSchemaTooDeep, "Output schema nesting exceeds the supported depth")
	}

	basePrompt := BuildPrompt(req, enumPaths, arrayPaths)
	s.logInfo(logger.CategoryRequest, requestID, "Processing transcript", map[string]interface{}{
		"segments":    len(req.TranscriptSegments),
		"enum_paths":  len(enumPaths),
		"array_paths": len(arrayPaths),
	})

	attemptNum := 0
	callModel := func(prompt string, isRepair bool) (*types.CompletionResult, int, *types.EngineError) {
		attemptNum++
		n := attemptNum
		res, engErr := s.caller.Call(ctx, req.SystemPrompt, prompt)
		if engErr != nil {
			if isRepair && engErr.Code == types.ErrAPIError {
				engErr = types.NewEngineError(types.ErrRepairFailed, engErr.Message)
			}
			s.record(ctx, types.Attempt{
				RequestID:       requestID,
				AttemptNumber:   n,
				IsRepairAttempt: isRepair,
				ErrorCode:       engErr.Code,
				ErrorMessage:    engErr.Message,
			})
		}
		return res, n, engErr
	}

	// Initial call.
	res, n, engErr := callModel(basePrompt, false)
	if engErr != nil {
		return types.ProcessResult{Error: engErr}
	}

	curIsRepair := false
	extracted := extract.JSON(res.Text)
	if extracted == nil {
		log.Printf("📝 [%s] Response not parseable as JSON, issuing JSON repair", requestID)
		s.record(ctx, types.Attempt{
			RequestID:       requestID,
			AttemptNumber:   n,
			IsRepairAttempt: false,
			RawResponse:     res.Text,
			ErrorCode:       types.ErrInvalidResponse,
			ErrorMessage:    "Response was not parseable JSON",
			Usage:           res.Usage,
		})
		logger.RepairAttemptsTotal.WithLabelValues("json").Inc()

		res, n, engErr = callModel(BuildJSONRepairPrompt(basePrompt), true)
		if s.obs != nil {
			s.obs.RepairAttempt(requestID, "json", n, nil)
		}
		if engErr != nil {
			return types.ProcessResult{Error: engErr}
		}
		curIsRepair = true
		extracted = extract.JSON(res.Text)
		if extracted == nil {
			s.record(ctx, types.Attempt{
				RequestID:       requestID,
				AttemptNumber:   n,
				IsRepairAttempt: true,
				RawResponse:     res.Text,
				ErrorCode:       types.ErrInvalidResponse,
				ErrorMessage:    "Repair response was still not parseable JSON",
				Usage:           res.Usage,
			})
			return failure(types.ErrInvalidResponse, "Model did not return parseable JSON after a repair attempt")
		}
	}

	vres, vErr := s.evaluate(ctx, req, extracted, enumPaths)
	if vErr != nil {
		s.record(ctx, types.Attempt{
			RequestID:       requestID,
			AttemptNumber:   n,
			IsRepairAttempt: curIsRepair,
			RawResponse:     res.Text,
			ExtractedJSON:   extracted,
			ErrorCode:       vErr.Code,
			ErrorMessage:    vErr.Message,
			Usage:           res.Usage,
		})
		return types.ProcessResult{Error: vErr}
	}
	if vres.Valid {
		s.record(ctx, types.Attempt{
			RequestID:       requestID,
			AttemptNumber:   n,
			IsRepairAttempt: curIsRepair,
			RawResponse:     res.Text,
			ExtractedJSON:   extracted,
			IsValid:         types.BoolPtr(true),
			IsFinal:         true,
			Usage:           res.Usage,
		})
		return types.ProcessResult{Data: vres.Data}
	}

	// Schema repair: exactly one attempt, never a loop. The first attempt's
	// errors are what the caller ultimately sees on failure.
	firstErrors := vres.Errors
	log.Printf("🔍 [%s] Schema validation failed with %d errors, issuing schema repair", requestID, len(firstErrors))
	s.record(ctx, types.Attempt{
		RequestID:       requestID,
		AttemptNumber:   n,
		IsRepairAttempt: curIsRepair,
		RawResponse:     res.Text,
		ExtractedJSON:   extracted,
		IsValid:         types.BoolPtr(false),
		ErrorCode:       types.ErrSchemaValidationFailed,
		ErrorMessage:    strings.Join(firstErrors, "; "),
		Usage:           res.Usage,
	})
	logger.RepairAttemptsTotal.WithLabelValues("schema").Inc()

	res, n, engErr = callModel(BuildSchemaRepairPrompt(basePrompt, firstErrors), true)
	if s.obs != nil {
		s.obs.RepairAttempt(requestID, "schema", n, map[string]interface{}{
			"error_count": len(firstErrors),
		})
	}
	if engErr != nil {
		return types.ProcessResult{Error: engErr}
	}

	extracted = extract.JSON(res.Text)
	if extracted == nil {
		s.record(ctx, types.Attempt{
			RequestID:       requestID,
			AttemptNumber:   n,
			IsRepairAttempt: true,
			RawResponse:     res.Text,
			ErrorCode:       types.ErrSchemaValidationFailed,
			ErrorMessage:    "Schema repair response was not parseable JSON",
			Usage:           res.Usage,
		})
		return validationFailure(firstErrors)
	}

	vres, vErr = s.evaluate(ctx, req, extracted, enumPaths)
	if vErr != nil {
		s.record(ctx, types.Attempt{
			RequestID:       requestID,
			AttemptNumber:   n,
			IsRepairAttempt: true,
			RawResponse:     res.Text,
			ExtractedJSON:   extracted,
			ErrorCode:       vErr.Code,
			ErrorMessage:    vErr.Message,
			Usage:           res.Usage,
		})
		return types.ProcessResult{Error: vErr}
	}
	if vres.Valid {
		s.record(ctx, types.Attempt{
			RequestID:       requestID,
			AttemptNumber:   n,
			IsRepairAttempt: true,
			RawResponse:     res.Text,
			ExtractedJSON:   extracted,
			IsValid:         types.BoolPtr(true),
			IsFinal:         true,
			Usage:           res.Usage,
		})
		log.Printf("✅ [%s] Schema repair succeeded on attempt %d", requestID, n)
		return types.ProcessResult{Data: vres.Data}
	}

	s.record(ctx, types.Attempt{
		RequestID:       requestID,
		AttemptNumber:   n,
		IsRepairAttempt: true,
		RawResponse:     res.Text,
		ExtractedJSON:   extracted,
		IsValid:         types.BoolPtr(false),
		ErrorCode:       types.ErrSchemaValidationFailed,
		ErrorMessage:    strings.Join(vres.Errors, "; "),
		Usage:           res.Usage,
	})
	return validationFailure(firstErrors)
}

// evaluate clones the extracted value, runs the soft normalization pass, then
// strict validation. The clone keeps the recorded extracted JSON pristine.
func (s *Service) evaluate(ctx context.Context, req *types.ProcessRequest, extracted interface{}, enumPaths []schema.EnumPath) (validate.Result, *types.EngineError) {
	requestID := internal.GetRequestID(ctx)
	candidate := normalize.Clone(extracted)

	changed := s.normalizer.Apply(candidate, enumPaths)
	if changed > 0 {
		logger.NormalizedValuesTotal.Add(float64(changed))
		log.Printf("🔧 [%s] Normalized %d enum values before validation", requestID, changed)
	}

	res, err := s.validator.Validate(req.OutputSchema, candidate)
	if err != nil {
		return validate.Result{}, types.NewEngineError(types.ErrInternalError,
			"Schema validation could not run: "+err.Error())
	}
	if s.obs != nil {
		s.obs.ValidationOutcome(requestID, res.Valid, len(res.Errors), map[string]interface{}{
			"normalized_values": changed,
		})
	}
	if !res.Valid {
		logger.ValidationFailuresTotal.Inc()
	}
	return res, nil
}

// record mirrors an attempt to the audit sink. Recording failures are logged
// and never abort the pipeline.
func (s *Service) record(ctx context.Context, attempt types.Attempt) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, attempt); err != nil {
		log.Printf("⚠️ [%s] Failed to record attempt %d: %v", attempt.RequestID, attempt.AttemptNumber, err)
		if s.obs != nil {
			s.obs.Warn(logger.ComponentRecorder, logger.CategoryWarning, attempt.RequestID,
				"Attempt recording failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *Service) logInfo(category, requestID, message string, fields map[string]interface{}) {
	if s.obs != nil {
		s.obs.Info(logger.ComponentEngine, category, requestID, message, fields)
	}
}

func failure(code, message string) types.ProcessResult {
	return types.ProcessResult{Error: types.NewEngineError(code, message)}
}

func validationFailure(firstErrors []string) types.ProcessResult {
	err := types.NewEngineError(types.ErrSchemaValidationFailed,
		"Model output failed schema validation after repair")
	err.Details = map[string]interface{}{"validationErrors": firstErrors}
	return types.ProcessResult{Error: err}
}
