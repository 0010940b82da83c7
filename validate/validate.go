// Package validate runs strict JSON Schema validation over candidate model
// output that the normalizer has already softened. It owns error formatting:
// every failure becomes a path-qualified message, and enum mismatches carry
// the allowed values inline so repair prompts can quote them exactly.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"transcript-engine/normalize"
	"transcript-engine/schema"
)

const schemaURL = "artifact.schema.json"

// Result is the outcome of one validation call. Produced fresh per call;
// never merged across attempts.
type Result struct {
	Valid  bool
	Data   map[string]interface{}
	Errors []string
}

// Validator compiles the output schema and validates candidates against it.
type Validator struct {
	normalizer *normalize.Normalizer
}

// New creates a Validator sharing the engine's normalizer, so the targeted
// second pass applies the same matching tiers as the primary pass.
func New(n *normalize.Normalizer) *Validator {
	return &Validator{normalizer: n}
}

// Validate checks value against schemaDoc (root wrapped to type object).
// If any failure is an enum mismatch, a second path-targeted normalization
// pass re-derives the allowed values for exactly the failing instance paths
// and validation runs once more. The returned error is reserved for an
// uncompilable schema; semantic failures land in Result.Errors.
func (v *Validator) Validate(schemaDoc map[string]interface{}, value interface{}) (Result, error) {
	compiled, err := compile(schemaDoc)
	if err != nil {
		return Result{}, fmt.Errorf("failed to compile output schema: %w", err)
	}

	verr, err := validationError(compiled.Validate(value))
	if err != nil {
		return Result{}, err
	}
	if verr == nil {
		return success(value), nil
	}

	leaves := flatten(verr)

	// Defense in depth against traversal edge cases in the primary pass:
	// re-normalize exactly the failing enum paths, then re-validate once.
	// Fallback to the "other" sentinel is always in play here.
	retried := false
	for _, leaf := range leaves {
		if !isEnumLeaf(leaf) {
			continue
		}
		allowed := schema.ResolveEnumValues(schemaDoc, leaf.instancePath)
		if len(allowed) == 0 {
			continue
		}
		steps := schema.InstancePathSteps(leaf.instancePath)
		if v.normalizer.ApplyAt(value, steps, allowed) > 0 {
			retried = true
		}
	}
	if retried {
		verr, err = validationError(compiled.Validate(value))
		if err != nil {
			return Result{}, err
		}
		if verr == nil {
			return success(value), nil
		}
		leaves = flatten(verr)
	}

	messages := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		messages = append(messages, formatError(schemaDoc, leaf))
	}
	return Result{Valid: false, Errors: messages}, nil
}

func success(value interface{}) Result {
	data, _ := value.(map[string]interface{})
	return Result{Valid: true, Data: data}
}

// compile wraps the schema to guarantee a root object type and compiles it
// as draft-07. The input document is never mutated.
func compile(schemaDoc map[string]interface{}) (*jsonschema.Schema, error) {
	wrapped := make(map[string]interface{}, len(schemaDoc)+1)
	for k, val := range schemaDoc {
		wrapped[k] = val
	}
	if _, ok := wrapped["type"]; !ok {
		wrapped["type"] = "object"
	}

	raw, err := json.Marshal(wrapped)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(schemaURL, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}

// validationError separates semantic validation failures from unexpected
// errors: a nil result means the value is valid, a non-nil *ValidationError
// means it failed, anything else is an internal failure.
func validationError(err error) (*jsonschema.ValidationError, error) {
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("schema validation failed unexpectedly: %w", err)
	}
	return verr, nil
}

type leafError struct {
	instancePath    string
	keywordLocation string
	message         string
}

// isEnumLeaf reports whether a leaf failure comes from an enum keyword.
// Matching on the keyword location covers both message forms the validator
// emits: "value must be one of ..." and, for single-value enums,
// "value must be <x>".
func isEnumLeaf(leaf leafError) bool {
	return strings.HasSuffix(leaf.keywordLocation, "/enum")
}

// flatten collects the leaf causes of a validation error tree in order.
func flatten(err *jsonschema.ValidationError) []leafError {
	var leaves []leafError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			leaves = append(leaves, leafError{
				instancePath:    e.InstanceLocation,
				keywordLocation: e.KeywordLocation,
				message:         e.Message,
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)
	return leaves
}

// formatError renders "<path>: <message>", appending the allowed values for
// enum mismatches by resolving the schema node at the same instance path
// the normalizer walks.
func formatError(schemaDoc map[string]interface{}, leaf leafError) string {
	path := leaf.instancePath
	if path == "" {
		path = "/"
	}
	msg := fmt.Sprintf("%s: %s", path, leaf.message)
	if isEnumLeaf(leaf) {
		if allowed := schema.ResolveEnumValues(schemaDoc, leaf.instancePath); len(allowed) > 0 {
			msg += fmt.Sprintf(". Allowed values: %s", strings.Join(allowed, ", "))
		}
	}
	return msg
}
