package engine

import (
	"fmt"
	"strconv"
	"strings"

	"transcript-engine/schema"
	"transcript-engine/types"
)

// jsonRepairDirective is appended to the original prompt when the model's
// first response could not be parsed as JSON.
const jsonRepairDirective = "\n\nIMPORTANT: Your previous response could not be parsed as JSON. " +
	"Respond with ONLY a single valid JSON object. No markdown fences, no explanations, no text before or after the JSON."

// BuildPrompt assembles the user-facing instruction text from the transcript,
// meeting metadata, and schema-derived hints. Deterministic for identical
// inputs: hint order follows schema descent order.
func BuildPrompt(req *types.ProcessRequest, enumPaths []schema.EnumPath, arrayPaths []string) string {
	var sb strings.Builder

	meta := req.MeetingMetadata
	if meta.ClientName != "" || meta.MeetingTypeName != "" || meta.ScenarioName != "" || len(meta.Participants) > 0 {
		sb.WriteString("## Meeting Context\n")
		if meta.ClientName != "" {
			sb.WriteString("Client: " + meta.ClientName + "\n")
		}
		if meta.MeetingTypeName != "" {
			sb.WriteString("Meeting type: " + meta.MeetingTypeName + "\n")
		}
		if meta.ScenarioName != "" {
			sb.WriteString("Scenario: " + meta.ScenarioName + "\n")
		}
		if len(meta.Participants) > 0 {
			sb.WriteString("Participants: " + strings.Join(meta.Participants, ", ") + "\n")
		}
		sb.WriteString("\n")
	}

	if req.ClientContextSummary != "" {
		sb.WriteString("## Prior Client Context\n")
		sb.WriteString(req.ClientContextSummary + "\n\n")
	}

	sb.WriteString("## Transcript\n")
	for _, seg := range req.TranscriptSegments {
		sb.WriteString(fmt.Sprintf("[%s - %s] %s: %s\n",
			formatTimestamp(seg.Start), formatTimestamp(seg.End), formatSpeaker(seg.Speaker), seg.Text))
	}

	directives := outputDirectives(enumPaths, arrayPaths)
	if len(directives) > 0 {
		sb.WriteString("\n## Output Requirements\n")
		for _, d := range directives {
			sb.WriteString("- " + d + "\n")
		}
	}
	sb.WriteString("\nRespond with a single JSON object matching the required schema. No markdown, no commentary.")

	return sb.String()
}

// outputDirectives renders one instruction line per string-array field and
// one per enum field with its exact allowed values.
func outputDirectives(enumPaths []schema.EnumPath, arrayPaths []string) []string {
	directives := make([]string, 0, len(arrayPaths)+len(enumPaths))
	for _, path := range arrayPaths {
		directives = append(directives,
			fmt.Sprintf("Field %q must be a plain JSON array of strings.", path))
	}
	for _, ep := range enumPaths {
		directives = append(directives,
			fmt.Sprintf("Field %q must be exactly one of: %s.", ep.String(), strings.Join(ep.Values, ", ")))
	}
	return directives
}

// BuildSchemaRepairPrompt extends the original prompt with an explicit block
// enumerating every validation error from the failed attempt.
func BuildSchemaRepairPrompt(originalPrompt string, validationErrors []string) string {
	var sb strings.Builder
	sb.WriteString(originalPrompt)
	sb.WriteString("\n\nIMPORTANT: Your previous response did not match the required schema. Fix these problems:\n")
	for _, msg := range validationErrors {
		sb.WriteString("- " + msg + "\n")
	}
	sb.WriteString("Use EXACTLY the allowed values where they are listed. " +
		"Respond with ONLY the corrected JSON object. No markdown, no extra text.")
	return sb.String()
}

// BuildJSONRepairPrompt appends the JSON-only directive to the original prompt.
func BuildJSONRepairPrompt(originalPrompt string) string {
	return originalPrompt + jsonRepairDirective
}

func formatTimestamp(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 2, 64)
}

func formatSpeaker(speaker interface{}) string {
	switch v := speaker.(type) {
	case nil:
		return "Speaker"
	case string:
		if strings.TrimSpace(v) == "" {
			return "Speaker"
		}
		return v
	case float64:
		return "Speaker " + strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("Speaker %v", v)
	}
}
