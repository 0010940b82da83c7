package types

import "strings"

// TranscriptSegment is one timed utterance from the transcription adapter.
// Speaker is untyped because upstream diarization emits either a label
// ("Speaker 1") or a numeric channel index.
type TranscriptSegment struct {
	Start   float64     `json:"start"`
	End     float64     `json:"end"`
	Speaker interface{} `json:"speaker,omitempty"`
	Text    string      `json:"text"`
}

// MeetingMetadata carries the free-form meeting context supplied by the
// surrounding pipeline. All fields are optional.
type MeetingMetadata struct {
	ClientName      string   `json:"client_name,omitempty"`
	MeetingTypeName string   `json:"meeting_type_name,omitempty"`
	ScenarioName    string   `json:"scenario_name,omitempty"`
	Participants    []string `json:"participants,omitempty"`
}

// ProcessRequest is the inbound contract consumed from the surrounding
// pipeline. OutputSchema is an arbitrary JSON-Schema-like tree and is
// treated as read-only by every stage.
type ProcessRequest struct {
	TranscriptSegments   []TranscriptSegment    `json:"transcript_segments"`
	SystemPrompt         string                 `json:"system_prompt"`
	OutputSchema         map[string]interface{} `json:"output_schema"`
	MeetingMetadata      MeetingMetadata        `json:"meeting_metadata"`
	ClientContextSummary string                 `json:"client_context_summary,omitempty"`
	RequestID            string                 `json:"request_id,omitempty"`
}

// HasTranscriptText reports whether at least one segment carries
// non-whitespace text.
func (r *ProcessRequest) HasTranscriptText() bool {
	for _, seg := range r.TranscriptSegments {
		if strings.TrimSpace(seg.Text) != "" {
			return true
		}
	}
	return false
}

// ProcessResult is the outbound contract: exactly one of Data or Error is set.
type ProcessResult struct {
	Data  map[string]interface{} `json:"data,omitempty"`
	Error *EngineError           `json:"error,omitempty"`
}
