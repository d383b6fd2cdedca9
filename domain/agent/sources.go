package agent

import "encoding/json"

// toolPayload is the structured shape some tools embed in their output: a
// content field plus optional citations.
type toolPayload struct {
	Content string          `json:"content"`
	Sources json.RawMessage `json:"sources"`
}

// ExtractSources pulls citations out of a structured tool result. Citation
// parsing never fails the step: a missing, null, or malformed sources
// field yields (nil, false), and the payload degrades to "no new citations
// this step".
func ExtractSources(raw []byte) ([]Source, bool) {
	var payload toolPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	if len(payload.Sources) == 0 || string(payload.Sources) == "null" {
		return nil, false
	}
	var sources []Source
	if err := json.Unmarshal(payload.Sources, &sources); err != nil {
		return nil, false
	}
	if len(sources) == 0 {
		return nil, false
	}
	return sources, true
}

// ExtractContent returns the content field of a structured tool result, or
// the raw text when the payload is not structured.
func ExtractContent(raw []byte) string {
	var payload toolPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Content != "" {
		return payload.Content
	}
	return string(raw)
}
