// Package leadid extracts lead identifiers from conversational message text.
//
// Lead messages are normally machine-generated JSON payloads, but manual
// edits or partial forwarding can corrupt the structure. Extraction therefore
// layers fallbacks: a strict JSON parse first, then pattern matching over the
// raw text.
package leadid

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	quotedValueRegex = regexp.MustCompile(`"lead_id"\s*:\s*"([^"]+)"`)
	bareValueRegex   = regexp.MustCompile(`"lead_id"\s*:\s*([\w-]+)`)
)

// Extract returns the lead identifier contained in text, if any.
// It never fails hard: malformed input simply yields ok=false.
func Extract(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	// Strict parse: the whole message is a JSON object with a lead_id field.
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		if id, ok := payload["lead_id"].(string); ok && id != "" {
			return id, true
		}
	}

	// Quoted-value fallback for messages where the JSON structure is broken
	// but the field survived.
	if match := quotedValueRegex.FindStringSubmatch(text); match != nil {
		return match[1], true
	}

	// Bare-token fallback for payloads that lost the value quotes.
	if match := bareValueRegex.FindStringSubmatch(text); match != nil {
		return match[1], true
	}

	return "", false
}

// Contains reports whether text carries the ingestion marker at all.
// Used as a cheap gate before attempting a full parse.
func Contains(text string) bool {
	return strings.Contains(text, "lead_id")
}
