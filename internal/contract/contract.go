// Package contract validates model output against a declared field contract.
//
// Generation responses often arrive wrapped in markdown code fences; this
// package unwraps them, decodes the JSON payload, and checks that every
// required field is present and non-empty. Any violation is a *ParseError,
// which the retry layer treats like any other failure.
package contract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseError reports that a generation response violated its contract.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("contract violation: %s", e.Reason)
}

// ExtractJSON unwraps a ```json or ``` fenced block from raw, if present,
// and returns the trimmed payload. Raw text without fences passes through
// trimmed.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	for _, fence := range []string{"```json", "```"} {
		idx := strings.Index(s, fence)
		if idx < 0 {
			continue
		}
		start := idx + len(fence)
		end := strings.Index(s[start:], "```")
		if end < 0 {
			break
		}
		return strings.TrimSpace(s[start : start+end])
	}
	return s
}

// Unmarshal extracts the JSON payload from raw and decodes it into v.
// Malformed JSON returns a *ParseError carrying the raw response.
func Unmarshal(raw string, v any) error {
	payload := ExtractJSON(raw)
	if payload == "" {
		return &ParseError{Reason: "empty response", Raw: raw}
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}
	return nil
}

// RequireNonEmpty verifies every named field carries a non-blank value.
// fields maps field name to the decoded value.
func RequireNonEmpty(raw string, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		// Deterministic order for error messages and tests.
		sort.Strings(missing)
		return &ParseError{Reason: "missing required fields: " + strings.Join(missing, ", "), Raw: raw}
	}
	return nil
}
