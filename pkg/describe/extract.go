package describe

import (
	"encoding/json"
	"strings"

	"github.com/shelfsight/shelfsight/pkg/models"
)

// parseAttributes defensively extracts a structured payload from the
// describer's free-form response: strip optional code-fence wrapping,
// attempt a direct parse, then fall back to the first {...} span.
func parseAttributes(raw string) (*models.ApparelAttributes, error) {
	text := stripCodeFences(raw)

	var attrs models.ApparelAttributes
	if err := json.Unmarshal([]byte(text), &attrs); err == nil {
		return &attrs, nil
	}

	if span, ok := firstBraceSpan(text); ok {
		if err := json.Unmarshal([]byte(span), &attrs); err == nil {
			return &attrs, nil
		}
	}

	return nil, &models.UnparsableAttributesError{Raw: raw}
}

// stripCodeFences removes markdown fence wrapping, with or without a
// language tag.
func stripCodeFences(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// firstBraceSpan returns the substring from the first '{' to the last
// '}' following it.
func firstBraceSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, "}")
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
