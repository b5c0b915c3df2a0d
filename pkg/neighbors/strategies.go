package neighbors

import "regexp"

// The index has been observed to serialize feature values with drifting
// quoting styles, labeling prefixes and file-extension suffixes. Each
// drift variant gets its own extraction strategy; strategies are tried in
// order and the first match wins. Cosmetic format drift must never
// hard-fail a decode.
type extractStrategy struct {
	Name    string
	Pattern *regexp.Regexp
}

// productIDStrategies extract a decimal product id from raw slot text, in
// priority order:
//  1. quoted pure digits: "9952"
//  2. labeled-field quoted digits: string_value: "9952" / "stringValue":"9952"
//  3. digits immediately before a file extension: 9952.jpg
//  4. first digit run anywhere in the text
var productIDStrategies = []extractStrategy{
	{
		Name:    "quoted digits",
		Pattern: regexp.MustCompile(`"(\d+)"`),
	},
	{
		Name:    "labeled quoted digits",
		Pattern: regexp.MustCompile(`(?i)"?string_?value"?\s*:\s*"(\d+)"`),
	},
	{
		Name:    "digits before extension",
		Pattern: regexp.MustCompile(`(\d+)\.[A-Za-z][A-Za-z0-9]*`),
	},
	{
		Name:    "digit run",
		Pattern: regexp.MustCompile(`(\d+)`),
	},
}

// storageURIPattern locates the first quoted scheme://bucket/path
// substring in raw slot text.
var storageURIPattern = regexp.MustCompile(`"([a-z][a-z0-9+.-]*://[^"]+)"`)

// extractProductID runs the ordered strategy list over raw slot text and
// returns the first extracted id.
func extractProductID(raw string) (string, bool) {
	for _, strategy := range productIDStrategies {
		if m := strategy.Pattern.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// extractStorageURI returns the first quoted storage URI in raw slot text.
func extractStorageURI(raw string) (string, bool) {
	if m := storageURIPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}
