package models

import "encoding/json"

// LooseString is a string that also accepts a JSON number on decode.
// Vision models are inconsistent about quoting numeric-looking fields.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = LooseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = LooseString(num.String())
	return nil
}

// ApparelAttributes is the normalized output of the image describer. Every
// textual field is lower-cased and trimmed; the empty string means "not
// determined" and is never spelled as "none", "unknown" or similar.
type ApparelAttributes struct {
	ApparelType      string      `json:"apparel_type"`
	Color            string      `json:"color"`
	Gender           string      `json:"gender"`
	GenderConfidence LooseString `json:"gender_confidence"`
	Pattern          string      `json:"pattern"`
	Features         string      `json:"features"`
	Brand            string      `json:"brand"`
	IsValidApparel   bool        `json:"is_valid_apparel"`
}
