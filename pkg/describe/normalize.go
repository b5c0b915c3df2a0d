package describe

import (
	"strings"

	"github.com/shelfsight/shelfsight/pkg/models"
)

// approvedApparels are the apparel types the search index carries. A
// described type outside this list still comes back to the caller, just
// flagged invalid.
var approvedApparels = []string{
	"t-shirt", "tshirt", "t shirt", "shirt", "shoes", "shorts", "jeans",
	"sweatshirt", "hoodie", "sweater", "jacket", "pullover",
}

// sweatshirtSynonyms are folded into the canonical value "sweatshirt".
var sweatshirtSynonyms = []string{"sweatshirt", "hoodie", "sweater", "pullover"}

// noInformationPhrases are describer spellings of "not determined". Each
// collapses to the empty string so downstream code never has to compare
// against the literal words.
var noInformationPhrases = map[string]struct{}{
	"none":           {},
	"n/a":            {},
	"not visible":    {},
	"not applicable": {},
	"unknown":        {},
	"none visible":   {},
}

// normalizeField lower-cases, trims, and collapses no-information
// phrasings to "".
func normalizeField(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if _, ok := noInformationPhrases[value]; ok {
		return ""
	}
	return value
}

// normalizeAttributes applies per-field normalization and apparel
// canonicalization to a parsed describer payload.
func normalizeAttributes(attrs *models.ApparelAttributes) {
	attrs.ApparelType = normalizeField(attrs.ApparelType)
	attrs.Color = normalizeField(attrs.Color)
	attrs.Gender = normalizeField(attrs.Gender)
	attrs.GenderConfidence = models.LooseString(
		normalizeField(string(attrs.GenderConfidence)),
	)
	attrs.Pattern = normalizeField(attrs.Pattern)
	attrs.Features = normalizeField(attrs.Features)
	attrs.Brand = normalizeField(attrs.Brand)

	attrs.IsValidApparel = false
	for _, apparel := range approvedApparels {
		if strings.Contains(attrs.ApparelType, apparel) {
			attrs.IsValidApparel = true
			break
		}
	}

	for _, synonym := range sweatshirtSynonyms {
		if strings.Contains(attrs.ApparelType, synonym) {
			attrs.ApparelType = "sweatshirt"
			attrs.IsValidApparel = true
			break
		}
	}
}
