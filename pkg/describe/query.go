package describe

import (
	"strings"

	"github.com/shelfsight/shelfsight/pkg/models"
)

// QueryFromAttributes renders described attributes as a text query for
// the product search pipeline, e.g. "striped blue sweatshirt for boys".
func QueryFromAttributes(attrs *models.ApparelAttributes) string {
	if attrs == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	if attrs.Pattern != "" && attrs.Pattern != "solid" {
		parts = append(parts, attrs.Pattern)
	}
	if attrs.Color != "" {
		parts = append(parts, attrs.Color)
	}
	if attrs.ApparelType != "" {
		parts = append(parts, attrs.ApparelType)
	}
	if len(parts) == 0 {
		return ""
	}
	if attrs.Gender != "" && attrs.Gender != "unisex" {
		parts = append(parts, "for", attrs.Gender)
	}
	return strings.Join(parts, " ")
}
