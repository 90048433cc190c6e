package alert

import (
	"fmt"
	"strings"
)

// NormalizeKeywords trims tokens and drops empty ones, preserving order and
// removing case-insensitive duplicates. Accepts either a pre-split list or a
// single comma-separated string ("weber 45, dcoe").
func NormalizeKeywords(raw []string) []string {
	var tokens []string
	for _, entry := range raw {
		tokens = append(tokens, strings.Split(entry, ",")...)
	}

	seen := make(map[string]bool, len(tokens))
	normalized := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key := strings.ToLower(token)
		if seen[key] {
			continue
		}
		seen[key] = true
		normalized = append(normalized, token)
	}
	return normalized
}

// Validate checks the fields the engine depends on. Defaults (name, sources,
// channels) are applied by the repository on create, so an alert reaching the
// engine with none of them is malformed rather than merely sparse.
func Validate(a *Alert) error {
	if a == nil {
		return fmt.Errorf("alert is nil")
	}
	if a.ID == "" {
		return fmt.Errorf("alert id is required")
	}
	if len(a.Sources) == 0 {
		return fmt.Errorf("alert has no sources")
	}
	for _, kw := range a.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("alert has an empty keyword")
		}
	}
	if a.PriceMin != nil && a.PriceMax != nil && *a.PriceMin > *a.PriceMax {
		return fmt.Errorf("price_min %v exceeds price_max %v", *a.PriceMin, *a.PriceMax)
	}
	return nil
}
