package validation

import "strings"

// SplitTerms turns "go, python ,,ml" into [go python ml].
func SplitTerms(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return CleanTerms(strings.Split(raw, ","))
}

// CleanTerms trims each term and drops empties and repeats, keeping first-seen order.
func CleanTerms(terms []string) []string {
	if terms == nil {
		return nil
	}
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
