// Package vocab maps free-text field values onto the controlled
// vocabulary for their category and field. Normalization is
// deterministic and side-effect free: the same input always yields the
// same approved value, and the output of a constrained field is always
// a verbatim member of its vocabulary.
package vocab

import (
	"strings"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/internal/taxonomy"
)

// Normalizer applies the vocabulary rules. Stateless; safe for
// concurrent use.
type Normalizer struct{}

// New returns a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize maps one raw field value to its approved form.
// Unconstrained fields pass through whitespace-collapsed. Unknown
// category/field combinations are schema errors, never coerced.
func (n *Normalizer) Normalize(category, field, raw string) (string, error) {
	options, ok := taxonomy.Vocabulary(category, field)
	if !ok {
		return "", errors.SchemaError("unknown field " + field + " for category " + category)
	}

	raw = collapseWhitespace(raw)
	if options == nil {
		return raw, nil
	}
	if raw == "" {
		return "", errors.SchemaError("empty value for constrained field " + field)
	}

	// Exact case-insensitive match short-circuits everything.
	if opt := optionByExact(options, raw); opt != "" {
		return opt, nil
	}

	if approved := n.applyHeuristics(field, raw, options); approved != "" {
		return approved, nil
	}

	return bestOverlapOption(raw, options), nil
}

// NormalizeArray normalizes each element, then deduplicates
// case-insensitively preserving first-seen order and vocabulary casing.
func (n *Normalizer) NormalizeArray(category, field string, raws []string) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		approved, err := n.Normalize(category, field, raw)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(approved)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, approved)
	}
	return out, nil
}

// applyHeuristics runs field-specific rules first, then the type-based
// parsers keyed by field-name substring. Returns "" when nothing
// applies so the generic matcher can take over.
func (n *Normalizer) applyHeuristics(field, raw string, options []string) string {
	switch {
	case strings.HasPrefix(field, "still_"):
		return normalizeTriState(raw, options)
	case field == "routine_time":
		return normalizeRoutineTime(raw, options)
	case field == "side_effects":
		return normalizePhrase(raw, sideEffectPhrases, options)
	case field == "challenges":
		return normalizePhrase(raw, challengePhrases, options)
	}

	switch {
	case strings.Contains(field, "cost"):
		return normalizeCost(raw, options)
	case strings.Contains(field, "time_to_result"):
		return normalizeTimeToResults(raw, options)
	case strings.Contains(field, "time_commitment"):
		return normalizeTimeCommitment(raw, options)
	case strings.Contains(field, "frequency"):
		return normalizeFrequency(raw, options)
	}
	return ""
}

// bestOverlapOption picks the vocabulary option sharing the most word
// tokens with the raw value. Ties resolve to the first-listed option,
// so the result is deterministic even with zero overlap.
func bestOverlapOption(raw string, options []string) string {
	rawTokens := tokenSet(raw)

	best := options[0]
	bestScore := overlapCount(rawTokens, tokenSet(options[0]))
	for _, opt := range options[1:] {
		if score := overlapCount(rawTokens, tokenSet(opt)); score > bestScore {
			best, bestScore = opt, score
		}
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		set[tok] = true
	}
	return set
}

func overlapCount(a, b map[string]bool) int {
	count := 0
	for tok := range a {
		if b[tok] {
			count++
		}
	}
	return count
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
