// Package resolve decides whether a generated solution title refers to
// an already-stored entity or a new one. Two titles differing only by
// generic wrapper words or brand/generic naming resolve to the same
// solution; titles for genuinely different entities never merge, since
// their stripped token sets share nothing.
package resolve

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// Resolution is the outcome of resolving one raw title.
type Resolution struct {
	SolutionID     uuid.UUID
	CanonicalTitle string
	IsNew          bool
}

// Resolver finds-or-creates canonical solutions. The overlap threshold
// defaults to 0.75 and is configuration, not an invariant.
type Resolver struct {
	repo      ports.SolutionRepository
	cache     *TitleCache
	threshold float64
}

// NewResolver builds a resolver around a store and an injected
// per-run title cache.
func NewResolver(repo ports.SolutionRepository, cache *TitleCache, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = 0.75
	}
	return &Resolver{repo: repo, cache: cache, threshold: threshold}
}

// Resolve maps a raw generated title onto a canonical solution,
// creating one when nothing matches. Variants are created when a new
// solution is inserted; existing solutions keep theirs.
func (r *Resolver) Resolve(ctx context.Context, category, rawTitle string, variants []models.VariantSpec) (*Resolution, error) {
	if err := r.cache.Warm(ctx, r.repo, category); err != nil {
		return nil, errors.Wrap(err, "warming title cache")
	}

	title := RewriteTitle(rawTitle)
	key := NormalizeTitleKey(title)

	// Precedence (a): exact normalized-title match.
	if id, ok := r.cache.ByKey(category, key); ok {
		return r.existing(category, id, title), nil
	}
	if sol, err := r.repo.FindByNormalizedTitle(ctx, category, key); err != nil {
		return nil, errors.Wrap(err, "finding by normalized title")
	} else if sol != nil {
		r.cache.Add(category, sol.ID, sol.Title)
		return &Resolution{SolutionID: sol.ID, CanonicalTitle: sol.Title}, nil
	}

	// Precedence (b): canonical signature match, extending the cache
	// just in time from titles sharing the raw title's first word.
	sig := Signature(title)
	if id, ok := r.cache.BySignature(category, sig); ok {
		return r.existing(category, id, title), nil
	}
	if first := firstWord(rawTitle); first != "" {
		found, err := r.repo.SearchByTitleSubstring(ctx, category, first)
		if err != nil {
			return nil, errors.Wrap(err, "substring search")
		}
		for _, sol := range found {
			r.cache.Add(category, sol.ID, sol.Title)
		}
		if id, ok := r.cache.BySignature(category, sig); ok {
			return r.existing(category, id, title), nil
		}
	}

	// Precedence (c): best fuzzy match at or above the threshold.
	tokens := Tokenize(title)
	var bestID uuid.UUID
	bestTitle := ""
	bestScore := 0.0
	for _, entry := range r.cache.Entries(category) {
		if score := OverlapScore(tokens, entry.Tokens); score > bestScore {
			bestID, bestTitle, bestScore = entry.ID, entry.Title, score
		}
	}
	if bestScore >= r.threshold {
		log.Printf("[Resolver] fuzzy-matched %q to %q (score %.2f)", title, bestTitle, bestScore)
		return &Resolution{SolutionID: bestID, CanonicalTitle: bestTitle}, nil
	}

	id, err := r.repo.InsertSolution(ctx, title, category, variants)
	if err != nil {
		return nil, errors.Wrap(err, "inserting solution")
	}
	r.cache.Add(category, id, title)
	log.Printf("[Resolver] created solution %q in %s", title, category)
	return &Resolution{SolutionID: id, CanonicalTitle: title, IsNew: true}, nil
}

func (r *Resolver) existing(category string, id uuid.UUID, fallbackTitle string) *Resolution {
	title, ok := r.cache.Title(category, id)
	if !ok {
		title = fallbackTitle
	}
	return &Resolution{SolutionID: id, CanonicalTitle: title}
}

var parentheticalPattern = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)\s*$`)

// RewriteTitle strips generic wrapper prefixes. A title shaped
// "<prefix> (<parenthetical>)" whose prefix is judged generic is
// replaced by the cleaned parenthetical; when the parenthetical lists
// aliases ("Sertraline/Zoloft") the first becomes primary and the rest
// a trailing alias list, deduplicated case-insensitively.
func RewriteTitle(raw string) string {
	raw = strings.Join(strings.Fields(raw), " ")

	m := parentheticalPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	prefix, inner := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if prefix == "" || inner == "" || !isGenericPhrase(prefix) {
		return raw
	}

	names := splitAliases(inner)
	if len(names) == 0 {
		return raw
	}
	primary := names[0]
	if len(names) == 1 {
		return primary
	}

	seen := map[string]bool{strings.ToLower(primary): true}
	aliases := make([]string, 0, len(names)-1)
	for _, name := range names[1:] {
		lower := strings.ToLower(name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		aliases = append(aliases, name)
	}
	if len(aliases) == 0 {
		return primary
	}
	return primary + " (" + strings.Join(aliases, ", ") + ")"
}

// isGenericPhrase reports whether a title prefix carries no specific
// identity: it ends in a generic descriptor word, or consists entirely
// of them.
func isGenericPhrase(phrase string) bool {
	words := strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	if len(words) == 0 {
		return false
	}
	if genericTerms[words[len(words)-1]] {
		return true
	}
	for _, w := range words {
		if !genericTerms[w] {
			return false
		}
	}
	return true
}

func splitAliases(inner string) []string {
	parts := strings.FieldsFunc(inner, func(r rune) bool {
		return r == '/' || r == ',' || r == ';'
	})
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if cleaned := strings.Join(strings.Fields(p), " "); cleaned != "" {
			names = append(names, cleaned)
		}
	}
	return names
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "()[]{},.;:")
}
