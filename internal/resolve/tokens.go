package resolve

import (
	"sort"
	"strings"
)

// genericTerms are descriptor words that never distinguish one
// real-world solution from another. They are stripped before signature
// comparison, so "Yoga practice" and "Yoga" share a signature.
var genericTerms = map[string]bool{
	"practice": true, "practices": true,
	"session": true, "sessions": true,
	"prescription": true, "prescriptions": true,
	"program": true, "programs": true,
	"routine": true, "routines": true,
	"regimen": true, "regimens": true,
	"treatment": true, "treatments": true,
	"plan": true, "plans": true,
	"course": true, "courses": true,
	"class": true, "classes": true,
	"method": true, "methods": true,
	"technique": true, "techniques": true,
	"approach": true, "approaches": true,
	"medication": true, "medications": true,
	"antidepressant": true, "antidepressants": true,
	"drug": true, "drugs": true,
	"pill": true, "pills": true,
	"supplement": true, "supplements": true,
	"vitamins": true,
	"daily":    true, "regular": true, "generic": true,
	"the": true, "a": true, "an": true,
	"of": true, "for": true, "to": true, "with": true, "and": true,
}

// brandAliases maps well-known brand tokens to their generic
// equivalent so brand/generic title pairs resolve to one entity.
var brandAliases = map[string]string{
	"zoloft":     "sertraline",
	"lexapro":    "escitalopram",
	"prozac":     "fluoxetine",
	"wellbutrin": "bupropion",
	"paxil":      "paroxetine",
	"celexa":     "citalopram",
	"xanax":      "alprazolam",
	"ativan":     "lorazepam",
	"advil":      "ibuprofen",
	"motrin":     "ibuprofen",
	"tylenol":    "acetaminophen",
	"benadryl":   "diphenhydramine",
	"ambien":     "zolpidem",
}

// Tokenize lowercases, expands "&" to "and", strips punctuation and
// hyphens, maps brand aliases to their generic form, drops generic
// terms, and deduplicates preserving order.
func Tokenize(title string) []string {
	lower := strings.ToLower(title)
	lower = strings.ReplaceAll(lower, "&", " and ")

	raw := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	seen := map[string]bool{}
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if canonical, ok := brandAliases[tok]; ok {
			tok = canonical
		}
		if genericTerms[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

// Signature is the sorted, pipe-joined token set, or the
// whitespace-normalized lowercase title when tokenization strips
// everything.
func Signature(title string) string {
	tokens := Tokenize(title)
	if len(tokens) == 0 {
		return strings.Join(strings.Fields(strings.ToLower(title)), " ")
	}
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// OverlapScore measures token-set similarity as the larger of Jaccard
// and containment (intersection over the smaller set). Symmetric; 1.0
// for identical sets, 0.0 for disjoint or empty ones.
func OverlapScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := map[string]bool{}
	for _, t := range a {
		setA[t] = true
	}
	setB := map[string]bool{}
	for _, t := range b {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}

	union := len(setA) + len(setB) - intersection
	jaccard := float64(intersection) / float64(union)

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	containment := float64(intersection) / float64(smaller)

	if containment > jaccard {
		return containment
	}
	return jaccard
}
