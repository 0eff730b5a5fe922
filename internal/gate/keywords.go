package gate

import (
	"strings"
)

// stopwords excluded from keyword extraction. Short tokens (<=2 runes)
// are dropped regardless.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "have": true, "has": true, "was": true,
	"are": true, "you": true, "your": true, "its": true, "can": true,
	"will": true, "more": true, "less": true, "into": true, "out": true,
	"about": true, "when": true, "than": true, "then": true, "them": true,
	"they": true, "been": true, "being": true, "what": true, "which": true,
	"also": true, "such": true, "some": true, "most": true, "other": true,
	"helps": true, "help": true, "helping": true, "improve": true,
	"improving": true, "better": true, "good": true, "great": true,
	"very": true, "really": true, "overall": true, "daily": true,
	"regular": true, "regularly": true, "using": true, "used": true,
	"based": true, "while": true, "through": true, "over": true,
}

const maxKeywords = 10

// extractKeywords pulls the significant tokens out of free text:
// lowercased, stopword-filtered, longer than 2 runes, capped at
// maxKeywords in first-seen order.
func extractKeywords(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	seen := map[string]bool{}
	keywords := make([]string, 0, maxKeywords)
	for _, tok := range raw {
		if len(tok) <= 2 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// keywordOverlap is the ratio of shared keywords to the smaller set.
// 0 when either side is empty.
func keywordOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setB := map[string]bool{}
	for _, k := range b {
		setB[k] = true
	}
	shared := 0
	for _, k := range a {
		if setB[k] {
			shared++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared) / float64(smaller)
}

// contradictionPair names two keyword domains that should not appear
// on opposite sides of a pairing (solution about one, goal about the
// other).
type contradictionPair struct {
	left  []string
	right []string
}

var contradictionPairs = []contradictionPair{
	{
		left:  []string{"physical", "muscle", "strength", "cardio", "stamina"},
		right: []string{"mental", "emotional", "grief", "thoughts"},
	},
	{
		left:  []string{"sedative", "sleep", "drowsiness", "calming"},
		right: []string{"energy", "alertness", "productivity", "focus"},
	},
	{
		left:  []string{"topical", "skincare", "complexion"},
		right: []string{"income", "career", "savings", "finances"},
	},
}

// hasContradiction reports whether one side of any configured pair
// shows up in the solution keywords while the other side shows up in
// the goal keywords (checked in both directions).
func hasContradiction(solutionKeywords, goalKeywords []string) (bool, string) {
	solSet := toSet(solutionKeywords)
	goalSet := toSet(goalKeywords)

	for _, pair := range contradictionPairs {
		if anyIn(pair.left, solSet) && anyIn(pair.right, goalSet) {
			return true, firstIn(pair.left, solSet) + " vs " + firstIn(pair.right, goalSet)
		}
		if anyIn(pair.right, solSet) && anyIn(pair.left, goalSet) {
			return true, firstIn(pair.right, solSet) + " vs " + firstIn(pair.left, goalSet)
		}
	}
	return false, ""
}

func toSet(keywords []string) map[string]bool {
	set := map[string]bool{}
	for _, k := range keywords {
		set[k] = true
	}
	return set
}

func anyIn(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

func firstIn(words []string, set map[string]bool) string {
	for _, w := range words {
		if set[w] {
			return w
		}
	}
	return ""
}
