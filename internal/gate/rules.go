package gate

import "regexp"

// CategoryRules drives stages A-C for one category. Expressed as data
// so new categories are additive.
type CategoryRules struct {
	// Stage A: at least one allow pattern must match the goal title
	// (empty list allows any goal); any forbid pattern rejects.
	AllowPatterns  []*regexp.Regexp
	ForbidPatterns []*regexp.Regexp

	// Stage A: candidates below this effectiveness never pass.
	MinEffectiveness float64

	// Stage B: minimum keyword-overlap ratio. BroadExpertise relaxes
	// it to zero for categories that plausibly touch most goals.
	MinSemanticOverlap float64
	BroadExpertise     bool

	// Stage C: goal-title keywords signalling the category's home
	// domain. Informational in relaxed mode, hard-rejecting in strict.
	DomainKeywords []string

	// Goal keywords marking a category-goal perfect match (relevance
	// multiplier 1.0).
	PerfectMatchKeywords []string
}

func patterns(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		compiled[i] = regexp.MustCompile("(?i)" + e)
	}
	return compiled
}

var categoryRules = map[string]CategoryRules{
	"medications": {
		AllowPatterns: patterns(
			`anxiety|panic|stress`,
			`depress|mood|mental`,
			`sleep|insomnia`,
			`pain|migraine|headache`,
			`focus|adhd|attention`,
		),
		ForbidPatterns: patterns(
			`friends?|social circle|networking`,
			`money|budget|sav(e|ing)|salary|income`,
			`career|promotion|job search`,
		),
		MinEffectiveness:     3.5,
		MinSemanticOverlap:   0.1,
		DomainKeywords:       []string{"anxiety", "depression", "sleep", "insomnia", "pain", "adhd", "focus", "panic", "mood", "migraine"},
		PerfectMatchKeywords: []string{"anxiety", "depression", "insomnia", "adhd"},
	},
	"supplements": {
		ForbidPatterns: patterns(
			`friends?|social circle`,
			`money|budget|salary|income`,
		),
		MinEffectiveness:     3.2,
		MinSemanticOverlap:   0.1,
		BroadExpertise:       true,
		DomainKeywords:       []string{"energy", "sleep", "immunity", "deficiency", "focus", "mood", "digestion", "joint", "skin", "hair"},
		PerfectMatchKeywords: []string{"deficiency", "energy", "sleep"},
	},
	"exercise_movement": {
		ForbidPatterns: patterns(
			`money|budget|salary|income`,
			`vocabulary|language learning`,
		),
		MinEffectiveness:     3.2,
		MinSemanticOverlap:   0.1,
		BroadExpertise:       true,
		DomainKeywords:       []string{"weight", "fitness", "strength", "energy", "stress", "sleep", "anxiety", "mobility", "pain", "stamina"},
		PerfectMatchKeywords: []string{"weight", "fitness", "strength", "stamina"},
	},
	"therapy_counseling": {
		AllowPatterns: patterns(
			`anxiety|stress|panic|worry`,
			`depress|mood|mental|emotional`,
			`grief|loss|trauma`,
			`relationship|marriage|family|conflict`,
			`confidence|self.?esteem|burnout`,
		),
		ForbidPatterns: patterns(
			`lose weight|muscle|six.?pack`,
			`money|budget|salary`,
		),
		MinEffectiveness:     3.5,
		MinSemanticOverlap:   0.1,
		DomainKeywords:       []string{"anxiety", "depression", "stress", "grief", "trauma", "relationship", "emotional", "burnout", "confidence"},
		PerfectMatchKeywords: []string{"anxiety", "depression", "trauma", "grief"},
	},
	"mindfulness_meditation": {
		ForbidPatterns: patterns(
			`money|budget|salary|income`,
		),
		MinEffectiveness:     3.2,
		MinSemanticOverlap:   0.1,
		BroadExpertise:       true,
		DomainKeywords:       []string{"stress", "anxiety", "sleep", "focus", "calm", "mindfulness", "overthinking", "patience"},
		PerfectMatchKeywords: []string{"stress", "anxiety", "mindfulness"},
	},
	"apps_software": {
		MinEffectiveness:     3.0,
		MinSemanticOverlap:   0.1,
		BroadExpertise:       true,
		DomainKeywords:       []string{"habit", "productivity", "focus", "sleep", "meditation", "budget", "language", "fitness", "tracking"},
		PerfectMatchKeywords: []string{"habit", "productivity", "tracking"},
	},
	"skincare_beauty": {
		AllowPatterns: patterns(
			`skin|acne|complexion|wrinkle|aging`,
			`confidence|appearance`,
		),
		ForbidPatterns: patterns(
			`anxiety|depress|insomnia`,
			`money|budget|salary`,
		),
		MinEffectiveness:     3.2,
		MinSemanticOverlap:   0.1,
		DomainKeywords:       []string{"skin", "acne", "complexion", "wrinkles", "appearance", "glow"},
		PerfectMatchKeywords: []string{"acne", "skin"},
	},
}

// RulesFor returns the category's rule set.
func RulesFor(category string) (CategoryRules, bool) {
	rules, ok := categoryRules[category]
	return rules, ok
}
