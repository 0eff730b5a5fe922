package vocab

import "strings"

// Field-specific heuristics for fields with known quirky phrasing.
// These run before the type-based parsers.

// normalizeTriState handles the still_* family: generated text answers
// "am I still doing this" in many shapes. Order matters: partial
// phrasing wins over a bare yes/no fragment.
func normalizeTriState(raw string, options []string) string {
	lower := strings.ToLower(raw)

	sometimesWords := []string{"sometimes", "occasionally", "on and off", "off and on", "intermittent", "partially", "some days", "when i remember"}
	for _, w := range sometimesWords {
		if strings.Contains(lower, w) {
			return optionByExact(options, "Sometimes")
		}
	}

	noWords := []string{"no longer", "stopped", "quit", "discontinued", "gave up", "not anymore", "used to"}
	for _, w := range noWords {
		if strings.Contains(lower, w) {
			return optionByExact(options, "No")
		}
	}
	if lower == "no" || strings.HasPrefix(lower, "no,") || strings.HasPrefix(lower, "no ") {
		return optionByExact(options, "No")
	}

	yesWords := []string{"yes", "still", "currently", "continuing", "ongoing", "every day since"}
	for _, w := range yesWords {
		if strings.Contains(lower, w) {
			return optionByExact(options, "Yes")
		}
	}
	return ""
}

// normalizeRoutineTime handles AM/PM phrasing for routine-timing
// fields ("I apply it mornings and before bed").
func normalizeRoutineTime(raw string, options []string) string {
	lower := strings.ToLower(raw)

	// Bare "am" needs to be its own word ("I am consistent" is not a
	// time cue).
	morning := strings.Contains(lower, "morning") || strings.Contains(lower, "a.m") ||
		containsWord(lower, "am")
	evening := strings.Contains(lower, "evening") || strings.Contains(lower, "night") ||
		strings.Contains(lower, "before bed") || strings.Contains(lower, "p.m") ||
		containsWord(lower, "pm")

	switch {
	case strings.Contains(lower, "as needed"):
		return optionByExact(options, "As needed")
	case (morning && evening) || strings.Contains(lower, "twice"):
		return optionByExact(options, "Both AM and PM")
	case morning:
		return optionByExact(options, "Morning (AM)")
	case evening:
		return optionByExact(options, "Evening (PM)")
	}
	return ""
}

// phraseEntry maps a free-text fragment to its canonical vocabulary
// term. Tables, not branches: new phrasings are one line here.
type phraseEntry struct {
	fragment  string
	canonical string
}

var sideEffectPhrases = []phraseEntry{
	{"no side effects", "None"},
	{"none", "None"},
	{"drowsy", "Drowsiness"},
	{"drowsiness", "Drowsiness"},
	{"sleepy", "Drowsiness"},
	{"nausea", "Nausea"},
	{"nauseous", "Nausea"},
	{"upset stomach", "Nausea"},
	{"sick to my stomach", "Nausea"},
	{"headache", "Headache"},
	{"migraine", "Headache"},
	{"weight gain", "Weight gain"},
	{"gained weight", "Weight gain"},
	{"put on weight", "Weight gain"},
	{"insomnia", "Insomnia"},
	{"trouble sleeping", "Insomnia"},
	{"couldn't sleep", "Insomnia"},
	{"can't sleep", "Insomnia"},
	{"dry mouth", "Dry mouth"},
	{"dizzy", "Dizziness"},
	{"dizziness", "Dizziness"},
	{"lightheaded", "Dizziness"},
	{"fatigue", "Fatigue"},
	{"tired", "Fatigue"},
	{"exhausted", "Fatigue"},
	{"low energy", "Fatigue"},
	{"irritation", "Irritation"},
	{"irritated", "Irritation"},
	{"redness", "Irritation"},
	{"rash", "Irritation"},
	{"itchy", "Irritation"},
}

var challengePhrases = []phraseEntry{
	{"no challenges", "None"},
	{"none", "None"},
	{"consistency", "Hard to stay consistent"},
	{"staying consistent", "Hard to stay consistent"},
	{"sticking with it", "Hard to stay consistent"},
	{"keeping it up", "Hard to stay consistent"},
	{"finding time", "Time constraints"},
	{"time consuming", "Time constraints"},
	{"takes too long", "Time constraints"},
	{"busy schedule", "Time constraints"},
	{"sore", "Physical discomfort"},
	{"pain", "Physical discomfort"},
	{"discomfort", "Physical discomfort"},
	{"uncomfortable", "Physical discomfort"},
	{"expensive", "Cost concerns"},
	{"cost", "Cost concerns"},
	{"pricey", "Cost concerns"},
	{"afford", "Cost concerns"},
	{"motivation", "Motivation dips"},
	{"motivated", "Motivation dips"},
	{"boring", "Motivation dips"},
	{"lost interest", "Motivation dips"},
}

// normalizePhrase extracts a canonical term from a free-text phrase
// using the field's keyword table. Longer fragments are checked first
// so "no side effects" beats "effects".
func normalizePhrase(raw string, table []phraseEntry, options []string) string {
	lower := strings.ToLower(raw)
	for _, entry := range table {
		if strings.Contains(lower, entry.fragment) {
			if opt := optionByExact(options, entry.canonical); opt != "" {
				return opt
			}
		}
	}
	return ""
}

func containsWord(s, word string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, f := range fields {
		if f == word {
			return true
		}
	}
	return false
}
