// Package taxonomy holds the category schemas and controlled
// vocabularies as data tables. Adding a category or field is additive
// here; no pipeline code changes.
package taxonomy

import (
	"sort"
	"strings"
)

// CategorySchema describes the field set one category requires.
type CategorySchema struct {
	Name           string
	RequiredFields []string
	ArrayField     string // "" when the category has no list-valued field
	NeedsVariants  bool   // dosage-bearing categories
}

// Categories with variants carry amount/unit/form sub-entries; the
// rest get a single implicit Standard variant.
var schemas = map[string]CategorySchema{
	"medications": {
		Name:           "medications",
		RequiredFields: []string{"cost", "time_to_results", "frequency", "still_taking"},
		ArrayField:     "side_effects",
		NeedsVariants:  true,
	},
	"supplements": {
		Name:           "supplements",
		RequiredFields: []string{"cost", "time_to_results", "frequency", "still_taking"},
		ArrayField:     "side_effects",
		NeedsVariants:  true,
	},
	"exercise_movement": {
		Name:           "exercise_movement",
		RequiredFields: []string{"cost", "time_commitment", "frequency", "still_following"},
		ArrayField:     "challenges",
	},
	"therapy_counseling": {
		Name:           "therapy_counseling",
		RequiredFields: []string{"cost", "time_to_results", "frequency", "format", "still_attending"},
		ArrayField:     "challenges",
	},
	"mindfulness_meditation": {
		Name:           "mindfulness_meditation",
		RequiredFields: []string{"cost", "time_commitment", "frequency", "still_practicing"},
		ArrayField:     "challenges",
	},
	"apps_software": {
		Name:           "apps_software",
		RequiredFields: []string{"cost", "usage_frequency", "platform", "still_using"},
		ArrayField:     "challenges",
	},
	"skincare_beauty": {
		Name:           "skincare_beauty",
		RequiredFields: []string{"cost", "time_to_results", "routine_time", "still_using"},
		ArrayField:     "side_effects",
	},
}

var costOptions = []string{
	"Free",
	"Under $10/month",
	"$10-25/month",
	"$25-50/month",
	"$50-100/month",
	"Over $100/month",
}

var timeToResultsOptions = []string{
	"Immediately",
	"1-2 weeks",
	"3-4 weeks",
	"1-2 months",
	"3-6 months",
	"6+ months",
}

var timeCommitmentOptions = []string{
	"Under 5 minutes",
	"5-15 minutes",
	"15-30 minutes",
	"30-60 minutes",
	"1-2 hours",
	"Over 2 hours",
	"Ongoing/Variable",
}

var frequencyOptions = []string{
	"Daily",
	"Twice daily",
	"Several times a week",
	"Few times a week",
	"Weekly",
	"Every other day",
	"As needed",
	"Varies",
}

var stillFollowingOptions = []string{
	"Yes",
	"No",
	"Sometimes",
}

var sideEffectOptions = []string{
	"None",
	"Drowsiness",
	"Nausea",
	"Headache",
	"Weight gain",
	"Insomnia",
	"Dry mouth",
	"Dizziness",
	"Fatigue",
	"Irritation",
	"Other",
}

var challengeOptions = []string{
	"None",
	"Hard to stay consistent",
	"Time constraints",
	"Physical discomfort",
	"Cost concerns",
	"Motivation dips",
	"Other",
}

var formatOptions = []string{
	"In-person",
	"Online/Video",
	"Phone",
	"Text-based",
	"Group sessions",
}

var routineTimeOptions = []string{
	"Morning (AM)",
	"Evening (PM)",
	"Both AM and PM",
	"As needed",
}

// vocabularies maps field name to its allowed options. A nil entry
// marks the field unconstrained (free text permitted). Field names are
// shared across categories; any category-specific override would be
// keyed "category/field" and win on lookup.
var vocabularies = map[string][]string{
	"cost":             costOptions,
	"time_to_results":  timeToResultsOptions,
	"time_commitment":  timeCommitmentOptions,
	"frequency":        frequencyOptions,
	"usage_frequency":  frequencyOptions,
	"still_taking":     stillFollowingOptions,
	"still_following":  stillFollowingOptions,
	"still_attending":  stillFollowingOptions,
	"still_practicing": stillFollowingOptions,
	"still_using":      stillFollowingOptions,
	"side_effects":     sideEffectOptions,
	"challenges":       challengeOptions,
	"format":           formatOptions,
	"routine_time":     routineTimeOptions,
	"platform":         nil,
}

// Schema returns the schema for one category.
func Schema(category string) (CategorySchema, bool) {
	s, ok := schemas[strings.ToLower(strings.TrimSpace(category))]
	return s, ok
}

// Categories lists the known category names, sorted.
func Categories() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Vocabulary returns the allowed options for a field within a
// category. ok=false means the field is unknown to that category. A
// nil options slice with ok=true marks an unconstrained field.
func Vocabulary(category, field string) ([]string, bool) {
	schema, found := Schema(category)
	if !found {
		return nil, false
	}
	if !schemaHasField(schema, field) {
		return nil, false
	}
	if override, ok := vocabularies[schema.Name+"/"+field]; ok {
		return override, true
	}
	options, ok := vocabularies[field]
	if !ok {
		return nil, false
	}
	return options, true
}

// IsArrayField reports whether the field is the category's list-valued
// field.
func IsArrayField(category, field string) bool {
	schema, ok := Schema(category)
	return ok && schema.ArrayField != "" && schema.ArrayField == field
}

// MinDistinct is the floor of distinct values a persisted distribution
// must carry for this field. Tri-state fields need all three to avoid
// a degenerate near-binary split; everything else needs two.
func MinDistinct(field string) int {
	if strings.HasPrefix(field, "still_") {
		return 3
	}
	return 2
}

func schemaHasField(schema CategorySchema, field string) bool {
	for _, f := range schema.RequiredFields {
		if f == field {
			return true
		}
	}
	return schema.ArrayField != "" && schema.ArrayField == field
}
