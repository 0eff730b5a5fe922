package vocab

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches "$18", "18.50", "$1,200", and ranges like
// "$10-25" or "$10 to $25".
var amountPattern = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)(?:\s*(?:-|–|to)\s*\$?\s*(\d{1,3}(?:,\d{3})*(?:\.\d+)?))?`)

// durationPattern matches "3 weeks", "2-4 months", "90 minutes",
// "1 to 2 hours". "a week" style phrasing is handled by the callers.
var durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:\s*(?:-|–|to)\s*(\d+(?:\.\d+)?))?\s*(minutes?|mins?|hours?|hrs?|days?|weeks?|wks?|months?|years?)`)

// perPeriodPattern matches "3 times per week", "2x a day", "4-5 times each month".
var perPeriodPattern = regexp.MustCompile(`(\d+)(?:\s*(?:-|–|to)\s*(\d+))?\s*(?:times?|x)\s*(?:per|a|an|each)\s*(day|week|month)`)

// costBucket is one parsed vocabulary option for a cost-like field.
type costBucket struct {
	option   string
	low      float64
	high     float64 // inf for "Over $X"
	midpoint float64
}

var (
	underPattern = regexp.MustCompile(`(?i)under\s*\$(\d+(?:\.\d+)?)`)
	overPattern  = regexp.MustCompile(`(?i)over\s*\$(\d+(?:\.\d+)?)`)
	rangePattern = regexp.MustCompile(`\$(\d+(?:\.\d+)?)\s*-\s*\$?(\d+(?:\.\d+)?)`)
)

const unbounded = 1 << 30

// parseCostBuckets turns the textual vocabulary options into numeric
// ranges. Options that parse to nothing (e.g. "Free") get no bucket.
func parseCostBuckets(options []string) []costBucket {
	buckets := make([]costBucket, 0, len(options))
	for _, opt := range options {
		if m := underPattern.FindStringSubmatch(opt); m != nil {
			high := mustFloat(m[1])
			buckets = append(buckets, costBucket{option: opt, low: 0, high: high, midpoint: high / 2})
			continue
		}
		if m := rangePattern.FindStringSubmatch(opt); m != nil {
			low, high := mustFloat(m[1]), mustFloat(m[2])
			buckets = append(buckets, costBucket{option: opt, low: low, high: high, midpoint: (low + high) / 2})
			continue
		}
		if m := overPattern.FindStringSubmatch(opt); m != nil {
			low := mustFloat(m[1])
			buckets = append(buckets, costBucket{option: opt, low: low, high: unbounded, midpoint: low * 1.5})
		}
	}
	return buckets
}

// normalizeCost maps free text like "$18/month" or "around $10 to $20"
// onto the cost vocabulary. Returns "" when no amount is recognizable.
func normalizeCost(raw string, options []string) string {
	lower := strings.ToLower(raw)

	freeOption := optionByExact(options, "Free")
	if freeOption != "" && (strings.Contains(lower, "free") || strings.Contains(lower, "no cost") || strings.Contains(lower, "nothing")) {
		return freeOption
	}

	amount, ok := parseAmount(raw)
	if !ok {
		return ""
	}
	if strings.Contains(lower, "year") || strings.Contains(lower, "annual") {
		amount /= 12
	}
	if amount == 0 && freeOption != "" {
		return freeOption
	}

	buckets := parseCostBuckets(options)
	if len(buckets) == 0 {
		return ""
	}

	for _, b := range buckets {
		if amount >= b.low && amount <= b.high {
			return b.option
		}
	}

	// No containing bucket; fall back to the closest midpoint.
	best := buckets[0]
	bestDist := absFloat(amount - best.midpoint)
	for _, b := range buckets[1:] {
		if d := absFloat(amount - b.midpoint); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best.option
}

// parseAmount extracts a dollar amount, averaging range midpoints.
func parseAmount(raw string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return 0, false
	}
	low := mustFloat(strings.ReplaceAll(m[1], ",", ""))
	if m[2] != "" {
		high := mustFloat(strings.ReplaceAll(m[2], ",", ""))
		return (low + high) / 2, true
	}
	return low, true
}

// weeksBucket maps a magnitude in weeks onto the time-to-results
// vocabulary.
type weeksBucket struct {
	maxWeeks float64
	option   string
}

var timeToResultsBuckets = []weeksBucket{
	{0.5, "Immediately"},
	{2, "1-2 weeks"},
	{4, "3-4 weeks"},
	{9, "1-2 months"},
	{26, "3-6 months"},
	{unbounded, "6+ months"},
}

// normalizeTimeToResults converts "saw results in about 3 weeks" style
// text into a fixed week-range option.
func normalizeTimeToResults(raw string, options []string) string {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "immediate") || strings.Contains(lower, "instant") || strings.Contains(lower, "right away") {
		return optionByExact(options, "Immediately")
	}

	weeks, ok := parseDurationWeeks(lower)
	if !ok {
		return ""
	}
	for _, b := range timeToResultsBuckets {
		if weeks <= b.maxWeeks {
			if opt := optionByExact(options, b.option); opt != "" {
				return opt
			}
			return ""
		}
	}
	return ""
}

// parseDurationWeeks extracts a magnitude+unit and converts to weeks,
// averaging stated ranges. "a week" and "a month" parse as one unit.
func parseDurationWeeks(lower string) (float64, bool) {
	magnitude, unit, ok := parseDuration(lower)
	if !ok {
		return 0, false
	}
	switch {
	case strings.HasPrefix(unit, "min"):
		return magnitude / (60 * 24 * 7), true
	case strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"):
		return magnitude / (24 * 7), true
	case strings.HasPrefix(unit, "day"):
		return magnitude / 7, true
	case strings.HasPrefix(unit, "week"), strings.HasPrefix(unit, "wk"):
		return magnitude, true
	case strings.HasPrefix(unit, "month"):
		return magnitude * 4.345, true
	case strings.HasPrefix(unit, "year"):
		return magnitude * 52, true
	}
	return 0, false
}

// bareUnitPattern catches "a week", "a few days", "several months".
var bareUnitPattern = regexp.MustCompile(`\b(a|an|a few|several|couple of|a couple of)\s+(minutes?|hours?|days?|weeks?|months?|years?)`)

func parseDuration(lower string) (float64, string, bool) {
	if m := durationPattern.FindStringSubmatch(lower); m != nil {
		magnitude := mustFloat(m[1])
		if m[2] != "" {
			magnitude = (magnitude + mustFloat(m[2])) / 2
		}
		return magnitude, m[3], true
	}
	if m := bareUnitPattern.FindStringSubmatch(lower); m != nil {
		magnitude := 1.0
		switch m[1] {
		case "a few", "several":
			magnitude = 3
		case "couple of", "a couple of":
			magnitude = 2
		}
		return magnitude, m[2], true
	}
	return 0, "", false
}

// minutesBucket maps a magnitude in minutes onto the time-commitment
// vocabulary.
type minutesBucket struct {
	maxMinutes float64
	option     string
}

var timeCommitmentBuckets = []minutesBucket{
	{5, "Under 5 minutes"},
	{15, "5-15 minutes"},
	{30, "15-30 minutes"},
	{60, "30-60 minutes"},
	{120, "1-2 hours"},
	{unbounded, "Over 2 hours"},
}

// normalizeTimeCommitment converts "about 20 minutes" or "1-2 hours a
// day" into a commitment bucket. "ongoing"-style phrasing maps to the
// variable literal.
func normalizeTimeCommitment(raw string, options []string) string {
	lower := strings.ToLower(raw)
	for _, word := range []string{"ongoing", "background", "variable", "varies", "passive"} {
		if strings.Contains(lower, word) {
			return optionByExact(options, "Ongoing/Variable")
		}
	}

	magnitude, unit, ok := parseDuration(lower)
	if !ok {
		return ""
	}
	var minutes float64
	switch {
	case strings.HasPrefix(unit, "min"):
		minutes = magnitude
	case strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"):
		minutes = magnitude * 60
	default:
		return ""
	}

	for _, b := range timeCommitmentBuckets {
		if minutes <= b.maxMinutes {
			return optionByExact(options, b.option)
		}
	}
	return ""
}

// frequencyLiterals maps phrase fragments directly to options, checked
// in order so more specific phrases win.
var frequencyLiterals = []struct {
	fragment string
	option   string
}{
	{"twice a day", "Twice daily"},
	{"twice daily", "Twice daily"},
	{"two times a day", "Twice daily"},
	{"2x a day", "Twice daily"},
	{"2x daily", "Twice daily"},
	{"morning and night", "Twice daily"},
	{"morning and evening", "Twice daily"},
	{"every other day", "Every other day"},
	{"every second day", "Every other day"},
	{"as needed", "As needed"},
	{"when needed", "As needed"},
	{"prn", "As needed"},
	{"varies", "Varies"},
	{"variable", "Varies"},
	{"depends", "Varies"},
	{"every day", "Daily"},
	{"everyday", "Daily"},
	{"once a day", "Daily"},
	{"daily", "Daily"},
	{"each morning", "Daily"},
	{"every morning", "Daily"},
	{"every night", "Daily"},
	{"nightly", "Daily"},
	{"once a week", "Weekly"},
	{"weekly", "Weekly"},
	{"once a month", "Weekly"},
	{"monthly", "Weekly"},
}

// normalizeFrequency maps phrasing like "3 times per week" or "twice a
// day" onto the qualitative frequency buckets.
func normalizeFrequency(raw string, options []string) string {
	lower := strings.ToLower(raw)

	for _, lit := range frequencyLiterals {
		if strings.Contains(lower, lit.fragment) {
			if opt := optionByExact(options, lit.option); opt != "" {
				return opt
			}
		}
	}

	m := perPeriodPattern.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	count := mustFloat(m[1])
	if m[2] != "" {
		count = (count + mustFloat(m[2])) / 2
	}

	var perWeek float64
	switch m[3] {
	case "day":
		perWeek = count * 7
	case "week":
		perWeek = count
	case "month":
		perWeek = count / 4.345
	}

	// Twice-a-day phrasing expressed numerically.
	if m[3] == "day" && count >= 2 {
		if opt := optionByExact(options, "Twice daily"); opt != "" {
			return opt
		}
	}

	switch {
	case perWeek <= 1:
		return optionByExact(options, "Weekly")
	case perWeek <= 3:
		return optionByExact(options, "Few times a week")
	case perWeek <= 5:
		return optionByExact(options, "Several times a week")
	default:
		return optionByExact(options, "Daily")
	}
}

// optionByExact returns the vocabulary entry equal to want
// case-insensitively, preserving the vocabulary's casing.
func optionByExact(options []string, want string) string {
	for _, opt := range options {
		if strings.EqualFold(opt, want) {
			return opt
		}
	}
	return ""
}

func mustFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
