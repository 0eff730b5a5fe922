package vocab

import (
	"strings"
	"testing"

	"github.com/jandy1990/wwfm-platform-sub002/internal/taxonomy"
)

func TestNormalize_Cost(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"exact option passes through", "Under $10/month", "Under $10/month"},
		{"case insensitive exact", "under $10/month", "Under $10/month"},
		{"free text", "free", "Free"},
		{"no cost phrasing", "no cost", "Free"},
		{"dollar amount inside bucket", "$18/month", "$10-25/month"},
		{"amount without period", "$30", "$25-50/month"},
		{"range maps by midpoint", "$15-20 per month", "$10-25/month"},
		{"over phrasing", "over $120 a month", "Over $100/month"},
		{"boundary lands in first containing bucket", "$10/month", "Under $10/month"},
		{"yearly amount converts to monthly", "$120/year", "Under $10/month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize("supplements", "cost", tt.raw)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_TimeToResults(t *testing.T) {
	n := New()

	tests := []struct {
		raw  string
		want string
	}{
		{"immediately", "Immediately"},
		{"right away", "Immediately"},
		{"10 days", "1-2 weeks"},
		{"about 3 weeks", "3-4 weeks"},
		{"6 weeks", "1-2 months"},
		{"4 months", "3-6 months"},
		{"after a year", "6+ months"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := n.Normalize("supplements", "time_to_results", tt.raw)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Frequency(t *testing.T) {
	n := New()

	tests := []struct {
		raw  string
		want string
	}{
		{"every day", "Daily"},
		{"twice a day", "Twice daily"},
		{"3x per week", "Few times a week"},
		{"once a week", "Weekly"},
		{"5 times per week", "Several times a week"},
		{"when needed", "As needed"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := n.Normalize("supplements", "frequency", tt.raw)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_TriState(t *testing.T) {
	n := New()

	tests := []struct {
		raw  string
		want string
	}{
		{"yes", "Yes"},
		{"still taking it daily", "Yes"},
		{"no longer taking", "No"},
		{"stopped after a month", "No"},
		{"on and off", "Sometimes"},
		{"occasionally", "Sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := n.Normalize("supplements", "still_taking", tt.raw)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_UnknownFieldOrCategory(t *testing.T) {
	n := New()

	if _, err := n.Normalize("supplements", "no_such_field", "anything"); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := n.Normalize("no_such_category", "cost", "free"); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := n.Normalize("supplements", "cost", "   "); err == nil {
		t.Error("expected error for empty value on constrained field")
	}
}

func TestNormalize_UnconstrainedPassthrough(t *testing.T) {
	n := New()

	got, err := n.Normalize("apps_software", "platform", "  iOS   and Android ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "iOS and Android" {
		t.Errorf("got %q, want whitespace-collapsed passthrough", got)
	}
}

// Every normalized value for a constrained field must be a member of
// that field's vocabulary, whatever the input.
func TestNormalize_OutputAlwaysInVocabulary(t *testing.T) {
	n := New()

	inputs := []string{
		"free", "$7", "$18/month", "$45 monthly", "over $200", "cheapish",
		"a few weeks", "3 days", "2 months", "never", "instantly",
		"daily", "twice a day", "whenever", "4x/week", "rarely",
		"yes", "no", "sometimes", "kind of", "weird input 123",
	}
	fields := []string{"cost", "time_to_results", "frequency", "still_taking"}

	for _, field := range fields {
		vocabOptions, ok := taxonomy.Vocabulary("supplements", field)
		if !ok || vocabOptions == nil {
			t.Fatalf("expected constrained vocabulary for %s", field)
		}
		allowed := make(map[string]bool, len(vocabOptions))
		for _, opt := range vocabOptions {
			allowed[opt] = true
		}

		for _, raw := range inputs {
			got, err := n.Normalize("supplements", field, raw)
			if err != nil {
				t.Fatalf("Normalize(%s, %q) returned error: %v", field, raw, err)
			}
			if !allowed[got] {
				t.Errorf("Normalize(%s, %q) = %q, not in vocabulary", field, raw, got)
			}
		}
	}
}

// Running a value through normalization twice must not change it.
func TestNormalize_Idempotent(t *testing.T) {
	n := New()

	inputs := []string{"$18/month", "free", "3 weeks", "twice a day", "no longer taking"}
	fields := []string{"cost", "cost", "time_to_results", "frequency", "still_taking"}

	for i, raw := range inputs {
		first, err := n.Normalize("supplements", fields[i], raw)
		if err != nil {
			t.Fatalf("first pass failed for %q: %v", raw, err)
		}
		second, err := n.Normalize("supplements", fields[i], first)
		if err != nil {
			t.Fatalf("second pass failed for %q: %v", first, err)
		}
		if first != second {
			t.Errorf("not idempotent for %q: %q then %q", raw, first, second)
		}
	}
}

func TestNormalizeArray_DedupesCaseInsensitively(t *testing.T) {
	n := New()

	got, err := n.NormalizeArray("supplements", "side_effects", []string{
		"nausea", "Nausea", "mild headache", "headache", "none",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, v := range got {
		key := strings.ToLower(v)
		if seen[key] {
			t.Errorf("duplicate value %q in %v", v, got)
		}
		seen[key] = true
	}
	if !seen["nausea"] || !seen["headache"] {
		t.Errorf("expected Nausea and Headache in %v", got)
	}
}

func TestNormalize_RoutineTime(t *testing.T) {
	n := New()

	tests := []struct {
		raw  string
		want string
	}{
		{"in the morning", "Morning (AM)"},
		{"before bed", "Evening (PM)"},
		{"evening routine", "Evening (PM)"},
		{"morning and night", "Both AM and PM"},
		{"am", "Morning (AM)"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := n.Normalize("skincare_beauty", "routine_time", tt.raw)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
