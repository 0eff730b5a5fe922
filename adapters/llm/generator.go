package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jandy1990/wwfm-platform-sub002/internal/taxonomy"
	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// AssociationGenerator implements ports.AssociationGenerator: it asks
// the generation service which of a category's goals a solution
// plausibly helps, with free-text field values the normalizer maps
// onto the vocabulary afterwards.
type AssociationGenerator struct {
	gen   *GenerationClient
	tries int
}

// NewAssociationGenerator builds the generator.
func NewAssociationGenerator(gen *GenerationClient, correctiveTries int) *AssociationGenerator {
	return &AssociationGenerator{gen: gen, tries: correctiveTries}
}

type generatedAssociation struct {
	GoalIndex     int                  `json:"goal_index"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Effectiveness float64              `json:"effectiveness"`
	Rationale     string               `json:"rationale"`
	Fields        map[string]string    `json:"fields"`
	ArrayValues   []string             `json:"array_values,omitempty"`
	Variants      []models.VariantSpec `json:"variants,omitempty"`
}

// GenerateAssociations returns candidate pairings for the solution.
// Structurally invalid entries (bad goal index, failed candidate
// validation) are dropped with a log line; they never abort the batch.
func (a *AssociationGenerator) GenerateAssociations(ctx context.Context, solutionTitle, category string, goals []models.Goal) ([]ports.GeneratedAssociation, error) {
	if len(goals) == 0 {
		return nil, nil
	}

	var raw []generatedAssociation
	if err := structuredCall(ctx, a.gen, a.buildPrompt(solutionTitle, category, goals), a.tries, &raw); err != nil {
		return nil, err
	}

	out := make([]ports.GeneratedAssociation, 0, len(raw))
	for _, r := range raw {
		if r.GoalIndex < 1 || r.GoalIndex > len(goals) {
			log.Printf("[Generator] dropping association with out-of-range goal index %d", r.GoalIndex)
			continue
		}
		candidate := models.SolutionCandidate{
			Title:         strings.TrimSpace(r.Title),
			Description:   strings.TrimSpace(r.Description),
			Category:      category,
			Effectiveness: r.Effectiveness,
			Rationale:     strings.TrimSpace(r.Rationale),
			Fields:        r.Fields,
			Variants:      r.Variants,
		}
		if candidate.Title == "" {
			candidate.Title = solutionTitle
		}
		if schema, ok := taxonomy.Schema(category); ok && schema.ArrayField != "" && len(r.ArrayValues) > 0 {
			candidate.ArrayFields = map[string][]string{schema.ArrayField: r.ArrayValues}
		}
		if err := candidate.Validate(); err != nil {
			log.Printf("[Generator] dropping invalid candidate: %v", err)
			continue
		}
		out = append(out, ports.GeneratedAssociation{
			GoalID:    goals[r.GoalIndex-1].ID,
			Candidate: candidate,
		})
	}
	return out, nil
}

func (a *AssociationGenerator) buildPrompt(solutionTitle, category string, goals []models.Goal) string {
	schema, _ := taxonomy.Schema(category)

	var b strings.Builder
	fmt.Fprintf(&b, "The solution %q belongs to the category %q.\n", solutionTitle, category)
	b.WriteString("From the numbered goals below, pick the ones this solution genuinely helps with. Goals:\n")
	for i, g := range goals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.Title)
	}

	b.WriteString("\nFor each picked goal emit one JSON object with: goal_index (number above), ")
	b.WriteString("title (the solution name as users know it), description (one sentence), ")
	b.WriteString("effectiveness (3.0-5.0), rationale, and fields: {")
	for i, f := range schema.RequiredFields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(`"` + f + `": "..."`)
	}
	b.WriteString("} with everyday free-text values.")
	if schema.ArrayField != "" {
		fmt.Fprintf(&b, ` Also include "array_values": a list of %s users report.`, strings.ReplaceAll(schema.ArrayField, "_", " "))
	}
	if schema.NeedsVariants {
		b.WriteString(` Also include "variants": [{"amount":"","unit":"","form":""}] for common dosages.`)
	}
	b.WriteString("\n\nReply with ONLY a JSON array of these objects.")
	return b.String()
}
