package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VariantSpec describes one dosage-style sub-variant of a solution
// (e.g. "200 mg capsule"). Categories that do not carry variants use a
// single implicit "Standard" variant.
type VariantSpec struct {
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
	Form   string `json:"form,omitempty"`
}

// Label renders the variant for display and identity purposes.
func (v VariantSpec) Label() string {
	parts := make([]string, 0, 3)
	if v.Amount != "" {
		parts = append(parts, v.Amount)
	}
	if v.Unit != "" {
		parts = append(parts, v.Unit)
	}
	if v.Form != "" {
		parts = append(parts, v.Form)
	}
	if len(parts) == 0 {
		return "Standard"
	}
	return strings.Join(parts, " ")
}

// SolutionCandidate is one machine-generated solution proposal for a
// goal. Fields hold raw free text until the normalizer runs; the title
// is raw until the resolver rewrites it. Never mutated after persistence.
type SolutionCandidate struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Effectiveness float64             `json:"effectiveness"`
	Rationale     string              `json:"rationale"`
	Fields        map[string]string   `json:"fields"`
	ArrayFields   map[string][]string `json:"array_fields,omitempty"`
	Variants      []VariantSpec       `json:"variants,omitempty"`
}

// Validate checks structural requirements before the candidate enters
// the pipeline. Category membership is checked against the taxonomy by
// the caller; this only covers what the candidate itself must carry.
func (c *SolutionCandidate) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("candidate missing title")
	}
	if strings.TrimSpace(c.Category) == "" {
		return fmt.Errorf("candidate %q missing category", c.Title)
	}
	if c.Effectiveness < 3.0 || c.Effectiveness > 5.0 {
		return fmt.Errorf("candidate %q effectiveness %.2f outside [3.0, 5.0]", c.Title, c.Effectiveness)
	}
	return nil
}

// CanonicalSolution is the persisted identity of one distinct
// real-world solution. Created once; later candidates reuse it through
// the entity resolver.
type CanonicalSolution struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SolutionVariant is a persisted variant row under a canonical solution.
type SolutionVariant struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SolutionID uuid.UUID `db:"solution_id" json:"solution_id"`
	Amount     string    `db:"amount" json:"amount"`
	Unit       string    `db:"unit" json:"unit"`
	Form       string    `db:"form" json:"form"`
}
