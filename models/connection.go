package models

import (
	"time"

	"github.com/google/uuid"
)

// DistributionValue is one entry of a field distribution.
type DistributionValue struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Source     string  `json:"source"`
}

// DistributionRecord summarizes how a field's value varies across
// reports: a mode, the value/count/percentage entries, and the total
// sample size behind them.
type DistributionRecord struct {
	Mode       string              `json:"mode"`
	Values     []DistributionValue `json:"values"`
	TotalCount int                 `json:"total_count"`
}

// Validate enforces the distribution invariants: percentages sum to
// 100 within rounding, and at least minDistinct distinct values are
// present so single-value "distributions" never persist.
func (d *DistributionRecord) Validate(minDistinct int) error {
	if minDistinct < 1 {
		minDistinct = 1
	}

	sum := 0.0
	distinct := map[string]bool{}
	for _, v := range d.Values {
		sum += v.Percentage
		distinct[v.Value] = true
	}

	if sum < 99.0 || sum > 101.0 {
		return errPercentageSum(sum)
	}
	if len(distinct) < minDistinct {
		return errTooFewValues(len(distinct), minDistinct)
	}
	return nil
}

// Connection is a persisted goal-to-solution-variant association with
// normalized field values and per-field distributions. Updates are
// conditional on a detected change; a connection is never silently
// overwritten.
type Connection struct {
	ID            uuid.UUID                     `db:"id" json:"id"`
	GoalID        uuid.UUID                     `db:"goal_id" json:"goal_id"`
	VariantID     uuid.UUID                     `db:"variant_id" json:"variant_id"`
	Fields        map[string]string             `json:"fields"`
	Distributions map[string]DistributionRecord `json:"distributions"`
	Effectiveness float64                       `db:"effectiveness" json:"effectiveness"`
	Rationale     string                        `db:"rationale" json:"rationale"`
	CreatedAt     time.Time                     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time                     `db:"updated_at" json:"updated_at"`
}

// FieldsEqual reports whether the stored connection already carries the
// same normalized field values, used to skip no-op updates.
func (c *Connection) FieldsEqual(fields map[string]string) bool {
	if len(c.Fields) != len(fields) {
		return false
	}
	for k, v := range fields {
		if c.Fields[k] != v {
			return false
		}
	}
	return true
}

// Goal is the target a connection attaches to. The pipeline only reads
// goals; the presentation layer owns their lifecycle.
type Goal struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Category string    `db:"category" json:"category"`
}
