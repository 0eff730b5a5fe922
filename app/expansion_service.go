// Package app wires the curation pipeline together: claim a batch of
// under-served solutions, generate candidate goal associations,
// normalize their fields, resolve titles to canonical solutions, gate
// the pairings, persist the survivors, and report the outcome back to
// the work tracker.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/internal/gate"
	"github.com/jandy1990/wwfm-platform-sub002/internal/resolve"
	"github.com/jandy1990/wwfm-platform-sub002/internal/taxonomy"
	"github.com/jandy1990/wwfm-platform-sub002/internal/tracker"
	"github.com/jandy1990/wwfm-platform-sub002/internal/vocab"
	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// Options tunes one expansion run.
type Options struct {
	BatchSize    int
	PriorityTier string
}

// ExpansionService runs the curation pipeline for one category.
type ExpansionService struct {
	generator   ports.AssociationGenerator
	normalizer  *vocab.Normalizer
	resolver    *resolve.Resolver
	gate        *gate.Gate
	tracker     *tracker.Tracker
	solutions   ports.SolutionRepository
	connections ports.ConnectionRepository
	goals       ports.GoalRepository
	progress    ports.ProgressRepository
	opts        Options
}

// NewExpansionService assembles the pipeline. Dry runs are a property
// of the repositories, not the service: hand in the dry-run wrappers
// (see DryRunSolutionRepository) and nothing is persisted.
func NewExpansionService(
	generator ports.AssociationGenerator,
	normalizer *vocab.Normalizer,
	resolver *resolve.Resolver,
	g *gate.Gate,
	tr *tracker.Tracker,
	solutions ports.SolutionRepository,
	connections ports.ConnectionRepository,
	goals ports.GoalRepository,
	progress ports.ProgressRepository,
	opts Options,
) *ExpansionService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	return &ExpansionService{
		generator:   generator,
		normalizer:  normalizer,
		resolver:    resolver,
		gate:        g,
		tracker:     tr,
		solutions:   solutions,
		connections: connections,
		goals:       goals,
		progress:    progress,
		opts:        opts,
	}
}

// Run processes batches until the tracker says stop or the daily quota
// runs out. Per-unit errors never abort the run; quota exhaustion ends
// it cleanly with progress reported so far.
func (s *ExpansionService) Run(ctx context.Context, category string) (*models.RunSummary, error) {
	if _, ok := taxonomy.Schema(category); !ok {
		return nil, errors.SchemaError("unknown category " + category)
	}

	summary := models.NewRunSummary(category)
	defer func() { summary.FinishedAt = time.Now().UTC() }()

	goals, err := s.goals.ListByCategory(ctx, category)
	if err != nil {
		return summary, errors.Wrap(err, "listing goals")
	}
	if len(goals) == 0 {
		summary.StopReason = "no goals available for category"
		return summary, nil
	}

	for {
		cont, reason, err := s.tracker.ShouldContinue(ctx, category)
		if err != nil {
			return summary, err
		}
		if !cont {
			summary.StopReason = reason
			break
		}
		log.Printf("[ExpansionService] continuing %s: %s", category, reason)

		units, err := s.tracker.ClaimBatch(ctx, category, s.opts.PriorityTier, s.opts.BatchSize)
		if err != nil {
			return summary, err
		}
		if len(units) == 0 {
			summary.StopReason = "no claimable work in any tier"
			break
		}

		quotaExhausted := false
		for i, unit := range units {
			outcome := s.processUnit(ctx, unit, goals, summary)
			if outcome.Err != nil && errors.IsCode(outcome.Err, errors.CodeQuotaExhausted) {
				quotaExhausted = true
			}
			summary.UnitsProcessed++
			if err := s.tracker.ReleaseResult(ctx, unit, outcome); err != nil {
				log.Printf("[ExpansionService] failed to release unit %s: %v", unit.ID, err)
			}
			if quotaExhausted {
				// The rest of the batch was claimed but never reached;
				// hand it straight back instead of waiting out the lease.
				for _, rest := range units[i+1:] {
					if err := s.tracker.ReleaseUnprocessed(ctx, rest); err != nil {
						log.Printf("[ExpansionService] failed to release unprocessed unit %s: %v", rest.ID, err)
					}
				}
				break
			}
		}
		if quotaExhausted {
			summary.StopReason = "daily generation quota exhausted"
			break
		}
	}

	log.Printf("[ExpansionService] run finished for %s: %d units, %d created, %d updated, %d skipped, %d rejected (%s)",
		category, summary.UnitsProcessed, summary.Created, summary.Updated, summary.Skipped,
		summary.TotalRejected(), summary.StopReason)
	return summary, nil
}

// processUnit expands one solution. Every error here is caught and
// reported through the outcome; only the outcome decides the unit's
// next state.
func (s *ExpansionService) processUnit(ctx context.Context, unit models.ExpansionProgress, goals []models.Goal, summary *models.RunSummary) models.BatchOutcome {
	var outcome models.BatchOutcome

	associations, err := s.generator.GenerateAssociations(ctx, unit.SolutionTitle, unit.Category, goals)
	if err != nil {
		outcome.Err = errors.Wrapf(err, "generating associations for %q", unit.SolutionTitle)
		return outcome
	}
	if len(associations) == 0 {
		return outcome
	}

	goalsByID := make(map[uuid.UUID]models.Goal, len(goals))
	for _, g := range goals {
		goalsByID[g.ID] = g
	}

	type prepared struct {
		assoc      ports.GeneratedAssociation
		resolution *resolve.Resolution
		fields     map[string]string
		arrays     map[string][]string
	}

	var pairings []gate.Pairing
	var ready []prepared
	for _, assoc := range associations {
		outcome.AttemptedConnections++

		fields, arrays, err := s.normalizeCandidate(assoc.Candidate)
		if err != nil {
			if errors.IsCode(err, errors.CodeInvariantViolation) {
				outcome.Err = err
				return outcome
			}
			log.Printf("[ExpansionService] dropping candidate %q for %q: %v",
				assoc.Candidate.Title, unit.SolutionTitle, err)
			summary.Skipped++
			continue
		}

		resolution, err := s.resolver.Resolve(ctx, unit.Category, assoc.Candidate.Title, assoc.Candidate.Variants)
		if err != nil {
			log.Printf("[ExpansionService] failed to resolve %q: %v", assoc.Candidate.Title, err)
			summary.Skipped++
			continue
		}
		if resolution.IsNew {
			if err := s.progress.EnsureProgress(ctx, resolution.SolutionID, resolution.CanonicalTitle, unit.Category); err != nil {
				log.Printf("[ExpansionService] failed to track new solution %q: %v", resolution.CanonicalTitle, err)
			}
		}

		candidate := assoc.Candidate
		candidate.Title = resolution.CanonicalTitle
		pairings = append(pairings, gate.Pairing{Candidate: candidate, Goal: goalsByID[assoc.GoalID]})
		ready = append(ready, prepared{assoc: assoc, resolution: resolution, fields: fields, arrays: arrays})
	}

	results, err := s.gate.EvaluateBatch(ctx, pairings)
	if err != nil {
		outcome.Err = errors.Wrap(err, "evaluating pairings")
		return outcome
	}

	var accepted []float64
	for i, result := range results {
		p := ready[i]
		if result.Rejected() {
			summary.Rejected[result.RejectedAtStage]++
			continue
		}

		effect := result.ProjectedEffect
		if effect == 0 {
			effect = p.assoc.Candidate.Effectiveness
		}
		if err := s.persist(ctx, p.assoc, p.resolution, p.fields, p.arrays, effect, summary); err != nil {
			log.Printf("[ExpansionService] failed to persist %q -> %q: %v",
				p.resolution.CanonicalTitle, goalsByID[p.assoc.GoalID].Title, err)
			summary.Skipped++
			continue
		}
		outcome.SuccessfulConnections++
		accepted = append(accepted, effect)
	}

	if len(accepted) > 0 {
		if mean, err := stats.Mean(accepted); err == nil {
			outcome.AvgEffectiveness = mean
		}
	}
	return outcome
}

// normalizeCandidate maps every raw field value onto the controlled
// vocabulary and verifies the result matches the category schema
// exactly: missing required fields drop the candidate, a post-
// normalization mismatch is an invariant violation.
func (s *ExpansionService) normalizeCandidate(candidate models.SolutionCandidate) (map[string]string, map[string][]string, error) {
	schema, ok := taxonomy.Schema(candidate.Category)
	if !ok {
		return nil, nil, errors.SchemaError("unknown category " + candidate.Category)
	}

	fields := make(map[string]string, len(schema.RequiredFields))
	for _, field := range schema.RequiredFields {
		raw, present := candidate.Fields[field]
		if !present || raw == "" {
			return nil, nil, errors.SchemaError(fmt.Sprintf("candidate %q missing required field %s", candidate.Title, field))
		}
		approved, err := s.normalizer.Normalize(candidate.Category, field, raw)
		if err != nil {
			return nil, nil, err
		}
		fields[field] = approved
	}

	arrays := map[string][]string{}
	if schema.ArrayField != "" {
		raws := candidate.ArrayFields[schema.ArrayField]
		if len(raws) > 0 {
			normalized, err := s.normalizer.NormalizeArray(candidate.Category, schema.ArrayField, raws)
			if err != nil {
				return nil, nil, err
			}
			arrays[schema.ArrayField] = normalized
		}
	}

	if len(fields) != len(schema.RequiredFields) {
		return nil, nil, errors.InvariantViolation(fmt.Sprintf(
			"candidate %q has %d normalized fields, schema requires %d",
			candidate.Title, len(fields), len(schema.RequiredFields)))
	}
	return fields, arrays, nil
}

// persist writes one accepted association: find-or-create the variant,
// then insert the link or update it only when the fields actually
// changed.
func (s *ExpansionService) persist(ctx context.Context, assoc ports.GeneratedAssociation, resolution *resolve.Resolution, fields map[string]string, arrays map[string][]string, effectiveness float64, summary *models.RunSummary) error {
	variant := models.VariantSpec{}
	if len(assoc.Candidate.Variants) > 0 {
		variant = assoc.Candidate.Variants[0]
	}
	variantID, err := s.solutions.EnsureVariant(ctx, resolution.SolutionID, variant)
	if err != nil {
		return err
	}

	distributions := buildDistributions(assoc.Candidate.Category, fields, arrays)
	link := &models.Connection{
		GoalID:        assoc.GoalID,
		VariantID:     variantID,
		Fields:        fields,
		Distributions: distributions,
		Effectiveness: effectiveness,
		Rationale:     assoc.Candidate.Rationale,
	}

	existing, err := s.connections.FindLink(ctx, assoc.GoalID, variantID)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := s.connections.InsertLink(ctx, link); err != nil {
			return err
		}
		summary.Created++
		return nil
	}
	if existing.FieldsEqual(fields) && existing.Effectiveness == effectiveness {
		summary.Skipped++
		return nil
	}
	link.ID = existing.ID
	if err := s.connections.UpdateLink(ctx, link); err != nil {
		return err
	}
	summary.Updated++
	return nil
}
