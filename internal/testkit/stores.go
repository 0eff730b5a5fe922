// Package testkit provides in-memory adapters so the curation logic is
// testable without Postgres or network access.
package testkit

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// InMemorySolutionRepository implements ports.SolutionRepository.
type InMemorySolutionRepository struct {
	mu        sync.Mutex
	solutions []models.CanonicalSolution
	variants  map[uuid.UUID][]models.SolutionVariant
}

// NewSolutionRepository returns an empty in-memory solution store.
func NewSolutionRepository() *InMemorySolutionRepository {
	return &InMemorySolutionRepository{variants: map[uuid.UUID][]models.SolutionVariant{}}
}

// Seed inserts a solution directly, returning its id.
func (r *InMemorySolutionRepository) Seed(title, category string) uuid.UUID {
	id, _ := r.InsertSolution(context.Background(), title, category, nil)
	return id
}

func (r *InMemorySolutionRepository) FindByNormalizedTitle(_ context.Context, category, title string) (*models.CanonicalSolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := strings.ToLower(strings.TrimSpace(title))
	for _, s := range r.solutions {
		if s.Category == category && strings.ToLower(strings.TrimSpace(s.Title)) == want {
			sol := s
			return &sol, nil
		}
	}
	return nil, nil
}

func (r *InMemorySolutionRepository) SearchByTitleSubstring(_ context.Context, category, substr string) ([]models.CanonicalSolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := strings.ToLower(substr)
	var out []models.CanonicalSolution
	for _, s := range r.solutions {
		if s.Category == category && strings.Contains(strings.ToLower(s.Title), want) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *InMemorySolutionRepository) ListByCategory(_ context.Context, category string) ([]models.CanonicalSolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CanonicalSolution
	for _, s := range r.solutions {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *InMemorySolutionRepository) InsertSolution(_ context.Context, title, category string, variants []models.VariantSpec) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.solutions = append(r.solutions, models.CanonicalSolution{
		ID: id, Title: title, Category: category, CreatedAt: time.Now().UTC(),
	})
	if len(variants) == 0 {
		variants = []models.VariantSpec{{}}
	}
	for _, v := range variants {
		r.variants[id] = append(r.variants[id], models.SolutionVariant{
			ID: uuid.New(), SolutionID: id, Amount: v.Amount, Unit: v.Unit, Form: v.Form,
		})
	}
	return id, nil
}

func (r *InMemorySolutionRepository) EnsureVariant(_ context.Context, solutionID uuid.UUID, spec models.VariantSpec) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.variants[solutionID] {
		if v.Amount == spec.Amount && v.Unit == spec.Unit && v.Form == spec.Form {
			return v.ID, nil
		}
	}
	v := models.SolutionVariant{ID: uuid.New(), SolutionID: solutionID, Amount: spec.Amount, Unit: spec.Unit, Form: spec.Form}
	r.variants[solutionID] = append(r.variants[solutionID], v)
	return v.ID, nil
}

// InMemoryConnectionRepository implements ports.ConnectionRepository.
type InMemoryConnectionRepository struct {
	mu    sync.Mutex
	links []*models.Connection

	Inserts int
	Updates int
}

// NewConnectionRepository returns an empty in-memory link store.
func NewConnectionRepository() *InMemoryConnectionRepository {
	return &InMemoryConnectionRepository{}
}

func (r *InMemoryConnectionRepository) FindLink(_ context.Context, goalID, variantID uuid.UUID) (*models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.GoalID == goalID && l.VariantID == variantID {
			link := *l
			return &link, nil
		}
	}
	return nil, nil
}

func (r *InMemoryConnectionRepository) InsertLink(_ context.Context, link *models.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	stored := *link
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.links = append(r.links, &stored)
	r.Inserts++
	return nil
}

func (r *InMemoryConnectionRepository) UpdateLink(_ context.Context, link *models.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.ID == link.ID {
			l.Fields = link.Fields
			l.Distributions = link.Distributions
			l.Effectiveness = link.Effectiveness
			l.Rationale = link.Rationale
			l.UpdatedAt = time.Now().UTC()
			r.Updates++
			return nil
		}
	}
	return nil
}

// Links returns a snapshot of stored links.
func (r *InMemoryConnectionRepository) Links() []models.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Connection, len(r.links))
	for i, l := range r.links {
		out[i] = *l
	}
	return out
}

// StaticGoalRepository serves a fixed goal list.
type StaticGoalRepository struct {
	Goals []models.Goal
}

func (r *StaticGoalRepository) ListByCategory(_ context.Context, category string) ([]models.Goal, error) {
	var out []models.Goal
	for _, g := range r.Goals {
		if g.Category == category || g.Category == "" {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// InMemoryQuotaRepository implements ports.QuotaRepository.
type InMemoryQuotaRepository struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewQuotaRepository returns an empty quota counter.
func NewQuotaRepository() *InMemoryQuotaRepository {
	return &InMemoryQuotaRepository{counts: map[string]int{}}
}

func (r *InMemoryQuotaRepository) Usage(_ context.Context, date string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[date], nil
}

func (r *InMemoryQuotaRepository) Increment(_ context.Context, date string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[date]++
	return r.counts[date], nil
}

var _ ports.SolutionRepository = (*InMemorySolutionRepository)(nil)
var _ ports.ConnectionRepository = (*InMemoryConnectionRepository)(nil)
var _ ports.GoalRepository = (*StaticGoalRepository)(nil)
var _ ports.QuotaRepository = (*InMemoryQuotaRepository)(nil)
