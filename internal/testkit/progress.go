package testkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// InMemoryProgressRepository implements ports.ProgressRepository with
// the same claim semantics the Postgres adapter gets from row locking:
// the whole claim is one critical section, so concurrent callers never
// receive overlapping unit sets.
type InMemoryProgressRepository struct {
	mu    sync.Mutex
	units map[uuid.UUID]*models.ExpansionProgress
}

// NewProgressRepository returns an empty progress store.
func NewProgressRepository() *InMemoryProgressRepository {
	return &InMemoryProgressRepository{units: map[uuid.UUID]*models.ExpansionProgress{}}
}

// SeedUnit creates one progress row directly and returns its id.
func (r *InMemoryProgressRepository) SeedUnit(title, category string, connectionCount int) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.units[id] = &models.ExpansionProgress{
		ID:              id,
		SolutionID:      uuid.New(),
		SolutionTitle:   title,
		Category:        category,
		ConnectionCount: connectionCount,
		Status:          models.StatusPending,
		UpdatedAt:       time.Now().UTC(),
	}
	return id
}

// Unit returns a copy of one row.
func (r *InMemoryProgressRepository) Unit(id uuid.UUID) (models.ExpansionProgress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return models.ExpansionProgress{}, false
	}
	return *u, true
}

func matchesTier(u *models.ExpansionProgress, tier string) bool {
	switch tier {
	case models.TierZero:
		return u.ConnectionCount == 0
	case models.TierSingle:
		return u.ConnectionCount == 1
	case models.TierDouble:
		return u.ConnectionCount == 2
	case "":
		return u.ConnectionCount <= 2
	default:
		return false
	}
}

func (r *InMemoryProgressRepository) ClaimBatch(_ context.Context, filter ports.ProgressFilter, size int, ownerID uuid.UUID) ([]models.ExpansionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []*models.ExpansionProgress
	for _, u := range r.units {
		if u.Category != filter.Category || !matchesTier(u, filter.Tier) {
			continue
		}
		claimable := u.Status == models.StatusPending
		if !claimable && !filter.StaleBefore.IsZero() &&
			u.Status == models.StatusInProgress && u.ClaimedAt != nil && u.ClaimedAt.Before(filter.StaleBefore) {
			claimable = true
		}
		if claimable {
			candidates = append(candidates, u)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ConnectionCount != candidates[j].ConnectionCount {
			return candidates[i].ConnectionCount < candidates[j].ConnectionCount
		}
		return candidates[i].AttemptsCount < candidates[j].AttemptsCount
	})
	if len(candidates) > size {
		candidates = candidates[:size]
	}

	now := time.Now().UTC()
	claimed := make([]models.ExpansionProgress, 0, len(candidates))
	for _, u := range candidates {
		u.Status = models.StatusInProgress
		owner := ownerID
		u.ClaimedBy = &owner
		at := now
		u.ClaimedAt = &at
		u.UpdatedAt = now
		claimed = append(claimed, *u)
	}
	return claimed, nil
}

func (r *InMemoryProgressRepository) UpdateProgress(_ context.Context, id uuid.UUID, update ports.ProgressUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return nil
	}
	u.ConnectionCount = update.ConnectionCount
	u.AttemptsCount = update.AttemptsCount
	u.RejectionRate = update.RejectionRate
	u.AvgEffectiveness = update.AvgEffectiveness
	u.Status = update.Status
	u.LastError = update.LastError
	u.ClaimedBy = nil
	u.ClaimedAt = nil
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryProgressRepository) EnsureProgress(_ context.Context, solutionID uuid.UUID, title, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		if u.SolutionID == solutionID && u.Category == category {
			return nil
		}
	}
	id := uuid.New()
	r.units[id] = &models.ExpansionProgress{
		ID:            id,
		SolutionID:    solutionID,
		SolutionTitle: title,
		Category:      category,
		Status:        models.StatusPending,
		UpdatedAt:     time.Now().UTC(),
	}
	return nil
}

func (r *InMemoryProgressRepository) CategoryStats(_ context.Context, category string) (ports.ProgressStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats ports.ProgressStats
	for _, u := range r.units {
		if u.Category != category {
			continue
		}
		stats.Total++
		if u.ConnectionCount > 0 {
			stats.WithConnections++
		}
		if u.Status == models.StatusPending {
			stats.Pending++
		}
	}
	return stats, nil
}

var _ ports.ProgressRepository = (*InMemoryProgressRepository)(nil)
