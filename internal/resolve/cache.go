package resolve

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

type cacheEntry struct {
	ID        uuid.UUID
	Title     string
	Key       string
	Signature string
	Tokens    []string
}

// TitleCache holds the known solution titles per category for one run.
// Read-mostly; the resolver appends immediately after creating a new
// canonical solution so later candidates in the same run see it.
// Constructed per run and injected, never ambient.
type TitleCache struct {
	mu      sync.RWMutex
	entries map[string][]cacheEntry
	byKey   map[string]uuid.UUID
	bySig   map[string]uuid.UUID
	warmed  map[string]bool
}

// NewTitleCache returns an empty cache.
func NewTitleCache() *TitleCache {
	return &TitleCache{
		entries: map[string][]cacheEntry{},
		byKey:   map[string]uuid.UUID{},
		bySig:   map[string]uuid.UUID{},
		warmed:  map[string]bool{},
	}
}

// Warm loads every existing title for the category from the store.
// Idempotent per category.
func (c *TitleCache) Warm(ctx context.Context, repo ports.SolutionRepository, category string) error {
	c.mu.RLock()
	done := c.warmed[category]
	c.mu.RUnlock()
	if done {
		return nil
	}

	solutions, err := repo.ListByCategory(ctx, category)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sol := range solutions {
		c.addLocked(category, sol.ID, sol.Title)
	}
	c.warmed[category] = true
	return nil
}

// Add registers one solution title under a category.
func (c *TitleCache) Add(category string, id uuid.UUID, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(category, id, title)
}

func (c *TitleCache) addLocked(category string, id uuid.UUID, title string) {
	key := NormalizeTitleKey(title)
	sig := Signature(title)
	c.entries[category] = append(c.entries[category], cacheEntry{
		ID:        id,
		Title:     title,
		Key:       key,
		Signature: sig,
		Tokens:    Tokenize(title),
	})
	if _, exists := c.byKey[category+"\x00"+key]; !exists {
		c.byKey[category+"\x00"+key] = id
	}
	if _, exists := c.bySig[category+"\x00"+sig]; !exists {
		c.bySig[category+"\x00"+sig] = id
	}
}

// ByKey looks up a solution by normalized title string.
func (c *TitleCache) ByKey(category, key string) (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byKey[category+"\x00"+key]
	return id, ok
}

// BySignature looks up a solution by canonical signature.
func (c *TitleCache) BySignature(category, sig string) (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.bySig[category+"\x00"+sig]
	return id, ok
}

// Entries returns a snapshot of the category's entries for fuzzy
// scoring.
func (c *TitleCache) Entries(category string) []cacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]cacheEntry, len(c.entries[category]))
	copy(snapshot, c.entries[category])
	return snapshot
}

// Title returns the cached title text for an id, if present.
func (c *TitleCache) Title(category string, id uuid.UUID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries[category] {
		if e.ID == id {
			return e.Title, true
		}
	}
	return "", false
}

// NormalizeTitleKey collapses whitespace, lowercases, and strips a
// leading article so "The Wim Hof Method" and "Wim Hof method" share a
// key.
func NormalizeTitleKey(title string) string {
	key := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(key, article) {
			key = key[len(article):]
			break
		}
	}
	return key
}
