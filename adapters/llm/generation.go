package llm

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// GenerationClient wraps a raw LLM client with request pacing and a
// persisted daily quota. The quota counter is date-keyed and shared
// through the store, so it survives restarts, resets on date rollover,
// and stays correct when multiple workers share it.
type GenerationClient struct {
	client ports.LLMClient
	quota  ports.QuotaRepository
	model  string

	maxTokens     int
	requestsPerMn int
	dailyLimit    int
	retryCooldown time.Duration

	mu       sync.Mutex
	ticketAt time.Time

	// test seams
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewGenerationClient builds the pacing wrapper.
func NewGenerationClient(client ports.LLMClient, quota ports.QuotaRepository, model string, maxTokens, requestsPerMinute, dailyLimit int, retryCooldown time.Duration) *GenerationClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 20
	}
	if dailyLimit <= 0 {
		dailyLimit = 1500
	}
	return &GenerationClient{
		client:        client,
		quota:         quota,
		model:         model,
		maxTokens:     maxTokens,
		requestsPerMn: requestsPerMinute,
		dailyLimit:    dailyLimit,
		retryCooldown: retryCooldown,
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

// GenerateText issues one paced, quota-checked request. A rate-limit
// response from the service gets one retry after the cooldown. Quota
// exhaustion is a hard stop for the run.
func (g *GenerationClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := g.consumeQuota(ctx); err != nil {
		return "", err
	}
	if err := g.pace(ctx); err != nil {
		return "", err
	}

	text, err := g.client.ChatCompletion(ctx, g.model, prompt, g.maxTokens)
	if err == nil {
		return text, nil
	}

	if _, limited := err.(*ErrRateLimited); limited {
		log.Printf("[GenerationClient] rate limited by service, retrying once after %v", g.retryCooldown)
		if sleepErr := g.sleep(ctx, g.retryCooldown); sleepErr != nil {
			return "", errors.TransportError("generation", sleepErr)
		}
		text, err = g.client.ChatCompletion(ctx, g.model, prompt, g.maxTokens)
		if err == nil {
			return text, nil
		}
	}
	return "", errors.TransportError("generation", err)
}

// consumeQuota atomically increments today's counter and rejects once
// the daily limit is exhausted. A fresh date starts at zero
// implicitly: the store has no row for it yet.
func (g *GenerationClient) consumeQuota(ctx context.Context) error {
	today := g.now().UTC().Format("2006-01-02")
	count, err := g.quota.Increment(ctx, today)
	if err != nil {
		return errors.TransportError("quota store", err)
	}
	if count > g.dailyLimit {
		return errors.QuotaExhausted("daily request limit reached (" + today + ")")
	}
	if count == g.dailyLimit {
		log.Printf("[GenerationClient] daily quota fully consumed (%d requests)", count)
	}
	return nil
}

// pace enforces the per-minute cap by spacing tickets one interval
// apart.
func (g *GenerationClient) pace(ctx context.Context) error {
	interval := time.Minute / time.Duration(g.requestsPerMn)

	g.mu.Lock()
	now := g.now()
	next := g.ticketAt
	if next.Before(now) {
		next = now
	}
	g.ticketAt = next.Add(interval)
	g.mu.Unlock()

	if wait := next.Sub(now); wait > 0 {
		return g.sleep(ctx, wait)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
