package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/internal/testkit"
)

// fakeClock drives the pacing logic without real sleeping.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

func newTestClient(mock *MockLLMClient, dailyLimit int) (*GenerationClient, *fakeClock) {
	quota := testkit.NewQuotaRepository()
	gen := NewGenerationClient(mock, quota, "test-model", 1000, 60, dailyLimit, time.Millisecond)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	gen.now = clock.Now
	gen.sleep = clock.Sleep
	return gen, clock
}

func TestGenerateText_PacesRequests(t *testing.T) {
	mock := &MockLLMClient{Responses: []string{"ok"}}
	gen, clock := newTestClient(mock, 100)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := gen.GenerateText(ctx, "prompt"); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	// 60 requests per minute means one second between tickets; the
	// first request goes straight through.
	if clock.sleeps != 2 {
		t.Errorf("slept %d times across 3 requests, want 2", clock.sleeps)
	}
	for _, d := range clock.slept {
		if d != time.Second {
			t.Errorf("paced sleep of %v, want 1s", d)
		}
	}
}

func TestGenerateText_QuotaExhaustion(t *testing.T) {
	mock := &MockLLMClient{Responses: []string{"ok"}}
	gen, _ := newTestClient(mock, 2)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := gen.GenerateText(ctx, "prompt"); err != nil {
			t.Fatalf("request %d should be within quota: %v", i, err)
		}
	}

	_, err := gen.GenerateText(ctx, "prompt")
	if err == nil {
		t.Fatal("third request should exhaust the daily quota")
	}
	if !errors.IsCode(err, errors.CodeQuotaExhausted) {
		t.Errorf("got %v, want code %s", err, errors.CodeQuotaExhausted)
	}
	if mock.Calls != 2 {
		t.Errorf("service called %d times, the quota-exhausted request must not reach it", mock.Calls)
	}
}

func TestGenerateText_RateLimitRetriesOnce(t *testing.T) {
	mock := &MockLLMClient{
		Responses: []string{"recovered"},
		FailFirst: &ErrRateLimited{},
	}
	gen, clock := newTestClient(mock, 100)

	text, err := gen.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("rate-limited request should recover on retry: %v", err)
	}
	if text != "recovered" {
		t.Errorf("got %q, want the retried response", text)
	}

	found := false
	for _, d := range clock.slept {
		if d == time.Millisecond {
			found = true
		}
	}
	if !found {
		t.Error("retry should wait out the cooldown first")
	}
}

func TestGenerateText_PersistentRateLimitSurfaces(t *testing.T) {
	mock := &MockLLMClient{Error: &ErrRateLimited{}}
	gen, _ := newTestClient(mock, 100)

	_, err := gen.GenerateText(context.Background(), "prompt")
	if err == nil {
		t.Fatal("persistent rate limiting should surface after one retry")
	}
	if !errors.IsCode(err, errors.CodeTransportError) {
		t.Errorf("got %v, want code %s", err, errors.CodeTransportError)
	}
	if mock.Calls != 2 {
		t.Errorf("service called %d times, want exactly one retry", mock.Calls)
	}
}

func TestStructuredCall_CorrectiveRetry(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	mock := &MockLLMClient{Responses: []string{
		"here you go: not json at all",
		"```json\n{\"name\": \"second try\"}\n```",
	}}
	gen, _ := newTestClient(mock, 100)

	var out payload
	if err := structuredCall(context.Background(), gen, "give me json", 2, &out); err != nil {
		t.Fatalf("structuredCall failed: %v", err)
	}
	if out.Name != "second try" {
		t.Errorf("decoded %q, want the retried payload", out.Name)
	}
	if mock.Calls != 2 {
		t.Fatalf("service called %d times, want 2", mock.Calls)
	}
	if !strings.Contains(mock.Prompts[1], "ONLY the JSON") {
		t.Error("second attempt should carry the corrective instruction")
	}
	if strings.Contains(mock.Prompts[0], "ONLY the JSON") {
		t.Error("first attempt must not carry the corrective instruction")
	}
}

func TestStructuredCall_GivesUpAfterRetries(t *testing.T) {
	mock := &MockLLMClient{Responses: []string{"still not json"}}
	gen, _ := newTestClient(mock, 100)

	var out map[string]any
	err := structuredCall(context.Background(), gen, "give me json", 2, &out)
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if !errors.IsCode(err, errors.CodeGenerationError) {
		t.Errorf("got %v, want code %s", err, errors.CodeGenerationError)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around array", "Sure! Here it is: [1,2,3] Hope that helps.", "[1,2,3]"},
		{"nested braces", `prefix {"a":{"b":2}} suffix`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
