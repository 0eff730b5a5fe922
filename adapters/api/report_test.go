package api

import (
	"strings"
	"testing"
	"time"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

func TestRenderRunSummaryMarkdown_StagesInStableOrder(t *testing.T) {
	summary := models.NewRunSummary("supplements")
	summary.Rejected = map[string]int{
		"rules":      2,
		"domain":     1,
		"laugh_test": 3,
		"alignment":  1,
	}
	summary.FinishedAt = summary.StartedAt.Add(time.Minute)

	out := RenderRunSummaryMarkdown(summary)

	want := []string{"alignment", "domain", "laugh_test", "rules"}
	last := -1
	for _, stage := range want {
		idx := strings.Index(out, "- "+stage+":")
		if idx < 0 {
			t.Fatalf("stage %q missing from summary:\n%s", stage, out)
		}
		if idx < last {
			t.Errorf("stage %q out of order; stages must render alphabetically", stage)
		}
		last = idx
	}

	// The order must not depend on map iteration.
	for i := 0; i < 10; i++ {
		if again := RenderRunSummaryMarkdown(summary); again != out {
			t.Fatal("repeated renders of the same summary differ")
		}
	}
}
