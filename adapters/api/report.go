package api

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

// RenderProgressHTML builds the markdown coverage report and renders it
// to a standalone HTML document.
func RenderProgressHTML(rows []categoryProgress) []byte {
	var b strings.Builder
	b.WriteString("# Expansion Coverage\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("| Category | Solutions | Connected | Pending | Coverage |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %.1f%% |\n",
			row.Category, row.Total, row.WithConnections, row.Pending, row.Coverage*100)
	}
	return renderMarkdown(b.String())
}

// RenderRunSummaryMarkdown formats one run's outcome for logs or files.
func RenderRunSummaryMarkdown(summary *models.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Expansion Run: %s\n\n", summary.Category)
	fmt.Fprintf(&b, "- Units processed: %d\n", summary.UnitsProcessed)
	fmt.Fprintf(&b, "- Connections created: %d\n", summary.Created)
	fmt.Fprintf(&b, "- Connections updated: %d\n", summary.Updated)
	fmt.Fprintf(&b, "- Skipped: %d\n", summary.Skipped)
	fmt.Fprintf(&b, "- Rejected: %d\n", summary.TotalRejected())
	stages := make([]string, 0, len(summary.Rejected))
	for stage := range summary.Rejected {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(&b, "  - %s: %d\n", stage, summary.Rejected[stage])
	}
	fmt.Fprintf(&b, "- Stopped: %s\n", summary.StopReason)
	fmt.Fprintf(&b, "- Duration: %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))
	return b.String()
}

func renderMarkdown(source string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(source))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Expansion Coverage",
	})
	return markdown.Render(doc, renderer)
}
