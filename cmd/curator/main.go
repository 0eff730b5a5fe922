package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jandy1990/wwfm-platform-sub002/adapters/api"
	"github.com/jandy1990/wwfm-platform-sub002/adapters/excel"
	"github.com/jandy1990/wwfm-platform-sub002/internal/config"
	"github.com/jandy1990/wwfm-platform-sub002/internal/container"
	"github.com/jandy1990/wwfm-platform-sub002/internal/taxonomy"
	"github.com/jandy1990/wwfm-platform-sub002/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Curator] no .env file found, using environment")
	}

	rootCmd := &cobra.Command{
		Use:   "curator",
		Short: "Curation pipeline for machine-generated solution records",
	}

	rootCmd.AddCommand(
		newExpandCmd(),
		newStatusCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newExpandCmd() *cobra.Command {
	var (
		category  string
		batchSize int
		tier      string
		dryRun    bool
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand goal connections for a category until its targets are met",
		Long: `Claim under-served solutions, generate candidate goal associations,
normalize and validate them, and persist the survivors. The run stops
cleanly when coverage is reached, quality degrades, work runs out, or
the daily generation quota is exhausted.

Example: curator expand --category supplements --batch-size 10 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if batchSize > 0 {
				cfg.Tracker.BatchSize = batchSize
			}
			if tier != "" {
				cfg.Tracker.PriorityTier = tier
			}
			if dryRun {
				cfg.Curation.DryRun = true
			}
			if strict {
				cfg.Curation.StrictDomainCheck = true
			}

			categories := []string{category}
			if category == "" {
				categories = taxonomy.Categories()
			}
			return runExpand(cmd.Context(), cfg, categories)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category to expand (default: all categories)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Units claimed per batch (overrides BATCH_SIZE)")
	cmd.Flags().StringVar(&tier, "tier", "", "Priority tier: auto, zero, single, or double")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log writes instead of persisting them")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject candidates outside the category's domain")

	return cmd
}

func runExpand(ctx context.Context, cfg *config.Config, categories []string) error {
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	defer c.Close()

	var summaries []*models.RunSummary
	for _, category := range categories {
		summary, err := c.Expansion.Run(ctx, category)
		if summary != nil {
			summaries = append(summaries, summary)
			fmt.Print(api.RenderRunSummaryMarkdown(summary))
		}
		if err != nil {
			return err
		}
	}

	if c.ReportWriter != nil && len(summaries) > 0 {
		if err := c.ReportWriter.Write(summaries); err != nil {
			return err
		}
		log.Printf("[Curator] report written to %s", cfg.Reporting.XLSXPath)
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	var (
		asJSON   bool
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print per-category expansion coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			if err := c.Init(cmd.Context()); err != nil {
				return err
			}
			defer c.Close()

			return printStatus(cmd.Context(), c, asJSON, xlsxPath)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable output")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the coverage table to an xlsx workbook")
	return cmd
}

func printStatus(ctx context.Context, c *container.Container, asJSON bool, xlsxPath string) error {
	var rows []excel.CoverageRow
	for _, category := range taxonomy.Categories() {
		stats, err := c.ProgressRepo.CategoryStats(ctx, category)
		if err != nil {
			return err
		}
		r := excel.CoverageRow{
			Category:        category,
			Total:           stats.Total,
			WithConnections: stats.WithConnections,
			Pending:         stats.Pending,
		}
		if stats.Total > 0 {
			r.Coverage = float64(stats.WithConnections) / float64(stats.Total)
		}
		rows = append(rows, r)
	}

	if xlsxPath != "" {
		if err := excel.NewReportWriter(xlsxPath).WriteCoverage(rows); err != nil {
			return err
		}
		log.Printf("[Curator] coverage written to %s", xlsxPath)
	}

	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}
	fmt.Printf("%-24s %8s %10s %8s %9s\n", "CATEGORY", "TOTAL", "CONNECTED", "PENDING", "COVERAGE")
	fmt.Println(strings.Repeat("-", 63))
	for _, r := range rows {
		fmt.Printf("%-24s %8d %10d %8d %8.1f%%\n", r.Category, r.Total, r.WithConnections, r.Pending, r.Coverage*100)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the status server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.Server.Enabled = true

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := c.Init(ctx); err != nil {
				return err
			}
			defer c.Close()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return c.StatusServer.ListenAndServe(ctx)
			})
			return g.Wait()
		},
	}
}
