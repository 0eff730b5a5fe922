package container

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jandy1990/wwfm-platform-sub002/adapters/api"
	"github.com/jandy1990/wwfm-platform-sub002/adapters/excel"
	"github.com/jandy1990/wwfm-platform-sub002/adapters/llm"
	"github.com/jandy1990/wwfm-platform-sub002/adapters/postgres"
	"github.com/jandy1990/wwfm-platform-sub002/app"
	"github.com/jandy1990/wwfm-platform-sub002/internal/config"
	"github.com/jandy1990/wwfm-platform-sub002/internal/gate"
	"github.com/jandy1990/wwfm-platform-sub002/internal/resolve"
	"github.com/jandy1990/wwfm-platform-sub002/internal/tracker"
	"github.com/jandy1990/wwfm-platform-sub002/internal/vocab"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	SolutionRepo   ports.SolutionRepository
	ConnectionRepo ports.ConnectionRepository
	GoalRepo       ports.GoalRepository
	ProgressRepo   ports.ProgressRepository
	QuotaRepo      ports.QuotaRepository

	// Generation stack
	Generation *llm.GenerationClient
	Generator  ports.AssociationGenerator
	Scorer     ports.PlausibilityScorer

	// Pipeline components
	Normalizer *vocab.Normalizer
	Resolver   *resolve.Resolver
	Gate       *gate.Gate
	Tracker    *tracker.Tracker
	Expansion  *app.ExpansionService

	// Operational surfaces
	StatusServer *api.StatusServer
	ReportWriter *excel.ReportWriter
}

// New creates the container shell; Init wires everything up.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// Init connects to the database, runs migrations, and wires the full
// pipeline. Call Close when done.
func (c *Container) Init(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	c.DB = db

	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	c.initRepositories()
	if err := c.initGeneration(); err != nil {
		return err
	}
	c.initPipeline()
	c.initOperational()

	log.Printf("[Container] initialized (dry_run=%v, tier=%s)",
		c.Config.Curation.DryRun, c.Config.Tracker.PriorityTier)
	return nil
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

func (c *Container) initRepositories() {
	c.SolutionRepo = postgres.NewSolutionRepository(c.DB)
	c.ConnectionRepo = postgres.NewConnectionRepository(c.DB)
	c.GoalRepo = postgres.NewGoalRepository(c.DB)
	c.ProgressRepo = postgres.NewProgressRepository(c.DB)
	c.QuotaRepo = postgres.NewQuotaRepository(c.DB)

	if c.Config.Curation.DryRun {
		c.SolutionRepo = &app.DryRunSolutionRepository{SolutionRepository: c.SolutionRepo}
		c.ConnectionRepo = &app.DryRunConnectionRepository{ConnectionRepository: c.ConnectionRepo}
		c.ProgressRepo = &app.DryRunProgressRepository{ProgressRepository: c.ProgressRepo}
	}
}

func (c *Container) initGeneration() error {
	client, err := llm.NewOpenAIClient(c.Config.AI)
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}
	c.Generation = llm.NewGenerationClient(
		client,
		c.QuotaRepo,
		c.Config.AI.OpenAIModel,
		c.Config.AI.MaxTokens,
		c.Config.AI.RequestsPerMin,
		c.Config.AI.DailyLimit,
		c.Config.AI.RetryCooldown,
	)
	c.Generator = llm.NewAssociationGenerator(c.Generation, c.Config.AI.CorrectiveTries)
	c.Scorer = llm.NewLaughTestScorer(c.Generation, c.Config.AI.CorrectiveTries)
	return nil
}

func (c *Container) initPipeline() {
	c.Normalizer = vocab.New()
	c.Resolver = resolve.NewResolver(c.SolutionRepo, resolve.NewTitleCache(), c.Config.Curation.TitleOverlapThreshold)
	c.Gate = gate.New(c.Scorer, gate.Options{
		LaughTestThreshold: c.Config.Curation.LaughTestThreshold,
		StrictDomainCheck:  c.Config.Curation.StrictDomainCheck,
		MinEffectiveness:   c.Config.Curation.MinEffectiveness,
		MaxEffectiveness:   c.Config.Curation.MaxEffectiveness,
	})
	c.Tracker = tracker.New(c.ProgressRepo, tracker.Config{
		ConnectionTarget: c.Config.Tracker.ConnectionTarget,
		QualityCeiling:   c.Config.Tracker.QualityCeiling,
		CoverageTarget:   c.Config.Tracker.CoverageTarget,
		QualityWindow:    c.Config.Tracker.QualityWindow,
		ClaimLease:       c.Config.Tracker.ClaimLease,
		FailureGrace:     c.Config.Tracker.FailureGrace,
	})
	c.Expansion = app.NewExpansionService(
		c.Generator,
		c.Normalizer,
		c.Resolver,
		c.Gate,
		c.Tracker,
		c.SolutionRepo,
		c.ConnectionRepo,
		c.GoalRepo,
		c.ProgressRepo,
		app.Options{
			BatchSize:    c.Config.Tracker.BatchSize,
			PriorityTier: c.Config.Tracker.PriorityTier,
		},
	)
}

func (c *Container) initOperational() {
	if c.Config.Server.Enabled {
		c.StatusServer = api.NewStatusServer(c.ProgressRepo, c.Config.Server.Port)
	}
	if c.Config.Reporting.XLSXPath != "" {
		c.ReportWriter = excel.NewReportWriter(c.Config.Reporting.XLSXPath)
	}
}
