package app

import (
	"database/sql"

	"github.com/dojolog/dojolog/internal/config"
	"github.com/dojolog/dojolog/internal/event_bus"
	"github.com/dojolog/dojolog/internal/utils"
	"github.com/dojolog/dojolog/pkg/entry"
	"github.com/dojolog/dojolog/pkg/load"
	"github.com/dojolog/dojolog/pkg/report"
	"github.com/dojolog/dojolog/pkg/rhythm"
	"github.com/dojolog/dojolog/pkg/sync"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus *event_bus.EventBus

	EntryRepo    entry.Repository
	EntryService entry.Service
	EntryHandler *entry.Handler

	LoadCalculator *load.Calculator
	Aggregator     *rhythm.Aggregator

	ReportService  report.Service
	ReportRenderer report.Renderer
	ReportHandler  *report.Handler

	SyncStateRepo sync.StateRepository
	SyncClient    sync.Client
	SyncService   sync.Service
	SyncHandler   *sync.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.EntryRepo = entry.NewRepository(db)
	deps.EntryService = entry.NewService(deps.EntryRepo, deps.Bus)
	deps.EntryHandler = entry.NewHandler(deps.EntryService)

	weighting, err := load.ParseWeighting(cfg.Load.Weighting)
	if err != nil {
		return nil, err
	}
	deps.LoadCalculator = load.NewCalculator(weighting)
	deps.Aggregator = rhythm.NewAggregator(deps.LoadCalculator)

	deps.ReportService = report.NewService(deps.EntryRepo, deps.Aggregator)
	deps.ReportRenderer = report.NewCsvRenderer()
	deps.ReportHandler = report.NewHandler(deps.ReportService, deps.ReportRenderer)

	deps.SyncStateRepo = sync.NewStateRepository(db)
	deps.SyncClient = sync.NewHTTPClient(cfg.Sync)
	deps.SyncService = sync.NewService(deps.SyncClient, deps.EntryRepo, deps.SyncStateRepo, deps.Bus)
	deps.SyncHandler = sync.NewHandler(deps.SyncService)

	return deps, nil
}
