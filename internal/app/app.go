// Package app wires configuration, storage and services for the binaries.
package app

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/stocksense/internal/cache"
	"github.com/andresuchdata/stocksense/internal/config"
	"github.com/andresuchdata/stocksense/internal/metrics"
	"github.com/andresuchdata/stocksense/internal/pipeline"
	"github.com/andresuchdata/stocksense/internal/pipeline/reorder"
	"github.com/andresuchdata/stocksense/internal/repository/postgres"
	"github.com/andresuchdata/stocksense/internal/service"
	"github.com/andresuchdata/stocksense/internal/storage"
	"github.com/rs/zerolog/log"
)

type App struct {
	DB      *postgres.DB
	Store   *postgres.Store
	Runs    *pipeline.Repository
	Cache   cache.ForecastCache
	Metrics *metrics.Metrics

	ForecastService *service.ForecastService
	ReorderService  *service.ReorderService
	ExportService   *service.ExportService
}

// New builds the services on top of an open database. Redis and object
// storage failures degrade to their no-op forms.
func New(cfg *config.Config, db *postgres.DB) (*App, error) {
	if db == nil {
		return nil, errors.New("app: database is required")
	}

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("object storage unavailable, exports stay local")
		} else {
			objects = client
		}
	}

	m := metrics.New()
	store := postgres.NewStore(db)
	runs := pipeline.NewRepository(db.DB)
	orchestrator := pipeline.NewOrchestrator(runs, pipeline.Config{WorkerCount: cfg.Pipeline.WorkerCount})

	a := &App{
		DB:      db,
		Store:   store,
		Runs:    runs,
		Cache:   forecastCache,
		Metrics: m,
		ForecastService: service.NewForecastService(store, forecastCache, orchestrator, m, service.ForecastOptions{
			WindowDays:    cfg.Forecast.WindowDays,
			MinDataPoints: cfg.Forecast.MinDataPoints,
			Algorithm:     cfg.Forecast.Algorithm,
		}),
		ReorderService: service.NewReorderService(store, forecastCache, orchestrator, m, ReorderConfig(cfg.Reorder)),
		ExportService:  service.NewExportService(store, objects, cfg.App.ExportDir),
	}
	return a, nil
}

// ReorderConfig maps the environment settings onto the rule ladder.
func ReorderConfig(cfg config.ReorderConfig) reorder.Config {
	return reorder.Config{
		DefaultDailyDemand: cfg.DefaultDailyDemand,
		SafetyStockRatio:   cfg.SafetyStockRatio,
		LowStockFloor:      cfg.LowStockFloor,
		StockoutBufferDays: cfg.StockoutBufferDays,
		CostModel:          reorder.CostModel(cfg.CostModel),
		AnnualCarryingRate: cfg.AnnualCarryingRate,
	}
}

// Migrate applies pending schema migrations.
func Migrate(db *postgres.DB) error {
	migrator, err := postgres.NewMigrator(db.DB.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close migrator")
		}
	}()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the cache and database.
func (a *App) Close() error {
	var errs []error
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
