// Package app wires the configured dependencies shared by the entrypoints.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/database"
	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/metrics"
	"ai-fitness-planner/internal/planner"
)

// ErrMetricsDisabled is returned by metrics operations when no metrics
// database is configured.
var ErrMetricsDisabled = errors.New("metrics are disabled: METRICS_DB_PATH not set")

// App holds the application's dependencies.
type App struct {
	Config  *config.Config
	Planner *planner.Service
	// Metrics is nil when METRICS_DB_PATH is empty.
	Metrics *metrics.Store

	textGen llm.TextGenerator
}

// New builds the text generator, the optional metrics store and the plan
// service from cfg. Callers must Close the App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.MetricsDBPath != "" {
		store, err := OpenMetrics(cfg)
		if err != nil {
			return nil, err
		}
		a.Metrics = store
	}

	textGen, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}
	a.textGen = textGen

	var recorder planner.Recorder
	if a.Metrics != nil {
		recorder = a.Metrics
	}
	a.Planner = planner.NewService(textGen, recorder)

	log.Printf("Using %s provider with model %s", cfg.LLMProvider, cfg.Model())
	return a, nil
}

// OpenMetrics opens the metrics database at cfg.MetricsDBPath, applying
// migrations first.
func OpenMetrics(cfg *config.Config) (*metrics.Store, error) {
	if cfg.MetricsDBPath == "" {
		return nil, ErrMetricsDisabled
	}
	db, err := database.NewDB(cfg.MetricsDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics database: %w", err)
	}
	return metrics.NewStore(db.SQL), nil
}

// Close releases the generator client and the metrics database.
func (a *App) Close() {
	if c, ok := a.textGen.(llm.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("Error closing llm client: %v", err)
		}
	}
	if a.Metrics != nil {
		if err := a.Metrics.Close(); err != nil {
			log.Printf("Error closing metrics store: %v", err)
		}
	}
}
