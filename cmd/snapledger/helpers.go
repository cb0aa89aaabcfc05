package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/snapledger/snapledger/internal/config"
	"github.com/snapledger/snapledger/internal/engine"
	"github.com/snapledger/snapledger/internal/monitoring"
	"github.com/snapledger/snapledger/internal/pattern"
	"github.com/snapledger/snapledger/internal/rules"
	"github.com/snapledger/snapledger/internal/storage"
)

// app bundles the composed pipeline for one CLI invocation.
type app struct {
	engine  *engine.ClassificationEngine
	repo    *rules.Repository
	store   *storage.SQLiteStore
	cfg     config.Config
	cleanup func()
}

// buildApp composes the classification pipeline from configuration. Every
// collaborator is constructed explicitly; there is no package-level state.
func buildApp(ctx context.Context) (*app, error) {
	cfg := config.FromViper(viper.GetViper())

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	store, err := storage.NewSQLiteStore(config.ExpandPath(cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open payload store: %w", err)
	}

	repo := rules.NewRepository(store, pattern.NewAnalyzer(), metrics)
	if err := repo.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	executor, err := pattern.NewExecutor(pattern.ExecutorConfig{
		Workers:        cfg.PatternWorkers,
		Deadline:       cfg.MatchDeadline,
		CacheSize:      cfg.PatternCacheSize,
		MaxInputLength: cfg.MaxInputLength,
	}, metrics)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	dedup, err := engine.NewDuplicateSuppressor(cfg.DedupWindow, cfg.DedupCapacity, nil, metrics)
	if err != nil {
		executor.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to create duplicate suppressor: %w", err)
	}

	ceiling, err := decimal.NewFromString(cfg.AmountCeiling)
	if err != nil {
		executor.Close()
		_ = store.Close()
		return nil, fmt.Errorf("invalid amount ceiling %q: %w", cfg.AmountCeiling, err)
	}

	eng := engine.New(repo, executor, dedup, metrics, nil, engine.Config{
		MatchDeadline:        cfg.MatchDeadline,
		AmountCeiling:        ceiling,
		MaxCounterpartLength: cfg.MaxCounterpartLength,
	})

	return &app{
		engine: eng,
		repo:   repo,
		store:  store,
		cfg:    cfg,
		cleanup: func() {
			executor.Close()
			_ = store.Close()
		},
	}, nil
}
