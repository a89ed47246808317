package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/classifier"
	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/deduplication"
	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/storage/linear"
	"github.com/steveyegge/triage/internal/storage/sqlite"
	"github.com/steveyegge/triage/internal/triage"
)

// app is everything a command needs, built once from configuration
type app struct {
	cfg   *config.Config
	creds *config.Credentials
	store storage.Storage
}

// loadApp reads configuration and credentials and opens the tracker.
// createLocal lets a sqlite tracker start a new database when none is
// found.
func loadApp(createLocal bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	creds, err := config.LoadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg, creds, createLocal)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, creds: creds, store: store}, nil
}

// mustLoadApp is loadApp for command Run functions
func mustLoadApp() *app {
	a, err := loadApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("closing tracker", "error", err)
	}
}

// openStore opens the tracker backend named by cfg.Tracker
func openStore(cfg *config.Config, creds *config.Credentials, createLocal bool) (storage.Storage, error) {
	switch cfg.Tracker {
	case config.TrackerLinear:
		return linear.New(linear.Config{
			APIKey:   creds.TrackerKey,
			Endpoint: cfg.TrackerURL,
			Logger:   logger,
		})
	case config.TrackerSQLite:
		path, err := sqlitePath(cfg, createLocal)
		if err != nil {
			return nil, err
		}
		logger.Debug("opening local tracker", "path", path)
		return sqlite.New(path)
	}
	return nil, fmt.Errorf("unknown tracker %q", cfg.Tracker)
}

// sqlitePath picks the local database: sqlite_path, then discovery, then
// a new database under the working directory when createLocal is set
func sqlitePath(cfg *config.Config, createLocal bool) (string, error) {
	if cfg.SQLitePath != "" {
		return cfg.SQLitePath, nil
	}
	path, err := storage.DiscoverDatabase()
	if err == nil || !createLocal {
		return path, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return storage.DefaultDatabasePath(cwd), nil
}

// localStore returns the tracker as a local database, for commands that
// only make sense against one
func (a *app) localStore() (*sqlite.SQLiteStorage, error) {
	local, ok := a.store.(*sqlite.SQLiteStorage)
	if !ok {
		return nil, errors.New("this command needs tracker: sqlite")
	}
	return local, nil
}

// pipeline builds the full triage run for the configured team
func (a *app) pipeline() (*triage.Pipeline, error) {
	if err := a.cfg.RequireTeam(); err != nil {
		return nil, err
	}

	engineCfg := a.cfg.EngineConfig(a.creds)
	engineCfg.Logger = logger
	engine, err := ai.NewEngine(engineCfg)
	if err != nil {
		return nil, err
	}

	dedupCfg := a.cfg.DedupSettings()
	matcher, err := deduplication.NewAIDeduplicator(engine, dedupCfg, logger)
	if err != nil {
		return nil, err
	}
	cls, err := classifier.New(engine, logger)
	if err != nil {
		return nil, err
	}
	orchestrator, err := triage.NewOrchestrator(a.store, matcher, a.cfg.TeamID, dedupCfg, logger)
	if err != nil {
		return nil, err
	}
	return triage.NewPipeline(cls, orchestrator, logger), nil
}
