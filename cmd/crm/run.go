package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/crm-console/internal/app"
	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/backend/httpapi"
	"github.com/nhle/crm-console/internal/credential"
	"github.com/nhle/crm-console/internal/logging"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/store"
	appsync "github.com/nhle/crm-console/internal/sync"
)

const shutdownTimeout = 5 * time.Second

func runConsole(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	b, err := openBackend(cfg, s, logger)
	if err != nil {
		return err
	}

	poller := appsync.New(s, logger)
	n := app.RegisterIntake(poller, cfg.Intake, credential.Get, app.EmailSource, logger)
	logger.Info("starting console",
		zap.String("backend", cfg.Backend.Mode),
		zap.Int("intake_sources", n),
	)

	m := app.New(app.Deps{
		Backend: b,
		Store:   s,
		Poller:  poller,
		Config:  cfg,
		Logger:  logger,

		ConfigPath: configPath,
	})

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := prog.Run()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	m.Shutdown(stopCtx)

	if runErr != nil {
		return fmt.Errorf("running console: %w", runErr)
	}
	return nil
}

// openStore opens the local SQLite store, creating its directory.
func openStore(cfg *model.AppConfig) (*store.SQLiteStore, error) {
	path := cfg.Backend.DBPath
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}

// openBackend returns the list data source for the configured mode.
func openBackend(cfg *model.AppConfig, s *store.SQLiteStore, logger *zap.Logger) (backend.Backend, error) {
	if cfg.Backend.Mode != model.BackendRemote {
		return s, nil
	}

	token, err := credential.APIToken()
	if err != nil {
		return nil, err
	}
	return httpapi.NewClient(cfg.Backend.BaseURL, token,
		httpapi.WithLogger(logger.Named("api")),
		httpapi.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Backend.TimeoutSec) * time.Second,
		}),
	), nil
}
