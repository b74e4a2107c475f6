package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hession/slotmate/internal/config"
	"github.com/hession/slotmate/internal/logger"
	"github.com/hession/slotmate/internal/metrics"
	"github.com/hession/slotmate/internal/plasmic"
	"github.com/hession/slotmate/internal/tools"
)

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	registry *tools.Registry
}

// setup loads configuration, failing fast on missing credentials, and wires
// the client, logger, metrics and registry.
func setup(verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		LogDir:     cfg.Log.Dir,
		Level:      level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxDays:    cfg.Log.MaxAgeDays,
		ConsoleOut: cfg.Log.Console || verbose,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetDefault()
	logConfigInfo(cfg)

	client := plasmic.NewClient(
		cfg.Plasmic.BaseURL,
		cfg.Plasmic.ProjectID,
		cfg.Plasmic.APIToken,
		plasmic.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Plasmic.TimeoutSeconds) * time.Second}),
		plasmic.WithUserAgent(cfg.Plasmic.UserAgent),
	)

	m := metrics.New()
	registry := tools.NewDefaultRegistry(client, tools.WithMetrics(m), tools.WithLogger(log))

	return &app{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		registry: registry,
	}, nil
}

func (a *app) close() {
	_ = logger.Close()
}

// logConfigInfo records the effective configuration with the token redacted
func logConfigInfo(cfg *config.Config) {
	token := "(not configured)"
	if n := len(cfg.Plasmic.APIToken); n > 8 {
		token = cfg.Plasmic.APIToken[:4] + "****" + cfg.Plasmic.APIToken[n-4:]
	} else if n > 0 {
		token = "****"
	}

	logger.Info("config loaded: project_id=%s, base_url=%s, api_token=%s, timeout=%ds",
		cfg.Plasmic.ProjectID, cfg.Plasmic.BaseURL, token, cfg.Plasmic.TimeoutSeconds)
	logger.Debug("server addr=%s, log level=%s, log dir=%s",
		cfg.Server.Addr, cfg.Log.Level, cfg.Log.Dir)
}
