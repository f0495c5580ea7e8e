package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatwarden/internal/alert"
	"chatwarden/internal/audit"
	"chatwarden/internal/config"
	"chatwarden/internal/execguard"
	"chatwarden/internal/filter"
	"chatwarden/internal/logging"
	"chatwarden/internal/provider"
	"chatwarden/internal/router"
	"chatwarden/internal/session"
	"chatwarden/internal/store"
)

// app bundles the wired components behind every command.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	filter   *filter.Filter
	guard    *execguard.Guard
	router   *router.Router
	tracker  *session.Tracker
	registry *provider.Registry
	auditLog *audit.Log
	store    *store.Store
	alerts   *alert.Dispatcher
}

// newApp loads configuration and wires the full pipeline. Callers own
// Close.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logging.New(logging.Options{File: cfg.LogPath})

	auditLog, err := audit.Open(cfg.AuditPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		auditLog.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	dispatcher := alert.NewDispatcher(cfg.Alerts)

	tracker := session.NewTracker(session.Config{
		Timeout:       cfg.SessionTimeout(),
		SweepInterval: cfg.SweepInterval(),
		Logger:        log,
		Audit:         auditLog,
		Recorder:      st,
	})
	sessionID := tracker.Login(cfg.User)

	patterns, err := filter.LoadSet(cfg.PatternsPath)
	if err != nil {
		st.Close()
		auditLog.Close()
		return nil, fmt.Errorf("load threat patterns: %w", err)
	}

	f := filter.New(patterns, filter.Config{
		Logger:    log,
		Recorder:  st,
		Audit:     auditLog,
		SessionID: sessionID,
		OnRepeatedViolations: func(count int) {
			if dispatcher == nil {
				return
			}
			dispatcher.Dispatch(alert.Event{
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				User:      cfg.User,
				Type:      "repeated_violations",
				Count:     count,
			})
		},
	})

	guard, err := execguard.New(execguard.Config{
		Filter:    f,
		Root:      cfg.Workspace,
		Logger:    log,
		Audit:     auditLog,
		SessionID: sessionID,
	})
	if err != nil {
		st.Close()
		auditLog.Close()
		return nil, err
	}

	registry := provider.NewRegistry(ctx, cfg.ProviderSettings(), log)

	r, err := router.New(router.Config{
		Filter:    f,
		Source:    registry,
		Logger:    log,
		Audit:     auditLog,
		SessionID: sessionID,
	})
	if err != nil {
		st.Close()
		auditLog.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		filter:   f,
		guard:    guard,
		router:   r,
		tracker:  tracker,
		registry: registry,
		auditLog: auditLog,
		store:    st,
		alerts:   dispatcher,
	}, nil
}

// watchPatterns starts the hot-reload watcher for the threat pattern
// file, if one is configured.
func (a *app) watchPatterns(ctx context.Context) {
	if a.cfg.PatternsPath == "" {
		return
	}
	reloader, err := config.NewReloader([]string{a.cfg.PatternsPath}, func() {
		set, err := filter.LoadSet(a.cfg.PatternsPath)
		if err != nil {
			a.log.Warn("pattern reload failed", zap.Error(err))
			return
		}
		a.filter.ReplacePatterns(set)
		a.log.Info("threat patterns reloaded")
	}, a.log)
	if err != nil {
		a.log.Warn("pattern watcher unavailable", zap.Error(err))
		return
	}
	go reloader.Run(ctx)
}

func (a *app) Close() {
	a.tracker.Logout(a.cfg.User)
	if err := a.auditLog.Close(); err != nil {
		a.log.Warn("close audit log", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}
