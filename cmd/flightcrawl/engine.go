package main

import (
	"github.com/flightcrawl/enginecore/internal/breaker"
	"github.com/flightcrawl/enginecore/internal/config"
	"github.com/flightcrawl/enginecore/internal/eventbus"
	"github.com/flightcrawl/enginecore/internal/provider"
	"github.com/flightcrawl/enginecore/internal/ratelimit"
	"github.com/flightcrawl/enginecore/internal/scheduler"
	"github.com/flightcrawl/enginecore/internal/session"
	"github.com/flightcrawl/enginecore/internal/siteconfig"
)

// engine bundles the long-lived components every CLI command shares: one
// instance's worth of rate limiter/breaker/session pools/event bus
// persists for the lifetime of the process: HostState is
// the only shared mutable state" design.
type engine struct {
	cfg       *config.Config
	store     *siteconfig.Store
	sessions  *session.Manager
	scheduler *scheduler.Scheduler
	bus       *eventbus.Bus
}

// newEngine loads the ambient process config and the site-config
// directory, then wires C3 through C8 together exactly as a scheduler
// consumer must: one Factory, one rate limiter, one breaker, one bus,
// shared across every crawl this process runs.
func newEngine(siteDir string) (*engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg)

	dir := siteDir
	if dir == "" {
		dir = cfg.App.SiteConfigDir
	}

	store := siteconfig.NewStore(dir)
	if err := store.Reload(); err != nil {
		return nil, err
	}

	sessions := session.NewManager(session.DefaultHTTPPoolConfig(), session.DefaultBrowserPoolConfig())
	factory := provider.NewFactory(sessions)
	limiter := ratelimit.New()
	circuit := breaker.New()
	bus := eventbus.New(0)

	sched := scheduler.New(
		factory, limiter, circuit, bus,
		scheduler.Timeouts{PerRequest: cfg.Timeouts.PerRequest, PerSite: cfg.Timeouts.PerSite, PerCrawl: cfg.Timeouts.PerCrawl},
		scheduler.WorkerPool{MaxWorkers: cfg.Workers.MaxWorkers, PerHostMax: cfg.Workers.PerHostMax, ShutdownWindow: cfg.Workers.ShutdownWindow},
		nil,
	)

	return &engine{cfg: cfg, store: store, sessions: sessions, scheduler: sched, bus: bus}, nil
}

func (e *engine) Close() {
	e.sessions.Close()
}
