package main

import (
	"context"

	"github.com/nidhogg/taskforce/internal/config"
	"github.com/nidhogg/taskforce/internal/notify"
	"github.com/nidhogg/taskforce/internal/orchestrator"
	"github.com/nidhogg/taskforce/internal/proposal"
	"github.com/nidhogg/taskforce/internal/provider"
	"github.com/nidhogg/taskforce/internal/search"
	"github.com/nidhogg/taskforce/internal/trend"
	"go.uber.org/zap"
)

// app is the wired task force shared by serve and run.
type app struct {
	orch        *orchestrator.Orchestrator
	broadcaster *notify.Broadcaster
	bus         *orchestrator.MessageBus
	logger      *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	catalog, err := loadCatalog(cfg.Search.CatalogPath)
	if err != nil {
		return nil, err
	}
	registry, err := provider.Defaults(catalog, cfg.Providers(), logger)
	if err != nil {
		return nil, err
	}

	a := &app{logger: logger}

	var events orchestrator.EventSink
	if cfg.Redis.URL != "" {
		bus, busErr := orchestrator.NewMessageBus(ctx, cfg.Redis.URL, logger)
		if busErr != nil {
			logger.Warn("Redis unavailable, running without run events", zap.Error(busErr))
		} else {
			a.bus = bus
			events = bus
		}
	}

	analyzer := trend.NewAnalyzer(cfg.TrendConfig(), logger)
	a.orch = orchestrator.New(cfg.Orchestrator(), registry, analyzer, proposal.NewComposer(), events, logger)

	var publishers []notify.Publisher
	if cfg.Notify.SlackWebhookURL != "" {
		publishers = append(publishers, notify.NewSlackPublisher(cfg.Notify.SlackWebhookURL, logger))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		pub, pubErr := notify.NewDiscordPublisher(cfg.Notify.DiscordWebhookURL, logger)
		if pubErr != nil {
			logger.Warn("discord notifications disabled", zap.Error(pubErr))
		} else {
			publishers = append(publishers, pub)
		}
	}
	a.broadcaster = notify.NewBroadcaster(logger, publishers...)

	logger.Info("task force ready",
		zap.Strings("providers", roleNames(registry.Roles())),
		zap.Bool("events", a.bus != nil),
		zap.Strings("notify", a.broadcaster.Platforms()))
	return a, nil
}

func loadCatalog(path string) (*search.Catalog, error) {
	if path == "" {
		return search.DefaultCatalog()
	}
	return search.LoadCatalogFile(path)
}

func (a *app) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
}
