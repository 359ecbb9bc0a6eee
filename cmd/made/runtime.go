package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"made/internal/config"
	"made/internal/engine"
	"made/internal/linguistic"
	"made/internal/snapshot"
	"made/internal/store"
)

// buildEngine wires the full pipeline from configuration: document store,
// snapshot archive, linguistic dispatcher, engine façade. The returned
// cleanup stops every monitor session and closes both databases; call it
// once the last request has drained. ctx bounds the store connection and
// scopes the template watcher.
func buildEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*engine.Engine, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	defer cancel()

	st, err := store.NewMongoStore(connectCtx, cfg.Store.URL, cfg.Store.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("failed to close document store", zap.Error(err))
		}
	}

	archive, err := snapshot.NewArchive(cfg.Snapshot.DatabasePath, logger)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	templates := linguistic.NewTemplateSet(logger)
	if cfg.Linguistic.TemplatesPath != "" {
		if err := templates.LoadFile(cfg.Linguistic.TemplatesPath); err != nil {
			logger.Warn("falling back to built-in utterance templates",
				zap.String("path", cfg.Linguistic.TemplatesPath), zap.Error(err))
		} else if cfg.Linguistic.WatchTemplates {
			if err := templates.Watch(ctx, cfg.Linguistic.TemplatesPath); err != nil {
				logger.Warn("template hot-reload unavailable", zap.Error(err))
			}
		}
	}

	client := linguistic.NewClient(linguistic.ClientConfig{
		APIKey:  cfg.Linguistic.APIKey,
		BaseURL: cfg.Linguistic.BaseURL,
		Timeout: cfg.LinguisticTimeout(),
	}, logger)
	if !client.Configured() {
		logger.Warn("no linguistic API key configured; utterances come from fallback templates")
	}

	eng := engine.New(engine.Config{
		Store:              st,
		Speaker:            linguistic.NewDispatcher(client, cfg.Linguistic.Models, templates, logger),
		Archive:            archive,
		ScaleSecondsPerDay: cfg.Clock.ScaleSecondsPerDay,
		MonitorTick:        cfg.TickPeriod(),
		Logger:             logger,
	})

	cleanup := func() {
		eng.StopAllMonitors()
		templates.Close()
		if err := archive.Close(); err != nil {
			logger.Warn("failed to close snapshot archive", zap.Error(err))
		}
		closeStore()
	}
	return eng, cleanup, nil
}
