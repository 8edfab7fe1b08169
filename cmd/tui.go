package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"catex/internal/cache"
	"catex/internal/config"
	"catex/internal/logger"
	"catex/internal/query"
	"catex/internal/schema"
	"catex/internal/telemetry"
	"catex/internal/tui"
	"catex/internal/urlstate"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := cache.Open(config.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	if flagRefresh {
		if _, err := db.Prune(0); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}

	log, logCloser, err := logger.Open(config.LogPath(), cfg.LogLevel)
	if err != nil {
		// A broken log destination should not keep the app from starting.
		log = slog.New(slog.DiscardHandler)
	} else {
		defer logCloser.Close()
	}

	var reporter telemetry.Reporter = telemetry.Nop{}
	if cfg.Telemetry {
		fr, err := telemetry.NewFileReporter(config.TelemetryPath())
		if err != nil {
			log.Warn("telemetry disabled", "error", err)
		} else {
			defer fr.Close()
			reporter = fr
		}
	}

	validator, err := schema.New(reporter)
	if err != nil {
		return fmt.Errorf("compiling article schema: %w", err)
	}

	client := query.New(query.Options{
		Cache:      db,
		Validator:  validator,
		Reporter:   reporter,
		StaleAfter: cfg.StaleDuration(),
		Retries:    cfg.GetRetries(),
	})

	sourceID, err := startSource(cfg, db)
	if err != nil {
		return err
	}

	hist := urlstate.NewMemoryHistory(flagState)
	store := urlstate.NewStore(hist, urlstate.Defaults(sourceID), urlstate.StandardAllowed(cfg.SourceIDs()))

	log.Info("starting", "source", store.Current().Source, "state", flagState)

	return tui.Run(tui.RunOpts{
		Cfg:     cfg,
		Store:   store,
		History: hist,
		Meta:    db,
		Loader:  client,
		Logger:  log,
	})
}

// startSource picks the initial source: the --source flag, then the last
// viewed source, then the first enabled one.
func startSource(cfg *config.Config, db *cache.Cache) (string, error) {
	if flagSource != "" {
		if _, ok := cfg.SourceByID(flagSource); !ok {
			return "", fmt.Errorf("unknown or disabled source %q", flagSource)
		}
		return flagSource, nil
	}
	if last, ok := db.GetMeta(cache.KeyLastSource); ok {
		if _, valid := cfg.SourceByID(last); valid {
			return last, nil
		}
	}
	return cfg.DefaultSourceID(), nil
}
