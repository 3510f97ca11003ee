package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/i474232898/people-weather/internal/advice"
	"github.com/i474232898/people-weather/internal/aggregate"
	"github.com/i474232898/people-weather/internal/config"
	"github.com/i474232898/people-weather/internal/logging"
	"github.com/i474232898/people-weather/internal/people"
	"github.com/i474232898/people-weather/internal/store"
	"github.com/i474232898/people-weather/internal/upstream"
	"github.com/i474232898/people-weather/internal/weather"
	"github.com/i474232898/people-weather/internal/weather/providers"
)

// dotenvLoaded is read by the commands to log whether a .env file was used.
var dotenvLoaded bool

func loadDotEnv(files ...string) {
	dotenvLoaded = config.LoadDotEnv(files...)
}

// services holds the wired service graph shared by every command.
type services struct {
	cfg    *config.AppConfig
	logger zerolog.Logger

	slot    store.Slot
	source  people.Source
	fetcher *weather.Fetcher
	advisor *advice.Client
	engine  *aggregate.Engine
}

func newServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
	if !dotenvLoaded {
		logger.Debug().Msg("no .env file loaded")
	}

	slot, err := openSlot(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for outbound calls. Each upstream gets its own breaker.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	source := people.NewRandomUserSource(
		upstream.New("randomuser", httpClient),
		cfg.PeopleAPIURL,
		cfg.PeopleNationality,
		logger,
	)
	fetcher := weather.NewFetcher(
		providers.NewOpenMeteoProvider(providers.NewOpenMeteoClient(httpClient, cfg.PageSize), cfg.WeatherAPIURL),
		cfg.WeatherRetryDelay,
		logger,
	)
	advisor := advice.NewClient(upstream.New("advice", httpClient), cfg.AdviceAPIURL)
	saved := store.NewSavedUserStore(slot, logger)

	engine := aggregate.NewEngine(source, fetcher, saved,
		aggregate.WithPageSize(cfg.PageSize),
		aggregate.WithSavedThreshold(cfg.SavedThreshold),
		aggregate.WithLogger(logger),
	)

	return &services{
		cfg:     cfg,
		logger:  logger,
		slot:    slot,
		source:  source,
		fetcher: fetcher,
		advisor: advisor,
		engine:  engine,
	}, nil
}

func (r *services) Close() error {
	return r.slot.Close()
}

func openSlot(cfg *config.AppConfig, logger zerolog.Logger) (store.Slot, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return store.NewMemorySlot(), nil
	case config.StoreFile:
		return store.NewFileSlot(cfg.StorePath)
	case config.StoreSQLite:
		return store.NewSQLiteSlot(cfg.StorePath, store.SlotName, logger)
	default:
		return nil, fmt.Errorf("store driver %q: %w", cfg.StoreDriver, errors.ErrUnsupported)
	}
}
