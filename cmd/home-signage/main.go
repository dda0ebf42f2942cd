package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mametango/home-signage-sub000/internal/ai"
	httpapi "github.com/Mametango/home-signage-sub000/internal/api/http"
	"github.com/Mametango/home-signage-sub000/internal/config"
	"github.com/Mametango/home-signage-sub000/internal/news"
	"github.com/Mametango/home-signage-sub000/internal/observability"
	"github.com/Mametango/home-signage-sub000/internal/quake"
	"github.com/Mametango/home-signage-sub000/internal/scheduler"
	"github.com/Mametango/home-signage-sub000/internal/settings"
	"github.com/Mametango/home-signage-sub000/internal/store"
	"github.com/Mametango/home-signage-sub000/internal/weather"
	"github.com/Mametango/home-signage-sub000/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	prefs, err := settings.Open(ctx, cfg.SettingsDB, settings.Settings{
		Location: weather.Location{Prefecture: cfg.DefaultPrefecture, City: cfg.DefaultCity},
	})
	if err != nil {
		logger.Error("failed to open settings database", "path", cfg.SettingsDB, "error", err)
		os.Exit(1)
	}
	defer prefs.Close()

	// In-memory stores: the displayed snapshot and the bounded commentary log.
	snapshots := store.NewSnapshotStore()
	commentary := store.NewCommentaryLog(cfg.CommentaryLogSize)

	// Fallback chain. One JMA provider serves both of its steps so the
	// forecast document is fetched once per cycle.
	jma := providers.NewJMAProvider(httpClient, cfg.ProviderMaxRetries, clock)
	steps := []weather.Step{
		{Provider: providers.NewForecastProvider(httpClient, cfg.ProviderMaxRetries, clock), When: weather.Always, Fields: weather.FieldAll},
		{Provider: jma, When: weather.MissingMin, Fields: weather.FieldTemps},
		{Provider: jma, When: weather.MissingCondition, Fields: weather.FieldCondition},
		{Provider: providers.NewAmedasProvider(httpClient, cfg.ProviderMaxRetries, clock), When: weather.MissingBothTemps, Fields: weather.FieldTemps},
		{Provider: providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.ProviderMaxRetries), When: weather.MissingAnyTemp, Fields: weather.FieldTemps},
	}
	resolver := weather.NewResolver(steps, clock, logger, metrics)

	hourly := []weather.HourlyProvider{
		providers.NewOpenMeteoProvider(httpClient, cfg.ProviderMaxRetries, clock),
		providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, cfg.ProviderMaxRetries, clock),
	}

	// Generative commentary: the relay endpoint needs the key; the refresh
	// service prefers a remote relay when one is configured.
	var (
		completer httpapi.Completer
		commenter weather.Commenter
	)
	if cfg.AIAPIKey != "" {
		client := ai.NewClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, cfg.AILabel, &http.Client{Timeout: cfg.AITimeout})
		completer, commenter = client, client
	}
	if cfg.AIRelayURL != "" {
		commenter = ai.NewProxyCommenter(cfg.AIRelayURL, &http.Client{Timeout: cfg.AITimeout})
	}
	if !cfg.AIEnabled() {
		logger.Info("ai commentary disabled")
	}

	var geocoder weather.Geocoder
	if cfg.GoogleMapsAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleMapsAPIKey)
	}

	// Core service orchestrating the chain, stores and commentary.
	service := weather.NewService(weather.ServiceDeps{
		Resolver:  resolver,
		Store:     snapshots,
		Log:       commentary,
		Commenter: commenter,
		AILabel:   cfg.AILabel,
		AIEnabled: func() bool {
			current, err := prefs.Get(context.Background())
			return err == nil && current.Preferences.AICommentary
		},
		AITimeout: cfg.AITimeout,
		Hourly:    hourly,
		Weekly:    jma,
		Geocoder:  geocoder,
		Clock:     clock,
		Logger:    logger,
		Recorder:  metrics,
	})
	service.ConditionChanges().Subscribe(func(c weather.Condition) {
		logger.Info("weather condition changed", "condition", c, "icon", c.Icon())
	})

	// A location change starts a new cycle right away; any cycle still in
	// flight for the old location is dropped when it completes.
	var (
		locMu   sync.Mutex
		lastLoc weather.Location
	)
	prefs.Subscribe(func(s settings.Settings) {
		locMu.Lock()
		changed := s.Location != lastLoc
		lastLoc = s.Location
		locMu.Unlock()
		if !changed {
			return
		}
		go func() {
			refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if err := service.Refresh(refreshCtx, s.Location); err != nil {
				logger.Warn("refresh after location change failed", "error", err)
			}
		}()
	})

	ticker := news.NewTicker(cfg.NewsFeeds, httpClient, cfg.NewsMaxItems, logger)
	quakes := quake.NewMonitor(httpClient, cfg.QuakeLimit, prefs, clock, logger)

	// Scheduler that periodically refreshes every panel.
	sched := scheduler.New(logger, metrics)
	sched.Add(scheduler.Job{
		Name:     "weather",
		Interval: cfg.WeatherInterval,
		Timeout:  2 * time.Minute,
		Run: func(ctx context.Context) error {
			current, err := prefs.Get(ctx)
			if err != nil {
				return err
			}
			locMu.Lock()
			lastLoc = current.Location
			locMu.Unlock()
			return service.Refresh(ctx, current.Location)
		},
	})
	sched.Add(scheduler.Job{Name: "news", Interval: cfg.NewsInterval, Run: ticker.Poll})
	sched.Add(scheduler.Job{Name: "quake", Interval: cfg.QuakeInterval, Run: quakes.Poll})
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "home-signage",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.AITimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if err := prefs.Ping(c.UserContext()); err != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":  status,
			"service": "home-signage",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:    service,
		Commentary: commentary,
		News:       ticker,
		Quakes:     quakes,
		Settings:   prefs,
	})
	httpapi.RegisterRelays(app, httpapi.RelayDeps{
		AI:                completer,
		AITimeout:         cfg.AITimeout,
		FeedClient:        httpClient,
		BroadcasterPrefix: cfg.BroadcasterFeedPrefix,
		Recorder:          metrics,
	})

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}
