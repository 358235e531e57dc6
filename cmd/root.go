// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ionovox/server/internal/auth"
	"github.com/ionovox/server/internal/bus"
	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/config"
	internalhttp "github.com/ionovox/server/internal/http"
	"github.com/ionovox/server/internal/logging"
	"github.com/ionovox/server/internal/metrics"
	"github.com/ionovox/server/internal/notify"
	"github.com/ionovox/server/internal/pprof"
	"github.com/ionovox/server/internal/propagation"
	"github.com/ionovox/server/internal/pubsub"
	"github.com/ionovox/server/internal/server"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/stats"
	"github.com/ionovox/server/internal/store"
	"github.com/ionovox/server/internal/store/gormstore"
	"github.com/ionovox/server/internal/voice"
)

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ionovox",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("IonoVox - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupTracing(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	defer func() {
		if err := cleanup(ctx); err != nil {
			slog.Error("Failed to shutdown tracer", "error", err)
		}
	}()

	backing, err := gormstore.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	pubsubClient, err := pubsub.MakePubSub(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to pubsub: %w", err)
	}

	eventBus := bus.New(pubsubClient)

	channels, err := channel.New(ctx, backing, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize channel manager: %w", err)
	}

	sessions, err := session.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to initialize session registry: %w", err)
	}

	ionosphere := propagation.NewIonosphere(
		cfg.Propagation.SolarFluxIndex,
		cfg.Propagation.KIndex,
		effectiveSeason(cfg),
		func(epoch uint64) {
			if err := eventBus.Publish(bus.TopicPropagationUpdated, bus.PropagationUpdated{
				Epoch:          epoch,
				SolarFluxIndex: cfg.Propagation.SolarFluxIndex,
				KIndex:         cfg.Propagation.KIndex,
			}); err != nil {
				slog.Error("failed to publish propagation update", "error", err)
			}
		},
	)

	router := voice.NewRouter(voice.Config{
		Channels:   channels,
		Sessions:   sessions,
		Groups:     backing.Groups(),
		Ionosphere: ionosphere,
	})
	// Any channel/ACL/membership mutation can change a materialized whisper
	// target's resolved session set, so the router must drop its cache
	// whenever one occurs (spec §4.4).
	channels.SetMutationHook(router.InvalidateAll)

	breach := auth.NewBreachChecker(cfg.Server.BreachCheckAPIKey)
	notifier := notify.NewSender(cfg.SMTP)

	metricsDeps := metrics.NewMetrics(metrics.Deps{
		Sessions:   sessions,
		Channels:   channels,
		Ionosphere: ionosphere,
	})

	scheduler, err := setupScheduler()
	if err != nil {
		return err
	}
	setupPeriodicJobs(scheduler, cfg, ionosphere, metricsDeps)
	scheduler.Start()

	startBackgroundServices(cfg)

	srv := server.New(server.Deps{
		Config:   cfg.Server,
		Store:    backing,
		Channels: channels,
		Sessions: sessions,
		Router:   router,
		Breach:   breach,
		Notifier: notifier,
	})

	var adminSrv *internalhttp.Server
	if cfg.Admin.Enabled {
		s := internalhttp.MakeServer(internalhttp.Deps{
			Config:     cfg.Metrics,
			Server:     cfg.Server,
			Store:      backing,
			Channels:   channels,
			Sessions:   sessions,
			Ionosphere: ionosphere,
			Bus:        eventBus,
			StatsDir:   cfg.StatsDir,
			BindAddr:   cfg.Admin.BindAddress,
			Port:       cfg.Admin.Port,
			Secret:     cfg.Admin.Secret,
		})
		adminSrv = &s
		go func() {
			if err := adminSrv.Start(); err != nil && !errors.Is(err, internalhttp.ErrClosed) {
				slog.Error("admin server failed", "error", err)
			}
		}()
	}

	serveCtx, cancel := context.WithCancel(ctx)
	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- srv.Run(serveCtx)
	}()

	slog.Info("IonoVox server ready to accept traffic",
		"control_port", cfg.Server.ControlPort, "voice_port", cfg.Server.EffectiveVoicePort())

	setupShutdownHandlers(serveCtx, cancel, scheduler, srv, adminSrv, backing, eventBus, serveErrCh, cleanup)

	return nil
}

// loadConfig loads the configuration from context.
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}

	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// setupLogger configures the structured logger.
func setupLogger(cfg *config.Config) {
	logging.Setup(logging.Level(cfg.LogLevel))
}

// setupScheduler creates and configures the job scheduler.
func setupScheduler() (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return scheduler, nil
}

// setupTracing initializes OpenTelemetry tracing if configured. When
// tracing is not configured it returns a no-op cleanup function.
func setupTracing(cfg *config.Config) (func(context.Context) error, error) {
	if cfg.Metrics.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	return initTracer(cfg)
}

// startBackgroundServices starts the metrics and pprof servers.
func startBackgroundServices(cfg *config.Config) {
	go func() {
		err := metrics.CreateMetricsServer(cfg)
		if err != nil {
			slog.Error("Failed to start metrics server", "error", err)
		}
	}()
	go func() {
		err := pprof.CreatePProfServer(cfg)
		if err != nil {
			slog.Error("Failed to start pprof server", "error", err)
		}
	}()
}

// effectiveSeason resolves the starting ionospheric season: the configured
// value, or a calendar-derived guess when AutoSeason is set.
func effectiveSeason(cfg *config.Config) propagation.Season {
	if !cfg.Propagation.AutoSeason {
		return propagation.Season(cfg.Propagation.Season)
	}
	switch time.Now().Month() {
	case time.December, time.January, time.February:
		return propagation.SeasonWinter
	case time.March, time.April, time.May:
		return propagation.SeasonSpring
	case time.June, time.July, time.August:
		return propagation.SeasonSummer
	default:
		return propagation.SeasonFall
	}
}

// setupPeriodicJobs schedules the ionospheric refresh tick and the
// user-stats directory sweep. External solar-data ingestion (DXView/SWPC)
// is out of scope, so the refresh callback only re-applies the
// already-configured SFI/K/season, which keeps the epoch-bump and
// singleflight-coalescing machinery exercised without a network fetch.
func setupPeriodicJobs(scheduler gocron.Scheduler, cfg *config.Config, ionosphere *propagation.Ionosphere, m *metrics.Metrics) {
	interval := time.Duration(cfg.Propagation.UpdateInterval) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	if cfg.Propagation.Enabled {
		_, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				err := ionosphere.Tick(context.Background(), func(_ context.Context) (int, int, propagation.Season, bool, error) {
					return cfg.Propagation.SolarFluxIndex, cfg.Propagation.KIndex, effectiveSeason(cfg), false, nil
				})
				if err != nil {
					slog.Error("ionospheric tick failed", "error", err)
				}
			}),
		)
		if err != nil {
			slog.Error("failed to schedule ionospheric tick", "error", err)
		}
	}

	if cfg.StatsDir != "" {
		_, err := scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				sweepStatsDir(cfg.StatsDir, m)
			}),
		)
		if err != nil {
			slog.Error("failed to schedule stats directory sweep", "error", err)
		}
	}
}

// sweepStatsDir ingests every pending user-stats upload under statsDir,
// recording one outcome per file scanned. Per-file failures are already
// logged by stats.ScanDir; a missing or unreadable directory is treated as
// "nothing to ingest yet" rather than an operational failure.
func sweepStatsDir(statsDir string, m *metrics.Metrics) {
	if _, err := os.Stat(statsDir); err != nil {
		return
	}
	files, err := stats.ScanDir(statsDir)
	if err != nil {
		slog.Warn("stats directory sweep failed", "error", err)
		return
	}
	for _, f := range files {
		m.RecordStatsFile("ingested")
		slog.Debug("ingested stats upload", "user", f.Username, "file", f.Name, "rows", len(f.Rows))
	}
}

// setupShutdownHandlers blocks until SIGINT/SIGTERM/SIGQUIT/SIGHUP is
// received or the server loop exits on its own, then performs an orderly
// shutdown of the scheduler, server, store, and event bus.
func setupShutdownHandlers(
	ctx context.Context,
	cancel context.CancelFunc,
	scheduler gocron.Scheduler,
	srv *server.Server,
	adminSrv *internalhttp.Server,
	backing store.Store,
	eventBus *bus.Bus,
	serveErrCh <-chan error,
	cleanup func(context.Context) error,
) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slog.Error("Shutting down due to signal", "signal", sig)
	case err := <-serveErrCh:
		if err != nil {
			slog.Error("Server loop exited", "error", err)
		}
	}

	cancel()

	wg := new(sync.WaitGroup)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := scheduler.StopJobs(); err != nil {
			slog.Error("Failed to stop scheduler jobs", "error", err)
		}
		if err := scheduler.Shutdown(); err != nil {
			slog.Error("Failed to stop scheduler", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Close(); err != nil {
			slog.Error("Failed to close server", "error", err)
		}
		if adminSrv != nil {
			adminSrv.Stop(context.Background())
		}
		if err := backing.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
		if err := eventBus.Close(); err != nil {
			slog.Error("Failed to close event bus", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if cleanup != nil {
			const timeout = 5 * time.Second
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := cleanup(shutdownCtx); err != nil {
				slog.Error("Failed to shutdown tracer", "error", err)
			}
		}
	}()

	const timeout = 10 * time.Second
	c := make(chan struct{})
	go func() {
		defer close(c)
		wg.Wait()
	}()
	select {
	case <-c:
		slog.Info("All servers stopped, shutting down gracefully")
		os.Exit(0)
	case <-time.After(timeout):
		slog.Error("Shutdown timed out, forcing exit")
		os.Exit(1)
	}
}

func initTracer(cfg *config.Config) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "ionovox"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resources: %w", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown, nil
}
