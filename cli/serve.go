package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	"github.com/latticegate/pqcbridge"
	"github.com/latticegate/pqcbridge/engine"
	"github.com/latticegate/pqcbridge/history"
	"github.com/latticegate/pqcbridge/mcp"
	pqcotel "github.com/latticegate/pqcbridge/otel"
	"github.com/latticegate/pqcbridge/schedule"
)

const probeInterval = 60 * time.Second

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP bridge over stdio or HTTP",
		RunE:  runServe,
	}

	cmd.Flags().String("config", "", "Path to pqcbridge.yaml")
	cmd.Flags().String("engine", "", "Path to the pqc-scanner binary")
	cmd.Flags().Duration("engine-timeout", 0, "Per-invocation engine deadline")
	cmd.Flags().String("scratch-dir", "", "Directory for engine report artifacts")
	cmd.Flags().String("transport", "", "Transport to serve on (stdio or http)")
	cmd.Flags().String("http-addr", "", "Listen address for the http transport")
	cmd.Flags().String("history-dsn", "", "SQLite DSN for dispatch history")
	cmd.Flags().String("descriptor-dir", "", "Directory of tool descriptor overrides")
	cmd.Flags().Int("max-concurrent", 0, "Maximum concurrent tool calls (0 = unlimited)")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTel.Endpoint != "" {
		provider, err := pqcotel.NewTraceProvider(ctx, cfg.OTel.Endpoint, cfg.OTel.Insecure)
		if err != nil {
			return exitError(exitConfig, "configuring trace export: %v", err)
		}
		otelapi.SetTracerProvider(provider)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("trace provider shutdown failed", "error", err)
			}
		}()
	}

	scratch, err := engine.NewScratch(cfg.Engine.ScratchDir)
	if err != nil {
		return exitError(exitConfig, "preparing scratch dir: %v", err)
	}
	runner := engine.NewRunner(cfg.Engine.Path, time.Duration(cfg.Engine.Timeout), scratch)

	descriptors, err := pqcbridge.LoadDescriptors(cfg.DescriptorDir)
	if err != nil {
		return exitError(exitConfig, "loading descriptors: %v", err)
	}
	registry, err := pqcbridge.NewRegistry(descriptors)
	if err != nil {
		return exitError(exitConfig, "building registry: %v", err)
	}

	dispatchObserver, err := pqcotel.NewDispatchObserver(
		otelapi.GetMeterProvider().Meter("pqcbridge/tool"),
		otelapi.GetTracerProvider().Tracer("pqcbridge/tool"),
	)
	if err != nil {
		return exitError(exitRuntime, "creating dispatch observer: %v", err)
	}
	observers := []pqcbridge.Observer{dispatchObserver}

	var store history.Store
	if cfg.History.DSN != "" {
		store, err = history.NewSQLiteStore(cfg.History.DSN)
	} else {
		store = history.NewMemoryStore()
	}
	if err != nil {
		return exitError(exitConfig, "opening history store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing history store failed", "error", err)
		}
	}()
	observers = append(observers, history.NewRecorder(store, logger))

	toolset := pqcbridge.NewToolset(runner, scratch)
	dispatcher, err := pqcbridge.NewDispatcher(registry, toolset.Handlers(), pqcbridge.MultiObserver(observers))
	if err != nil {
		return exitError(exitConfig, "building dispatcher: %v", err)
	}

	server, err := mcp.NewServer(mcp.ServerConfig{
		Info:          mcp.ServerInfo{Name: "pqcbridge", Version: pqcbridge.Version},
		Provider:      dispatcher,
		MaxConcurrent: cfg.MaxConcurrent,
	})
	if err != nil {
		return exitError(exitConfig, "building mcp server: %v", err)
	}

	prober := &healthProber{runner: runner, observer: dispatchObserver, logger: logger}
	prober.probe(ctx)
	go prober.run(ctx, probeInterval)

	var scheduler *schedule.Scheduler
	if len(cfg.Schedules) > 0 {
		scheduler, err = schedule.NewScheduler(schedule.Config{
			Runner:  dispatcher,
			Entries: cfg.Schedules,
			Logger:  logger,
		})
		if err != nil {
			return exitError(exitConfig, "building scheduler: %v", err)
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := scheduler.Stop(stopCtx); err != nil {
				logger.Warn("scheduler stop failed", "error", err)
			}
		}()
	}

	mcpCtx := pqcbridge.WithSource(ctx, pqcbridge.SourceMCP)

	switch cfg.Transport {
	case TransportHTTP:
		return serveHTTP(mcpCtx, cfg, server, prober, scheduler, logger)
	default:
		return serveStdio(mcpCtx, cmd, server, logger)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	parsed, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parsed})), nil
}

func serveStdio(ctx context.Context, cmd *cobra.Command, server *mcp.Server, logger *slog.Logger) error {
	logger.Info("serving MCP over stdio")
	transport := mcp.NewStdioTransport(server, cmd.InOrStdin(), cmd.OutOrStdout())
	if err := transport.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return exitError(exitRuntime, "serving stdio: %v", err)
	}
	return nil
}

func serveHTTP(ctx context.Context, cfg Config, server *mcp.Server, prober *healthProber, scheduler *schedule.Scheduler, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewHTTPTransport(server))
	mux.Handle("/healthz", healthzHandler(prober, scheduler))

	httpServer := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// Write timeout must outlive the engine deadline.
		WriteTimeout: time.Duration(cfg.Engine.Timeout) + 30*time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	logger.Info("serving MCP over http", "addr", cfg.HTTP.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return exitError(exitRuntime, "shutting down http server: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(exitRuntime, "serving http: %v", err)
		}
		return nil
	}
}

// healthProber periodically checks that the engine binary answers --version
// and remembers the last result for /healthz.
type healthProber struct {
	runner   *engine.Runner
	observer *pqcotel.DispatchObserver
	logger   *slog.Logger

	mu        sync.Mutex
	probed    bool
	available bool
	version   string
	checkedAt time.Time
}

func (p *healthProber) probe(ctx context.Context) {
	start := time.Now()
	version, err := p.runner.Probe(ctx)
	elapsed := time.Since(start)

	p.mu.Lock()
	wasProbed := p.probed
	wasAvailable := p.available
	p.probed = true
	p.available = err == nil
	p.version = version
	p.checkedAt = time.Now().UTC()
	p.mu.Unlock()

	if err != nil {
		if !wasProbed || wasAvailable {
			p.logger.Warn("engine unavailable", "error", err)
		}
	} else if !wasProbed || !wasAvailable {
		p.logger.Info("engine available", "version", version)
	}

	p.observer.ObserveProbe(err == nil, version, elapsed)
}

func (p *healthProber) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *healthProber) status() (bool, string, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available, p.version, p.checkedAt
}

func healthzHandler(prober *healthProber, scheduler *schedule.Scheduler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		available, version, checkedAt := prober.status()

		status := "ok"
		if !available {
			status = "degraded"
		}

		payload := map[string]any{
			"status": status,
			"engine": map[string]any{
				"available":  available,
				"version":    version,
				"checked_at": checkedAt.Format(time.RFC3339),
			},
		}
		if scheduler != nil {
			payload["schedules"] = scheduler.Snapshot()
		}

		w.Header().Set("Content-Type", "application/json")
		if !available {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			return
		}
	})
}
