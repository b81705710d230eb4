// ABOUTME: Daemon command for running hikmaai-censor as a service
// ABOUTME: Serves the HTTP API and NATS request/reply with an optional journal

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-censor/internal/api"
	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/config"
	"github.com/hikmaai-io/hikmaai-censor/internal/engine"
	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
	"github.com/hikmaai-io/hikmaai-censor/internal/queue"
)

func newDaemonCmd(opts *globalOptions) *cobra.Command {
	var (
		schemaFile string
		httpAddr   string
		natsURL    string
		journalOn  bool
		dataDir    string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the censoring daemon",
		Long: `Start the HikmaCensor daemon. It serves the HTTP API when an HTTP
address is configured and answers NATS censor requests when a NATS URL
is configured. With the journal enabled every censored document is
recorded in the data directory.

Flags override the config file and CENSOR_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("schema") {
				cfg.SchemaFile = schemaFile
			}
			if flags.Changed("http-addr") {
				cfg.HTTP.Addr = httpAddr
			}
			if flags.Changed("nats-url") {
				cfg.NATS.URL = natsURL
			}
			if flags.Changed("journal") {
				cfg.Journal.Enabled = journalOn
			}
			if flags.Changed("data-dir") {
				cfg.DataDir = dataDir
			}

			return runDaemon(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "field schema file (YAML or TOML)")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP API address (e.g. :8080)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL")
	cmd.Flags().BoolVar(&journalOn, "journal", false, "record censored documents")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory for the journal")

	return cmd
}

// natsConfig overlays the configured NATS settings on the client defaults.
func natsConfig(cfg *config.Config) queue.NATSConfig {
	nc := queue.DefaultNATSConfig()
	nc.URL = cfg.NATS.URL
	if cfg.NATS.Subject != "" {
		nc.Subject = cfg.NATS.Subject
	}
	nc.BatchSubject = cfg.NATS.BatchSubject
	if cfg.NATS.Queue != "" {
		nc.QueueGroup = cfg.NATS.Queue
	}
	if cfg.NATS.Timeout > 0 {
		nc.Timeout = cfg.NATS.Timeout
	}
	return nc
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	if cfg.HTTP.Addr == "" && cfg.NATS.URL == "" {
		return errors.New("nothing to serve; configure an HTTP address or a NATS URL")
	}

	char, err := maskingCharacter(cfg)
	if err != nil {
		return err
	}

	bootstrap := newLogger(cfg, nil, os.Stdout)
	cache := censor.NewPatternCache()
	reg, err := loadRegistry(cfg.SchemaFile, char, cache, bootstrap)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, reg, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting hikmaai-censor daemon",
		slog.String("version", version),
		slog.String("schema_file", cfg.SchemaFile),
		slog.Int("fields", reg.Len()),
		slog.String("http_addr", cfg.HTTP.Addr),
		slog.String("nats_url", cfg.NATS.URL),
		slog.Bool("journal", cfg.Journal.Enabled),
	)

	tp, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		Enabled:       cfg.Tracing.Enabled,
		ServiceName:   observability.TracerName,
		Version:       version,
		Endpoint:      cfg.Tracing.Endpoint,
		Insecure:      cfg.Tracing.Insecure,
		SamplingRatio: cfg.Tracing.SamplingRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	audit := observability.NewAuditLogger(logger)
	engCfg := engine.Config{
		Registry:         reg,
		Audit:            audit,
		Logger:           logger,
		PatternCache:     cache,
		MaskingCharacter: char,
	}
	if cfg.Journal.Enabled {
		store, err := openJournal(cfg)
		if err != nil {
			return err
		}
		engCfg.Journal = store
		logger.Info("journal opened",
			slog.String("path", cfg.JournalPath()),
			slog.Duration("ttl", cfg.Journal.TTL),
		)
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var httpServer *http.Server
	if cfg.HTTP.Addr != "" {
		handler := api.NewHandler(api.HandlerConfig{
			Engine:       eng,
			Logger:       logger,
			Audit:        audit,
			RateLimit:    cfg.HTTP.RateLimit,
			Burst:        cfg.HTTP.Burst,
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
			Version:      version,
		})

		httpServer = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("starting HTTP server", slog.String("addr", cfg.HTTP.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", slog.String("error", err.Error()))
				cancel()
			}
		}()
	}

	var natsClient *queue.Client
	if cfg.NATS.URL != "" {
		natsClient = queue.NewClient(natsConfig(cfg), queue.NewHandler(eng), logger)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		if err := natsClient.Subscribe(ctx); err != nil {
			_ = natsClient.Close()
			return err
		}
	}

	logger.Info("daemon ready, waiting for requests")
	<-ctx.Done()

	logger.Info("shutting down daemon")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if natsClient != nil {
		_ = natsClient.Close()
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown error", slog.String("error", err.Error()))
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("daemon stopped", slog.String("metrics", eng.Metrics().String()))

	return nil
}
