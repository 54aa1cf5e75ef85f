package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/conntrace-systems/conntrace/internal/audit"
	"github.com/conntrace-systems/conntrace/internal/client"
	"github.com/conntrace-systems/conntrace/internal/config"
	"github.com/conntrace-systems/conntrace/internal/handlers"
	"github.com/conntrace-systems/conntrace/internal/logging"
	"github.com/conntrace-systems/conntrace/internal/report"
	"github.com/conntrace-systems/conntrace/internal/server"
	"github.com/conntrace-systems/conntrace/internal/service"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conntrace API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "override listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("conntrace"))
	logging.SetDefault(logger)

	slog.Info("Starting conntrace service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if addrFlag != "" {
		listenAddr = addrFlag
	}

	osClient, err := client.NewOpenSearchClient(client.Config{
		URL:      cfg.OpenSearch.URL,
		Username: cfg.OpenSearch.Username,
		Password: cfg.OpenSearch.Password,
		Insecure: cfg.OpenSearch.Insecure,
	})
	if err != nil {
		return fmt.Errorf("create opensearch client: %w", err)
	}
	if err := osClient.Ping(); err != nil {
		if !cfg.Search.DegradedPlaceholder {
			return fmt.Errorf("ping opensearch: %w", err)
		}
		slog.Warn("OpenSearch unreachable at startup, continuing in degraded mode",
			slog.String("error", err.Error()))
	} else {
		slog.Info("Connected to OpenSearch", slog.String("url", cfg.OpenSearch.URL))
	}

	// Run audit store migrations if configured
	if cfg.Audit.DatabaseURL != "" {
		slog.Info("Running audit store migrations")
		m, err := migrate.New("file://migrations", cfg.Audit.DatabaseURL)
		if err != nil {
			return fmt.Errorf("initialize migrations: %w", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("Audit store migrations completed")
	}

	sinks := []audit.Sink{audit.NewLogSink(logger.Logger)}

	var natsSink *audit.NATSSink
	if cfg.Audit.NATS.Enabled {
		natsSink, err = audit.NewNATSSink(audit.NATSConfig{
			URL:           cfg.Audit.NATS.URL,
			Name:          "conntrace",
			Subject:       cfg.Audit.NATS.Subject,
			MaxReconnects: cfg.Audit.NATS.MaxReconnects,
			ReconnectWait: cfg.Audit.NATS.ReconnectWaitDuration(),
		})
		if err != nil {
			// The audit trail survives via the log sink; keep serving.
			slog.Warn("Failed to connect NATS audit sink (continuing without it)",
				slog.String("url", cfg.Audit.NATS.URL),
				slog.String("error", err.Error()))
		} else {
			slog.Info("Connected NATS audit sink", slog.String("url", cfg.Audit.NATS.URL))
			sinks = append(sinks, natsSink)
		}
	}

	var pgSink *audit.PostgresSink
	if cfg.Audit.DatabaseURL != "" {
		pgSink, err = audit.NewPostgresSink(context.Background(), cfg.Audit.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect audit store: %w", err)
		}
		defer pgSink.Close()
		sinks = append(sinks, pgSink)
	}

	recorder := audit.NewRecorder(audit.NewSigner(cfg.Audit.Secret), cfg.Audit.BufferSize, sinks...)
	defer recorder.Close()

	opts := []service.Option{}
	if cfg.Search.DegradedPlaceholder {
		opts = append(opts, service.WithDegradedPlaceholder(cfg.Search.PlaceholderCount))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		opts = append(opts, service.WithRegistry(report.NewRegistry(rdb, cfg.Redis.RegistryTTL())))
		slog.Info("Report hash registry enabled", slog.String("addr", cfg.Redis.Addr))
	}

	svc := service.New(osClient, recorder, opts...)
	h := handlers.New(svc)

	srv := &http.Server{
		Addr: listenAddr,
		Handler: server.NewRouter(h, server.Config{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			JWTSecret:      cfg.Auth.JWTSecret,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("conntrace listening", slog.String("addr", listenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-shutdownCtx.Done():
	}
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}

	if natsSink != nil {
		natsSink.Close()
	}
	return nil
}
