package cmd

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

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/auth"
	"github.com/frahmantamala/datascope/internal/company"
	"github.com/frahmantamala/datascope/internal/lead"
	"github.com/frahmantamala/datascope/internal/notification"
	"github.com/frahmantamala/datascope/internal/observability"
	"github.com/frahmantamala/datascope/internal/permission"
	"github.com/frahmantamala/datascope/internal/raffle"
	"github.com/frahmantamala/datascope/internal/survey"
	"github.com/frahmantamala/datascope/internal/transport"
	"github.com/frahmantamala/datascope/internal/transport/rest"
	"github.com/frahmantamala/datascope/internal/transport/swagger"
	"github.com/frahmantamala/datascope/internal/user"
	"github.com/frahmantamala/datascope/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	Router   *chi.Mux
	Services *Services
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.close(ctx)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

// close drains in-flight event handlers before releasing the stores they write to.
func (d *Dependencies) close(ctx context.Context) {
	if err := d.Services.Bus.Wait(ctx); err != nil {
		d.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	if d.Services.Webhook != nil {
		d.Services.Webhook.Shutdown()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	svc := deps.Services
	base := transport.NewBaseHandler(deps.Logger)

	var rdb redis.UniversalClient
	if deps.Redis != nil {
		rdb = deps.Redis
	}

	guard := permission.NewGuard(svc.Permission, deps.Logger)
	if deps.Metrics != nil {
		guard.WithRecorder(deps.Metrics)
	}

	handlers := rest.Handlers{
		Health:       rest.NewHealthHandler(deps.DB, rdb),
		Auth:         auth.NewAuthenticator(auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.DevTokenTTL), deps.Logger),
		Company:      company.NewHandler(base, svc.Company),
		Guard:        guard,
		Permission:   permission.NewHandler(base, svc.Permission),
		User:         user.NewHandler(base, svc.User),
		Lead:         lead.NewHandler(base, svc.Lead),
		Survey:       survey.NewHandler(base, svc.Survey),
		Raffle:       raffle.NewHandler(base, svc.Raffle),
		Notification: notification.NewHandler(base, svc.Notification),
	}

	rest.RegisterAllRoutes(deps.Router, handlers, rest.Options{
		Logger:          deps.Logger,
		Metrics:         deps.Metrics,
		MetricsPath:     cfg.Observability.Metrics.Path,
		OpenAPIPath:     cfg.Server.OpenAPIPath,
		AllowedOrigins:  cfg.Server.Origins(),
		Production:      cfg.IsProduction(),
		PublicRateLimit: cfg.Security.PublicRateLimit,
	})
}

func initializeDependencies() (*Dependencies, error) {
	config := mustLoadConfig()
	log := logger.LoggerWrapper()

	if config.Server.OpenAPIPath != "" {
		doc, err := swagger.LoadDocument(context.Background(), config.Server.OpenAPIPath)
		if err != nil {
			return nil, err
		}
		log.Info("openapi document loaded", "operations", swagger.Operations(doc))
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := initGorm(db, config.IsProduction())
	if err != nil {
		return nil, err
	}
	rdb, err := initRedis(config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	var metrics *observability.Metrics
	if config.Observability.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Redis:    rdb,
		Router:   chi.NewRouter(),
		Services: buildServices(config, db, gdb, rdb, metrics, log),
		Metrics:  metrics,
		Logger:   log,
	}, nil
}
