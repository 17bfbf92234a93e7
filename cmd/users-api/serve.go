package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/miralles/users-api/internal/api"
	"github.com/miralles/users-api/internal/api/handler"
	"github.com/miralles/users-api/internal/api/metrics"
	"github.com/miralles/users-api/internal/core/ports"
	"github.com/miralles/users-api/internal/core/service"
	"github.com/miralles/users-api/internal/infrastructure/db/memory"
	mongostore "github.com/miralles/users-api/internal/infrastructure/db/mongo"
	redisstore "github.com/miralles/users-api/internal/infrastructure/db/redis"
	"github.com/miralles/users-api/internal/pkg/config"
	"github.com/miralles/users-api/internal/pkg/password"
	"github.com/miralles/users-api/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP server. This is also what runs when no subcommand is given.`,
	Example: `users-api serve
STORE_BACKEND=mongo MONGO_URI=mongodb://localhost:27017 users-api serve`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if rootCmdPersistentFlags.LogLevel != "" {
		level = rootCmdPersistentFlags.LogLevel
	}
	log := logger.Init(logger.Options{
		Level:   level,
		Pretty:  cfg.IsDevelopment(),
		Service: "users-api",
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	checks := make(map[string]handler.Check)

	// --- Store ---
	var repo ports.UserRepository
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		users := mongostore.NewUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo = users
		checks["mongodb"] = func(ctx context.Context) error { return mongostore.Ping(ctx, db) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongodb user store")
	default:
		store := memory.NewUserStore()
		metrics.RegisterStoreSize(reg, store.Len)
		repo = store
		log.Info().Msg("using in-memory user store")
	}

	// --- Login throttle ---
	var throttle ports.LoginThrottle
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close() //nolint:errcheck

		throttle = redisstore.NewLoginThrottle(rdb, cfg.Login.MaxAttempts, cfg.Login.LockoutWindow)
		checks["redis"] = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login throttling disabled")
	}

	// --- Services ---
	hasher := password.NewHasher(0)
	userService := service.NewUserService(repo, hasher, log)
	authService := service.NewAuthService(repo, hasher, throttle, cfg.JWTSecret, cfg.TokenTTL, log)

	runBootstrap(ctx, service.NewAdminBootstrapper(repo, hasher, service.AdminSettings{
		Enabled:  cfg.Admin.Enabled,
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, log), cfg.Admin.Enabled, m, log)

	e := api.NewRouter(api.Dependencies{
		Users:     userService,
		Auth:      authService,
		Store:     repo,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
		Checks:    checks,
		Registry:  reg,
		Metrics:   m,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

type bootstrapper interface {
	Run(ctx context.Context) (bool, error)
}

// runBootstrap runs the admin bootstrap and records its outcome. A failure is
// logged and startup carries on.
func runBootstrap(ctx context.Context, b bootstrapper, enabled bool, m *metrics.Metrics, log zerolog.Logger) {
	created, err := b.Run(ctx)
	result := metrics.BootstrapExisting
	switch {
	case err != nil:
		result = metrics.BootstrapError
		log.Error().Err(err).Msg("admin bootstrap failed, continuing without it")
	case created:
		result = metrics.BootstrapCreated
	case !enabled:
		result = metrics.BootstrapDisabled
	}
	m.AdminBootstrapTotal.WithLabelValues(result).Inc()
}
