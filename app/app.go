// File: app/app.go
package app

import (
	"context"
	"errors"
	"jwt-auth-api/config"
	"jwt-auth-api/db"
	"jwt-auth-api/handler"
	"jwt-auth-api/logger"
	"jwt-auth-api/repository"
	"jwt-auth-api/router"
	"jwt-auth-api/service"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dependencies are the storage handles the application is built on.
type Dependencies struct {
	Users   repository.IUserRepository
	Tokens  repository.IRefreshTokenRepository
	Checks  map[string]handler.HealthCheck
	Hasher  *service.BcryptHasher
	NowFunc func() time.Time
}

// App is the wired HTTP application.
type App struct {
	Router http.Handler
	Auth   *service.AuthService
	Seeder *service.UserSeeder
	Tokens repository.IRefreshTokenRepository
}

// NewApp wires services, handlers and the router on top of deps.
func NewApp(cfg *config.Config, deps Dependencies) (*App, error) {
	codec, err := service.NewTokenCodec(service.TokenCodecConfig{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
		Now:        deps.NowFunc,
	})
	if err != nil {
		return nil, err
	}

	hasher := deps.Hasher
	if hasher == nil {
		hasher = service.NewBcryptHasher(0)
	}

	authService := service.NewAuthService(deps.Users, deps.Tokens, codec, hasher)
	authHandler := handler.NewAuthHandler(authService, cfg.Security.Cookie)
	healthHandler := handler.NewHealthHandler(deps.Checks)

	return &App{
		Router: router.NewRouter(authHandler, healthHandler, authService, cfg.Security.CORS.AllowedOrigins),
		Auth:   authService,
		Seeder: service.NewUserSeeder(deps.Users, hasher, cfg.Seed.Password),
		Tokens: deps.Tokens,
	}, nil
}

func Run() {
	logger.Init()
	logger.Log.Info("Logger initialized")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Log.Fatalf("Error configuring logger: %v", err)
	}
	logger.Log.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	deps := Dependencies{
		Users:  repository.NewUserRepository(database),
		Checks: map[string]handler.HealthCheck{"database": database.PingContext},
	}

	switch cfg.Ledger.Driver {
	case config.LedgerRedis:
		rdb, err := db.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Log.Fatalf("Error connecting to redis: %v", err)
		}
		defer rdb.Close()
		deps.Tokens = repository.NewRedisRefreshTokenRepository(rdb, "refresh")
		deps.Checks["redis"] = redisCheck(rdb)
	default:
		deps.Tokens = repository.NewRefreshTokenRepository(database)
	}
	logger.Log.WithField("driver", cfg.Ledger.Driver).Info("Refresh token ledger selected")

	application, err := NewApp(cfg, deps)
	if err != nil {
		logger.Log.Fatalf("Error building application: %v", err)
	}

	if cfg.Seed.Enabled {
		if err := application.Seeder.Seed(ctx); err != nil {
			logger.Log.Fatalf("Error seeding users: %v", err)
		}
	}

	sweeper := NewSweeper(application.Tokens, cfg.Ledger.SweepInterval)
	sweeperDone := sweeper.Start(ctx)

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}
	<-sweeperDone

	logger.Log.Info("Server exited properly")
}

// redisCheck adapts a redis client to a health check.
func redisCheck(client redis.UniversalClient) handler.HealthCheck {
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}
