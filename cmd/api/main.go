// Package main is the entry point for the bus booking API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/samuelmuhia/booking-website/internal/clock"
	"github.com/samuelmuhia/booking-website/internal/config"
	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/events"
	"github.com/samuelmuhia/booking-website/internal/handler"
	"github.com/samuelmuhia/booking-website/internal/inventory"
	"github.com/samuelmuhia/booking-website/internal/middleware"
	"github.com/samuelmuhia/booking-website/internal/repo"
	"github.com/samuelmuhia/booking-website/internal/service"
	"github.com/samuelmuhia/booking-website/internal/worker"
	"github.com/samuelmuhia/booking-website/migrations"
	"github.com/samuelmuhia/booking-website/spec"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := pflag.String("config", "", "path to an env-format config file")
	issueToken := pflag.String("issue-token", "", "print a bearer token for USER[:ROLE] and exit")
	tokenTTL := pflag.Duration("token-ttl", 0, "lifetime of a token printed by --issue-token (default TOKEN_TTL)")
	pflag.Parse()

	// --- Config -----------------------------------------------------------
	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if *issueToken != "" {
		user, role, _ := strings.Cut(*issueToken, ":")
		ttl := cfg.TokenTTL
		if *tokenTTL > 0 {
			ttl = *tokenTTL
		}
		token, err := middleware.IssueToken([]byte(cfg.JWTSecret), user, role, ttl)
		if err != nil {
			slog.Error("issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadWithFile(path)
	}
	return config.Load()
}

// run wires the application and blocks until ctx is cancelled or a
// component fails.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	clk := clock.Real()

	// --- Storage ----------------------------------------------------------
	st, err := openStores(ctx, cfg, clk, logger)
	if err != nil {
		return err
	}
	defer st.close()
	trips, bookings := st.trips, st.bookings

	// --- Events -----------------------------------------------------------
	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// --- Booking core -----------------------------------------------------
	seats := inventory.New()
	if err := service.Bootstrap(ctx, trips, bookings, seats, logger); err != nil {
		return err
	}
	catalog := service.NewCatalogService(trips, seats, clk, logger)
	if cfg.SeedDemoTrips {
		added, err := catalog.SeedDemo(ctx)
		if err != nil {
			return err
		}
		logger.Info("demo trips seeded", "count", added)
	}
	ledger := service.NewLedgerService(bookings, seats, publisher, clk, logger)
	sessions := service.NewReservationService(trips, seats, ledger, service.ReservationOptions{
		HoldTTL:   cfg.HoldTTL,
		Retention: cfg.SessionRetention,
		Clock:     clk,
		Logger:    logger,
	})
	query := service.NewQueryService(trips, seats, ledger)
	secret := []byte(cfg.JWTSecret)
	auth := service.NewAuthService(st.users, service.AuthOptions{
		Issue: func(userID string, role domain.Role) (string, error) {
			return middleware.IssueToken(secret, userID, string(role), cfg.TokenTTL)
		},
		AdminEmails: cfg.AdminEmails,
		Clock:       clk,
		Logger:      logger,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	idempotent, closeRedis, err := newIdempotency(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(sessions, ledger, query, catalog, auth, logger)
	r.Mount("/", srv.Routes(handler.RouteOptions{
		Authenticate: middleware.NewAuthenticator(secret),
		Idempotent:   idempotent,
		OpenAPI:      spec.OpenAPI,
	}))

	// --- HTTP Server ------------------------------------------------------
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	sweeper := worker.NewExpirySweeper(sessions, cfg.SweepInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// stores groups the repositories of one backend.
type stores struct {
	trips    repo.TripRepo
	bookings repo.BookingRepo
	users    repo.UserRepo
	close    func()
}

// openStores connects to Postgres when DATABASE_URL is set and falls back to
// the in-memory stores otherwise.
func openStores(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory stores")
		return stores{
			trips:    repo.NewMemoryTripRepo(clk.Now),
			bookings: repo.NewMemoryBookingRepo(),
			users:    repo.NewMemoryUserRepo(),
			close:    func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	if cfg.AutoMigrate {
		if err := migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return stores{}, err
		}
	}
	return stores{
		trips:    repo.NewTripRepo(pool),
		bookings: repo.NewBookingRepo(pool),
		users:    repo.NewUserRepo(pool),
		close:    pool.Close,
	}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations applied", "count", len(results))
	return nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLogPublisher(logger), nil
	}
	p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, "booking-api")
	if err != nil {
		return nil, err
	}
	logger.Info("publishing booking events to kafka", "topic", cfg.KafkaTopic)
	return p, nil
}

// newIdempotency returns the idempotency middleware, or nil when Redis is
// not configured.
func newIdempotency(ctx context.Context, cfg config.Config, logger *slog.Logger) (func(http.Handler) http.Handler, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("idempotency store connected", "addr", cfg.RedisAddr)
	mw := middleware.NewIdempotency(middleware.IdempotencyConfig{
		Client: client,
		TTL:    cfg.IdempotencyTTL,
		Logger: logger,
	})
	return mw, func() { client.Close() }, nil
}
