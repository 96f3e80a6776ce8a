// Package main is the entry point for the flight booking API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/flight-booking/internal/cache"
	"github.com/pkordes/flight-booking/internal/config"
	"github.com/pkordes/flight-booking/internal/handler"
	"github.com/pkordes/flight-booking/internal/realtime"
	"github.com/pkordes/flight-booking/internal/repo"
	"github.com/pkordes/flight-booking/internal/seat"
	"github.com/pkordes/flight-booking/internal/service"
	"github.com/pkordes/flight-booking/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A local .env file is optional; real environment variables win.
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
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

	// --- Migrations -------------------------------------------------------
	// goose needs a *sql.DB; the pgx stdlib driver provides one over the
	// same connection string as the pool.
	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Services ---------------------------------------------------------
	repos := repo.NewRepos(pool)
	tx := repo.NewTransactor(pool)

	hub := realtime.NewHub(logger, cfg.CORSOrigins)
	go hub.Run(ctx)

	auditSvc := service.NewAuditService(repos.Audit)
	fx := service.Effects{
		Cache:  cache.NewReservationCache(cfg.CacheSize, cfg.CacheTTL),
		Audit:  auditSvc,
		Notify: hub,
		Log:    logger,
	}
	reservationSvc := service.NewReservationService(tx, repos.Reservations,
		service.NewReservationChecker(time.Now), seat.NewAllocator(nil), fx)
	flightSvc := service.NewFlightService(tx, repos.Flights, repos.Reservations, fx, time.Now)

	// --- Router -----------------------------------------------------------
	srvHandler := handler.NewServer(flightSvc, reservationSvc, auditSvc, hub, logger)
	r := handler.NewRouter(srvHandler, handler.RouterOptions{
		Logger:       logger,
		JWTSecret:    []byte(cfg.JWTSecret),
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// Websocket connections manage their own deadlines once hijacked.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing. Cancelling ctx
	// also stops the hub, which closes every websocket.
	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending migrations over a short-lived database/sql handle.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}
