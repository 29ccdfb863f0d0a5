package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/db"
	httpx "github.com/geocoder89/recipehub/internal/http"
	"github.com/geocoder89/recipehub/internal/http/handlers"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/queue"
	"github.com/geocoder89/recipehub/internal/queue/redisclient"
	"github.com/geocoder89/recipehub/internal/repo/postgres"
	"github.com/geocoder89/recipehub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	shutdownTracer, err := observability.InitTracer(ctx, "recipehub-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(ctx, pool, cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)
	activities := postgres.NewActivitiesRepo(pool, prom)
	hasher := security.NewHasher()

	sessions := auth.NewSessionManager(postgres.NewSessionsRepo(pool, prom), activities, cfg.SessionTTL, log).WithMetrics(prom)
	resets := auth.NewResetManager(users, postgres.NewPasswordResetsRepo(pool, prom), hasher, cfg.ResetTokenTTL, log).WithMetrics(prom)
	accounts := auth.NewAccounts(users, sessions, hasher, activities, log)

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rc.Close() }()

	if err := rc.Ping(ctx); err != nil {
		// reset links can still be logged outside prod; readyz reports the outage
		log.Warn("redis unavailable at startup", "addr", cfg.RedisAddr, "err", err)
	}

	router := httpx.NewRouter(httpx.Deps{
		Log:            log,
		Prom:           prom,
		Gatherer:       reg,
		ServiceName:    "recipehub-api",
		Release:        cfg.IsProd(),
		AllowedOrigins: cfg.AllowedOrigins,
		Cookie: handlers.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.IsProd(),
		},
		Reset: handlers.PasswordResetConfig{
			BaseURL:  cfg.AppBaseURL,
			LogLinks: !cfg.IsProd(),
		},
		Accounts:    accounts,
		Sessions:    accounts,
		Resets:      resets,
		ResetSender: queue.NewResetMailQueue(rc.Raw(), ""),
		Activities:  activities,
		Users:       users,
		Checks: []handlers.Check{
			{Name: "postgres", Ping: pool.Ping},
			{Name: "redis", Ping: rc.Ping},
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
