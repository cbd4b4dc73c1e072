// @title Hersis POS API
// @version 1.0
// @description Caja, ventas e inventario de farmacias.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hersis/internal/config"
	"hersis/internal/infra"
	"hersis/internal/middleware"
	"hersis/internal/repository"
	"hersis/internal/repository/memory"
	"hersis/internal/router"
	"hersis/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Storage ──────────────────────────────────────────────────────────────
	var (
		store repository.Store
		db    *gorm.DB
	)
	if cfg.UsesMemoryStore() {
		mem := memory.NewStore()
		seedDemo(cfg, mem)
		store = mem
	} else {
		db, err = infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		store = repository.NewStore(db)
	}

	// ── Redis (optional) ─────────────────────────────────────────────────────
	// Without Redis audit entries are written inline, no close report is
	// generated and the notification stream answers 503.
	var (
		rdb        *redis.Client
		dispatcher *worker.Dispatcher
		publisher  worker.Publisher
	)
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without queues")
			rdb = nil
		}
	}
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
		publisher = worker.NewRedisPublisher(rdb)

		mailer := infra.NewMailer(cfg)
		repos := store.Repos()
		handlers := &worker.WorkerHandlers{
			Auditoria:  worker.NewAuditoriaWorker(repos.Logs),
			CierreCaja: worker.NewCierreCajaWorker(repos, cfg.PDFStoragePath, cfg.ReportesEmail, dispatcher),
			Email:      worker.NewEmailWorker(mailer, infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))),
		}
		worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
	}

	worker.StartStockMonitor(ctx, worker.StockMonitorConfig{
		Productos:      store.Repos().Productos,
		Notificaciones: store.Repos().Notificaciones,
		Publisher:      publisher,
		StockMinimo:    cfg.StockMinimo,
		DiasAviso:      cfg.DiasAvisoVencimiento,
		Interval:       cfg.MonitorInterval,
	})

	r := router.New(cfg, store, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("store", cfg.StoreDriver).Bool("redis", rdb != nil).Msgf("Hersis backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

// seedDemo loads the demo catalog into the memory store and logs ready-made
// tokens for both demo users.
func seedDemo(cfg *config.Config, mem *memory.Store) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hersis"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}
	demo := memory.SeedDemo(mem, string(hash))
	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour

	adminTok, err := middleware.SignToken(cfg.JWTSecret, demo.Administrador.ID, demo.Administrador.Username, demo.Administrador.Rol, nil, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign demo token")
	}
	cajeroTok, err := middleware.SignToken(cfg.JWTSecret, demo.Cajero.ID, demo.Cajero.Username, demo.Cajero.Rol, demo.Cajero.SucursalID, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign demo token")
	}
	log.Info().
		Str("sucursal_id", demo.Sucursal.ID.String()).
		Str("token_admin", adminTok).
		Str("token_cajero", cajeroTok).
		Msg("memory store seeded with demo data")
}
