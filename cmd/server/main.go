package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vn.io.arda/notify/internal/application"
	"vn.io.arda/notify/internal/config"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/infrastructure/cache"
	"vn.io.arda/notify/internal/infrastructure/okapi"
	"vn.io.arda/notify/internal/infrastructure/postgres"
	kafkaconsumer "vn.io.arda/notify/internal/kafka"
	transporthttp "vn.io.arda/notify/internal/transport/http"
	"vn.io.arda/notify/internal/transport/mw"
)

func main() {
	// ── Logging ──────────────────────────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// ── Config ───────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Server.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("env", cfg.Server.Env).Str("port", cfg.Server.Port).Msg("starting arda-notify")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres ping failed")
	}
	log.Info().Msg("postgres connected")

	repo := postgres.New(pool)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	// ── Remote Call Gateway (+ optional event-config cache) ──────────────────
	var gatewayOpts []okapi.Option
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		eventConfigs := cache.New(rdb, cfg.Redis.EventConfigTTL)
		if err := eventConfigs.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, event-config cache disabled")
			_ = eventConfigs.Close()
		} else {
			gatewayOpts = append(gatewayOpts, okapi.WithEventConfigCache(eventConfigs))
			defer eventConfigs.Close()
			log.Info().Str("addr", cfg.Redis.Addr).Msg("event-config cache enabled")
		}
	}
	gateway := okapi.New(cfg.Okapi.URL, cfg.Okapi.Timeout, gatewayOpts...)
	defer gateway.Close()

	// ── SSE Hub & Application Service ────────────────────────────────────────
	hub := transporthttp.NewHub()
	svc := application.NewService(repo, gateway, hub, cfg.Retention.Window())

	// ── HTTP Server ───────────────────────────────────────────────────────────
	handler := transporthttp.NewHandler(svc, hub)
	router := transporthttp.NewRouter(handler, mw.Options{
		DefaultURL:  cfg.Okapi.URL,
		DefaultLang: cfg.Server.DefaultLang,
		JWTSecret:   cfg.Auth.JWTSecret,
	})

	// ── Kafka Consumer ────────────────────────────────────────────────────────
	if cfg.Kafka.Enabled {
		consumer, err := kafkaconsumer.New(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerGroupID,
			cfg.Kafka.Topics,
			svc,
			domain.RequestContext{
				Token:   cfg.Okapi.ServiceToken,
				BaseURL: cfg.Okapi.URL,
				Lang:    cfg.Server.DefaultLang,
			},
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka consumer")
		}

		// Start Kafka consumer in background
		go consumer.Start(ctx)
		log.Info().Strs("topics", cfg.Kafka.Topics).Msg("kafka consumer started")
	}

	// ── Retention Sweep ───────────────────────────────────────────────────────
	var sweeper *cron.Cron
	if cfg.Retention.SweepSchedule != "" {
		sweeper = cron.New()
		if _, err := sweeper.AddFunc(cfg.Retention.SweepSchedule, func() {
			svc.PurgeTTL(context.Background())
		}); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Retention.SweepSchedule).Msg("invalid retention sweep schedule")
		}
		sweeper.Start()
		log.Info().Str("schedule", cfg.Retention.SweepSchedule).Int("days", cfg.Retention.Days).Msg("retention sweep scheduled")
	}

	// ── Start HTTP Server ─────────────────────────────────────────────────────
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := router.Start(":" + cfg.Server.Port); err != nil {
			log.Info().Msg("HTTP server stopped")
		}
	}()

	// ── Graceful Shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Open SSE streams would otherwise hold Shutdown until the timeout.
	hub.Close()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if sweeper != nil {
		select {
		case <-sweeper.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("retention sweep still running at shutdown")
		}
	}

	log.Info().Msg("arda-notify stopped")
}
