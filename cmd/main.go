package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	httpapi "github.com/immxrtalbeast/skillswap/internal/api/http"
	"github.com/immxrtalbeast/skillswap/internal/auth"
	"github.com/immxrtalbeast/skillswap/internal/config"
	"github.com/immxrtalbeast/skillswap/internal/notify"
	"github.com/immxrtalbeast/skillswap/internal/observability"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/immxrtalbeast/skillswap/internal/service"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
	"github.com/immxrtalbeast/skillswap/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	if cfg.Auth.JWTSecret == "" {
		log.Error("auth.jwt_secret is required")
		os.Exit(1)
	}

	store, err := setupStore(cfg.Database, log)
	if err != nil {
		log.Error("failed to set up store", sl.Err(err))
		os.Exit(1)
	}

	sink, closeSink, err := setupNotifier(cfg.Kafka, log)
	if err != nil {
		log.Error("failed to set up notifier", sl.Err(err))
		os.Exit(1)
	}
	defer closeSink()

	metrics := observability.NewMetrics("skillswap")
	loc := cfg.TimeLocation()

	ledger := service.NewLedgerService(store, service.LedgerOptions{
		EscrowAccount:   uuid.MustParse(cfg.Ledger.EscrowAccount),
		PlatformAccount: uuid.MustParse(cfg.Ledger.PlatformAccount),
		PlatformFeeRate: cfg.Ledger.PlatformFeeRate,
	}, log, metrics)
	postService := service.NewPostService(store.Posts(), nil, log)
	swapService := service.NewSwapService(store, ledger, sink, service.SwapOptions{Location: loc}, log, metrics)
	sessionService := service.NewSessionService(store, ledger, sink, service.SessionOptions{
		JoinLeadTime: cfg.Sessions.JoinLeadTime,
	}, log, metrics)
	relay := service.NewRelayService(sessionService, service.RelayOptions{
		ICEServers: service.ICEServersFromURLs(cfg.WebRTC.STUNServers),
		SendBuffer: cfg.Relay.SendBuffer,
	}, log, metrics)
	sweeper := service.NewSweeper(store, swapService, sessionService, service.SweeperOptions{
		Interval:     cfg.Sweeper.Interval,
		NoShowGrace:  cfg.Sessions.NoShowGrace,
		OverrunGrace: cfg.Sessions.OverrunGrace,
	}, log)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	signaling := httpapi.NewSignalingController(relay, tokens, httpapi.SignalingOptions{
		WriteTimeout: cfg.Relay.WriteTimeout,
		PongTimeout:  cfg.Relay.PongTimeout,
	}, log)
	router := httpapi.SetupRouter(httpapi.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Tokens:         tokens,
		Metrics:        metrics,
		Posts:          httpapi.NewPostController(postService),
		Swaps:          httpapi.NewSwapController(swapService),
		Sessions:       httpapi.NewSessionController(sessionService),
		Wallets:        httpapi.NewWalletController(ledger),
		Signaling:      signaling,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweeper.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", sl.Err(err))
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

// setupStore picks PostgreSQL when a DSN is configured and the in-memory
// store otherwise.
func setupStore(cfg config.DatabaseConfig, log *slog.Logger) (repository.Store, error) {
	if cfg.DSN == "" {
		log.Warn("database dsn is empty, using in-memory store")
		return repository.NewInMemoryStore(), nil
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewPostgresStore(db), nil
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := repository.Migrate(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func setupNotifier(cfg config.KafkaConfig, log *slog.Logger) (service.Notifier, func(), error) {
	if len(cfg.Brokers) == 0 {
		return notify.NewLogSink(log), func() {}, nil
	}

	sink, err := notify.NewKafkaSink(notify.KafkaOptions{Brokers: cfg.Brokers, Topic: cfg.Topic}, log)
	if err != nil {
		return nil, nil, err
	}
	closeSink := func() {
		if err := sink.Close(); err != nil {
			log.Warn("failed to close kafka sink", sl.Err(err))
		}
	}
	return sink, closeSink, nil
}
