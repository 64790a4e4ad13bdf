package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/999bits/wildfire/internal/app/engine"
	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	"github.com/999bits/wildfire/internal/infrastructure/memory"
	"github.com/999bits/wildfire/internal/infrastructure/postgresql/eventlog"
	commandreader "github.com/999bits/wildfire/internal/usecase/command-reader"
	eventpublisher "github.com/999bits/wildfire/internal/usecase/event-publisher"
	"github.com/999bits/wildfire/internal/usecase/exchange"
	"github.com/999bits/wildfire/internal/usecase/snapshot"
	"github.com/999bits/wildfire/pkg/config"
	"github.com/999bits/wildfire/pkg/httplib/healthcheck"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/999bits/wildfire/pkg/postgresql"
	"github.com/999bits/wildfire/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	config.MustLoad(cfg)

	l, err := logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.LogLevel)))
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Error(err, logger.NewField("action", "validate_config"))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	rclient := redis.NewClient(log, &cfg.RedisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.NewField("action", "connect_redis"))
		return
	}
	defer func() {
		if err := rclient.Disconnect(context.Background()); err != nil {
			log.Error(err, logger.NewField("action", "disconnect_redis"))
		}
	}()

	health := healthcheck.New()
	health.Register("redis", rclient.Ping)

	publishers := []eventv1.Publisher{
		eventpublisher.NewPublisher(cfg.PublisherConfig, cfg.Pair, cfg.PriceDecimals, log),
	}
	if cfg.PostgresEnable {
		pgclient, err := postgresql.NewClient(ctx, cfg.PostgresConfig)
		if err != nil {
			log.Error(err, logger.NewField("action", "connect_postgres"))
			return
		}
		journal := eventlog.NewRepository(pgclient, cfg.Pair, cfg.PriceDecimals, log)
		if err := journal.EnsureSchema(ctx); err != nil {
			log.Error(err, logger.NewField("action", "ensure_event_schema"))
			pgclient.Close()
			return
		}
		health.Register("postgres", pgclient.Ping)
		publishers = append(publishers, journal)
	}
	publisher := eventpublisher.NewFanOut(publishers...)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error(err, logger.NewField("action", "close_publishers"))
		}
	}()

	ledgers := memory.NewLedgers()
	ex := exchange.New(cfg.Operator, ledgers.Trade, ledgers.Payment, log)
	reader := commandreader.NewReader(cfg.KafkaConfig, log)
	store := snapshot.NewSnapshotStore(rclient, cfg.Pair, log)

	engine, err := app.NewEngine(ctx, ex, reader, store, publisher, log, app.OptionsFromConfig(cfg, ledgers))
	if err != nil {
		log.Error(err, logger.NewField("action", "restore_engine"))
		return
	}

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.NewField("action", "start_engine"))
		return
	}

	server := &http.Server{
		Addr:              cfg.HTTPConfig.Address,
		Handler:           health.Handler(http.NotFoundHandler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, logger.NewField("action", "serve_health"))
		}
	}()

	log.Info("wildfire engine started",
		logger.NewField("pair", cfg.Pair),
		logger.NewField("operator", cfg.Operator),
		logger.NewField("health", cfg.HTTPConfig.Address),
	)

	sig := <-sigChan
	log.Info("received shutdown signal", logger.NewField("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "stop_engine"))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "stop_health"))
	}

	applied, rejected := engine.Stats()
	log.Info("wildfire engine shutdown complete",
		logger.NewField("applied", applied),
		logger.NewField("rejected", rejected),
		logger.NewField("offset", engine.GetCommandOffset()),
	)
}
