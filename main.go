package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionhousego/internal/bus"
	"auctionhousego/internal/clock"
	"auctionhousego/internal/closer"
	"auctionhousego/internal/config"
	"auctionhousego/internal/database/db_client"
	"auctionhousego/internal/database/migrations"
	"auctionhousego/internal/database/pgledger"
	"auctionhousego/internal/http/http_server"
	"auctionhousego/internal/notify"
	"auctionhousego/internal/redis/redis_client"
	"auctionhousego/internal/services/auction"
	"auctionhousego/internal/services/settings"
	"auctionhousego/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (event bus for room fan-out)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres + schema
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	if err := migrations.Apply(ctx, pgDb); err != nil {
		Log.Fatal("migrate", zap.Error(err))
	}

	// 5. Services
	ledger := pgledger.New(pgDb)
	publisher := bus.NewPublisher(redisClient)
	settingsService := settings.NewService(pgDb)
	clk := clock.NewSystem()
	auctionService := auction.NewService(ledger, publisher, settingsService, clk, cfg.SnipeWindow)

	// 6. Background: periodic auction-closing sweep
	mailer := notify.NewMailer(cfg.SmtpHost, cfg.SmtpPort, cfg.SmtpUser, cfg.SmtpPass, cfg.SmtpFrom)
	closer.New(ledger, mailer, publisher, clk, cfg.CloserInterval, cfg.CloserBatch).Run(ctx)

	// 7. WebSockets hub + Redis fan-out
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, auctionService)

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, auctionService, settingsService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
