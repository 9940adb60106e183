package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/horv1tz/prompt-battle-tgbot/internal/bot"
	"github.com/horv1tz/prompt-battle-tgbot/internal/config"
	"github.com/horv1tz/prompt-battle-tgbot/internal/db"
	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
	"github.com/horv1tz/prompt-battle-tgbot/internal/scorer"
	"github.com/horv1tz/prompt-battle-tgbot/internal/telegram"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()
	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is not set")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	conn, err := db.Open()
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := db.ConfigurePool(conn, cfg); err != nil {
		logger.Fatal("configure connection pool", zap.Error(err))
	}
	if err := db.Migrate(conn); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}
	store := db.NewStore(conn, logger)

	var sc game.Scorer
	if cfg.OpenAIAPIKey != "" {
		sc = scorer.NewEmbedding(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel)
		logger.Info("using embedding scorer", zap.String("model", cfg.OpenAIEmbeddingModel))
	} else {
		sc = scorer.NewLexical()
		logger.Info("no OPENAI_API_KEY set, using lexical scorer")
	}

	lifecycle := game.NewLifecycle(store, logger)
	coordinator := game.NewCoordinator(store, sc, game.CoordinatorConfig{
		MaxAttempts:   cfg.MaxAttempts,
		BlockAfterWin: cfg.BlockAfterWin,
		ScoreTimeout:  time.Duration(cfg.ScoreTimeoutSeconds) * time.Second,
	}, logger)
	aggregator := game.NewAggregator(store)

	client := telegram.NewClient(cfg.BotToken)
	b := bot.New(client, cfg, store, lifecycle, coordinator, aggregator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("prompt battle bot started",
		zap.Int("admins", len(cfg.AdminIDs)),
		zap.Int("max_attempts", cfg.MaxAttempts))
	if err := b.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("bot stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
