package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/xaenox/assistant-relay/internal/assistant"
	"github.com/xaenox/assistant-relay/internal/bot"
	"github.com/xaenox/assistant-relay/internal/quota"
	"github.com/xaenox/assistant-relay/internal/storage"
	"github.com/xaenox/assistant-relay/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Optional .env file for local runs
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}
	if cfg.Telegram.Token == "" {
		logger.Fatal("Telegram token is not configured")
	}
	if cfg.OpenAI.APIKey == "" || cfg.OpenAI.AssistantID == "" {
		logger.Fatal("OpenAI API key and assistant ID must be configured")
	}

	// Initialize usage storage
	var store storage.UsageStore
	switch cfg.Storage.Backend {
	case "memory":
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStore()
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStore(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	default:
		logger.Info("Using file storage",
			zap.String("counter_file", cfg.Storage.CounterFile),
			zap.String("qa_file", cfg.Storage.QAFile))
		store, err = storage.NewFileStore(cfg.Storage.CounterFile, cfg.Storage.QAFile, cfg.Storage.LockFile, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the answer engine
	client := assistant.NewOpenAIClient(cfg.OpenAI.APIKey)
	engine := assistant.NewEngine(
		client,
		storage.NewThreadCache(),
		cfg.OpenAI.AssistantID,
		logger,
		assistant.WithPolling(cfg.OpenAI.MaxRetries, time.Duration(cfg.OpenAI.RetryIntervalSeconds)*time.Second),
	)

	keeper := quota.NewKeeper(store, cfg.Quota.DailyLimit, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, engine, keeper, store, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
