package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	BotToken    string
	AdminIDs    []int64
	ChannelID   string
	ChannelLink string

	MaxAttempts         int
	BlockAfterWin       bool
	ScoreTimeoutSeconds int

	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int

	OpenAIAPIKey         string
	OpenAIEmbeddingModel string
}

func Default() Config {
	return Config{
		MaxAttempts:              3,
		BlockAfterWin:            true,
		ScoreTimeoutSeconds:      30,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		OpenAIEmbeddingModel:     "text-embedding-3-small",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("BOT_TOKEN"); raw != "" {
		cfg.BotToken = raw
	}
	cfg.AdminIDs = parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if raw := os.Getenv("CHANNEL_ID"); raw != "" {
		cfg.ChannelID = raw
	}
	if raw := os.Getenv("CHANNEL_LINK"); raw != "" {
		cfg.ChannelLink = raw
	}
	if raw := os.Getenv("MAX_ATTEMPTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxAttempts = value
		}
	}
	if raw := os.Getenv("BLOCK_AFTER_WIN"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.BlockAfterWin = value
		}
	}
	if raw := os.Getenv("SCORE_TIMEOUT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.ScoreTimeoutSeconds = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("OPENAI_API_KEY"); raw != "" {
		cfg.OpenAIAPIKey = raw
	}
	if raw := os.Getenv("OPENAI_EMBEDDING_MODEL"); raw != "" {
		cfg.OpenAIEmbeddingModel = raw
	}
	return cfg
}

// IsAdmin reports whether the user is on the static administrator list.
func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
