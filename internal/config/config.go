package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Tradehall API
	APIBaseURL  string
	APIToken    string
	NotifyWSURL string

	// Order list
	PageLimit int

	// Delay between an order_completed notification marking a row FULFILLED
	// and that row being dropped from the list, so the user can see the
	// terminal state before it disappears.
	CompletionGraceDelay time.Duration

	// Pricing
	PriceTablePath string

	// Local notification journal
	JournalPath    string
	JournalMaxRows int

	// Telemetry
	LogLevel string
	LogFile  string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:  envStr("TRADEHALL_API_URL", "https://api.tradehall.gg"),
		APIToken:    envStr("TRADEHALL_API_TOKEN", ""),
		NotifyWSURL: envStr("TRADEHALL_WS_URL", "wss://api.tradehall.gg/ws/notifications"),

		PageLimit: envInt("ORDER_PAGE_LIMIT", 20),

		CompletionGraceDelay: envDur("COMPLETION_GRACE_DELAY", time.Second),

		PriceTablePath: envStr("PRICE_TABLE_PATH", "internal/core/pricing/prices.yaml"),

		JournalPath:    envStr("JOURNAL_PATH", "data/notifications.db"),
		JournalMaxRows: envInt("JOURNAL_MAX_ROWS", 10000),

		LogLevel: envStr("LOG_LEVEL", "info"),
		LogFile:  envStr("LOG_FILE", "tradehall.log"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
