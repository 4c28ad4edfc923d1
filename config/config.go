package config

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	DatabaseDSN  string
	BaseURL      string
	AccessSecret string
	LogLevel     string

	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	// outbox dispatcher
	ChangeDispatchInterval time.Duration
	ChangeDispatchBatch    int
	// records younger than this wait for the next pass
	ChangeDispatchLag      time.Duration

	// default page size for the change queries
	ChangePageLimit int
}

func LoadConfig() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Warnf("env file not found or could not be loaded: %v", err)
		}
	}

	return Config{
		ServerPort:   getEnv("SERVER_PORT", ":3000"),
		DatabaseDSN:  os.Getenv("DATABASE_DSN"),
		BaseURL:      getEnv("BASE_URL", "*"),
		AccessSecret: os.Getenv("ACCESS_SECRET"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "rote.changes"),
		KafkaUsername: os.Getenv("KAFKA_USERNAME"),
		KafkaPassword: os.Getenv("KAFKA_PASSWORD"),

		ChangeDispatchInterval: getDuration("CHANGE_DISPATCH_INTERVAL", 5*time.Second),
		ChangeDispatchBatch:    getInt("CHANGE_DISPATCH_BATCH", 100),
		ChangeDispatchLag:      getDuration("CHANGE_DISPATCH_LAG", 2*time.Second),
		ChangePageLimit:        getInt("CHANGE_PAGE_LIMIT", 20),
	}
}

// ParseLogLevel maps LOG_LEVEL onto fiber's logger levels. Unknown values fall back to info.
func ParseLogLevel(s string) log.Level {
	switch s {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warnf("invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
