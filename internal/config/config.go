package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort string `envconfig:"APP_PORT" default:"8080"`
	Log      LogConfig
	Rehive   RehiveConfig
	Webhook  WebhookConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
}

type LogConfig struct {
	File  string `envconfig:"LOG_FILE"  default:"autosave.log"`
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// SlogLevel переводит LOG_LEVEL в уровень slog; неизвестное значение
// трактуется как info
func (l *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type RehiveConfig struct {
	APIToken string        `envconfig:"REHIVE_API_TOKEN" required:"true"`
	BaseURL  string        `envconfig:"REHIVE_API_URL"   default:"https://api.rehive.com/3"`
	Timeout  time.Duration `envconfig:"REHIVE_TIMEOUT"   default:"10s"`
}

type WebhookConfig struct {
	Secret string `envconfig:"WEBHOOK_SECRET" required:"true"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC"   default:"savings-transfers"`
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
}

type RedisConfig struct {
	Addr    string        `envconfig:"REDIS_ADDR"     default:"localhost:6379"`
	Enabled bool          `envconfig:"REDIS_ENABLED"  default:"false"`
	LockTTL time.Duration `envconfig:"REDIS_LOCK_TTL" default:"10s"`
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	return &cfg, nil
}
