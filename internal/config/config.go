package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	SMTPHost     string `env:"SMTP_HOST,required=true"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM,required=true"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS,default=true"`

	SMSGatewayURL string `env:"SMS_GATEWAY_URL,required=true"`
	SMSAuthToken  string `env:"SMS_AUTH_TOKEN"`
	SMSFromNumber string `env:"SMS_FROM_NUMBER"`

	MaxAttempts   int           `env:"DISPATCH_MAX_ATTEMPTS,default=3"`
	BaseDelay     time.Duration `env:"DISPATCH_BASE_DELAY,default=30s"`
	BackoffFactor int           `env:"DISPATCH_BACKOFF_FACTOR,default=2"`
	MaxDelay      time.Duration `env:"DISPATCH_MAX_DELAY,default=15m"`
	SendTimeout   time.Duration `env:"DISPATCH_SEND_TIMEOUT,default=15s"`

	WorkerConcurrency int           `env:"WORKER_CONCURRENCY,default=16"`
	RateLimitPerSec   int           `env:"RATE_LIMIT_PER_SEC,default=100"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=30s"`
	MetricsPort       int           `env:"METRICS_PORT,default=9090"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
