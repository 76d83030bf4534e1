package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds every external setting the binaries need. Upstream clients
// and the store receive their values from here instead of reading the
// environment themselves.
type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`
	Port  int  `env:"PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	RabbitMQ struct {
		User     string `env:"RABBITMQ_USER" envDefault:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
		Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
		Port     int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	}

	Farcaster struct {
		BaseURL string `env:"FARCASTER_API_URL" envDefault:"https://api.neynar.com"`
		APIKey  string `env:"FARCASTER_API_KEY,required"`
	}

	Github struct {
		BaseURL string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
		Token   string `env:"GITHUB_TOKEN"`

		// MaxEventPages bounds how many event pages are pulled per user.
		// A rate-limit ceiling, not a correctness boundary.
		MaxEventPages      int   `env:"GITHUB_MAX_EVENT_PAGES" envDefault:"3"`
		RateLimitThreshold int64 `env:"GITHUB_RATELIMIT_THRESHOLD" envDefault:"50"`
	}

	Scheduler struct {
		VerificationInterval time.Duration `env:"VERIFICATION_REFRESH_INTERVAL" envDefault:"48h"`
		EventsInterval       time.Duration `env:"EVENTS_REFRESH_INTERVAL" envDefault:"30m"`
		StarsInterval        time.Duration `env:"STARS_REFRESH_INTERVAL" envDefault:"24h"`
		RetentionInterval    time.Duration `env:"RETENTION_SWEEP_INTERVAL" envDefault:"24h"`
		RetentionHorizon     time.Duration `env:"RETENTION_HORIZON" envDefault:"120h"`
		BatchSize            int           `env:"SCHEDULER_BATCH_SIZE" envDefault:"100"`
	}
}

// Load reads .env if present, then parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// AMQPURL builds the broker connection string.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
	)
}
