package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. DISPATCH_HTTP_PORT.
const EnvPrefix = "DISPATCH"

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         string `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME" default:"dispatch"`
	DBSslMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	AutoMigrate    bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// RedisURL is optional. Without it, vehicle locks fall back to the
	// database alone and the outbox relay does not run.
	RedisURL    string `envconfig:"REDIS_URL"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"dispatch:"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	InventoryBaseURL string        `envconfig:"INVENTORY_BASE_URL" required:"true"`
	InventoryToken   string        `envconfig:"INVENTORY_TOKEN"`
	InventoryTimeout time.Duration `envconfig:"INVENTORY_TIMEOUT" default:"15s"`

	FulfillmentConcurrency int           `envconfig:"FULFILLMENT_CONCURRENCY" default:"4"`
	FulfillmentTimeout     time.Duration `envconfig:"FULFILLMENT_TIMEOUT" default:"15s"`

	OutboxSchedule     string `envconfig:"OUTBOX_SCHEDULE" default:"*/5 * * * * *"`
	OutboxBatchSize    int    `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxMaxAttempts  int    `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"10"`
	EventChannelPrefix string `envconfig:"EVENT_CHANNEL_PREFIX" default:"dispatch:events:"`

	// TimeZone is the business time zone used for run names and timestamps.
	TimeZone string `envconfig:"TIME_ZONE" default:"UTC"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []error
	if c.JWTSecret == "" {
		problems = append(problems, errors.New("jwt secret is required"))
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, err)
	}
	if u, err := url.Parse(c.InventoryBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Errorf("invalid inventory base url %q", c.InventoryBaseURL))
	}
	if c.FulfillmentConcurrency <= 0 {
		problems = append(problems, errors.New("fulfillment concurrency must be positive"))
	}
	return errors.Join(problems...)
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
