package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/999bits/wildfire/pkg/postgresql"
	"github.com/999bits/wildfire/pkg/redis"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and an optional .env file.
func Load[T any](cfg T) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return env.Parse(cfg)
}

// Config holds the configuration for the engine service.
type Config struct {
	Pair          string `env:"PAIR" envDefault:"VT/WBNB"`
	Operator      string `env:"OPERATOR,required"` // custody identity the engine uses on both ledgers
	PriceDecimals int32  `env:"PRICE_DECIMALS" envDefault:"18"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	KafkaConfig     `envPrefix:"KAFKA_"`
	PublisherConfig `envPrefix:"PUBLISHER_"`
	EngineConfig    `envPrefix:"ENGINE_"`
	HTTPConfig      `envPrefix:"HTTP_"`

	RedisConfig    redis.Config      `envPrefix:"REDIS_"`
	PostgresConfig postgresql.Config `envPrefix:"POSTGRES_"`
	PostgresEnable bool              `env:"POSTGRES_ENABLED" envDefault:"false"`
}

// ErrNoLedger is returned by Validate when no ledger adapter is configured.
var ErrNoLedger = errors.New("ENGINE_DEV_LEDGER is false and no other ledger adapter exists")

// Validate reports settings the engine cannot run with.
func (c *Config) Validate() error {
	if !c.DevLedger {
		return ErrNoLedger
	}
	return nil
}

// KafkaConfig holds the configuration for the command consumer.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:""`
	Brokers []string `env:"BROKER,required"`
}

// PublisherConfig holds the configuration for the lifecycle event producer.
type PublisherConfig struct {
	Topic   string   `env:"TOPIC" envDefault:"wildfire.events"`
	Brokers []string `env:"BROKER,required"`
}

// EngineConfig holds the single writer loop tuning.
type EngineConfig struct {
	SnapshotInterval    time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	SnapshotOffsetDelta int64         `env:"SNAPSHOT_OFFSET_DELTA" envDefault:"1000"`
	DevLedger           bool          `env:"DEV_LEDGER" envDefault:"true"`
}

// HTTPConfig holds the health endpoint listener.
type HTTPConfig struct {
	Address string `env:"ADDRESS" envDefault:":8080"`
}
