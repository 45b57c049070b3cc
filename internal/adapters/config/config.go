package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Oracle     OracleConfig     `envconfig:"ORACLE"`
	Naming     NamingConfig     `envconfig:"NAMING"`
	Swap       SwapConfig       `envconfig:"SWAP"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Events     EventsConfig     `envconfig:"EVENTS"`
	Workers    WorkersConfig    `envconfig:"WORKERS"`
	Health     HealthConfig     `envconfig:"HEALTH"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"agent_registry"`
	User           string `envconfig:"DB_USER" required:"true"`
	Password       string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// RedisConfig represents Redis connection parameters
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// OracleConfig represents the price oracle endpoints and freshness policy
type OracleConfig struct {
	Endpoint    string        `envconfig:"ORACLE_ENDPOINT" default:"https://hermes.pyth.network"`
	WSEndpoint  string        `envconfig:"ORACLE_WS_ENDPOINT" default:"wss://hermes.pyth.network/ws"`
	MaxPriceAge time.Duration `envconfig:"ORACLE_MAX_PRICE_AGE" default:"300s"`
	Timeout     time.Duration `envconfig:"ORACLE_TIMEOUT" default:"10s"`
	StreamOn    bool          `envconfig:"ORACLE_STREAM_ENABLED" default:"true"`
}

// NamingConfig represents the on-chain subname registrar
type NamingConfig struct {
	Enabled    bool   `envconfig:"NAMING_ENABLED" default:"false"`
	RPCURL     string `envconfig:"NAMING_RPC_URL" required:"false"`
	Registrar  string `envconfig:"NAMING_REGISTRAR" required:"false"`
	ParentName string `envconfig:"NAMING_PARENT_NAME" default:"agents.eth"`
	PrivateKey string `envconfig:"NAMING_PRIVATE_KEY" required:"false"`
}

// SwapConfig represents the swap venue used after successful executions
type SwapConfig struct {
	Enabled bool   `envconfig:"SWAP_ENABLED" default:"false"`
	APIKey  string `envconfig:"SWAP_API_KEY" required:"false"`
	Secret  string `envconfig:"SWAP_SECRET" required:"false"`
	Testnet bool   `envconfig:"SWAP_TESTNET" default:"true"`
	// Symbols maps token addresses (0x...) to venue tickers, e.g.
	// "0xc02a...:WETH,0xa0b8...:USDC"
	Symbols map[string]string `envconfig:"SWAP_SYMBOLS" required:"false"`
}

// TelegramConfig represents Telegram bot configuration
type TelegramConfig struct {
	BotToken          string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	AlertOnExecutions bool   `envconfig:"TELEGRAM_ALERT_ON_EXECUTIONS" default:"true"`
	AlertOnLifecycle  bool   `envconfig:"TELEGRAM_ALERT_ON_LIFECYCLE" default:"true"`
}

// ClickHouseConfig represents the analytics sink connection
type ClickHouseConfig struct {
	Enabled bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	DSN     string `envconfig:"CLICKHOUSE_DSN" default:"clickhouse://localhost:9000/agent_registry"`
}

// EventsConfig represents domain event publishing
type EventsConfig struct {
	RedisChannel string `envconfig:"EVENTS_REDIS_CHANNEL" default:"agent-registry:events"`
}

// WorkersConfig represents background worker intervals
type WorkersConfig struct {
	TriggerInterval time.Duration `envconfig:"WORKERS_TRIGGER_INTERVAL" default:"30s"`
	LockTTL         time.Duration `envconfig:"WORKERS_LOCK_TTL" default:"30s"`
}

// HealthConfig represents the health endpoint
type HealthConfig struct {
	Port string `envconfig:"HEALTH_PORT" default:"8080"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Oracle.MaxPriceAge <= 0 {
		return fmt.Errorf("oracle max price age must be positive")
	}
	if c.Workers.TriggerInterval <= 0 {
		return fmt.Errorf("trigger interval must be positive")
	}

	if c.Naming.Enabled {
		if c.Naming.RPCURL == "" {
			return fmt.Errorf("naming rpc url is required when naming is enabled")
		}
		if c.Naming.Registrar == "" {
			return fmt.Errorf("naming registrar address is required when naming is enabled")
		}
		if c.Naming.PrivateKey == "" {
			return fmt.Errorf("naming private key is required when naming is enabled")
		}
	}

	if c.Swap.Enabled {
		if c.Swap.APIKey == "" || c.Swap.Secret == "" {
			return fmt.Errorf("swap venue credentials are required when swap is enabled")
		}
		if len(c.Swap.Symbols) == 0 {
			return fmt.Errorf("swap symbol map is required when swap is enabled")
		}
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
