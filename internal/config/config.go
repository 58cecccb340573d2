package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/woonstadrotterdam/sqlgate/internal/db"
)

const (
	DefaultMaxQueryTimeout = 30
	DefaultMaxResultRows   = 25
)

type LoggerConfig struct {
	ConsoleLevel string `toml:"console_level"`
	FileLevel    string `toml:"file_level"`
	FileOutput   string `toml:"file_output"`
}

// Config is the resolved gateway configuration. Values come from an optional
// TOML file, then a .env file, then the process environment; the environment
// wins.
type Config struct {
	DatabaseURL     string       `toml:"database_url"`
	SchemaName      string       `toml:"schema_name"`
	MaxQueryTimeout int          `toml:"max_query_timeout"`
	MaxResultRows   int          `toml:"max_result_rows"`
	ReadOnly        *bool        `toml:"read_only"`
	Logging         LoggerConfig `toml:"logger"`
}

// Load resolves the configuration. path may be empty or name a missing file;
// only a malformed file is an error.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it only matters when present.
	_ = godotenv.Load()

	conf := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, conf); err != nil {
				return nil, fmt.Errorf("error loading config TOML: %w", err)
			}
		}
	}

	conf.applyEnvironment()
	conf.applyDefaults()

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) applyEnvironment() {
	if url := firstEnv("DATABASE_URL", "DB_URL"); url != "" {
		c.DatabaseURL = url
	}
	if schema := os.Getenv("DB_SCHEMA_NAME"); schema != "" {
		c.SchemaName = schema
	}
	if timeout, ok := intEnv("MAX_QUERY_TIMEOUT"); ok {
		c.MaxQueryTimeout = timeout
	}
	if rows, ok := intEnv("MAX_RESULT_ROWS"); ok {
		c.MaxResultRows = rows
	}
	if readOnly, ok := boolEnv("READ_ONLY"); ok {
		c.ReadOnly = &readOnly
	}
}

func (c *Config) applyDefaults() {
	if c.MaxQueryTimeout == 0 {
		c.MaxQueryTimeout = DefaultMaxQueryTimeout
	}
	if c.MaxResultRows == 0 {
		c.MaxResultRows = DefaultMaxResultRows
	}
	if c.ReadOnly == nil {
		readOnly := true
		c.ReadOnly = &readOnly
	}
}

func (c *Config) validate() error {
	// The URL may still arrive later as a CLI flag; only a present URL is
	// checked here.
	if c.DatabaseURL != "" {
		if _, err := db.ResolveDialect(c.DatabaseURL); err != nil {
			return err
		}
	}
	if c.MaxQueryTimeout < 1 {
		return fmt.Errorf("max_query_timeout must be positive, got %d", c.MaxQueryTimeout)
	}
	if c.MaxResultRows < 1 {
		return fmt.Errorf("max_result_rows must be positive, got %d", c.MaxResultRows)
	}
	return nil
}

// Policy converts the configuration into the immutable execution policy.
func (c *Config) Policy() db.Policy {
	return db.Policy{
		MaxQueryTimeoutSeconds: c.MaxQueryTimeout,
		MaxResultRows:          c.MaxResultRows,
		ReadOnly:               *c.ReadOnly,
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func intEnv(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

func boolEnv(key string) (bool, bool) {
	raw := strings.ToLower(os.Getenv(key))
	switch raw {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
