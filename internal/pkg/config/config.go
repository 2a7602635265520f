package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	StoreDriver     string        `env:"STORE_DRIVER,     default=mongo"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`

	Auth     AuthConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Activity ActivityConfig
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET, required"`
	KeyID     string `env:"JWT_KEY_ID, default=v1"`
	// RetiredKeys are still accepted for validation: "kid:secret,kid:secret".
	RetiredKeys map[string]string `env:"JWT_RETIRED_KEYS"`
	Issuer      string            `env:"JWT_ISSUER,  default=https://taskflow-app.com"`
	BcryptCost  int               `env:"BCRYPT_COST, default=12"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=taskflow"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type ActivityConfig struct {
	Workers int `env:"ACTIVITY_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// SigningKeys returns the active key together with every retired key.
func (a AuthConfig) SigningKeys() map[string][]byte {
	keys := make(map[string][]byte, len(a.RetiredKeys)+1)
	for kid, secret := range a.RetiredKeys {
		keys[kid] = []byte(secret)
	}
	keys[a.KeyID] = []byte(a.JWTSecret)
	return keys
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, c.StoreDriver)
	}
	if _, clash := c.Auth.RetiredKeys[c.Auth.KeyID]; clash {
		return fmt.Errorf("JWT_RETIRED_KEYS must not contain the active key id %q", c.Auth.KeyID)
	}
	return nil
}
