package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

type GatewayConfig struct {
	BaseURL       string `yaml:"base_url"`
	KeyID         string `yaml:"key_id"`
	KeySecret     string `yaml:"key_secret"`
	Currency      string `yaml:"currency"`
	CallbackToken string `yaml:"callback_token"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Mongo   MongoConfig   `yaml:"mongo"`
	JWT     JWTConfig     `yaml:"jwt"`
	Gateway GatewayConfig `yaml:"gateway"`
}

// Load reads config.yaml when present and applies environment overrides on
// top, so a bare environment-only deployment still works.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server:  ServerConfig{Port: "8080"},
		Mongo:   MongoConfig{Database: "taskbridge"},
		JWT:     JWTConfig{TTLMinutes: 60 * 24},
		Gateway: GatewayConfig{Currency: "INR"},
	}

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	overrideFromEnv(cfg)

	if cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("mongo uri not set (MONGOURI)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret not set (JWT_SECRET)")
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if uri := os.Getenv("MONGOURI"); uri != "" {
		cfg.Mongo.URI = uri
	}
	if name := os.Getenv("MONGO_DB"); name != "" {
		cfg.Mongo.Database = name
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if url := os.Getenv("GATEWAY_BASE_URL"); url != "" {
		cfg.Gateway.BaseURL = url
	}
	if key := os.Getenv("GATEWAY_KEY_ID"); key != "" {
		cfg.Gateway.KeyID = key
	}
	if secret := os.Getenv("GATEWAY_KEY_SECRET"); secret != "" {
		cfg.Gateway.KeySecret = secret
	}
	if cur := os.Getenv("GATEWAY_CURRENCY"); cur != "" {
		cfg.Gateway.Currency = cur
	}
	if tok := os.Getenv("GATEWAY_CALLBACK_TOKEN"); tok != "" {
		cfg.Gateway.CallbackToken = tok
	}
}
