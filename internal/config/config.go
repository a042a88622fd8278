// Package config содержит логику чтения конфигурации сервиса Hydra City.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultStoreDSN       = "memory://"
	defaultScopedDSN      = "memory://"
	defaultScopedTTL      = 30 * time.Minute
	defaultStatusInterval = 30 * time.Second
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	StoreDSN          string        `env:"STORE_DSN"`
	ScopedStoreDSN    string        `env:"SCOPED_STORE_DSN"`
	ScopedTTL         time.Duration `env:"SCOPED_TTL"`
	SecretKey         string        `env:"SECRET_KEY"`
	CatalogFile       string        `env:"CATALOG_FILE"`
	GameServerAddress string        `env:"GAME_SERVER_ADDRESS"`
	StatusInterval    time.Duration `env:"STATUS_INTERVAL"`
	BcryptCost        int           `env:"BCRYPT_COST"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}
	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.StoreDSN, "d", defaultStoreDSN, "durable store DSN (postgres://, sqlite://, redis://, memory://)")
	flag.StringVar(&cfg.ScopedStoreDSN, "s", defaultScopedDSN, "tab-scoped store DSN (redis://, memory://)")
	flag.DurationVar(&cfg.ScopedTTL, "t", defaultScopedTTL, "lifetime of tab-scoped values")
	flag.StringVar(&cfg.SecretKey, "k", "", "secret key for client cookies")
	flag.StringVar(&cfg.CatalogFile, "c", "", "product and coupon catalog (YAML)")
	flag.StringVar(&cfg.GameServerAddress, "g", "", "game server address for the online counter")
	flag.DurationVar(&cfg.StatusInterval, "i", defaultStatusInterval, "online counter refresh interval")
	flag.IntVar(&cfg.BcryptCost, "b", bcrypt.DefaultCost, "bcrypt cost for password hashes")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.StoreDSN != "" {
		cfg.StoreDSN = envCfg.StoreDSN
	}
	if envCfg.ScopedStoreDSN != "" {
		cfg.ScopedStoreDSN = envCfg.ScopedStoreDSN
	}
	if envCfg.ScopedTTL != 0 {
		cfg.ScopedTTL = envCfg.ScopedTTL
	}
	if envCfg.SecretKey != "" {
		cfg.SecretKey = envCfg.SecretKey
	}
	if envCfg.CatalogFile != "" {
		cfg.CatalogFile = envCfg.CatalogFile
	}
	if envCfg.GameServerAddress != "" {
		cfg.GameServerAddress = envCfg.GameServerAddress
	}
	if envCfg.StatusInterval != 0 {
		cfg.StatusInterval = envCfg.StatusInterval
	}
	if envCfg.BcryptCost != 0 {
		cfg.BcryptCost = envCfg.BcryptCost
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.StoreDSN == "" {
		cfg.StoreDSN = defaultStoreDSN
	}
	if cfg.ScopedStoreDSN == "" {
		cfg.ScopedStoreDSN = defaultScopedDSN
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return cfg, nil
}
