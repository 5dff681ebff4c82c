package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type ExchangeConfig struct {
	Enabled bool   `toml:"enabled"`
	WsURL   string `toml:"ws_url"`
	RestURL string `toml:"rest_url"`
}

type Config struct {
	App struct {
		LogLevel             string `toml:"log_level"`
		DivergenceIntervalMS int    `toml:"divergence_interval_ms"`
		VolatilityIntervalMS int    `toml:"volatility_interval_ms"`
		SnapshotEverySec     int    `toml:"snapshot_every_sec"`
	} `toml:"app"`

	Divergence struct {
		Enabled         bool    `toml:"enabled"`
		Reference       string  `toml:"reference"` // fast exchange
		Asset           string  `toml:"asset"`     // e.g. "BTC/USDT"
		Compare         string  `toml:"compare"`   // comparison exchange
		SignalThreshold float64 `toml:"signal_threshold"`
	} `toml:"divergence"`

	Volatility struct {
		Enabled    bool   `toml:"enabled"`
		WindowSec  int    `toml:"window_sec"`
		TopK       int    `toml:"top_k"`
		MaxPairs   int    `toml:"max_pairs"`
		RefreshSec int    `toml:"refresh_sec"`
		Quote      string `toml:"quote"`
	} `toml:"volatility"`

	Exchange struct {
		Binance ExchangeConfig `toml:"binance"`
		Kraken  ExchangeConfig `toml:"kraken"`
		Mexc    ExchangeConfig `toml:"mexc"`
	} `toml:"exchange"`

	Storage struct {
		Enabled bool `toml:"enabled"`

		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`

		Redis struct {
			Enabled  bool   `toml:"enabled"`
			Addr     string `toml:"addr"`
			Password string `toml:"password"`
			DB       int    `toml:"db"`
			Prefix   string `toml:"prefix"`
			TTLSec   int    `toml:"ttl_sec"`
		} `toml:"redis"`
	} `toml:"storage"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.DivergenceIntervalMS <= 0 {
		cfg.App.DivergenceIntervalMS = 100
	}
	if cfg.App.VolatilityIntervalMS <= 0 {
		cfg.App.VolatilityIntervalMS = 1000
	}
	if cfg.App.SnapshotEverySec <= 0 {
		cfg.App.SnapshotEverySec = 60
	}
	if cfg.Divergence.Reference == "" {
		cfg.Divergence.Reference = "binance"
	}
	if cfg.Volatility.WindowSec <= 0 {
		cfg.Volatility.WindowSec = 60
	}
	if cfg.Volatility.TopK <= 0 {
		cfg.Volatility.TopK = 10
	}
	if cfg.Volatility.MaxPairs <= 0 {
		cfg.Volatility.MaxPairs = 50
	}
	if cfg.Volatility.RefreshSec <= 0 {
		cfg.Volatility.RefreshSec = 300
	}
	if cfg.Volatility.Quote == "" {
		cfg.Volatility.Quote = "USDT"
	}
	if cfg.Storage.Redis.TTLSec <= 0 {
		cfg.Storage.Redis.TTLSec = 300
	}
}

func validate(cfg *Config) error {
	enabled := cfg.EnabledExchanges()
	if len(enabled) == 0 {
		return errors.New("no exchange enabled")
	}

	if _, ok := enabled[cfg.Divergence.Reference]; !ok {
		return fmt.Errorf("reference exchange %q is not enabled", cfg.Divergence.Reference)
	}
	if cfg.Divergence.Enabled && cfg.Divergence.Compare != "" {
		if _, ok := enabled[cfg.Divergence.Compare]; !ok {
			return fmt.Errorf("comparison exchange %q is not enabled", cfg.Divergence.Compare)
		}
	}
	if cfg.Divergence.Enabled && (cfg.Divergence.Asset == "") != (cfg.Divergence.Compare == "") {
		return errors.New("divergence.asset and divergence.compare must be set together")
	}

	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	if cfg.Storage.SQLite.Enabled && strings.TrimSpace(cfg.Storage.SQLite.Path) == "" {
		return errors.New("storage.sqlite.path empty but enabled")
	}
	return nil
}

// EnabledExchanges maps each enabled exchange name to its config.
func (c *Config) EnabledExchanges() map[string]ExchangeConfig {
	out := make(map[string]ExchangeConfig, 3)
	for name, ec := range map[string]ExchangeConfig{
		"binance": c.Exchange.Binance,
		"kraken":  c.Exchange.Kraken,
		"mexc":    c.Exchange.Mexc,
	} {
		if ec.Enabled {
			out[name] = ec
		}
	}
	return out
}
