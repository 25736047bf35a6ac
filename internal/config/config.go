package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// NetworkEnvVar selects the target deployment network. Anything other
// than "mainnet" (including absence) resolves to the test network.
const NetworkEnvVar = "PANEL_NETWORK"

const (
	mainnetRESTBaseURL = "https://api.perps.trade"
	mainnetWSURL       = "wss://api.perps.trade/ws"
	testnetRESTBaseURL = "https://api.testnet.perps.trade"
	testnetWSURL       = "wss://api.testnet.perps.trade/ws"
)

type Config struct {
	Log      LoggingConfig  `yaml:"log"`
	REST     RESTConfig     `yaml:"rest"`
	WS       WSConfig       `yaml:"ws"`
	State    StateConfig    `yaml:"state"`
	Trading  TradingConfig  `yaml:"trading"`
	Confirm  ConfirmConfig  `yaml:"confirm"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Telegram TelegramConfig `yaml:"telegram"`

	// Mainnet is resolved from NetworkEnvVar, never from the file.
	Mainnet bool `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RESTConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type WSConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type TradingConfig struct {
	MinQuantityUSD  string `yaml:"min_quantity_usd"`
	MaxQuantityUSD  string `yaml:"max_quantity_usd"`
	MaxLeverage     int    `yaml:"max_leverage"`
	DefaultMarket   string `yaml:"default_market"`
	DefaultSlippage string `yaml:"default_slippage_pct"`
}

type ConfirmConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Mainnet = networkFromEnv()
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

// Default returns a config usable without a file on disk, resolved
// against the network env var.
func Default() *Config {
	cfg := &Config{Mainnet: networkFromEnv()}
	applyDefaults(cfg)
	return cfg
}

func networkFromEnv() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(NetworkEnvVar)), "mainnet")
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.REST.BaseURL == "" {
		if cfg.Mainnet {
			cfg.REST.BaseURL = mainnetRESTBaseURL
		} else {
			cfg.REST.BaseURL = testnetRESTBaseURL
		}
	}
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = 10 * time.Second
	}
	if cfg.WS.URL == "" {
		if cfg.Mainnet {
			cfg.WS.URL = mainnetWSURL
		} else {
			cfg.WS.URL = testnetWSURL
		}
	}
	if cfg.WS.ReconnectDelay == 0 {
		cfg.WS.ReconnectDelay = 3 * time.Second
	}
	if cfg.WS.PingInterval == 0 {
		cfg.WS.PingInterval = 30 * time.Second
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/perp-trade-panel.db"
	}
	if cfg.Trading.MinQuantityUSD == "" {
		cfg.Trading.MinQuantityUSD = "1"
	}
	if cfg.Trading.MaxQuantityUSD == "" {
		cfg.Trading.MaxQuantityUSD = "100000"
	}
	if cfg.Trading.MaxLeverage == 0 {
		cfg.Trading.MaxLeverage = 10
	}
	if cfg.Trading.DefaultSlippage == "" {
		cfg.Trading.DefaultSlippage = "0.5"
	}
	if cfg.Confirm.Timeout == 0 {
		cfg.Confirm.Timeout = 30 * time.Second
	}
	if cfg.Confirm.PollInterval == 0 {
		cfg.Confirm.PollInterval = 500 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if cfg.Trading.MaxLeverage < 1 {
		return errors.New("trading.max_leverage must be >= 1")
	}
	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		return errors.New("telegram.token is required when telegram is enabled")
	}
	return nil
}
