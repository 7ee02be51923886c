// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	DefaultConfigPath = "./config.json"
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultTxTimeout  = 2 * time.Minute
)

var DefaultKeystorePath = "./keys"

type RawNetwork struct {
	Name        string `mapstructure:"name" json:"name"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	GenesisHash string `mapstructure:"genesisHash" json:"genesisHash"`
}

type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Config struct {
	Listen       string        `mapstructure:"listen"`
	Network      string        `mapstructure:"network"`
	Endpoint     string        `mapstructure:"endpoint"`
	KeystorePath string        `mapstructure:"keystorePath"`
	TypesPath    string        `mapstructure:"typesPath"`
	TxTimeout    time.Duration `mapstructure:"txTimeout"`
	Networks     []RawNetwork  `mapstructure:"networks"`
	RateLimit    RateLimit     `mapstructure:"rateLimit"`
	AllowOrigins []string      `mapstructure:"allowOrigins"`
	Insecure     bool          `mapstructure:"insecure"`
}

func NewConfig() *Config {
	return &Config{
		Listen:       DefaultListenAddr,
		KeystorePath: DefaultKeystorePath,
		TxTimeout:    DefaultTxTimeout,
		RateLimit:    RateLimit{RPS: 2, Burst: 5},
		AllowOrigins: []string{"*"},
	}
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.TxTimeout <= 0 {
		return fmt.Errorf("txTimeout must be positive, got %s", c.TxTimeout)
	}
	for _, n := range c.Networks {
		if n.Name == "" {
			return fmt.Errorf("network without name")
		}
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rateLimit must not be negative")
	}
	return nil
}

// Load reads a json config file on top of the defaults. A missing file at the
// default path is not an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	fp, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(fp); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, cfg.validate()
		}
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(filepath.Clean(fp))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", fp, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", fp, err)
	}
	return cfg, cfg.validate()
}

// GetConfig loads the config file named by --config and applies flag overrides.
func GetConfig(ctx *cli.Context) (*Config, error) {
	cfg, err := Load(ctx.String(ConfigFileFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet(ListenFlag.Name) {
		cfg.Listen = ctx.String(ListenFlag.Name)
	}
	if ctx.IsSet(KeystorePathFlag.Name) {
		cfg.KeystorePath = ctx.String(KeystorePathFlag.Name)
	}
	if ctx.IsSet(NetworkFlag.Name) {
		cfg.Network = ctx.String(NetworkFlag.Name)
	}
	if ctx.IsSet(EndpointFlag.Name) {
		cfg.Endpoint = ctx.String(EndpointFlag.Name)
	}
	if ctx.IsSet(InsecureFlag.Name) {
		cfg.Insecure = ctx.Bool(InsecureFlag.Name)
	}
	return cfg, cfg.validate()
}
