package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config represents the complete application configuration
type Config struct {
	Server *ServerConfig
	Ledger *LedgerConfig
}

// EnvOverrides holds values sourced from the environment rather than YAML,
// so credentials never live in config files.
type EnvOverrides struct {
	DatabaseDSN   string `envconfig:"DATABASE_DSN"`
	LedgerType    string `envconfig:"LEDGER_TYPE"`
	LedgerNetwork string `envconfig:"LEDGER_NETWORK"`
}

// LoadConfig loads all configuration files from a directory, then applies
// MEDICHAIN_* environment overrides.
func LoadConfig(configDir string) (*Config, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}

	config := &Config{}

	// Load server config
	serverPath := filepath.Join(absDir, "server.defaults.yml")
	if _, err := os.Stat(serverPath); err == nil {
		serverCfg, err := LoadServerConfig(serverPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load server config: %w", err)
		}
		config.Server = serverCfg
	}

	// Load ledger config
	ledgerPath := filepath.Join(absDir, "ledger.yml")
	if _, err := os.Stat(ledgerPath); err == nil {
		ledgerCfg, err := LoadLedgerConfig(ledgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger config: %w", err)
		}
		config.Ledger = ledgerCfg
	}

	if err := config.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnvOverrides() error {
	var env EnvOverrides
	if err := envconfig.Process("medichain", &env); err != nil {
		return fmt.Errorf("failed to process environment overrides: %w", err)
	}
	if env.DatabaseDSN != "" && c.Server != nil {
		c.Server.Database.DSN = env.DatabaseDSN
	}
	if c.Ledger != nil {
		if env.LedgerType != "" {
			c.Ledger.LedgerType = env.LedgerType
		}
		if env.LedgerNetwork != "" {
			c.Ledger.Network = env.LedgerNetwork
		}
	}
	return nil
}
