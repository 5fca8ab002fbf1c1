package ledger

import (
	"fmt"
	"log"
	"path/filepath"

	"medichain/config"
	"medichain/ledger/client/chainmaker"
	"medichain/ledger/client/mock"
)

// GatewayType represents the type of ledger gateway
type GatewayType string

const (
	ChainMaker GatewayType = "chainmaker"
	Mock       GatewayType = "mock"
	// Future ledger types can be added here:
	// Cardano GatewayType = "cardano"
)

// LoadChainSpecificConfig loads chain-specific configuration based on ledger type
func LoadChainSpecificConfig(ledgerType string, configDir string) (any, error) {
	switch GatewayType(ledgerType) {
	case ChainMaker:
		chainmakerConfigPath := filepath.Join(configDir, "clients", "chainmaker.yml")
		return chainmaker.LoadChainMakerConfig(chainmakerConfigPath)
	case Mock, "":
		// The mock gateway needs no chain-specific configuration
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", ledgerType)
	}
}

// NewGateway creates a ledger gateway based on the configuration
func NewGateway(cfg *config.LedgerConfig, logger *log.Logger) (Gateway, error) {
	switch GatewayType(cfg.LedgerType) {
	case ChainMaker:
		return chainmaker.NewChainMakerGateway(cfg, logger)
	case Mock, "":
		// Default to the deterministic mock if not specified
		return mock.NewGateway(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", cfg.LedgerType)
	}
}

// NewGatewayFromFile creates a ledger gateway from configuration files
func NewGatewayFromFile(configPath string, logger *log.Logger) (Gateway, error) {
	// Load common configuration
	cfg, err := config.LoadLedgerConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load common config from file '%s': %w", configPath, err)
	}

	// Load chain-specific configuration
	configDir := filepath.Dir(configPath)
	chainSpecificCfg, err := LoadChainSpecificConfig(cfg.LedgerType, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain-specific config: %w", err)
	}

	cfg.ChainSpecific = chainSpecificCfg
	return NewGateway(cfg, logger)
}
