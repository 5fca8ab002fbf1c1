package mock

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"medichain/config"
	"medichain/ledger/types"
)

// Gateway is a deterministic stand-in for a real ledger, used during
// development and testing. Mint returns unique asset/tx references per
// call; Confirm is a pure function of the batch identifier, so the same
// identifier always verifies the same way.
type Gateway struct {
	cfg    *config.LedgerConfig
	logger *log.Logger
}

// NewGateway creates a mock gateway.
func NewGateway(cfg *config.LedgerConfig, logger *log.Logger) *Gateway {
	logger.Println("[MockGateway] Initializing deterministic mock ledger gateway")
	return &Gateway{cfg: cfg, logger: logger}
}

// Mint fabricates a unique receipt for every call.
func (g *Gateway) Mint(ctx context.Context, metadata *types.BatchMetadata) (*types.MintReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	receipt := &types.MintReceipt{
		AssetID:     "asset_" + id[:12],
		TxRef:       "tx_" + id[12:21],
		BlockHeight: 8_000_000 + uint64(time.Now().UnixNano()%1_000_000),
	}
	g.logger.Printf("[MockGateway] Minted asset %s (tx: %s) for batch %s", receipt.AssetID, receipt.TxRef, metadata.BatchID)
	return receipt, nil
}

// Confirm reports a batch as genuine unless its identifier contains
// "FAKE". The returned tx reference is derived from the identifier so
// repeated probes agree with each other.
func (g *Gateway) Confirm(ctx context.Context, batchID, assetID string) (*types.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.Contains(batchID, "FAKE") {
		return &types.Confirmation{
			Valid:     false,
			Reason:    fmt.Sprintf("no asset recorded on chain for batch '%s'", batchID),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	digest := sha256.Sum256([]byte(batchID))
	return &types.Confirmation{
		Valid: true,
		Metadata: &types.BatchMetadata{
			BatchID:           batchID,
			DrugName:          "Paracetamol 500mg",
			Manufacturer:      "PharmaCorp Ltd.",
			Dosage:            "500mg tablets",
			Quantity:          10000,
			ManufacturingDate: "2024-01-15",
			ExpiryDate:        "2025-12-31",
			Network:           g.cfg.Network,
		},
		TxRef:     fmt.Sprintf("tx_%x", digest[:6]),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Close is a no-op for the mock gateway.
func (g *Gateway) Close() error {
	g.logger.Println("[MockGateway] Closing...")
	return nil
}

// Config returns the common ledger configuration.
func (g *Gateway) Config() any {
	return g.cfg
}
