package ledger

import (
	"context"

	"medichain/ledger/types"
)

// Gateway defines the generic interface for ledger interactions
// This interface is ledger-agnostic and can be implemented by different blockchain clients
type Gateway interface {
	// Mint creates the ledger asset representing a batch. It must be
	// called at most once per registration; the core never retries a
	// mint, since a retried mint could double-mint.
	Mint(ctx context.Context, metadata *types.BatchMetadata) (*types.MintReceipt, error)

	// Confirm checks whether an asset for the batch exists and matches.
	// It is a read-only probe, safe to call arbitrarily many times.
	Confirm(ctx context.Context, batchID, assetID string) (*types.Confirmation, error)

	// Close closes the gateway client and releases resources
	Close() error

	// Config returns the configuration associated with the gateway
	Config() any // Return any to accommodate different config types
}
