package mock

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichain/config"
	"medichain/ledger/types"
)

func newTestGateway() *Gateway {
	logger := log.New(io.Discard, "[TEST] ", log.LstdFlags)
	return NewGateway(&config.LedgerConfig{LedgerType: "mock", Network: "preprod"}, logger)
}

func TestMintReturnsUniqueReferences(t *testing.T) {
	gw := newTestGateway()
	metadata := &types.BatchMetadata{BatchID: "BATCH-001", DrugName: "Ibuprofen 400mg"}

	seenAssets := make(map[string]bool)
	seenTxs := make(map[string]bool)
	for i := 0; i < 20; i++ {
		receipt, err := gw.Mint(context.Background(), metadata)
		require.NoError(t, err)
		assert.False(t, seenAssets[receipt.AssetID], "asset id %s repeated", receipt.AssetID)
		assert.False(t, seenTxs[receipt.TxRef], "tx ref %s repeated", receipt.TxRef)
		seenAssets[receipt.AssetID] = true
		seenTxs[receipt.TxRef] = true
		assert.NotZero(t, receipt.BlockHeight)
	}
}

func TestConfirmIsDeterministicPerBatchID(t *testing.T) {
	gw := newTestGateway()

	first, err := gw.Confirm(context.Background(), "BATCH-001", "asset_abc")
	require.NoError(t, err)
	second, err := gw.Confirm(context.Background(), "BATCH-001", "asset_xyz")
	require.NoError(t, err)

	assert.True(t, first.Valid)
	assert.True(t, second.Valid)
	assert.Equal(t, first.TxRef, second.TxRef, "repeated probes must agree on the tx reference")
	require.NotNil(t, first.Metadata)
	assert.Equal(t, "BATCH-001", first.Metadata.BatchID)
	assert.Equal(t, "Paracetamol 500mg", first.Metadata.DrugName)
	assert.Equal(t, "preprod", first.Metadata.Network)
}

func TestConfirmFlagsFakeIdentifiers(t *testing.T) {
	gw := newTestGateway()

	confirmation, err := gw.Confirm(context.Background(), "BATCH-FAKE-01", "asset_abc")
	require.NoError(t, err)
	assert.False(t, confirmation.Valid)
	assert.Contains(t, confirmation.Reason, "BATCH-FAKE-01")
	assert.Nil(t, confirmation.Metadata)
}

func TestGatewayHonorsCancelledContext(t *testing.T) {
	gw := newTestGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Mint(ctx, &types.BatchMetadata{BatchID: "BATCH-001"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = gw.Confirm(ctx, "BATCH-001", "asset_abc")
	assert.ErrorIs(t, err, context.Canceled)
}
