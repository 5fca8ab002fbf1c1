package chainmaker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"medichain/config"
	"medichain/ledger/types"

	"chainmaker.org/chainmaker/pb-go/v2/common"
	sdk "chainmaker.org/chainmaker/sdk-go/v2"
)

// Gateway is the wrapper around the ChainMaker SDK client
type Gateway struct {
	sdkClient sdk.ChainClient
	cfg       *config.LedgerConfig
	logger    *log.Logger
}

// mintResult is the JSON shape returned by the contract's mint method.
type mintResult struct {
	AssetID string `json:"asset_id"`
}

// confirmResult is the JSON shape returned by the contract's confirm method.
type confirmResult struct {
	Exists    bool                 `json:"exists"`
	Metadata  *types.BatchMetadata `json:"metadata,omitempty"`
	TxRef     string               `json:"tx_ref,omitempty"`
	Timestamp string               `json:"timestamp,omitempty"`
}

// NewChainMakerGateway initializes the ChainMaker SDK client with the combined configuration
func NewChainMakerGateway(cfg *config.LedgerConfig, logger *log.Logger) (*Gateway, error) {
	logger.Println("Initializing ChainMaker SDK client using builder pattern...")

	// Extract ChainMaker-specific configuration
	chainmakerCfg, ok := cfg.ChainSpecific.(*ChainMakerConfig)
	if !ok {
		return nil, fmt.Errorf("invalid ChainMaker configuration type")
	}

	var clientOptions []sdk.ChainClientOption
	clientOptions = append(clientOptions, sdk.WithChainClientOrgId(chainmakerCfg.OrgID))
	clientOptions = append(clientOptions, sdk.WithChainClientChainId(chainmakerCfg.ChainID))
	clientOptions = append(clientOptions, sdk.WithUserKeyFilePath(chainmakerCfg.UserKeyPath))
	clientOptions = append(clientOptions, sdk.WithUserCrtFilePath(chainmakerCfg.UserCertPath))
	clientOptions = append(clientOptions, sdk.WithUserSignKeyFilePath(chainmakerCfg.UserSignKeyPath))
	clientOptions = append(clientOptions, sdk.WithUserSignCrtFilePath(chainmakerCfg.UserSignCertPath))

	if len(chainmakerCfg.Nodes) == 0 {
		return nil, fmt.Errorf("no node configurations provided in config")
	}
	for _, nodeCfg := range chainmakerCfg.Nodes {
		if nodeCfg.UseTLS && len(nodeCfg.CaPaths) == 0 {
			return nil, fmt.Errorf("node %s has TLS enabled but no CaPaths provided", nodeCfg.Address)
		}
		sdkNodeConfig := sdk.NewNodeConfig(
			sdk.WithNodeAddr(nodeCfg.Address),
			sdk.WithNodeConnCnt(nodeCfg.ConnCount),
			sdk.WithNodeUseTLS(nodeCfg.UseTLS),
			sdk.WithNodeCAPaths(nodeCfg.CaPaths),
			sdk.WithNodeTLSHostName(nodeCfg.TLSHostName),
		)
		clientOptions = append(clientOptions, sdk.AddChainClientNodeConfig(sdkNodeConfig))
	}

	// Apply common configuration (retry, timeout, etc.)
	if cfg.RetryLimit > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryLimit(cfg.RetryLimit))
	}
	if cfg.RetryInterval > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryInterval(cfg.RetryInterval))
	}

	client, err := sdk.NewChainClient(clientOptions...)
	if err != nil {
		logger.Printf("Failed to build ChainMaker SDK client: %v\n", err)
		return nil, err
	}

	err = client.EnableCertHash()
	if err != nil {
		logger.Printf("Warning: Failed to enable cert hash: %v\n", err)
	}

	logger.Println("ChainMaker SDK client initialized successfully.")

	return &Gateway{
		sdkClient: *client,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Config returns the configuration associated with the gateway.
func (g *Gateway) Config() any {
	if g.cfg == nil || g.cfg.ChainSpecific == nil {
		log.Println("Warning: Accessing gateway config before initialization.")
		return &ChainMakerConfig{} // Return empty config to avoid nil pointer panic
	}
	return g.cfg.ChainSpecific
}

// Close stops the SDK client
func (g *Gateway) Close() error {
	g.logger.Println("Closing ChainMaker SDK client...")
	if err := g.sdkClient.Stop(); err != nil {
		g.logger.Printf("Error stopping ChainMaker SDK client: %v", err)
		return fmt.Errorf("failed to stop ChainMaker SDK client: %w", err)
	}
	return nil
}

// Mint submits the batch metadata to the contract's mint method in a
// single transaction. The contract enforces at-most-once semantics per
// batch id on its side; this client never retries an invoke.
func (g *Gateway) Mint(ctx context.Context, metadata *types.BatchMetadata) (*types.MintReceipt, error) {
	chainmakerCfg := g.cfg.ChainSpecific.(*ChainMakerConfig)
	if chainmakerCfg.MintMethodName == "" || chainmakerCfg.ParamKeyBatchJson == "" {
		return nil, fmt.Errorf("mint configuration fields not set in config")
	}

	batchJsonBytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch metadata to JSON: %w", err)
	}

	kvs := []*common.KeyValuePair{
		{
			Key:   chainmakerCfg.ParamKeyBatchJson,
			Value: batchJsonBytes,
		},
	}

	_, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	resp, err := g.sdkClient.InvokeContract(
		chainmakerCfg.ContractName,
		chainmakerCfg.MintMethodName,
		"",
		kvs,
		-1,
		true,
	)

	if err != nil {
		return nil, fmt.Errorf("SDK mint invoke failed: %w", err)
	}

	if resp.Code != common.TxStatusCode_SUCCESS {
		return nil, fmt.Errorf("contract mint execution failed: %s (code: %d)", resp.Message, resp.Code)
	}
	if resp.ContractResult == nil || len(resp.ContractResult.Result) == 0 {
		return nil, fmt.Errorf("contract mint returned empty result (tx: %s)", resp.TxId)
	}

	var result mintResult
	if err := json.Unmarshal(resp.ContractResult.Result, &result); err != nil {
		g.logger.Printf("Failed to unmarshal mint result JSON (TxID: %s). Raw result: %s", resp.TxId, string(resp.ContractResult.Result))
		return nil, fmt.Errorf("failed to unmarshal contract mint result: %w", err)
	}
	if result.AssetID == "" {
		return nil, fmt.Errorf("contract mint returned no asset id (tx: %s)", resp.TxId)
	}

	receipt := &types.MintReceipt{
		AssetID:     result.AssetID,
		TxRef:       resp.TxId,
		BlockHeight: resp.TxBlockHeight,
	}

	return receipt, nil
}

// Confirm queries the contract for the asset backing the given batch.
// This is a read-only probe and carries no transaction.
func (g *Gateway) Confirm(ctx context.Context, batchID, assetID string) (*types.Confirmation, error) {
	chainmakerCfg := g.cfg.ChainSpecific.(*ChainMakerConfig)
	if chainmakerCfg.ConfirmMethodName == "" || chainmakerCfg.ParamKeyBatchID == "" {
		return nil, fmt.Errorf("confirm configuration fields not set in config")
	}

	_, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	kvs := []*common.KeyValuePair{
		{Key: chainmakerCfg.ParamKeyBatchID, Value: []byte(batchID)},
	}
	if assetID != "" && chainmakerCfg.ParamKeyAssetID != "" {
		kvs = append(kvs, &common.KeyValuePair{Key: chainmakerCfg.ParamKeyAssetID, Value: []byte(assetID)})
	}

	resp, err := g.sdkClient.QueryContract(chainmakerCfg.ContractName, chainmakerCfg.ConfirmMethodName, kvs, -1)
	if err != nil {
		return nil, fmt.Errorf("SDK confirm query failed: %w", err)
	}
	if resp.Code != common.TxStatusCode_SUCCESS {
		return nil, fmt.Errorf("contract confirm query failed: %s (code: %d)", resp.Message, resp.Code)
	}
	if resp.ContractResult == nil || len(resp.ContractResult.Result) == 0 {
		return nil, fmt.Errorf("contract confirm returned empty result")
	}

	var result confirmResult
	if err := json.Unmarshal(resp.ContractResult.Result, &result); err != nil {
		g.logger.Printf("Failed to unmarshal confirm result JSON. Raw result: %s", string(resp.ContractResult.Result))
		return nil, fmt.Errorf("failed to unmarshal contract confirm result: %w", err)
	}

	confirmation := &types.Confirmation{
		Valid:     result.Exists,
		Metadata:  result.Metadata,
		TxRef:     result.TxRef,
		Timestamp: result.Timestamp,
	}
	if !result.Exists {
		confirmation.Reason = fmt.Sprintf("no asset recorded on chain for batch '%s'", batchID)
	}

	return confirmation, nil
}
