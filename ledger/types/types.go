package types

// BatchMetadata is the batch description submitted to the ledger on mint
// and optionally returned by a confirmation. Dates travel as strings in
// YYYY-MM-DD form, matching the on-chain JSON encoding.
type BatchMetadata struct {
	BatchID           string `json:"batch_id"`
	DrugName          string `json:"drug_name"`
	Manufacturer      string `json:"manufacturer"`
	Dosage            string `json:"dosage"`
	Quantity          int    `json:"quantity"`
	ManufacturingDate string `json:"manufacturing_date"`
	ExpiryDate        string `json:"expiry_date"`
	Network           string `json:"network"`
}

// MintReceipt is the ledger credential returned after a successful mint.
type MintReceipt struct {
	AssetID     string // Opaque handle for the minted asset
	TxRef       string // Transaction reference for the mint
	BlockHeight uint64 // Block height where the mint was included
}

// Confirmation is the result of a read-only authenticity probe.
// Metadata, TxRef and Timestamp are optional; when present, the gateway's
// copy is closer to ground truth than the locally cached record.
type Confirmation struct {
	Valid     bool
	Metadata  *BatchMetadata
	TxRef     string
	Timestamp string
	Reason    string // Populated when Valid is false
}
