package models

import "time"

// Batch represents a registered pharmaceutical lot.
// A batch is created exactly once, after a successful ledger mint,
// and is never mutated or deleted afterwards (regulatory record).
type Batch struct {
	BatchID           string    `json:"batchId"`
	DrugName          string    `json:"drugName"`
	Manufacturer      string    `json:"manufacturer"`
	Dosage            string    `json:"dosage"`
	Quantity          int       `json:"quantity"`
	ManufacturingDate time.Time `json:"manufacturingDate"`
	ExpiryDate        time.Time `json:"expiryDate"`
	Network           string    `json:"network"`

	// Ledger linkage, set once when the mint succeeds.
	AssetID string `json:"assetId"`
	TxRef   string `json:"txRef"`

	CreatedAt time.Time `json:"createdAt"`
}

// VerificationAttempt is one immutable log entry recording a check of a
// batch's authenticity. Attempts are append-only; every completed check
// is retained, genuine or not.
type VerificationAttempt struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batchId"`
	IsGenuine bool      `json:"isGenuine"`
	Submitter string    `json:"submitter,omitempty"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchWithLatestAttempt pairs a batch with its most recent verification
// attempt (nil if the batch has never been verified). Used by the listing API.
type BatchWithLatestAttempt struct {
	Batch
	LatestVerification *VerificationAttempt `json:"latestVerification,omitempty"`
}

// MonthlyBucket aggregates verification attempts for one calendar month.
type MonthlyBucket struct {
	Month   string `json:"month"` // YYYY-MM
	Total   int64  `json:"total"`
	Genuine int64  `json:"genuine"`
	Fake    int64  `json:"fake"`
}

// ManufacturerCount is one entry of the top-K manufacturer ranking.
type ManufacturerCount struct {
	Manufacturer string `json:"manufacturer"`
	BatchCount   int64  `json:"batchCount"`
}
