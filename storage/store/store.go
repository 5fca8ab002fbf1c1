package store

import (
	"context"
	"errors"
	"time"

	"medichain/internal/models"
)

// Sentinel errors returned by Store implementations. Callers classify
// these into the user-facing error taxonomy.
var (
	// ErrDuplicateBatch is returned by CreateBatch when the batch_id
	// uniqueness constraint is violated. The constraint is the
	// authoritative guard against racing duplicate registrations.
	ErrDuplicateBatch = errors.New("batch id already exists")

	// ErrNotFound is returned when a requested batch does not exist.
	ErrNotFound = errors.New("batch not found")
)

// Store defines durable keyed storage for batch records and
// verification-attempt records. Batches are insert-once and immutable;
// verification attempts are append-only.
type Store interface {
	// CreateBatch inserts a new batch in one atomic write. Returns
	// ErrDuplicateBatch if a batch with the same batch_id exists.
	CreateBatch(ctx context.Context, batch *models.Batch) error

	// GetBatch returns the batch for the given id, or ErrNotFound.
	GetBatch(ctx context.Context, batchID string) (*models.Batch, error)

	// ListBatches returns a page of batches ordered newest first, each
	// with its most recent verification attempt, plus the total count.
	ListBatches(ctx context.Context, limit, offset int) ([]models.BatchWithLatestAttempt, int64, error)

	// CountBatches returns the total number of registered batches.
	CountBatches(ctx context.Context) (int64, error)

	// CreateVerification appends one verification attempt. Returns
	// ErrNotFound if the referenced batch does not exist.
	CreateVerification(ctx context.Context, attempt *models.VerificationAttempt) error

	// CountVerificationsForBatch returns the number of attempts recorded
	// against the given batch id.
	CountVerificationsForBatch(ctx context.Context, batchID string) (int64, error)

	// VerificationTotals returns the total and genuine attempt counts.
	VerificationTotals(ctx context.Context) (total int64, genuine int64, err error)

	// MonthlyVerificationTrend groups attempts since the given time by
	// calendar month, most recent first, capped at maxBuckets.
	MonthlyVerificationTrend(ctx context.Context, since time.Time, maxBuckets int) ([]models.MonthlyBucket, error)

	// TopManufacturers ranks manufacturers by registered batch count,
	// descending, capped at limit.
	TopManufacturers(ctx context.Context, limit int) ([]models.ManufacturerCount, error)

	// RecentVerifications returns attempts since the given time, newest
	// first, capped at limit.
	RecentVerifications(ctx context.Context, since time.Time, limit int) ([]models.VerificationAttempt, error)

	// Close releases the underlying connections.
	Close()
}
