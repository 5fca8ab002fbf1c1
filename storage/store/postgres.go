package store

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"medichain/internal/models"
)

const uniqueViolationCode = "23505"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS batches (
    batch_id           TEXT PRIMARY KEY,
    drug_name          TEXT NOT NULL,
    manufacturer       TEXT NOT NULL,
    dosage             TEXT NOT NULL,
    quantity           INTEGER NOT NULL CHECK (quantity > 0),
    manufacturing_date TIMESTAMPTZ NOT NULL,
    expiry_date        TIMESTAMPTZ NOT NULL,
    network            TEXT NOT NULL DEFAULT 'preprod',
    asset_id           TEXT,
    tx_ref             TEXT,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verification_attempts (
    id         UUID PRIMARY KEY,
    batch_id   TEXT NOT NULL REFERENCES batches(batch_id),
    is_genuine BOOLEAN NOT NULL,
    submitter  TEXT,
    location   TEXT,
    timestamp  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_verification_attempts_batch_id ON verification_attempts (batch_id);
CREATE INDEX IF NOT EXISTS idx_verification_attempts_timestamp ON verification_attempts (timestamp);
`

// PostgresStore implements the Store interface backed by PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresStore creates a connection pool and bootstraps the schema.
func NewPostgresStore(ctx context.Context, dsn string, maxConns, minConns int, logger *log.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database DSN")
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = int32(minConns)

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Printf("PostgresStore: connected (max_conns=%d, min_conns=%d)", maxConns, minConns)
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "failed to bootstrap schema")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.logger.Println("PostgresStore: closing connection pool...")
	s.pool.Close()
}

// CreateBatch inserts a new batch row. The primary key on batch_id is the
// authoritative duplicate guard; a uniqueness violation maps to
// ErrDuplicateBatch so a racing loser is reported as a conflict.
func (s *PostgresStore) CreateBatch(ctx context.Context, batch *models.Batch) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO batches
		    (batch_id, drug_name, manufacturer, dosage, quantity,
		     manufacturing_date, expiry_date, network, asset_id, tx_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		batch.BatchID, batch.DrugName, batch.Manufacturer, batch.Dosage, batch.Quantity,
		batch.ManufacturingDate, batch.ExpiryDate, batch.Network, batch.AssetID, batch.TxRef,
		batch.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateBatch
		}
		return errors.Wrap(err, "failed to insert batch")
	}
	return nil
}

// GetBatch returns the batch row for the given id.
func (s *PostgresStore) GetBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	var b models.Batch
	err := s.pool.QueryRow(ctx, `
		SELECT batch_id, drug_name, manufacturer, dosage, quantity,
		       manufacturing_date, expiry_date, network,
		       COALESCE(asset_id, ''), COALESCE(tx_ref, ''), created_at
		FROM batches WHERE batch_id = $1`, batchID,
	).Scan(&b.BatchID, &b.DrugName, &b.Manufacturer, &b.Dosage, &b.Quantity,
		&b.ManufacturingDate, &b.ExpiryDate, &b.Network, &b.AssetID, &b.TxRef, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to query batch")
	}
	return &b, nil
}

// ListBatches returns a page of batches, newest first, with each batch's
// latest verification attempt attached via a lateral join.
func (s *PostgresStore) ListBatches(ctx context.Context, limit, offset int) ([]models.BatchWithLatestAttempt, int64, error) {
	total, err := s.CountBatches(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT b.batch_id, b.drug_name, b.manufacturer, b.dosage, b.quantity,
		       b.manufacturing_date, b.expiry_date, b.network,
		       COALESCE(b.asset_id, ''), COALESCE(b.tx_ref, ''), b.created_at,
		       v.id, v.is_genuine, v.submitter, v.location, v.timestamp
		FROM batches b
		LEFT JOIN LATERAL (
		    SELECT id, is_genuine, COALESCE(submitter, '') AS submitter,
		           COALESCE(location, '') AS location, timestamp
		    FROM verification_attempts
		    WHERE batch_id = b.batch_id
		    ORDER BY timestamp DESC LIMIT 1
		) v ON true
		ORDER BY b.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to query batch list")
	}
	defer rows.Close()

	var out []models.BatchWithLatestAttempt
	for rows.Next() {
		var item models.BatchWithLatestAttempt
		var (
			attemptID *string
			isGenuine *bool
			submitter *string
			location  *string
			ts        *time.Time
		)
		err := rows.Scan(&item.BatchID, &item.DrugName, &item.Manufacturer, &item.Dosage,
			&item.Quantity, &item.ManufacturingDate, &item.ExpiryDate, &item.Network,
			&item.AssetID, &item.TxRef, &item.CreatedAt,
			&attemptID, &isGenuine, &submitter, &location, &ts)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan batch list row")
		}
		if attemptID != nil {
			item.LatestVerification = &models.VerificationAttempt{
				ID:        *attemptID,
				BatchID:   item.BatchID,
				IsGenuine: *isGenuine,
				Submitter: *submitter,
				Location:  *location,
				Timestamp: *ts,
			}
		}
		out = append(out, item)
	}
	return out, total, errors.Wrap(rows.Err(), "batch list iteration failed")
}

// CountBatches returns the total number of registered batches.
func (s *PostgresStore) CountBatches(ctx context.Context) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM batches`).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "failed to count batches")
	}
	return total, nil
}

// CreateVerification appends one attempt row. The foreign key on batch_id
// rejects attempts against unknown batches.
func (s *PostgresStore) CreateVerification(ctx context.Context, attempt *models.VerificationAttempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO verification_attempts (id, batch_id, is_genuine, submitter, location, timestamp)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)`,
		attempt.ID, attempt.BatchID, attempt.IsGenuine, attempt.Submitter, attempt.Location,
		attempt.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to insert verification attempt")
	}
	return nil
}

// CountVerificationsForBatch returns the attempt count for one batch.
func (s *PostgresStore) CountVerificationsForBatch(ctx context.Context, batchID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM verification_attempts WHERE batch_id = $1`, batchID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count verification attempts")
	}
	return n, nil
}

// VerificationTotals returns the overall and genuine attempt counts.
func (s *PostgresStore) VerificationTotals(ctx context.Context) (int64, int64, error) {
	var total, genuine int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE is_genuine)
		FROM verification_attempts`).Scan(&total, &genuine)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to query verification totals")
	}
	return total, genuine, nil
}

// MonthlyVerificationTrend buckets attempts by calendar month.
func (s *PostgresStore) MonthlyVerificationTrend(ctx context.Context, since time.Time, maxBuckets int) ([]models.MonthlyBucket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date_trunc('month', timestamp), 'YYYY-MM') AS month,
		       count(*),
		       count(*) FILTER (WHERE is_genuine),
		       count(*) FILTER (WHERE NOT is_genuine)
		FROM verification_attempts
		WHERE timestamp >= $1
		GROUP BY 1
		ORDER BY 1 DESC
		LIMIT $2`, since, maxBuckets)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query monthly trend")
	}
	defer rows.Close()

	var buckets []models.MonthlyBucket
	for rows.Next() {
		var b models.MonthlyBucket
		if err := rows.Scan(&b.Month, &b.Total, &b.Genuine, &b.Fake); err != nil {
			return nil, errors.Wrap(err, "failed to scan trend row")
		}
		buckets = append(buckets, b)
	}
	return buckets, errors.Wrap(rows.Err(), "trend iteration failed")
}

// TopManufacturers ranks manufacturers by batch count.
func (s *PostgresStore) TopManufacturers(ctx context.Context, limit int) ([]models.ManufacturerCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT manufacturer, count(*)
		FROM batches
		GROUP BY manufacturer
		ORDER BY count(*) DESC, manufacturer ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query manufacturer ranking")
	}
	defer rows.Close()

	var ranking []models.ManufacturerCount
	for rows.Next() {
		var m models.ManufacturerCount
		if err := rows.Scan(&m.Manufacturer, &m.BatchCount); err != nil {
			return nil, errors.Wrap(err, "failed to scan manufacturer row")
		}
		ranking = append(ranking, m)
	}
	return ranking, errors.Wrap(rows.Err(), "manufacturer ranking iteration failed")
}

// RecentVerifications returns attempts since the given time, newest first.
func (s *PostgresStore) RecentVerifications(ctx context.Context, since time.Time, limit int) ([]models.VerificationAttempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, batch_id, is_genuine, COALESCE(submitter, ''), COALESCE(location, ''), timestamp
		FROM verification_attempts
		WHERE timestamp >= $1
		ORDER BY timestamp DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent verifications")
	}
	defer rows.Close()

	var attempts []models.VerificationAttempt
	for rows.Next() {
		var a models.VerificationAttempt
		if err := rows.Scan(&a.ID, &a.BatchID, &a.IsGenuine, &a.Submitter, &a.Location, &a.Timestamp); err != nil {
			return nil, errors.Wrap(err, "failed to scan verification row")
		}
		attempts = append(attempts, a)
	}
	return attempts, errors.Wrap(rows.Err(), "recent verifications iteration failed")
}

var _ Store = (*PostgresStore)(nil)
