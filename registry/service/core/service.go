package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"medichain/config"
	"medichain/internal/apperrors"
	"medichain/internal/messaging/producer"
	"medichain/internal/metrics"
	"medichain/internal/models"
	"medichain/internal/retry"
	ledger "medichain/ledger/client"
	ledgertypes "medichain/ledger/types"
	"medichain/storage/store"
)

const dateLayout = "2006-01-02"

// RegisterInput defines the information required to register a batch.
// Dates are submitted as YYYY-MM-DD strings and validated here.
type RegisterInput struct {
	BatchID           string
	DrugName          string
	Manufacturer      string
	Dosage            string
	Quantity          int
	ManufacturingDate string
	ExpiryDate        string
}

// RegisterResult defines the return information after successful registration
type RegisterResult struct {
	BatchID string
	AssetID string
	TxRef   string
}

// VerifyInput defines the information submitted with a verification check.
// Submitter and Location are open-ended provenance metadata and are never
// validated against a fixed set.
type VerifyInput struct {
	BatchID   string
	Submitter string
	Location  string
}

// VerifyResult defines the outcome of one verification check
type VerifyResult struct {
	BatchID   string
	IsValid   bool
	AttemptID string
	Batch     *models.Batch // Stored metadata merged with the gateway's copy
	TxRef     string
	Timestamp string
	Reason    string // Populated when the check failed closed
}

// Service encapsulates the core business logic of the batch registry
type Service struct {
	store    store.Store
	gateway  ledger.Gateway
	producer producer.Producer
	metrics  *metrics.Metrics
	logger   *log.Logger

	network        string
	gatewayTimeout time.Duration

	persistMaxAttempts int
	persistStrategy    retry.Strategy

	analytics config.AnalyticsConfig
}

// NewService creates a new Service instance with configuration
func NewService(s store.Store, gw ledger.Gateway, p producer.Producer, m *metrics.Metrics,
	l *log.Logger, serverCfg *config.ServerConfig, ledgerCfg *config.LedgerConfig) *Service {

	gatewayTimeout := time.Duration(ledgerCfg.TimeoutSeconds) * time.Second
	if gatewayTimeout <= 0 {
		gatewayTimeout = 15 * time.Second
	}

	return &Service{
		store:              s,
		gateway:            gw,
		producer:           p,
		metrics:            m,
		logger:             l,
		network:            ledgerCfg.Network,
		gatewayTimeout:     gatewayTimeout,
		persistMaxAttempts: serverCfg.Registration.PersistMaxAttempts,
		persistStrategy: &retry.ExponentialStrategy{
			Min:       serverCfg.Registration.PersistRetryMin.Std(),
			Max:       serverCfg.Registration.PersistRetryMax.Std(),
			MaxJitter: 50 * time.Millisecond,
		},
		analytics: serverCfg.Analytics,
	}
}

// RegisterBatch validates and registers a new batch: duplicate check, then
// exactly one mint call, then one atomic store write. The batch does not
// exist until the mint succeeds.
func (s *Service) RegisterBatch(ctx context.Context, input *RegisterInput) (*RegisterResult, error) {
	mfgDate, expDate, err := s.validateRegisterInput(input)
	if err != nil {
		s.metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	// Duplicate check before minting, so a duplicate request never wastes
	// a mint operation. The store's uniqueness constraint remains the
	// authoritative guard for the race window below.
	_, err = s.store.GetBatch(ctx, input.BatchID)
	if err == nil {
		s.metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, &apperrors.ConflictError{BatchID: input.BatchID}
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check failed for batch '%s': %w", input.BatchID, err)
	}

	metadata := &ledgertypes.BatchMetadata{
		BatchID:           input.BatchID,
		DrugName:          input.DrugName,
		Manufacturer:      input.Manufacturer,
		Dosage:            input.Dosage,
		Quantity:          input.Quantity,
		ManufacturingDate: input.ManufacturingDate,
		ExpiryDate:        input.ExpiryDate,
		Network:           s.network,
	}

	mintCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	receipt, err := s.gateway.Mint(mintCtx, metadata)
	if err != nil {
		s.metrics.MintsTotal.WithLabelValues("failure").Inc()
		s.metrics.RegistrationsTotal.WithLabelValues("mint_failed").Inc()
		s.logger.Printf("Service: Mint failed for batch '%s': %v", input.BatchID, err)
		return nil, &apperrors.MintError{Reason: err.Error(), Err: err}
	}
	s.metrics.MintsTotal.WithLabelValues("success").Inc()

	batch := &models.Batch{
		BatchID:           input.BatchID,
		DrugName:          input.DrugName,
		Manufacturer:      input.Manufacturer,
		Dosage:            input.Dosage,
		Quantity:          input.Quantity,
		ManufacturingDate: mfgDate,
		ExpiryDate:        expDate,
		Network:           s.network,
		AssetID:           receipt.AssetID,
		TxRef:             receipt.TxRef,
		CreatedAt:         time.Now().UTC(),
	}

	// Persist with retry, never re-mint: an asset already exists for this
	// batch, so the write must eventually land with the same references.
	var duplicate bool
	_, err = retry.Do(ctx, s.persistMaxAttempts, s.persistStrategy, func() (struct{}, error) {
		insertErr := s.store.CreateBatch(ctx, batch)
		if errors.Is(insertErr, store.ErrDuplicateBatch) {
			// A concurrent writer won the race; retrying cannot help.
			duplicate = true
			return struct{}{}, nil
		}
		return struct{}{}, insertErr
	})
	if duplicate {
		s.metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		s.logger.Printf("Service: Lost registration race for batch '%s'; orphaned mint asset=%s tx=%s",
			input.BatchID, receipt.AssetID, receipt.TxRef)
		return nil, &apperrors.ConflictError{BatchID: input.BatchID}
	}
	if err != nil {
		s.metrics.RegistrationsTotal.WithLabelValues("persist_failed").Inc()
		s.logger.Printf("CRITICAL: batch '%s' minted (asset=%s tx=%s) but could not be persisted: %v; manual reconciliation required",
			input.BatchID, receipt.AssetID, receipt.TxRef, err)
		return nil, &apperrors.PersistenceError{BatchID: input.BatchID, Err: err}
	}

	s.metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.publishAudit(ctx, &models.AuditEvent{
		EventID:   uuid.NewString(),
		EventType: models.AuditEventBatchRegistered,
		BatchID:   batch.BatchID,
		Outcome:   "registered",
		AssetID:   batch.AssetID,
		TxRef:     batch.TxRef,
		Timestamp: batch.CreatedAt.Format(time.RFC3339Nano),
	})

	return &RegisterResult{
		BatchID: batch.BatchID,
		AssetID: batch.AssetID,
		TxRef:   batch.TxRef,
	}, nil
}

// VerifyBatch checks a batch identifier against local records and the
// ledger, and appends one immutable verification attempt per completed
// check. Gateway failures are downgraded to a negative result (fail
// closed): an indeterminate ledger state must read as "do not trust".
func (s *Service) VerifyBatch(ctx context.Context, input *VerifyInput) (*VerifyResult, error) {
	if input.BatchID == "" {
		return nil, apperrors.NewValidation("batchId", "is required")
	}

	batch, err := s.store.GetBatch(ctx, input.BatchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No attempt is logged for unknown ids: there is nothing to
			// attach it to, and unknown-id noise would pollute analytics.
			return nil, &apperrors.NotFoundError{BatchID: input.BatchID}
		}
		return nil, fmt.Errorf("batch lookup failed for '%s': %w", input.BatchID, err)
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	var reason string
	confirmation, err := s.gateway.Confirm(confirmCtx, batch.BatchID, batch.AssetID)
	if err != nil {
		s.logger.Printf("Service: Ledger confirm failed for batch '%s', failing closed: %v", input.BatchID, err)
		reason = err.Error()
		confirmation = &ledgertypes.Confirmation{Valid: false, Reason: reason}
	} else if !confirmation.Valid {
		reason = confirmation.Reason
	}

	attempt := &models.VerificationAttempt{
		ID:        uuid.NewString(),
		BatchID:   batch.BatchID,
		IsGenuine: confirmation.Valid,
		Submitter: input.Submitter,
		Location:  input.Location,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.CreateVerification(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record verification attempt for '%s': %w", input.BatchID, err)
	}

	outcome := "fake"
	if confirmation.Valid {
		outcome = "genuine"
	}
	s.metrics.VerificationsTotal.WithLabelValues(outcome).Inc()

	s.publishAudit(ctx, &models.AuditEvent{
		EventID:   uuid.NewString(),
		EventType: models.AuditEventBatchVerified,
		BatchID:   batch.BatchID,
		Outcome:   outcome,
		AssetID:   batch.AssetID,
		TxRef:     batch.TxRef,
		Submitter: input.Submitter,
		Timestamp: attempt.Timestamp.Format(time.RFC3339Nano),
	})

	result := &VerifyResult{
		BatchID:   batch.BatchID,
		IsValid:   confirmation.Valid,
		AttemptID: attempt.ID,
		Batch:     mergeMetadata(batch, confirmation.Metadata),
		TxRef:     batch.TxRef,
		Timestamp: attempt.Timestamp.Format(time.RFC3339),
		Reason:    reason,
	}
	if confirmation.TxRef != "" {
		result.TxRef = confirmation.TxRef
	}
	if confirmation.Timestamp != "" {
		result.Timestamp = confirmation.Timestamp
	}
	return result, nil
}

// ListBatches returns a page of registered batches, newest first.
func (s *Service) ListBatches(ctx context.Context, limit, offset int) ([]models.BatchWithLatestAttempt, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListBatches(ctx, limit, offset)
}

// validateRegisterInput checks all required fields and date ordering.
// It has no side effects; the first offending field aborts.
func (s *Service) validateRegisterInput(input *RegisterInput) (mfg time.Time, exp time.Time, err error) {
	required := []struct {
		field string
		value string
	}{
		{"batchId", input.BatchID},
		{"drugName", input.DrugName},
		{"manufacturer", input.Manufacturer},
		{"dosage", input.Dosage},
		{"manufacturingDate", input.ManufacturingDate},
		{"expiryDate", input.ExpiryDate},
	}
	for _, r := range required {
		if r.value == "" {
			return mfg, exp, apperrors.NewValidation(r.field, "is required")
		}
	}
	if input.Quantity <= 0 {
		return mfg, exp, apperrors.NewValidation("quantity", "must be a positive integer")
	}
	mfg, err = parseDate(input.ManufacturingDate)
	if err != nil {
		return mfg, exp, apperrors.NewValidation("manufacturingDate", "must be a valid date (YYYY-MM-DD)")
	}
	exp, err = parseDate(input.ExpiryDate)
	if err != nil {
		return mfg, exp, apperrors.NewValidation("expiryDate", "must be a valid date (YYYY-MM-DD)")
	}
	if exp.Before(mfg) {
		return mfg, exp, apperrors.NewValidation("expiryDate", "must not be earlier than manufacturingDate")
	}
	return mfg, exp, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// mergeMetadata overlays the gateway's confirmation metadata on the stored
// batch. The gateway copy takes precedence when present, since it is
// closer to ground truth than the locally cached record.
func mergeMetadata(batch *models.Batch, meta *ledgertypes.BatchMetadata) *models.Batch {
	merged := *batch
	if meta == nil {
		return &merged
	}
	if meta.DrugName != "" {
		merged.DrugName = meta.DrugName
	}
	if meta.Manufacturer != "" {
		merged.Manufacturer = meta.Manufacturer
	}
	if meta.Dosage != "" {
		merged.Dosage = meta.Dosage
	}
	if meta.Quantity > 0 {
		merged.Quantity = meta.Quantity
	}
	if t, err := parseDate(meta.ManufacturingDate); err == nil {
		merged.ManufacturingDate = t
	}
	if t, err := parseDate(meta.ExpiryDate); err == nil {
		merged.ExpiryDate = t
	}
	return &merged
}

// publishAudit sends an audit event best-effort; a publish failure is
// logged and counted but never fails the request.
func (s *Service) publishAudit(ctx context.Context, event *models.AuditEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		s.metrics.AuditPublishErrors.Inc()
		s.logger.Printf("Service: Failed to publish audit event %s for batch '%s': %v", event.EventType, event.BatchID, err)
	}
}
