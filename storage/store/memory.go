package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"medichain/internal/models"
)

// MemoryStore is an in-memory Store used for tests and local development.
// It applies the same insert-once and append-only rules as the
// PostgreSQL implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	batches  map[string]*models.Batch
	attempts []*models.VerificationAttempt
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]*models.Batch),
	}
}

func (s *MemoryStore) CreateBatch(ctx context.Context, batch *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.BatchID]; exists {
		return ErrDuplicateBatch
	}
	copied := *batch
	s.batches[batch.BatchID] = &copied
	return nil
}

func (s *MemoryStore) GetBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, exists := s.batches[batchID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *batch
	return &copied, nil
}

func (s *MemoryStore) ListBatches(ctx context.Context, limit, offset int) ([]models.BatchWithLatestAttempt, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	out := make([]models.BatchWithLatestAttempt, 0, end-offset)
	for _, b := range all[offset:end] {
		item := models.BatchWithLatestAttempt{Batch: *b}
		for _, a := range s.attempts {
			if a.BatchID != b.BatchID {
				continue
			}
			if item.LatestVerification == nil || a.Timestamp.After(item.LatestVerification.Timestamp) {
				copied := *a
				item.LatestVerification = &copied
			}
		}
		out = append(out, item)
	}
	return out, total, nil
}

func (s *MemoryStore) CountBatches(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.batches)), nil
}

func (s *MemoryStore) CreateVerification(ctx context.Context, attempt *models.VerificationAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[attempt.BatchID]; !exists {
		return ErrNotFound
	}
	copied := *attempt
	s.attempts = append(s.attempts, &copied)
	return nil
}

func (s *MemoryStore) CountVerificationsForBatch(ctx context.Context, batchID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.attempts {
		if a.BatchID == batchID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) VerificationTotals(ctx context.Context) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total, genuine int64
	for _, a := range s.attempts {
		total++
		if a.IsGenuine {
			genuine++
		}
	}
	return total, genuine, nil
}

func (s *MemoryStore) MonthlyVerificationTrend(ctx context.Context, since time.Time, maxBuckets int) ([]models.MonthlyBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := make(map[string]*models.MonthlyBucket)
	for _, a := range s.attempts {
		if a.Timestamp.Before(since) {
			continue
		}
		month := a.Timestamp.UTC().Format("2006-01")
		bucket, ok := byMonth[month]
		if !ok {
			bucket = &models.MonthlyBucket{Month: month}
			byMonth[month] = bucket
		}
		bucket.Total++
		if a.IsGenuine {
			bucket.Genuine++
		} else {
			bucket.Fake++
		}
	}

	buckets := make([]models.MonthlyBucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Month > buckets[j].Month
	})
	if len(buckets) > maxBuckets {
		buckets = buckets[:maxBuckets]
	}
	return buckets, nil
}

func (s *MemoryStore) TopManufacturers(ctx context.Context, limit int) ([]models.ManufacturerCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, b := range s.batches {
		counts[b.Manufacturer]++
	}
	ranking := make([]models.ManufacturerCount, 0, len(counts))
	for m, n := range counts {
		ranking = append(ranking, models.ManufacturerCount{Manufacturer: m, BatchCount: n})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].BatchCount != ranking[j].BatchCount {
			return ranking[i].BatchCount > ranking[j].BatchCount
		}
		return ranking[i].Manufacturer < ranking[j].Manufacturer
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

func (s *MemoryStore) RecentVerifications(ctx context.Context, since time.Time, limit int) ([]models.VerificationAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var attempts []models.VerificationAttempt
	for _, a := range s.attempts {
		if !a.Timestamp.Before(since) {
			attempts = append(attempts, *a)
		}
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].Timestamp.After(attempts[j].Timestamp)
	})
	if len(attempts) > limit {
		attempts = attempts[:limit]
	}
	return attempts, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
