package service

import (
	"context"
	"fmt"
	"time"

	"medichain/internal/models"
)

// SummaryStats holds the headline verification counters.
type SummaryStats struct {
	TotalAttempts int64  `json:"totalAttempts"`
	GenuineCount  int64  `json:"genuineCount"`
	FakeCount     int64  `json:"fakeCount"`
	TotalBatches  int64  `json:"totalBatches"`
	Rate          string `json:"rate"` // Genuine percentage, one decimal; "0" when no attempts
}

// AnalyticsSummary is the full analytics payload: headline counters plus
// bounded rankings and trends derived from verification attempts.
type AnalyticsSummary struct {
	Summary               SummaryStats                 `json:"summary"`
	RecentVerifications   []models.VerificationAttempt `json:"recentVerifications"`
	BatchesByManufacturer []models.ManufacturerCount   `json:"batchesByManufacturer"`
	MonthlyTrends         []models.MonthlyBucket       `json:"monthlyTrends"`
}

// Summarize derives the analytics summary by scanning verification-attempt
// and batch records. Pure read, no side effects.
func (s *Service) Summarize(ctx context.Context) (*AnalyticsSummary, error) {
	total, genuine, err := s.store.VerificationTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read verification totals: %w", err)
	}

	totalBatches, err := s.store.CountBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count batches: %w", err)
	}

	ranking, err := s.store.TopManufacturers(ctx, s.analytics.TopManufacturers)
	if err != nil {
		return nil, fmt.Errorf("failed to rank manufacturers: %w", err)
	}

	now := time.Now().UTC()
	trend, err := s.store.MonthlyVerificationTrend(ctx, now.AddDate(0, -s.analytics.TrendMonths, 0), s.analytics.TrendMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly trend: %w", err)
	}

	recent, err := s.store.RecentVerifications(ctx, now.AddDate(0, 0, -s.analytics.RecentDays), s.analytics.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent verifications: %w", err)
	}

	rate := "0"
	if total > 0 {
		rate = fmt.Sprintf("%.1f", float64(genuine)/float64(total)*100)
	}

	return &AnalyticsSummary{
		Summary: SummaryStats{
			TotalAttempts: total,
			GenuineCount:  genuine,
			FakeCount:     total - genuine,
			TotalBatches:  totalBatches,
			Rate:          rate,
		},
		RecentVerifications:   recent,
		BatchesByManufacturer: ranking,
		MonthlyTrends:         trend,
	}, nil
}
