package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichain/storage/store"
)

func TestSummarizeEmpty(t *testing.T) {
	svc, _ := newTestService(store.NewMemoryStore(), &stubGateway{})

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Summary.TotalAttempts)
	assert.Equal(t, int64(0), summary.Summary.TotalBatches)
	assert.Equal(t, "0", summary.Summary.Rate)
	assert.Empty(t, summary.RecentVerifications)
	assert.Empty(t, summary.BatchesByManufacturer)
	assert.Empty(t, summary.MonthlyTrends)
}

func TestSummarizeCounts(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	svc, _ := newTestService(st, gw)

	_, err := svc.RegisterBatch(context.Background(), validRegisterInput("B1"))
	require.NoError(t, err)

	// Three checks: two genuine, one that fails closed
	for i := 0; i < 2; i++ {
		_, err := svc.VerifyBatch(context.Background(), &VerifyInput{BatchID: "B1"})
		require.NoError(t, err)
	}
	gw.confirmErr = fmt.Errorf("ledger unreachable")
	_, err = svc.VerifyBatch(context.Background(), &VerifyInput{BatchID: "B1"})
	require.NoError(t, err)
	gw.confirmErr = nil

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Summary.TotalAttempts)
	assert.Equal(t, int64(2), summary.Summary.GenuineCount)
	assert.Equal(t, int64(1), summary.Summary.FakeCount)
	assert.Equal(t, int64(1), summary.Summary.TotalBatches)
	assert.Equal(t, "66.7", summary.Summary.Rate)

	require.Len(t, summary.MonthlyTrends, 1)
	assert.Equal(t, int64(3), summary.MonthlyTrends[0].Total)
	assert.Equal(t, int64(2), summary.MonthlyTrends[0].Genuine)
	assert.Equal(t, int64(1), summary.MonthlyTrends[0].Fake)

	require.Len(t, summary.RecentVerifications, 3)
}

func TestSummarizeAllGenuineRate(t *testing.T) {
	st := store.NewMemoryStore()
	svc, _ := newTestService(st, &stubGateway{})

	_, err := svc.RegisterBatch(context.Background(), validRegisterInput("B1"))
	require.NoError(t, err)
	_, err = svc.VerifyBatch(context.Background(), &VerifyInput{BatchID: "B1"})
	require.NoError(t, err)

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100.0", summary.Summary.Rate)
}

func TestSummarizeManufacturerRankingIsBounded(t *testing.T) {
	st := store.NewMemoryStore()
	svc, _ := newTestService(st, &stubGateway{})

	// 12 distinct manufacturers, default ranking limit is 10
	for i := 0; i < 12; i++ {
		input := validRegisterInput(fmt.Sprintf("B%d", i))
		input.Manufacturer = fmt.Sprintf("Manufacturer-%02d", i)
		_, err := svc.RegisterBatch(context.Background(), input)
		require.NoError(t, err)
	}
	// One manufacturer with an extra batch must rank first
	input := validRegisterInput("B-extra")
	input.Manufacturer = "Manufacturer-05"
	_, err := svc.RegisterBatch(context.Background(), input)
	require.NoError(t, err)

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.BatchesByManufacturer, 10)
	assert.Equal(t, "Manufacturer-05", summary.BatchesByManufacturer[0].Manufacturer)
	assert.Equal(t, int64(2), summary.BatchesByManufacturer[0].BatchCount)
}
