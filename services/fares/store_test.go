package fares

import (
	"context"
	"testing"

	"tigerfare-backend/lib/testutil"
	"tigerfare-backend/services/fares/db"

	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) Store {
	t.Helper()
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "fares",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	t.Cleanup(func() { result.DB.Close() })
	return NewStore(result.DB)
}

func TestSaveResultAndHistory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := sampleResult(t)
	crawlId, err := store.SaveResult(ctx, first)
	require.NoError(t, err)
	require.Greater(t, crawlId, int64(0))

	second := sampleResult(t)
	second.Flights[0].Price = 2599
	secondId, err := store.SaveResult(ctx, second)
	require.NoError(t, err)
	require.Greater(t, secondId, crawlId)

	points, err := store.History(ctx, "TPE_NRT", 10)
	require.NoError(t, err)
	require.Len(t, points, 4)
	for _, p := range points {
		require.NotEmpty(t, p.FlightNumber)
		require.NotZero(t, p.CrawledAt)
	}

	prices := map[float64]bool{}
	for _, p := range points {
		prices[p.Price] = true
	}
	require.True(t, prices[2599])
	require.True(t, prices[2899])
}

func TestHistoryFiltersRoute(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.SaveResult(ctx, sampleResult(t))
	require.NoError(t, err)

	points, err := store.History(ctx, "KHH_KIX", 10)
	require.NoError(t, err)
	require.Empty(t, points)
}

func TestSaveResultEmpty(t *testing.T) {
	store := setupStore(t)

	result := sampleResult(t)
	result.Flights = nil

	crawlId, err := store.SaveResult(context.Background(), result)
	require.NoError(t, err)
	require.Greater(t, crawlId, int64(0))
}
