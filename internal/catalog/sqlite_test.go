package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivscan/internal/config"
	"derivscan/internal/models"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	cat, err := NewSQLiteCatalog(filepath.Join(t.TempDir(), "catalog.db"), config.DefaultPriorityFields)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func tradeDay(n int) time.Time {
	return time.Date(2026, 8, n, 0, 0, 0, 0, time.UTC)
}

func contract(symbol string, strike float64, class models.OptionClass, day int, close float64, volume int64) models.Contract {
	return models.Contract{
		Symbol:      symbol,
		StrikePrice: strike,
		Class:       class,
		TradeDate:   tradeDay(day),
		Close:       close,
		Volume:      volume,
	}
}

func TestSQLiteCatalog_SaveAndGetStrikes(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	err := cat.SaveContracts(ctx, "b1", []models.Contract{
		contract("NIFTY", 22500, models.Call, 1, 120, 100),
		contract("NIFTY", 22000, models.Call, 1, 310, 100),
		contract("NIFTY", 22000, models.Put, 1, 95, 100),
		contract("BANKNIFTY", 48000, models.Call, 1, 500, 100),
	})
	require.NoError(t, err)

	strikes, err := cat.GetStrikes(ctx, "NIFTY", tradeDay(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{22000, 22500}, strikes, "distinct strikes, ascending")

	strikes, err = cat.GetStrikes(ctx, "NIFTY", tradeDay(1).AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, strikes, "nothing traded at or before the cutoff")
}

func TestSQLiteCatalog_GetContractsLatestDate(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, cat.SaveContracts(ctx, "b1", []models.Contract{
		contract("NIFTY", 22000, models.Call, 1, 300, 100),
		contract("NIFTY", 22000, models.Call, 2, 310, 100),
		contract("NIFTY", 22000, models.Call, 5, 330, 100),
	}))

	got, err := cat.GetContracts(ctx, "NIFTY", 22000, models.Call, tradeDay(3))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 310.0, got[0].Close, "latest row at or before the as-of date")

	got, err = cat.GetContracts(ctx, "NIFTY", 22000, models.Call, tradeDay(9))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 330.0, got[0].Close)
}

func TestSQLiteCatalog_DuplicateBatchesSurfaceAsCandidates(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	sparse := contract("NIFTY", 22000, models.Call, 1, 300, 100)
	full := contract("NIFTY", 22000, models.Call, 1, 302, 100)
	full.Open, full.High, full.Low = 295, 305, 290

	require.NoError(t, cat.SaveContracts(ctx, "fo01AUG.csv", []models.Contract{sparse}))
	require.NoError(t, cat.SaveContracts(ctx, "fo01AUG_corrected.csv", []models.Contract{full}))

	got, err := cat.GetContracts(ctx, "NIFTY", 22000, models.Call, tradeDay(1))
	require.NoError(t, err)
	assert.Len(t, got, 2, "both batch rows are candidates at the same date")
	assert.Equal(t, 300.0, got[0].Close, "insertion order preserved")
	assert.Equal(t, 302.0, got[1].Close)
}

func TestSQLiteCatalog_UpsertWithinBatch(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, cat.SaveContracts(ctx, "b1", []models.Contract{
		contract("NIFTY", 22000, models.Call, 1, 300, 100),
	}))
	require.NoError(t, cat.SaveContracts(ctx, "b1", []models.Contract{
		contract("NIFTY", 22000, models.Call, 1, 305, 150),
	}))

	n, err := cat.ContractCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "same batch and key replaces, not duplicates")

	got, err := cat.GetContracts(ctx, "NIFTY", 22000, models.Call, tradeDay(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 305.0, got[0].Close)
	assert.Equal(t, int64(150), got[0].Volume)
}

func TestSQLiteCatalog_PriceSeriesCollapsesDuplicates(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, cat.SaveContracts(ctx, "b1", []models.Contract{
		contract("NIFTY", 22000, models.Call, 1, 300, 500),
		contract("NIFTY", 22000, models.Call, 2, 290, 400),
	}))
	// A revised batch for day 2 with more volume wins that day.
	require.NoError(t, cat.SaveContracts(ctx, "b2", []models.Contract{
		contract("NIFTY", 22000, models.Call, 2, 292, 600),
	}))

	series, err := cat.GetPriceSeries(ctx, "NIFTY", 22000, models.Call, tradeDay(1))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.True(t, series.IsSorted())
	assert.Equal(t, 300.0, series[0].Close)
	assert.Equal(t, 292.0, series[1].Close)
	assert.Equal(t, int64(600), series[1].Volume)
}

func TestSQLiteCatalog_PriceSeriesVolumeTieFallsToCompleteness(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	sparse := contract("NIFTY", 22000, models.Call, 1, 300, 500)
	full := contract("NIFTY", 22000, models.Call, 1, 301, 500)
	full.Open, full.High, full.Low, full.LastPrice = 295, 305, 290, 300.5

	require.NoError(t, cat.SaveContracts(ctx, "b1", []models.Contract{sparse}))
	require.NoError(t, cat.SaveContracts(ctx, "b2", []models.Contract{full}))

	series, err := cat.GetPriceSeries(ctx, "NIFTY", 22000, models.Call, tradeDay(1))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 301.0, series[0].Close, "equal volume resolves on field completeness")
}

func TestSQLiteCatalog_SeriesRespectsFromDate(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, cat.SaveContracts(ctx, "b1", []models.Contract{
		contract("NIFTY", 22000, models.Call, 1, 300, 100),
		contract("NIFTY", 22000, models.Call, 5, 280, 100),
		contract("NIFTY", 22000, models.Call, 9, 260, 100),
	}))

	series, err := cat.GetPriceSeries(ctx, "NIFTY", 22000, models.Call, tradeDay(5))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 280.0, series[0].Close)
	assert.Equal(t, 260.0, series[1].Close)
}

func TestSQLiteCatalog_Symbols(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, cat.SaveContracts(ctx, "b1", []models.Contract{
		contract("NIFTY", 22000, models.Call, 1, 300, 100),
		contract("BANKNIFTY", 48000, models.Put, 1, 500, 100),
		contract("NIFTY", 22500, models.Put, 1, 120, 100),
	}))

	symbols, err := cat.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BANKNIFTY", "NIFTY"}, symbols)
}
