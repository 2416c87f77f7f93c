package service

import (
	"context"
	"testing"
	"time"

	"quote-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPriceFixture() (*fakeCatalogStore, *PriceService) {
	fs := newFakeCatalogStore()
	fs.suppliers[1] = &models.Supplier{ID: 1, Name: "Hartono Teknik"}
	fs.items[100] = &models.Item{
		ID: 100, Name: "Spindle bearing", Brand: "SKF", Model: "6205-2RS",
		Status: models.ItemStatusActive,
	}
	return fs, NewPriceService(fs, nil, 10)
}

func TestRecordPriceValidation(t *testing.T) {
	_, svc := newPriceFixture()
	ctx := context.Background()

	_, err := svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("-5"),
		Type:  models.PriceTypePurchase,
	})
	assert.Equal(t, KindValidation, ErrorKind(err))

	_, err = svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("5"),
		Type:  "RETAIL",
	})
	assert.Equal(t, KindValidation, ErrorKind(err))

	_, err = svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 999, SupplierID: 1,
		Price: decimal.RequireFromString("5"),
		Type:  models.PriceTypePurchase,
	})
	assert.Equal(t, KindNotFound, ErrorKind(err))

	_, err = svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 999,
		Price: decimal.RequireFromString("5"),
		Type:  models.PriceTypePurchase,
	})
	assert.Equal(t, KindNotFound, ErrorKind(err))
}

func TestRecordPriceCostPolicy(t *testing.T) {
	fs, svc := newPriceFixture()
	ctx := context.Background()
	day := func(d int) time.Time {
		return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
	}

	// First purchase becomes the cost basis.
	_, err := svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("180.00"),
		Date:  day(10), Type: models.PriceTypePurchase,
	})
	require.NoError(t, err)
	assert.True(t, fs.items[100].CostPrice.Equal(decimal.RequireFromString("180.00")))
	assert.Equal(t, 2026, fs.items[100].Year)

	// A newer quotation is recorded but never touches the cost.
	_, err = svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("500.00"),
		Date:  day(20), Type: models.PriceTypeQuotation,
	})
	require.NoError(t, err)
	assert.True(t, fs.items[100].CostPrice.Equal(decimal.RequireFromString("180.00")))

	// A backdated purchase does not displace the newer history.
	_, err = svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("150.00"),
		Date:  day(1), Type: models.PriceTypePurchase,
	})
	require.NoError(t, err)
	assert.True(t, fs.items[100].CostPrice.Equal(decimal.RequireFromString("180.00")))

	// A purchase newer than everything updates the cost.
	_, err = svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("200.00"),
		Date:  day(25), Type: models.PriceTypePurchase,
	})
	require.NoError(t, err)
	assert.True(t, fs.items[100].CostPrice.Equal(decimal.RequireFromString("200.00")))

	// The full ledger is intact; nothing was rewritten.
	history, err := svc.History(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestRecordPriceDefaultsDate(t *testing.T) {
	_, svc := newPriceFixture()

	entry, err := svc.RecordPrice(context.Background(), &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("99.00"),
		Type:  models.PriceTypePurchase,
	})
	require.NoError(t, err)
	assert.False(t, entry.Date.IsZero())
}

func TestLatestEntryTypeFilter(t *testing.T) {
	_, svc := newPriceFixture()
	ctx := context.Background()

	_, err := svc.LatestEntry(ctx, 100, "RETAIL")
	assert.Equal(t, KindValidation, ErrorKind(err))

	entry, err := svc.LatestEntry(ctx, 100, models.PriceTypePurchase)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSearchRequiresQuery(t *testing.T) {
	_, svc := newPriceFixture()
	ctx := context.Background()

	_, err := svc.Search(ctx, "   ")
	assert.Equal(t, KindValidation, ErrorKind(err))

	_, err = svc.RecordPrice(ctx, &RecordPriceRequest{
		ItemID: 100, SupplierID: 1,
		Price: decimal.RequireFromString("180.00"),
		Type:  models.PriceTypePurchase,
	})
	require.NoError(t, err)

	results, err := svc.Search(ctx, "skf")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Spindle bearing", results[0].ItemName)
}
