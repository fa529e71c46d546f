package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petalbrew/pkg/models"
)

func TestMemStoreUpsertPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	rose := models.RawFlower{
		FlowerID:     "F1",
		FlowerName:   "Rose",
		PricePerStem: decimal.NewFromFloat(2.50),
	}

	n, err := m.UpsertFlowers(ctx, []models.RawFlower{rose}, first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rose.PricePerStem = decimal.NewFromFloat(2.75)
	_, err = m.UpsertFlowers(ctx, []models.RawFlower{rose}, second)
	require.NoError(t, err)

	staged, err := m.StagingFlowers(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 1)

	assert.Equal(t, first, staged[0].CreatedAt, "re-upsert must keep the original created_at")
	assert.Equal(t, second, staged[0].UpdatedAt)
	assert.True(t, staged[0].PricePerStem.Equal(decimal.NewFromFloat(2.75)))
}

func TestMemStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	order := models.RawOrder{
		OrderID:      "O1",
		CustomerName: "Iris Nakamura",
		TotalAmount:  decimal.NewFromInt(45),
	}

	_, err := m.UpsertOrders(ctx, []models.RawOrder{order}, now)
	require.NoError(t, err)
	_, err = m.UpsertOrders(ctx, []models.RawOrder{order}, now)
	require.NoError(t, err)

	staged, err := m.StagingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, staged[0].CreatedAt, staged[0].UpdatedAt)
}

func TestMemStoreStagingSortedByKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	now := time.Now()

	_, err := m.UpsertSupplies(ctx, []models.RawSupply{
		{SupplyID: "S3", SupplyName: "Ribbon", Quantity: 10, UnitCost: decimal.NewFromInt(1)},
		{SupplyID: "S1", SupplyName: "Vase", Quantity: 5, UnitCost: decimal.NewFromInt(4)},
		{SupplyID: "S2", SupplyName: "Foam", Quantity: 20, UnitCost: decimal.NewFromInt(2)},
	}, now)
	require.NoError(t, err)

	staged, err := m.StagingSupplies(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 3)
	assert.Equal(t, "S1", staged[0].SupplyID)
	assert.Equal(t, "S3", staged[2].SupplyID)
}

func TestMemStoreAuditLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := m.AppendAuditEntry(ctx, models.AuditEntry{
			ProcedureName: "process_flower_shop_data",
			StartTime:     base.Add(time.Duration(i) * time.Hour),
			Status:        models.RunInfo,
		})
		require.NoError(t, err)
	}

	entries, err := m.AuditEntries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, base.Add(3*time.Hour), entries[0].StartTime, "limit keeps the most recent entries in order")
	assert.Equal(t, base.Add(4*time.Hour), entries[1].StartTime)

	all, err := m.AuditEntries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMemStoreQualityIssuesAppendOnly(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	now := time.Now()

	require.NoError(t, m.AppendQualityIssue(ctx, models.QualityIssue{
		TableName: TableRawFlowers, IssueType: "NEGATIVE_PRICE", IssueCount: 2, DetectedAt: now,
	}))
	require.NoError(t, m.AppendQualityIssue(ctx, models.QualityIssue{
		TableName: TableStagingOrders, IssueType: "INVALID_EMAIL", IssueCount: 1, DetectedAt: now,
	}))

	issues, err := m.QualityIssues(ctx, 0)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "NEGATIVE_PRICE", issues[0].IssueType)
}
