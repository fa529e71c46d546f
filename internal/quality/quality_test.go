package quality

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petalbrew/internal/store"
	"petalbrew/pkg/models"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"iris@example.com", true},
		{"a.b+tag@sub.example.co", true},
		{"no-at-sign", false},
		{"missing@tld", false},
		{"@example.com", false},
		{"iris@example.c", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidEmail(tt.addr), tt.addr)
	}
}

func TestRunRecordsAllIssueTypes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := store.NewMemStore()
	m.SeedFlowers(
		models.RawFlower{FlowerID: "F1", FlowerName: "Rose", PricePerStem: decimal.NewFromFloat(-2)},
		models.RawFlower{FlowerID: "F2", FlowerName: "Tulip", PricePerStem: decimal.NewFromInt(1)},
	)

	_, err := m.UpsertArrangements(ctx, []models.RawArrangement{
		{ArrangementID: "A1", ArrangementName: "Spring", Price: decimal.NewFromInt(35)},
	}, now)
	require.NoError(t, err)

	_, err = m.UpsertOrders(ctx, []models.RawOrder{
		{OrderID: "O1", CustomerName: "Iris", CustomerEmail: "bad-email", ArrangementID: "A1",
			OrderDate: now.Add(-time.Hour), TotalAmount: decimal.NewFromInt(45)},
		{OrderID: "O2", CustomerName: "Fern", ArrangementID: "A404",
			OrderDate: now.Add(48 * time.Hour), TotalAmount: decimal.NewFromInt(30)},
	}, now)
	require.NoError(t, err)

	_, err = m.UpsertJoinedOrders(ctx, []models.JoinedOrder{
		{StagingOrder: models.StagingOrder{RawOrder: models.RawOrder{OrderID: "O1"}},
			NetProductAmount: decimal.NewFromInt(-5)},
	}, now)
	require.NoError(t, err)

	found, err := NewChecker(m).Run(ctx, now)
	require.NoError(t, err)

	byType := map[string]models.QualityIssue{}
	for _, f := range found {
		byType[f.IssueType] = f
	}

	require.Len(t, found, 5)
	assert.Equal(t, 1, byType[IssueNegativePrice].IssueCount)
	assert.Equal(t, store.TableRawFlowers, byType[IssueNegativePrice].TableName)
	assert.Equal(t, 1, byType[IssueInvalidEmail].IssueCount)
	assert.Equal(t, 1, byType[IssueOrphanedOrders].IssueCount)
	assert.Equal(t, 1, byType[IssueNegativeNetAmount].IssueCount)
	assert.Equal(t, 1, byType[IssueFutureOrderDate].IssueCount)

	recorded, err := m.QualityIssues(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recorded, 5)
	for _, r := range recorded {
		assert.Equal(t, now, r.DetectedAt)
	}
}

func TestRunCleanDataRecordsNothing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := store.NewMemStore()
	m.SeedFlowers(models.RawFlower{FlowerID: "F1", FlowerName: "Rose", PricePerStem: decimal.NewFromInt(2)})
	_, err := m.UpsertArrangements(ctx, []models.RawArrangement{
		{ArrangementID: "A1", ArrangementName: "Spring", Price: decimal.NewFromInt(35)},
	}, now)
	require.NoError(t, err)
	_, err = m.UpsertOrders(ctx, []models.RawOrder{
		{OrderID: "O1", CustomerName: "Iris", CustomerEmail: "iris@example.com", ArrangementID: "A1",
			OrderDate: now.Add(-time.Hour), TotalAmount: decimal.NewFromInt(45)},
	}, now)
	require.NoError(t, err)

	found, err := NewChecker(m).Run(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, found)

	recorded, err := m.QualityIssues(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, recorded)
}

func TestEmptyEmailNotCounted(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	m := store.NewMemStore()
	_, err := m.UpsertOrders(ctx, []models.RawOrder{
		{OrderID: "O1", CustomerName: "Iris", CustomerEmail: "", TotalAmount: decimal.NewFromInt(45),
			OrderDate: now.Add(-time.Hour)},
	}, now)
	require.NoError(t, err)

	found, err := NewChecker(m).Run(ctx, now)
	require.NoError(t, err)
	for _, f := range found {
		assert.NotEqual(t, IssueInvalidEmail, f.IssueType)
	}
}
