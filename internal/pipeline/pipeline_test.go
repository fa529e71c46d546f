package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petalbrew/internal/store"
	"petalbrew/internal/testutil"
	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRunHappyPath(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemStore()
	testutil.SeedSampleShop(m)

	runner := NewRunner(m, nil, "").WithClock(fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.Succeeded)
	assert.True(t, strings.HasPrefix(report.Result, "SUCCESS: "), report.Result)
	assert.Positive(t, report.Elapsed)

	names := make([]string, 0, len(report.Stages))
	for _, s := range report.Stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"load_flowers", "load_arrangements", "load_orders", "load_deliveries",
		"load_supplies", "build_order_details", "quality_sweep",
		"build_customer_value", "build_daily_revenue", "build_cross_business",
	}, names)

	joined, err := m.JoinedOrders(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, joined)
	assert.NotEmpty(t, m.CustomerValues())
	assert.NotEmpty(t, m.DailyRevenueRows())
}

func TestRunAuditStateMachine(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemStore()
	testutil.SeedSampleShop(m)

	runner := NewRunner(m, nil, "nightly_refresh").WithClock(fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	_, err := runner.Run(ctx)
	require.NoError(t, err)

	entries, err := m.AuditEntries(ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	first := entries[0]
	assert.Equal(t, models.RunStarted, first.Status)
	assert.Equal(t, "nightly_refresh", first.ProcedureName)
	assert.True(t, first.EndTime.IsZero())

	last := entries[len(entries)-1]
	assert.Equal(t, models.RunCompleted, last.Status)
	assert.Equal(t, first.StartTime, last.StartTime)
	assert.False(t, last.EndTime.IsZero())
	assert.Contains(t, last.Message, "SUCCESS: ")

	for _, e := range entries[1 : len(entries)-1] {
		assert.Equal(t, models.RunInfo, e.Status)
	}
}

func TestRunFailsFastWithEmptyMandatorySource(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemStore()
	// Flowers present, arrangements missing entirely.
	m.SeedFlowers(models.RawFlower{FlowerID: "F1", FlowerName: "Rose", PricePerStem: decimal.NewFromInt(2)})

	runner := NewRunner(m, nil, "").WithClock(fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	report, err := runner.Run(ctx)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStageFailed, errors.GetErrorCode(err))
	assert.True(t, strings.HasPrefix(report.Result, "ERROR: "), report.Result)
	assert.Contains(t, report.Result, "load_arrangements")
	assert.False(t, report.Succeeded)

	entries, auditErr := m.AuditEntries(ctx, 0)
	require.NoError(t, auditErr)
	last := entries[len(entries)-1]
	assert.Equal(t, models.RunFailed, last.Status)
	assert.Contains(t, last.Message, "ERROR: ")

	// Later stages never ran.
	joined, jErr := m.JoinedOrders(ctx)
	require.NoError(t, jErr)
	assert.Empty(t, joined)
}

func TestRunRecordsQualityFindingsWithoutFailing(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemStore()
	testutil.SeedSampleShop(m)
	m.SeedFlowers(models.RawFlower{FlowerID: "F9", FlowerName: "Wilted", PricePerStem: decimal.NewFromInt(-1)})

	runner := NewRunner(m, nil, "").WithClock(fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.Succeeded, "quality findings are advisory")
	assert.NotEmpty(t, report.QualityFindings)

	issues, err := m.QualityIssues(ctx, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemStore()
	testutil.SeedSampleShop(m)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fixed := func() time.Time { return clock }

	_, err := NewRunner(m, nil, "").WithClock(fixed).Run(ctx)
	require.NoError(t, err)
	firstStaged, err := m.StagingOrders(ctx)
	require.NoError(t, err)

	_, err = NewRunner(m, nil, "").WithClock(fixed).Run(ctx)
	require.NoError(t, err)
	secondStaged, err := m.StagingOrders(ctx)
	require.NoError(t, err)

	assert.Equal(t, firstStaged, secondStaged, "same input and clock must produce identical staging rows")
}
