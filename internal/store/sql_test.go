package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

func newMockStore(t *testing.T, driver string) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db, driver), mock
}

func TestRebind(t *testing.T) {
	s := &SQLStore{driver: "postgres"}
	assert.Equal(t, "DELETE FROM staging_flowers WHERE flower_id = $1",
		s.rebind("DELETE FROM staging_flowers WHERE flower_id = ?"))

	s.driver = "snowflake"
	assert.Equal(t, "SELECT 1 WHERE a = ?", s.rebind("SELECT 1 WHERE a = ?"))
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")

	for range schemaStatements {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaFailure(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnError(fmt.Errorf("permission denied"))

	err := s.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSchemaEnsure, errors.GetErrorCode(err))
}

func TestUpsertFlowersPreservesCreatedAt(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")

	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT flower_id, created_at FROM staging_flowers").
		WillReturnRows(sqlmock.NewRows([]string{"flower_id", "created_at"}).AddRow("F1", created))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM staging_flowers WHERE flower_id").
		WithArgs("F1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO staging_flowers").
		WithArgs("F1", "Rose", "red", "spring", decimal.NewFromFloat(2.50), "Bloom & Co", created, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.UpsertFlowers(context.Background(), []models.RawFlower{{
		FlowerID:     "F1",
		FlowerName:   "Rose",
		Color:        "red",
		Season:       "spring",
		PricePerStem: decimal.NewFromFloat(2.50),
		Supplier:     "Bloom & Co",
	}}, now)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFlowersNewKeyUsesNow(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT flower_id, created_at FROM staging_flowers").
		WillReturnRows(sqlmock.NewRows([]string{"flower_id", "created_at"}))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM staging_flowers WHERE flower_id").
		WithArgs("F2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO staging_flowers").
		WithArgs("F2", "Tulip", "", "", decimal.NewFromInt(1), "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := s.UpsertFlowers(context.Background(), []models.RawFlower{{
		FlowerID:     "F2",
		FlowerName:   "Tulip",
		PricePerStem: decimal.NewFromInt(1),
	}}, now)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")
	now := time.Now()

	mock.ExpectQuery("SELECT supply_id, created_at FROM staging_supplies").
		WillReturnRows(sqlmock.NewRows([]string{"supply_id", "created_at"}))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM staging_supplies").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO staging_supplies").WillReturnError(fmt.Errorf("constraint violation"))
	mock.ExpectRollback()

	_, err := s.UpsertSupplies(context.Background(), []models.RawSupply{{
		SupplyID: "S1", SupplyName: "Vase", Quantity: 3, UnitCost: decimal.NewFromInt(4),
	}}, now)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSQLExecution, errors.GetErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertJoinedOrdersStagesThroughScratch(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")

	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT order_id, created_at FROM int_order_details").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "created_at"}).AddRow("O1", created))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tmp_order_details_scratch").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM tmp_order_details_scratch").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO tmp_order_details_scratch").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM int_order_details\s+WHERE order_id IN`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)INSERT INTO int_order_details.+SELECT.+FROM tmp_order_details_scratch`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.UpsertJoinedOrders(context.Background(), []models.JoinedOrder{{
		StagingOrder: models.StagingOrder{RawOrder: models.RawOrder{
			OrderID:      "O1",
			CustomerName: "Iris Nakamura",
			TotalAmount:  decimal.NewFromInt(45),
		}},
		NetProductAmount: decimal.NewFromFloat(32.50),
		PricingTier:      models.TierDiscounted,
		OverallStatus:    models.StatusCompleted,
	}}, now)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawOrdersScansNulls(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")

	orderDate := time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"order_id", "customer_name", "customer_email", "arrangement_id", "delivery_id",
		"order_date", "total_amount", "discount_amount", "delivery_fee", "order_status",
	}).
		AddRow("O1", "Iris Nakamura", "iris@example.com", "A1", "D1", orderDate, "45.00", "5.00", "7.50", "delivered").
		AddRow("O2", nil, nil, nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery("SELECT order_id, customer_name, customer_email").WillReturnRows(rows)

	out, err := s.RawOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.True(t, out[0].TotalAmount.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, "delivered", out[0].OrderStatus)

	assert.Empty(t, out[1].CustomerName)
	assert.True(t, out[1].TotalAmount.IsZero())
	assert.True(t, out[1].OrderDate.IsZero())
}

func TestAuditEntriesChronological(t *testing.T) {
	s, mock := newMockStore(t, "snowflake")

	early := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	// Query returns newest first; the store flips to oldest first.
	rows := sqlmock.NewRows([]string{"procedure_name", "start_time", "end_time", "status", "message"}).
		AddRow("process_flower_shop_data", late, late.Add(time.Minute), "COMPLETED", "SUCCESS: pipeline finished").
		AddRow("process_flower_shop_data", early, nil, "STARTED", nil)

	mock.ExpectQuery("SELECT procedure_name, start_time, end_time, status, message").WillReturnRows(rows)

	out, err := s.AuditEntries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, models.RunStarted, out[0].Status)
	assert.True(t, out[0].EndTime.IsZero())
	assert.Equal(t, models.RunCompleted, out[1].Status)
	assert.Equal(t, "SUCCESS: pipeline finished", out[1].Message)
}

func TestAppendAuditEntry(t *testing.T) {
	s, mock := newMockStore(t, "postgres")

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO etl_audit_log").
		WithArgs("process_flower_shop_data", start, nil, "STARTED", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.AppendAuditEntry(context.Background(), models.AuditEntry{
		ProcedureName: "process_flower_shop_data",
		StartTime:     start,
		Status:        models.RunStarted,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupDropsScratchTables(t *testing.T) {
	s, mock := newMockStore(t, "sqlite3")

	for range scratchTables {
		mock.ExpectExec("DROP TABLE IF EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Cleanup(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
