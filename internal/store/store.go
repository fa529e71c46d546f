package store

import (
	"context"
	"time"

	"petalbrew/pkg/models"
)

// Table names as they exist in the warehouse.
const (
	TableRawFlowers      = "raw_flowers"
	TableRawArrangements = "raw_arrangements"
	TableRawOrders       = "raw_orders"
	TableRawDeliveries   = "raw_delivery_info"
	TableRawSupplies     = "raw_supplies"
	TableRawCoffeeOrders = "raw_coffee_orders"

	TableStagingFlowers      = "staging_flowers"
	TableStagingArrangements = "staging_arrangements"
	TableStagingOrders       = "staging_orders"
	TableStagingDeliveries   = "staging_deliveries"
	TableStagingSupplies     = "staging_supplies"

	TableJoinedOrders = "int_order_details"

	TableCustomerValue = "fct_customer_lifetime_value"
	TableDailyRevenue  = "fct_daily_revenue"
	TableCrossBusiness = "dim_cross_business_customers"

	TableQualityIssues = "data_quality_issues"
	TableAuditLog      = "etl_audit_log"
)

// Store is the warehouse state the pipeline reads and mutates. Staging and
// intermediate upserts are keyed map updates: an existing key keeps its
// CreatedAt and gets a fresh UpdatedAt, a new key gets both set to now.
// Audit and quality tables are append-only.
type Store interface {
	EnsureSchema(ctx context.Context) error

	RawFlowers(ctx context.Context) ([]models.RawFlower, error)
	RawArrangements(ctx context.Context) ([]models.RawArrangement, error)
	RawOrders(ctx context.Context) ([]models.RawOrder, error)
	RawDeliveries(ctx context.Context) ([]models.RawDelivery, error)
	RawSupplies(ctx context.Context) ([]models.RawSupply, error)

	// RawCoffeeOrders reads the optional coffee shop source. Implementations
	// return an empty slice when the source is absent.
	RawCoffeeOrders(ctx context.Context) ([]models.RawCoffeeOrder, error)

	UpsertFlowers(ctx context.Context, rows []models.RawFlower, now time.Time) (int, error)
	UpsertArrangements(ctx context.Context, rows []models.RawArrangement, now time.Time) (int, error)
	UpsertOrders(ctx context.Context, rows []models.RawOrder, now time.Time) (int, error)
	UpsertDeliveries(ctx context.Context, rows []models.RawDelivery, now time.Time) (int, error)
	UpsertSupplies(ctx context.Context, rows []models.RawSupply, now time.Time) (int, error)

	StagingFlowers(ctx context.Context) ([]models.StagingFlower, error)
	StagingArrangements(ctx context.Context) ([]models.StagingArrangement, error)
	StagingOrders(ctx context.Context) ([]models.StagingOrder, error)
	StagingDeliveries(ctx context.Context) ([]models.StagingDelivery, error)
	StagingSupplies(ctx context.Context) ([]models.StagingSupply, error)

	UpsertJoinedOrders(ctx context.Context, rows []models.JoinedOrder, now time.Time) (int, error)
	JoinedOrders(ctx context.Context) ([]models.JoinedOrder, error)

	UpsertCustomerValues(ctx context.Context, rows []models.CustomerValue, now time.Time) (int, error)
	UpsertDailyRevenue(ctx context.Context, rows []models.DailyRevenue, now time.Time) (int, error)
	UpsertCrossBusinessCustomers(ctx context.Context, rows []models.CrossBusinessCustomer, now time.Time) (int, error)

	AppendQualityIssue(ctx context.Context, issue models.QualityIssue) error
	QualityIssues(ctx context.Context, limit int) ([]models.QualityIssue, error)

	AppendAuditEntry(ctx context.Context, entry models.AuditEntry) error
	AuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error)

	// Cleanup drops any scratch state left behind by a run.
	Cleanup(ctx context.Context) error
}
