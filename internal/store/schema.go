package store

// Schema DDL for every table the pipeline owns. All statements are
// CREATE TABLE IF NOT EXISTS so the ensure step is idempotent and runs once
// per pipeline run, before any stage touches the warehouse.
//
// Raw tables are owned by the upstream ingestion job; they are created here
// too so a fresh warehouse (or the sqlite3 dev target) is usable end to end.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS raw_flowers (
		flower_id TEXT,
		flower_name TEXT,
		color TEXT,
		season TEXT,
		price_per_stem DECIMAL(12,2),
		supplier TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS raw_arrangements (
		arrangement_id TEXT,
		arrangement_name TEXT,
		category TEXT,
		price DECIMAL(12,2),
		flower_count INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS raw_orders (
		order_id TEXT,
		customer_name TEXT,
		customer_email TEXT,
		arrangement_id TEXT,
		delivery_id TEXT,
		order_date TIMESTAMP,
		total_amount DECIMAL(12,2),
		discount_amount DECIMAL(12,2),
		delivery_fee DECIMAL(12,2),
		order_status TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS raw_delivery_info (
		delivery_id TEXT,
		delivery_date TIMESTAMP,
		delivery_status TEXT,
		recipient TEXT,
		address TEXT,
		delivery_fee DECIMAL(12,2)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_supplies (
		supply_id TEXT,
		supply_name TEXT,
		quantity INTEGER,
		unit_cost DECIMAL(12,2)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_coffee_orders (
		order_id TEXT,
		customer_email TEXT,
		order_date TIMESTAMP,
		amount DECIMAL(12,2)
	)`,

	`CREATE TABLE IF NOT EXISTS staging_flowers (
		flower_id TEXT PRIMARY KEY,
		flower_name TEXT NOT NULL,
		color TEXT,
		season TEXT,
		price_per_stem DECIMAL(12,2) NOT NULL,
		supplier TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staging_arrangements (
		arrangement_id TEXT PRIMARY KEY,
		arrangement_name TEXT NOT NULL,
		category TEXT,
		price DECIMAL(12,2) NOT NULL,
		flower_count INTEGER,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staging_orders (
		order_id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		customer_email TEXT,
		arrangement_id TEXT,
		delivery_id TEXT,
		order_date TIMESTAMP,
		total_amount DECIMAL(12,2) NOT NULL,
		discount_amount DECIMAL(12,2),
		delivery_fee DECIMAL(12,2),
		order_status TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staging_deliveries (
		delivery_id TEXT PRIMARY KEY,
		delivery_date TIMESTAMP,
		delivery_status TEXT,
		recipient TEXT,
		address TEXT,
		delivery_fee DECIMAL(12,2),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staging_supplies (
		supply_id TEXT PRIMARY KEY,
		supply_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost DECIMAL(12,2) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS int_order_details (
		order_id TEXT PRIMARY KEY,
		customer_name TEXT,
		customer_email TEXT,
		arrangement_id TEXT,
		delivery_id TEXT,
		order_date TIMESTAMP,
		total_amount DECIMAL(12,2),
		discount_amount DECIMAL(12,2),
		delivery_fee DECIMAL(12,2),
		order_status TEXT,
		arrangement_name TEXT,
		arrangement_category TEXT,
		arrangement_price DECIMAL(12,2),
		delivery_date TIMESTAMP,
		delivery_status TEXT,
		delivery_recipient TEXT,
		net_product_amount DECIMAL(12,2),
		pricing_tier TEXT,
		overall_status TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS fct_customer_lifetime_value (
		customer_email TEXT PRIMARY KEY,
		customer_name TEXT,
		order_count INTEGER,
		gross_revenue DECIMAL(14,2),
		total_discounts DECIMAL(14,2),
		net_revenue DECIMAL(14,2),
		first_order_date TIMESTAMP,
		last_order_date TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS fct_daily_revenue (
		revenue_date TIMESTAMP PRIMARY KEY,
		order_count INTEGER,
		gross_revenue DECIMAL(14,2),
		discounts DECIMAL(14,2),
		delivery_fees DECIMAL(14,2),
		net_revenue DECIMAL(14,2)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_cross_business_customers (
		customer_email TEXT PRIMARY KEY,
		flower_order_count INTEGER,
		flower_net_revenue DECIMAL(14,2),
		coffee_order_count INTEGER,
		coffee_revenue DECIMAL(14,2),
		both_businesses BOOLEAN
	)`,

	`CREATE TABLE IF NOT EXISTS data_quality_issues (
		table_name TEXT NOT NULL,
		issue_type TEXT NOT NULL,
		issue_count INTEGER NOT NULL,
		detected_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS etl_audit_log (
		procedure_name TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP,
		status TEXT NOT NULL,
		message TEXT
	)`,
}

// scratchOrderDetailsDDL creates the per-run staging area for the order
// join. UpsertJoinedOrders builds rows here inside its transaction, then
// swaps them into int_order_details set-wise; Cleanup drops it afterwards.
// Not part of schemaStatements: the table only exists mid-run.
const scratchOrderDetailsDDL = `CREATE TABLE IF NOT EXISTS tmp_order_details_scratch (
	order_id TEXT,
	customer_name TEXT,
	customer_email TEXT,
	arrangement_id TEXT,
	delivery_id TEXT,
	order_date TIMESTAMP,
	total_amount DECIMAL(12,2),
	discount_amount DECIMAL(12,2),
	delivery_fee DECIMAL(12,2),
	order_status TEXT,
	arrangement_name TEXT,
	arrangement_category TEXT,
	arrangement_price DECIMAL(12,2),
	delivery_date TIMESTAMP,
	delivery_status TEXT,
	delivery_recipient TEXT,
	net_product_amount DECIMAL(12,2),
	pricing_tier TEXT,
	overall_status TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// joinedOrderColumns is the shared column list for int_order_details and its
// scratch table; the set-wise swap relies on the two staying in step.
const joinedOrderColumns = `order_id, customer_name, customer_email, arrangement_id, delivery_id,
	 order_date, total_amount, discount_amount, delivery_fee, order_status,
	 arrangement_name, arrangement_category, arrangement_price,
	 delivery_date, delivery_status, delivery_recipient,
	 net_product_amount, pricing_tier, overall_status, created_at, updated_at`

// scratchTables are dropped by Cleanup at the end of a successful run.
var scratchTables = []string{
	"tmp_order_details_scratch",
}
