package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

// SQLStore is the warehouse-backed Store. It speaks plain portable SQL so
// the same code serves the snowflake, postgres, and sqlite3 drivers; the
// only driver-specific concern is placeholder style.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open connection. driver is the database/sql driver
// name the connection was opened with.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// rebind converts ? placeholders to the driver's native style.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...interface{}) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(query), args...); err != nil {
		return errors.SQLError("statement execution failed", query, err)
	}
	return nil
}

// EnsureSchema creates every pipeline-owned table that does not yet exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, errors.ErrCodeSchemaEnsure, "schema ensure failed").
				WithContext("statement", stmt[:strings.Index(stmt, "(")])
		}
	}
	return nil
}

// Raw extraction. Filtering here is deliberately light (non-null keys only);
// the staging normalizer owns the validity predicates, and the quality
// checker needs to see rows that will be rejected.

func (s *SQLStore) RawFlowers(ctx context.Context) ([]models.RawFlower, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT flower_id, flower_name, color, season, price_per_stem, supplier
		 FROM raw_flowers WHERE flower_id IS NOT NULL`))
	if err != nil {
		return nil, errors.SQLError("failed to read raw flowers", TableRawFlowers, err)
	}
	defer rows.Close()

	var out []models.RawFlower
	for rows.Next() {
		var r models.RawFlower
		var name, color, season, supplier sql.NullString
		var price decimal.NullDecimal
		if err := rows.Scan(&r.FlowerID, &name, &color, &season, &price, &supplier); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan raw flower row")
		}
		r.FlowerName = name.String
		r.Color = color.String
		r.Season = season.String
		r.PricePerStem = price.Decimal
		r.Supplier = supplier.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) RawArrangements(ctx context.Context) ([]models.RawArrangement, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT arrangement_id, arrangement_name, category, price, flower_count
		 FROM raw_arrangements WHERE arrangement_id IS NOT NULL`))
	if err != nil {
		return nil, errors.SQLError("failed to read raw arrangements", TableRawArrangements, err)
	}
	defer rows.Close()

	var out []models.RawArrangement
	for rows.Next() {
		var r models.RawArrangement
		var name, category sql.NullString
		var price decimal.NullDecimal
		var count sql.NullInt64
		if err := rows.Scan(&r.ArrangementID, &name, &category, &price, &count); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan raw arrangement row")
		}
		r.ArrangementName = name.String
		r.Category = category.String
		r.Price = price.Decimal
		r.FlowerCount = int(count.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) RawOrders(ctx context.Context) ([]models.RawOrder, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT order_id, customer_name, customer_email, arrangement_id, delivery_id,
		        order_date, total_amount, discount_amount, delivery_fee, order_status
		 FROM raw_orders WHERE order_id IS NOT NULL`))
	if err != nil {
		return nil, errors.SQLError("failed to read raw orders", TableRawOrders, err)
	}
	defer rows.Close()

	var out []models.RawOrder
	for rows.Next() {
		var r models.RawOrder
		var name, email, arrID, delID, status sql.NullString
		var orderDate sql.NullTime
		var total, discount, fee decimal.NullDecimal
		if err := rows.Scan(&r.OrderID, &name, &email, &arrID, &delID,
			&orderDate, &total, &discount, &fee, &status); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan raw order row")
		}
		r.CustomerName = name.String
		r.CustomerEmail = email.String
		r.ArrangementID = arrID.String
		r.DeliveryID = delID.String
		r.OrderDate = orderDate.Time
		r.TotalAmount = total.Decimal
		r.DiscountAmount = discount.Decimal
		r.DeliveryFee = fee.Decimal
		r.OrderStatus = status.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) RawDeliveries(ctx context.Context) ([]models.RawDelivery, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT delivery_id, delivery_date, delivery_status, recipient, address, delivery_fee
		 FROM raw_delivery_info WHERE delivery_id IS NOT NULL`))
	if err != nil {
		return nil, errors.SQLError("failed to read raw deliveries", TableRawDeliveries, err)
	}
	defer rows.Close()

	var out []models.RawDelivery
	for rows.Next() {
		var r models.RawDelivery
		var status, recipient, address sql.NullString
		var date sql.NullTime
		var fee decimal.NullDecimal
		if err := rows.Scan(&r.DeliveryID, &date, &status, &recipient, &address, &fee); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan raw delivery row")
		}
		r.DeliveryDate = date.Time
		r.DeliveryStatus = status.String
		r.Recipient = recipient.String
		r.Address = address.String
		r.DeliveryFee = fee.Decimal
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) RawSupplies(ctx context.Context) ([]models.RawSupply, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT supply_id, supply_name, quantity, unit_cost
		 FROM raw_supplies WHERE supply_id IS NOT NULL`))
	if err != nil {
		return nil, errors.SQLError("failed to read raw supplies", TableRawSupplies, err)
	}
	defer rows.Close()

	var out []models.RawSupply
	for rows.Next() {
		var r models.RawSupply
		var name sql.NullString
		var qty sql.NullInt64
		var cost decimal.NullDecimal
		if err := rows.Scan(&r.SupplyID, &name, &qty, &cost); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan raw supply row")
		}
		r.SupplyName = name.String
		r.Quantity = int(qty.Int64)
		r.UnitCost = cost.Decimal
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) RawCoffeeOrders(ctx context.Context) ([]models.RawCoffeeOrder, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT order_id, customer_email, order_date, amount
		 FROM raw_coffee_orders WHERE order_id IS NOT NULL`))
	if err != nil {
		// The coffee source is optional; a missing table is not an error.
		if strings.Contains(strings.ToLower(err.Error()), "does not exist") ||
			strings.Contains(strings.ToLower(err.Error()), "no such table") {
			return nil, nil
		}
		return nil, errors.SQLError("failed to read raw coffee orders", TableRawCoffeeOrders, err)
	}
	defer rows.Close()

	var out []models.RawCoffeeOrder
	for rows.Next() {
		var r models.RawCoffeeOrder
		var email sql.NullString
		var date sql.NullTime
		var amount decimal.NullDecimal
		if err := rows.Scan(&r.OrderID, &email, &date, &amount); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan raw coffee order row")
		}
		r.CustomerEmail = email.String
		r.OrderDate = date.Time
		r.Amount = amount.Decimal
		out = append(out, r)
	}
	return out, rows.Err()
}

// loadStamps reads the existing created_at per key so upserts can preserve it.
func (s *SQLStore) loadStamps(ctx context.Context, table, keyCol string) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s, created_at FROM %s", keyCol, table))
	if err != nil {
		return nil, errors.SQLError("failed to read existing stamps", table, err)
	}
	defer rows.Close()

	stamps := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var created time.Time
		if err := rows.Scan(&key, &created); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan stamp row")
		}
		stamps[key] = created
	}
	return stamps, rows.Err()
}

// upsert runs delete+insert per key inside one transaction. insert must
// produce the arg list for one row given its created_at.
func (s *SQLStore) upsert(ctx context.Context, table, keyCol string, keys []string,
	insertSQL string, insertArgs func(i int, created time.Time) []interface{},
	now time.Time) (int, error) {

	stamps, err := s.loadStamps(ctx, table, keyCol)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	deleteSQL := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyCol))
	boundInsert := s.rebind(insertSQL)

	for i, key := range keys {
		created := now
		if existing, ok := stamps[key]; ok {
			created = existing
		}
		if _, err := tx.ExecContext(ctx, deleteSQL, key); err != nil {
			return 0, errors.SQLError("upsert delete failed", table, err).WithContext("key", key)
		}
		if _, err := tx.ExecContext(ctx, boundInsert, insertArgs(i, created)...); err != nil {
			return 0, errors.SQLError("upsert insert failed", table, err).WithContext("key", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "failed to commit transaction")
	}
	return len(keys), nil
}

func (s *SQLStore) UpsertFlowers(ctx context.Context, rows []models.RawFlower, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.FlowerID
	}
	return s.upsert(ctx, TableStagingFlowers, "flower_id", keys,
		`INSERT INTO staging_flowers
		 (flower_id, flower_name, color, season, price_per_stem, supplier, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		func(i int, created time.Time) []interface{} {
			r := rows[i]
			return []interface{}{r.FlowerID, r.FlowerName, r.Color, r.Season, r.PricePerStem, r.Supplier, created, now}
		}, now)
}

func (s *SQLStore) UpsertArrangements(ctx context.Context, rows []models.RawArrangement, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.ArrangementID
	}
	return s.upsert(ctx, TableStagingArrangements, "arrangement_id", keys,
		`INSERT INTO staging_arrangements
		 (arrangement_id, arrangement_name, category, price, flower_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		func(i int, created time.Time) []interface{} {
			r := rows[i]
			return []interface{}{r.ArrangementID, r.ArrangementName, r.Category, r.Price, r.FlowerCount, created, now}
		}, now)
}

func (s *SQLStore) UpsertOrders(ctx context.Context, rows []models.RawOrder, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.OrderID
	}
	return s.upsert(ctx, TableStagingOrders, "order_id", keys,
		`INSERT INTO staging_orders
		 (order_id, customer_name, customer_email, arrangement_id, delivery_id, order_date,
		  total_amount, discount_amount, delivery_fee, order_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		func(i int, created time.Time) []interface{} {
			r := rows[i]
			return []interface{}{r.OrderID, r.CustomerName, r.CustomerEmail, r.ArrangementID, r.DeliveryID,
				r.OrderDate, r.TotalAmount, r.DiscountAmount, r.DeliveryFee, r.OrderStatus, created, now}
		}, now)
}

func (s *SQLStore) UpsertDeliveries(ctx context.Context, rows []models.RawDelivery, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.DeliveryID
	}
	return s.upsert(ctx, TableStagingDeliveries, "delivery_id", keys,
		`INSERT INTO staging_deliveries
		 (delivery_id, delivery_date, delivery_status, recipient, address, delivery_fee, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		func(i int, created time.Time) []interface{} {
			r := rows[i]
			return []interface{}{r.DeliveryID, r.DeliveryDate, r.DeliveryStatus, r.Recipient, r.Address, r.DeliveryFee, created, now}
		}, now)
}

func (s *SQLStore) UpsertSupplies(ctx context.Context, rows []models.RawSupply, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.SupplyID
	}
	return s.upsert(ctx, TableStagingSupplies, "supply_id", keys,
		`INSERT INTO staging_supplies
		 (supply_id, supply_name, quantity, unit_cost, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		func(i int, created time.Time) []interface{} {
			r := rows[i]
			return []interface{}{r.SupplyID, r.SupplyName, r.Quantity, r.UnitCost, created, now}
		}, now)
}

func (s *SQLStore) StagingFlowers(ctx context.Context) ([]models.StagingFlower, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT flower_id, flower_name, color, season, price_per_stem, supplier, created_at, updated_at
		 FROM staging_flowers ORDER BY flower_id`))
	if err != nil {
		return nil, errors.SQLError("failed to read staging flowers", TableStagingFlowers, err)
	}
	defer rows.Close()

	var out []models.StagingFlower
	for rows.Next() {
		var r models.StagingFlower
		var color, season, supplier sql.NullString
		if err := rows.Scan(&r.FlowerID, &r.FlowerName, &color, &season, &r.PricePerStem,
			&supplier, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan staging flower row")
		}
		r.Color = color.String
		r.Season = season.String
		r.Supplier = supplier.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) StagingArrangements(ctx context.Context) ([]models.StagingArrangement, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT arrangement_id, arrangement_name, category, price, flower_count, created_at, updated_at
		 FROM staging_arrangements ORDER BY arrangement_id`))
	if err != nil {
		return nil, errors.SQLError("failed to read staging arrangements", TableStagingArrangements, err)
	}
	defer rows.Close()

	var out []models.StagingArrangement
	for rows.Next() {
		var r models.StagingArrangement
		var category sql.NullString
		var count sql.NullInt64
		if err := rows.Scan(&r.ArrangementID, &r.ArrangementName, &category, &r.Price,
			&count, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan staging arrangement row")
		}
		r.Category = category.String
		r.FlowerCount = int(count.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) StagingOrders(ctx context.Context) ([]models.StagingOrder, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT order_id, customer_name, customer_email, arrangement_id, delivery_id, order_date,
		        total_amount, discount_amount, delivery_fee, order_status, created_at, updated_at
		 FROM staging_orders ORDER BY order_id`))
	if err != nil {
		return nil, errors.SQLError("failed to read staging orders", TableStagingOrders, err)
	}
	defer rows.Close()

	var out []models.StagingOrder
	for rows.Next() {
		var r models.StagingOrder
		var email, arrID, delID, status sql.NullString
		var orderDate sql.NullTime
		var discount, fee decimal.NullDecimal
		if err := rows.Scan(&r.OrderID, &r.CustomerName, &email, &arrID, &delID, &orderDate,
			&r.TotalAmount, &discount, &fee, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan staging order row")
		}
		r.CustomerEmail = email.String
		r.ArrangementID = arrID.String
		r.DeliveryID = delID.String
		r.OrderDate = orderDate.Time
		r.DiscountAmount = discount.Decimal
		r.DeliveryFee = fee.Decimal
		r.OrderStatus = status.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) StagingDeliveries(ctx context.Context) ([]models.StagingDelivery, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT delivery_id, delivery_date, delivery_status, recipient, address, delivery_fee, created_at, updated_at
		 FROM staging_deliveries ORDER BY delivery_id`))
	if err != nil {
		return nil, errors.SQLError("failed to read staging deliveries", TableStagingDeliveries, err)
	}
	defer rows.Close()

	var out []models.StagingDelivery
	for rows.Next() {
		var r models.StagingDelivery
		var status, recipient, address sql.NullString
		var date sql.NullTime
		var fee decimal.NullDecimal
		if err := rows.Scan(&r.DeliveryID, &date, &status, &recipient, &address, &fee,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan staging delivery row")
		}
		r.DeliveryDate = date.Time
		r.DeliveryStatus = status.String
		r.Recipient = recipient.String
		r.Address = address.String
		r.DeliveryFee = fee.Decimal
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) StagingSupplies(ctx context.Context) ([]models.StagingSupply, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT supply_id, supply_name, quantity, unit_cost, created_at, updated_at
		 FROM staging_supplies ORDER BY supply_id`))
	if err != nil {
		return nil, errors.SQLError("failed to read staging supplies", TableStagingSupplies, err)
	}
	defer rows.Close()

	var out []models.StagingSupply
	for rows.Next() {
		var r models.StagingSupply
		if err := rows.Scan(&r.SupplyID, &r.SupplyName, &r.Quantity, &r.UnitCost,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan staging supply row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertJoinedOrders stages the joined rows into tmp_order_details_scratch,
// then swaps them into int_order_details set-wise inside one transaction.
// The scratch table stays behind for inspection until Cleanup drops it.
func (s *SQLStore) UpsertJoinedOrders(ctx context.Context, rows []models.JoinedOrder, now time.Time) (int, error) {
	stamps, err := s.loadStamps(ctx, TableJoinedOrders, "order_id")
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, scratchOrderDetailsDDL); err != nil {
		return 0, errors.SQLError("failed to create scratch table", "tmp_order_details_scratch", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tmp_order_details_scratch"); err != nil {
		return 0, errors.SQLError("failed to clear scratch table", "tmp_order_details_scratch", err)
	}

	insertSQL := s.rebind(fmt.Sprintf(
		`INSERT INTO tmp_order_details_scratch (%s)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		joinedOrderColumns))
	for _, r := range rows {
		created := now
		if existing, ok := stamps[r.OrderID]; ok {
			created = existing
		}
		if _, err := tx.ExecContext(ctx, insertSQL, joinedOrderArgs(r, created, now)...); err != nil {
			return 0, errors.SQLError("scratch insert failed", "tmp_order_details_scratch", err).
				WithContext("key", r.OrderID)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM int_order_details
		 WHERE order_id IN (SELECT order_id FROM tmp_order_details_scratch)`); err != nil {
		return 0, errors.SQLError("upsert delete failed", TableJoinedOrders, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO int_order_details (%s) SELECT %s FROM tmp_order_details_scratch`,
		joinedOrderColumns, joinedOrderColumns)); err != nil {
		return 0, errors.SQLError("upsert insert failed", TableJoinedOrders, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "failed to commit transaction")
	}
	return len(rows), nil
}

func joinedOrderArgs(r models.JoinedOrder, created, now time.Time) []interface{} {
	var arrName, arrCategory, delStatus, delRecipient interface{}
	var arrPrice, delDate interface{}
	if r.Arrangement != nil {
		arrName = r.Arrangement.ArrangementName
		arrCategory = r.Arrangement.Category
		arrPrice = r.Arrangement.Price
	}
	if r.Delivery != nil {
		delDate = r.Delivery.DeliveryDate
		delStatus = r.Delivery.DeliveryStatus
		delRecipient = r.Delivery.Recipient
	}
	return []interface{}{r.OrderID, r.CustomerName, r.CustomerEmail, r.ArrangementID, r.DeliveryID,
		r.OrderDate, r.TotalAmount, r.DiscountAmount, r.DeliveryFee, r.OrderStatus,
		arrName, arrCategory, arrPrice, delDate, delStatus, delRecipient,
		r.NetProductAmount, string(r.PricingTier), string(r.OverallStatus), created, now}
}

func (s *SQLStore) JoinedOrders(ctx context.Context) ([]models.JoinedOrder, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT order_id, customer_name, customer_email, arrangement_id, delivery_id, order_date,
		        total_amount, discount_amount, delivery_fee, order_status,
		        arrangement_name, arrangement_category, arrangement_price,
		        delivery_date, delivery_status, delivery_recipient,
		        net_product_amount, pricing_tier, overall_status, created_at, updated_at
		 FROM int_order_details ORDER BY order_id`))
	if err != nil {
		return nil, errors.SQLError("failed to read joined orders", TableJoinedOrders, err)
	}
	defer rows.Close()

	var out []models.JoinedOrder
	for rows.Next() {
		var r models.JoinedOrder
		var email, arrID, delID, status sql.NullString
		var orderDate, delDate sql.NullTime
		var discount, fee, arrPrice decimal.NullDecimal
		var arrName, arrCategory, delStatus, delRecipient sql.NullString
		var tier, overall string
		if err := rows.Scan(&r.OrderID, &r.CustomerName, &email, &arrID, &delID, &orderDate,
			&r.TotalAmount, &discount, &fee, &status,
			&arrName, &arrCategory, &arrPrice,
			&delDate, &delStatus, &delRecipient,
			&r.NetProductAmount, &tier, &overall, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan joined order row")
		}
		r.CustomerEmail = email.String
		r.ArrangementID = arrID.String
		r.DeliveryID = delID.String
		r.OrderDate = orderDate.Time
		r.DiscountAmount = discount.Decimal
		r.DeliveryFee = fee.Decimal
		r.OrderStatus = status.String
		if arrName.Valid {
			r.Arrangement = &models.ArrangementSide{
				ArrangementName: arrName.String,
				Category:        arrCategory.String,
				Price:           arrPrice.Decimal,
			}
		}
		if delStatus.Valid {
			r.Delivery = &models.DeliverySide{
				DeliveryDate:   delDate.Time,
				DeliveryStatus: delStatus.String,
				Recipient:      delRecipient.String,
			}
		}
		r.PricingTier = models.PricingTier(tier)
		r.OverallStatus = models.OverallStatus(overall)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertCustomerValues(ctx context.Context, rows []models.CustomerValue, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.CustomerEmail
	}
	return s.upsertMart(ctx, TableCustomerValue, "customer_email", keys,
		`INSERT INTO fct_customer_lifetime_value
		 (customer_email, customer_name, order_count, gross_revenue, total_discounts,
		  net_revenue, first_order_date, last_order_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		func(i int) []interface{} {
			r := rows[i]
			return []interface{}{r.CustomerEmail, r.CustomerName, r.OrderCount, r.GrossRevenue,
				r.TotalDiscounts, r.NetRevenue, r.FirstOrderDate, r.LastOrderDate}
		})
}

func (s *SQLStore) UpsertDailyRevenue(ctx context.Context, rows []models.DailyRevenue, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Day.Format("2006-01-02")
	}
	return s.upsertMart(ctx, TableDailyRevenue, "revenue_date", keys,
		`INSERT INTO fct_daily_revenue
		 (revenue_date, order_count, gross_revenue, discounts, delivery_fees, net_revenue)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		func(i int) []interface{} {
			r := rows[i]
			return []interface{}{r.Day, r.OrderCount, r.GrossRevenue, r.Discounts, r.DeliveryFees, r.NetRevenue}
		})
}

func (s *SQLStore) UpsertCrossBusinessCustomers(ctx context.Context, rows []models.CrossBusinessCustomer, now time.Time) (int, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.CustomerEmail
	}
	return s.upsertMart(ctx, TableCrossBusiness, "customer_email", keys,
		`INSERT INTO dim_cross_business_customers
		 (customer_email, flower_order_count, flower_net_revenue, coffee_order_count,
		  coffee_revenue, both_businesses)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		func(i int) []interface{} {
			r := rows[i]
			return []interface{}{r.CustomerEmail, r.FlowerOrderCount, r.FlowerNetRevenue,
				r.CoffeeOrderCount, r.CoffeeRevenue, r.BothBusinesses}
		})
}

// upsertMart is the keyed delete+insert without stamp bookkeeping; mart rows
// are fully recomputed each run.
func (s *SQLStore) upsertMart(ctx context.Context, table, keyCol string, keys []string,
	insertSQL string, insertArgs func(i int) []interface{}) (int, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	deleteSQL := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyCol))
	boundInsert := s.rebind(insertSQL)

	for i, key := range keys {
		if _, err := tx.ExecContext(ctx, deleteSQL, key); err != nil {
			return 0, errors.SQLError("mart upsert delete failed", table, err).WithContext("key", key)
		}
		if _, err := tx.ExecContext(ctx, boundInsert, insertArgs(i)...); err != nil {
			return 0, errors.SQLError("mart upsert insert failed", table, err).WithContext("key", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "failed to commit transaction")
	}
	return len(keys), nil
}

func (s *SQLStore) AppendQualityIssue(ctx context.Context, issue models.QualityIssue) error {
	return s.exec(ctx,
		`INSERT INTO data_quality_issues (table_name, issue_type, issue_count, detected_at)
		 VALUES (?, ?, ?, ?)`,
		issue.TableName, issue.IssueType, issue.IssueCount, issue.DetectedAt)
}

func (s *SQLStore) QualityIssues(ctx context.Context, limit int) ([]models.QualityIssue, error) {
	query := `SELECT table_name, issue_type, issue_count, detected_at
	          FROM data_quality_issues ORDER BY detected_at DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("failed to read quality issues", TableQualityIssues, err)
	}
	defer rows.Close()

	var out []models.QualityIssue
	for rows.Next() {
		var q models.QualityIssue
		if err := rows.Scan(&q.TableName, &q.IssueType, &q.IssueCount, &q.DetectedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan quality issue row")
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendAuditEntry(ctx context.Context, entry models.AuditEntry) error {
	var end interface{}
	if !entry.EndTime.IsZero() {
		end = entry.EndTime
	}
	err := s.exec(ctx,
		`INSERT INTO etl_audit_log (procedure_name, start_time, end_time, status, message)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ProcedureName, entry.StartTime, end, string(entry.Status), entry.Message)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeAuditWrite, "failed to append audit entry")
	}
	return nil
}

func (s *SQLStore) AuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `SELECT procedure_name, start_time, end_time, status, message
	          FROM etl_audit_log ORDER BY start_time DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("failed to read audit log", TableAuditLog, err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var status string
		var end sql.NullTime
		var message sql.NullString
		if err := rows.Scan(&e.ProcedureName, &e.StartTime, &end, &status, &message); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan audit row")
		}
		e.EndTime = end.Time
		e.Status = models.RunStatus(status)
		e.Message = message.String
		out = append(out, e)
	}

	// Oldest first, same order MemStore returns.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

func (s *SQLStore) Cleanup(ctx context.Context) error {
	for _, table := range scratchTables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return errors.SQLError("failed to drop scratch table", table, err)
		}
	}
	return nil
}
