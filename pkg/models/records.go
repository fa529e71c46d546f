package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus is the lifecycle status of an audit log entry.
type RunStatus string

const (
	RunStarted   RunStatus = "STARTED"
	RunInfo      RunStatus = "INFO"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// PricingTier classifies an order by whether a discount was applied.
type PricingTier string

const (
	TierDiscounted PricingTier = "DISCOUNTED"
	TierFullPrice  PricingTier = "FULL_PRICE"
)

// OverallStatus is the combined order/delivery state of a joined order.
type OverallStatus string

const (
	StatusCompleted  OverallStatus = "COMPLETED"
	StatusInProgress OverallStatus = "IN_PROGRESS"
	StatusPending    OverallStatus = "PENDING"
	StatusOther      OverallStatus = "OTHER"
)

// RawFlower is one row from the raw flowers source table.
type RawFlower struct {
	FlowerID     string
	FlowerName   string
	Color        string
	Season       string
	PricePerStem decimal.Decimal
	Supplier     string
}

// RawArrangement is one row from the raw arrangements source table.
type RawArrangement struct {
	ArrangementID   string
	ArrangementName string
	Category        string
	Price           decimal.Decimal
	FlowerCount     int
}

// RawOrder is one row from the raw orders source table.
type RawOrder struct {
	OrderID        string
	CustomerName   string
	CustomerEmail  string
	ArrangementID  string
	DeliveryID     string
	OrderDate      time.Time
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	DeliveryFee    decimal.Decimal
	OrderStatus    string
}

// RawDelivery is one row from the raw delivery info source table.
type RawDelivery struct {
	DeliveryID     string
	DeliveryDate   time.Time
	DeliveryStatus string
	Recipient      string
	Address        string
	DeliveryFee    decimal.Decimal
}

// RawSupply is one row from the raw supplies source table.
type RawSupply struct {
	SupplyID   string
	SupplyName string
	Quantity   int
	UnitCost   decimal.Decimal
}

// RawCoffeeOrder is one row from the coffee shop's raw orders table. The
// source is optional; an empty table is not an error.
type RawCoffeeOrder struct {
	OrderID       string
	CustomerEmail string
	OrderDate     time.Time
	Amount        decimal.Decimal
}

// Stamp carries the upsert bookkeeping columns shared by all staging and
// intermediate tables.
type Stamp struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StagingFlower is a cleaned flower row, upserted by FlowerID.
type StagingFlower struct {
	RawFlower
	Stamp
}

// StagingArrangement is a cleaned arrangement row, upserted by ArrangementID.
type StagingArrangement struct {
	RawArrangement
	Stamp
}

// StagingOrder is a cleaned order row, upserted by OrderID.
type StagingOrder struct {
	RawOrder
	Stamp
}

// StagingDelivery is a cleaned delivery row, upserted by DeliveryID.
type StagingDelivery struct {
	RawDelivery
	Stamp
}

// StagingSupply is a cleaned supply row, upserted by SupplyID.
type StagingSupply struct {
	RawSupply
	Stamp
}

// ArrangementSide holds the arrangement columns of a joined order.
type ArrangementSide struct {
	ArrangementName string
	Category        string
	Price           decimal.Decimal
}

// DeliverySide holds the delivery columns of a joined order.
type DeliverySide struct {
	DeliveryDate   time.Time
	DeliveryStatus string
	Recipient      string
}

// JoinedOrder is the denormalized intermediate row for one order. A nil
// Arrangement or Delivery means the left join found no match; the order is
// still emitted (an "orphaned" order).
type JoinedOrder struct {
	StagingOrder
	Arrangement *ArrangementSide
	Delivery    *DeliverySide

	NetProductAmount decimal.Decimal
	PricingTier      PricingTier
	OverallStatus    OverallStatus
}

// QualityIssue is one append-only data quality finding. Issues are advisory
// and never block a pipeline run.
type QualityIssue struct {
	TableName  string
	IssueType  string
	IssueCount int
	DetectedAt time.Time
}

// AuditEntry is one append-only audit log row. A run writes exactly one
// STARTED entry, zero or more INFO entries, and exactly one terminal
// COMPLETED or FAILED entry.
type AuditEntry struct {
	ProcedureName string
	StartTime     time.Time
	EndTime       time.Time
	Status        RunStatus
	Message       string
}

// CustomerValue is the per-customer lifetime value mart row, keyed by email.
type CustomerValue struct {
	CustomerEmail  string
	CustomerName   string
	OrderCount     int
	GrossRevenue   decimal.Decimal
	TotalDiscounts decimal.Decimal
	NetRevenue     decimal.Decimal
	FirstOrderDate time.Time
	LastOrderDate  time.Time
}

// DailyRevenue is the per-day revenue mart row, keyed by date.
type DailyRevenue struct {
	Day          time.Time
	OrderCount   int
	GrossRevenue decimal.Decimal
	Discounts    decimal.Decimal
	DeliveryFees decimal.Decimal
	NetRevenue   decimal.Decimal
}

// CrossBusinessCustomer matches flower shop customers to coffee shop orders
// by email, keyed by email.
type CrossBusinessCustomer struct {
	CustomerEmail    string
	FlowerOrderCount int
	FlowerNetRevenue decimal.Decimal
	CoffeeOrderCount int
	CoffeeRevenue    decimal.Decimal
	BothBusinesses   bool
}
