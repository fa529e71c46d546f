// Package transform builds the intermediate and mart tables from staged
// rows: the denormalized order join with its derived columns, and the three
// aggregate marts on top of it.
package transform

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"petalbrew/internal/store"
	"petalbrew/pkg/models"
)

// Builder derives the intermediate and mart tables.
type Builder struct {
	store store.Store
}

// NewBuilder creates a Builder over the given store.
func NewBuilder(s store.Store) *Builder {
	return &Builder{store: s}
}

// BuildJoinedOrders left-joins staged orders to arrangements and deliveries,
// derives the computed columns, and upserts the result keyed by order id.
// Unmatched join sides stay nil; the order row is always emitted.
func (b *Builder) BuildJoinedOrders(ctx context.Context, now time.Time) (int, error) {
	orders, err := b.store.StagingOrders(ctx)
	if err != nil {
		return 0, err
	}
	arrangements, err := b.store.StagingArrangements(ctx)
	if err != nil {
		return 0, err
	}
	deliveries, err := b.store.StagingDeliveries(ctx)
	if err != nil {
		return 0, err
	}

	arrByID := make(map[string]models.StagingArrangement, len(arrangements))
	for _, a := range arrangements {
		arrByID[a.ArrangementID] = a
	}
	delByID := make(map[string]models.StagingDelivery, len(deliveries))
	for _, d := range deliveries {
		delByID[d.DeliveryID] = d
	}

	joined := make([]models.JoinedOrder, 0, len(orders))
	for _, o := range orders {
		row := models.JoinedOrder{StagingOrder: o}

		if a, ok := arrByID[o.ArrangementID]; ok {
			row.Arrangement = &models.ArrangementSide{
				ArrangementName: a.ArrangementName,
				Category:        a.Category,
				Price:           a.Price,
			}
		}
		var deliveryStatus string
		if d, ok := delByID[o.DeliveryID]; ok {
			row.Delivery = &models.DeliverySide{
				DeliveryDate:   d.DeliveryDate,
				DeliveryStatus: d.DeliveryStatus,
				Recipient:      d.Recipient,
			}
			deliveryStatus = d.DeliveryStatus
		}

		row.NetProductAmount = NetProductAmount(o.TotalAmount, o.DiscountAmount, o.DeliveryFee)
		row.PricingTier = Tier(o.DiscountAmount)
		row.OverallStatus = Overall(deliveryStatus, o.OrderStatus)

		joined = append(joined, row)
	}

	return b.store.UpsertJoinedOrders(ctx, joined, now)
}

// NetProductAmount is the order total less discount and delivery fee. Zero
// decimals stand in for absent values, so no coalescing is needed beyond
// plain subtraction.
func NetProductAmount(total, discount, fee decimal.Decimal) decimal.Decimal {
	return total.Sub(discount).Sub(fee)
}

// Tier classifies an order as DISCOUNTED or FULL_PRICE.
func Tier(discount decimal.Decimal) models.PricingTier {
	if discount.IsPositive() {
		return models.TierDiscounted
	}
	return models.TierFullPrice
}

// Overall combines the delivery and order status. The rules are checked
// strictly in order: completed, then in-progress, then pending, then other.
func Overall(deliveryStatus, orderStatus string) models.OverallStatus {
	switch {
	case deliveryStatus == "delivered" && (orderStatus == "delivered" || orderStatus == "completed"):
		return models.StatusCompleted
	case deliveryStatus == "in_transit" || deliveryStatus == "preparing" ||
		orderStatus == "confirmed" || orderStatus == "processing":
		return models.StatusInProgress
	case deliveryStatus == "pending" || orderStatus == "pending":
		return models.StatusPending
	default:
		return models.StatusOther
	}
}
