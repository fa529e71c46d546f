package transform

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"petalbrew/pkg/models"
)

// BuildCustomerValues aggregates joined orders into the per-customer
// lifetime value mart. Orders without an email are excluded; there is no
// customer to attribute them to.
func (b *Builder) BuildCustomerValues(ctx context.Context, now time.Time) (int, error) {
	orders, err := b.store.JoinedOrders(ctx)
	if err != nil {
		return 0, err
	}

	byEmail := make(map[string]*models.CustomerValue)
	for _, o := range orders {
		if o.CustomerEmail == "" {
			continue
		}
		cv, ok := byEmail[o.CustomerEmail]
		if !ok {
			cv = &models.CustomerValue{
				CustomerEmail:  o.CustomerEmail,
				CustomerName:   o.CustomerName,
				FirstOrderDate: o.OrderDate,
				LastOrderDate:  o.OrderDate,
			}
			byEmail[o.CustomerEmail] = cv
		}
		cv.OrderCount++
		cv.GrossRevenue = cv.GrossRevenue.Add(o.TotalAmount)
		cv.TotalDiscounts = cv.TotalDiscounts.Add(o.DiscountAmount)
		cv.NetRevenue = cv.NetRevenue.Add(o.NetProductAmount)
		if o.OrderDate.Before(cv.FirstOrderDate) {
			cv.FirstOrderDate = o.OrderDate
		}
		if o.OrderDate.After(cv.LastOrderDate) {
			cv.LastOrderDate = o.OrderDate
		}
	}

	rows := make([]models.CustomerValue, 0, len(byEmail))
	for _, cv := range byEmail {
		rows = append(rows, *cv)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerEmail < rows[j].CustomerEmail })

	return b.store.UpsertCustomerValues(ctx, rows, now)
}

// BuildDailyRevenue aggregates joined orders into the per-day revenue mart.
// Orders with a zero order date are excluded.
func (b *Builder) BuildDailyRevenue(ctx context.Context, now time.Time) (int, error) {
	orders, err := b.store.JoinedOrders(ctx)
	if err != nil {
		return 0, err
	}

	byDay := make(map[string]*models.DailyRevenue)
	for _, o := range orders {
		if o.OrderDate.IsZero() {
			continue
		}
		day := o.OrderDate.Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")
		dr, ok := byDay[key]
		if !ok {
			dr = &models.DailyRevenue{Day: day}
			byDay[key] = dr
		}
		dr.OrderCount++
		dr.GrossRevenue = dr.GrossRevenue.Add(o.TotalAmount)
		dr.Discounts = dr.Discounts.Add(o.DiscountAmount)
		dr.DeliveryFees = dr.DeliveryFees.Add(o.DeliveryFee)
		dr.NetRevenue = dr.NetRevenue.Add(o.NetProductAmount)
	}

	rows := make([]models.DailyRevenue, 0, len(byDay))
	for _, dr := range byDay {
		rows = append(rows, *dr)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })

	return b.store.UpsertDailyRevenue(ctx, rows, now)
}

// BuildCrossBusinessCustomers matches flower customers to coffee shop orders
// by email. The coffee source is optional; with no coffee rows every
// customer comes out flower-only.
func (b *Builder) BuildCrossBusinessCustomers(ctx context.Context, now time.Time) (int, error) {
	orders, err := b.store.JoinedOrders(ctx)
	if err != nil {
		return 0, err
	}
	coffee, err := b.store.RawCoffeeOrders(ctx)
	if err != nil {
		return 0, err
	}

	type coffeeAgg struct {
		count  int
		amount decimal.Decimal
	}
	coffeeByEmail := make(map[string]*coffeeAgg)
	for _, c := range coffee {
		if c.CustomerEmail == "" {
			continue
		}
		agg, ok := coffeeByEmail[c.CustomerEmail]
		if !ok {
			agg = &coffeeAgg{}
			coffeeByEmail[c.CustomerEmail] = agg
		}
		agg.count++
		agg.amount = agg.amount.Add(c.Amount)
	}

	byEmail := make(map[string]*models.CrossBusinessCustomer)
	for _, o := range orders {
		if o.CustomerEmail == "" {
			continue
		}
		cb, ok := byEmail[o.CustomerEmail]
		if !ok {
			cb = &models.CrossBusinessCustomer{CustomerEmail: o.CustomerEmail}
			byEmail[o.CustomerEmail] = cb
		}
		cb.FlowerOrderCount++
		cb.FlowerNetRevenue = cb.FlowerNetRevenue.Add(o.NetProductAmount)
	}

	for email, cb := range byEmail {
		if agg, ok := coffeeByEmail[email]; ok {
			cb.CoffeeOrderCount = agg.count
			cb.CoffeeRevenue = agg.amount
			cb.BothBusinesses = true
		}
	}

	rows := make([]models.CrossBusinessCustomer, 0, len(byEmail))
	for _, cb := range byEmail {
		rows = append(rows, *cb)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerEmail < rows[j].CustomerEmail })

	return b.store.UpsertCrossBusinessCustomers(ctx, rows, now)
}
