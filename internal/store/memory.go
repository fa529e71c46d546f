package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"petalbrew/pkg/models"
)

// MemStore is an in-memory Store. It backs pipeline tests and dry runs,
// and is seeded through the Seed* methods in place of the raw tables.
type MemStore struct {
	mu sync.RWMutex

	rawFlowers      []models.RawFlower
	rawArrangements []models.RawArrangement
	rawOrders       []models.RawOrder
	rawDeliveries   []models.RawDelivery
	rawSupplies     []models.RawSupply
	rawCoffee       []models.RawCoffeeOrder

	stagingFlowers      map[string]models.StagingFlower
	stagingArrangements map[string]models.StagingArrangement
	stagingOrders       map[string]models.StagingOrder
	stagingDeliveries   map[string]models.StagingDelivery
	stagingSupplies     map[string]models.StagingSupply

	joinedOrders map[string]models.JoinedOrder

	customerValues map[string]models.CustomerValue
	dailyRevenue   map[string]models.DailyRevenue
	crossBusiness  map[string]models.CrossBusinessCustomer

	qualityIssues []models.QualityIssue
	auditLog      []models.AuditEntry

	schemaEnsured bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		stagingFlowers:      make(map[string]models.StagingFlower),
		stagingArrangements: make(map[string]models.StagingArrangement),
		stagingOrders:       make(map[string]models.StagingOrder),
		stagingDeliveries:   make(map[string]models.StagingDelivery),
		stagingSupplies:     make(map[string]models.StagingSupply),
		joinedOrders:        make(map[string]models.JoinedOrder),
		customerValues:      make(map[string]models.CustomerValue),
		dailyRevenue:        make(map[string]models.DailyRevenue),
		crossBusiness:       make(map[string]models.CrossBusinessCustomer),
	}
}

// Seed methods load raw source rows.

func (m *MemStore) SeedFlowers(rows ...models.RawFlower) { m.rawFlowers = append(m.rawFlowers, rows...) }

func (m *MemStore) SeedArrangements(rows ...models.RawArrangement) {
	m.rawArrangements = append(m.rawArrangements, rows...)
}

func (m *MemStore) SeedOrders(rows ...models.RawOrder) { m.rawOrders = append(m.rawOrders, rows...) }

func (m *MemStore) SeedDeliveries(rows ...models.RawDelivery) {
	m.rawDeliveries = append(m.rawDeliveries, rows...)
}

func (m *MemStore) SeedSupplies(rows ...models.RawSupply) {
	m.rawSupplies = append(m.rawSupplies, rows...)
}

func (m *MemStore) SeedCoffeeOrders(rows ...models.RawCoffeeOrder) {
	m.rawCoffee = append(m.rawCoffee, rows...)
}

// EnsureSchema is a no-op beyond marking the store ready.
func (m *MemStore) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemaEnsured = true
	return nil
}

func (m *MemStore) RawFlowers(ctx context.Context) ([]models.RawFlower, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawFlower(nil), m.rawFlowers...), nil
}

func (m *MemStore) RawArrangements(ctx context.Context) ([]models.RawArrangement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawArrangement(nil), m.rawArrangements...), nil
}

func (m *MemStore) RawOrders(ctx context.Context) ([]models.RawOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawOrder(nil), m.rawOrders...), nil
}

func (m *MemStore) RawDeliveries(ctx context.Context) ([]models.RawDelivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawDelivery(nil), m.rawDeliveries...), nil
}

func (m *MemStore) RawSupplies(ctx context.Context) ([]models.RawSupply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawSupply(nil), m.rawSupplies...), nil
}

func (m *MemStore) RawCoffeeOrders(ctx context.Context) ([]models.RawCoffeeOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawCoffeeOrder(nil), m.rawCoffee...), nil
}

// mergeStamp applies the keyed upsert timestamp rule.
func mergeStamp(existing *models.Stamp, found bool, now time.Time) models.Stamp {
	if found {
		return models.Stamp{CreatedAt: existing.CreatedAt, UpdatedAt: now}
	}
	return models.Stamp{CreatedAt: now, UpdatedAt: now}
}

func (m *MemStore) UpsertFlowers(ctx context.Context, rows []models.RawFlower, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		prev, ok := m.stagingFlowers[r.FlowerID]
		m.stagingFlowers[r.FlowerID] = models.StagingFlower{
			RawFlower: r,
			Stamp:     mergeStamp(&prev.Stamp, ok, now),
		}
	}
	return len(rows), nil
}

func (m *MemStore) UpsertArrangements(ctx context.Context, rows []models.RawArrangement, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		prev, ok := m.stagingArrangements[r.ArrangementID]
		m.stagingArrangements[r.ArrangementID] = models.StagingArrangement{
			RawArrangement: r,
			Stamp:          mergeStamp(&prev.Stamp, ok, now),
		}
	}
	return len(rows), nil
}

func (m *MemStore) UpsertOrders(ctx context.Context, rows []models.RawOrder, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		prev, ok := m.stagingOrders[r.OrderID]
		m.stagingOrders[r.OrderID] = models.StagingOrder{
			RawOrder: r,
			Stamp:    mergeStamp(&prev.Stamp, ok, now),
		}
	}
	return len(rows), nil
}

func (m *MemStore) UpsertDeliveries(ctx context.Context, rows []models.RawDelivery, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		prev, ok := m.stagingDeliveries[r.DeliveryID]
		m.stagingDeliveries[r.DeliveryID] = models.StagingDelivery{
			RawDelivery: r,
			Stamp:       mergeStamp(&prev.Stamp, ok, now),
		}
	}
	return len(rows), nil
}

func (m *MemStore) UpsertSupplies(ctx context.Context, rows []models.RawSupply, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		prev, ok := m.stagingSupplies[r.SupplyID]
		m.stagingSupplies[r.SupplyID] = models.StagingSupply{
			RawSupply: r,
			Stamp:     mergeStamp(&prev.Stamp, ok, now),
		}
	}
	return len(rows), nil
}

func (m *MemStore) StagingFlowers(ctx context.Context) ([]models.StagingFlower, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.StagingFlower, 0, len(m.stagingFlowers))
	for _, v := range m.stagingFlowers {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlowerID < out[j].FlowerID })
	return out, nil
}

func (m *MemStore) StagingArrangements(ctx context.Context) ([]models.StagingArrangement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.StagingArrangement, 0, len(m.stagingArrangements))
	for _, v := range m.stagingArrangements {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArrangementID < out[j].ArrangementID })
	return out, nil
}

func (m *MemStore) StagingOrders(ctx context.Context) ([]models.StagingOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.StagingOrder, 0, len(m.stagingOrders))
	for _, v := range m.stagingOrders {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (m *MemStore) StagingDeliveries(ctx context.Context) ([]models.StagingDelivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.StagingDelivery, 0, len(m.stagingDeliveries))
	for _, v := range m.stagingDeliveries {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeliveryID < out[j].DeliveryID })
	return out, nil
}

func (m *MemStore) StagingSupplies(ctx context.Context) ([]models.StagingSupply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.StagingSupply, 0, len(m.stagingSupplies))
	for _, v := range m.stagingSupplies {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SupplyID < out[j].SupplyID })
	return out, nil
}

func (m *MemStore) UpsertJoinedOrders(ctx context.Context, rows []models.JoinedOrder, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		prev, ok := m.joinedOrders[r.OrderID]
		r.Stamp = mergeStamp(&prev.Stamp, ok, now)
		m.joinedOrders[r.OrderID] = r
	}
	return len(rows), nil
}

func (m *MemStore) JoinedOrders(ctx context.Context) ([]models.JoinedOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.JoinedOrder, 0, len(m.joinedOrders))
	for _, v := range m.joinedOrders {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (m *MemStore) UpsertCustomerValues(ctx context.Context, rows []models.CustomerValue, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.customerValues[r.CustomerEmail] = r
	}
	return len(rows), nil
}

func (m *MemStore) UpsertDailyRevenue(ctx context.Context, rows []models.DailyRevenue, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.dailyRevenue[r.Day.Format("2006-01-02")] = r
	}
	return len(rows), nil
}

func (m *MemStore) UpsertCrossBusinessCustomers(ctx context.Context, rows []models.CrossBusinessCustomer, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.crossBusiness[r.CustomerEmail] = r
	}
	return len(rows), nil
}

// CustomerValues returns the customer mart rows sorted by email.
func (m *MemStore) CustomerValues() []models.CustomerValue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.CustomerValue, 0, len(m.customerValues))
	for _, v := range m.customerValues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerEmail < out[j].CustomerEmail })
	return out
}

// DailyRevenueRows returns the daily revenue mart rows sorted by day.
func (m *MemStore) DailyRevenueRows() []models.DailyRevenue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DailyRevenue, 0, len(m.dailyRevenue))
	for _, v := range m.dailyRevenue {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// CrossBusinessRows returns the cross-business mart rows sorted by email.
func (m *MemStore) CrossBusinessRows() []models.CrossBusinessCustomer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.CrossBusinessCustomer, 0, len(m.crossBusiness))
	for _, v := range m.crossBusiness {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerEmail < out[j].CustomerEmail })
	return out
}

func (m *MemStore) AppendQualityIssue(ctx context.Context, issue models.QualityIssue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qualityIssues = append(m.qualityIssues, issue)
	return nil
}

func (m *MemStore) QualityIssues(ctx context.Context, limit int) ([]models.QualityIssue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.QualityIssue(nil), m.qualityIssues...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *MemStore) AppendAuditEntry(ctx context.Context, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditLog = append(m.auditLog, entry)
	return nil
}

func (m *MemStore) AuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.AuditEntry(nil), m.auditLog...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *MemStore) Cleanup(ctx context.Context) error {
	return nil
}
