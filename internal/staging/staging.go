// Package staging normalizes raw source rows into the staging tables.
// Each source has a validity predicate; rows that fail it are skipped, not
// errors. The mandatory sources (flowers, arrangements, orders) must yield
// at least one valid row or the load fails.
package staging

import (
	"context"
	"time"

	"petalbrew/internal/store"
	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

// LoadResult summarizes one source table's load.
type LoadResult struct {
	Table   string
	Fetched int
	Loaded  int
	Skipped int
}

// Loader moves rows from the raw tables into staging.
type Loader struct {
	store store.Store
}

// NewLoader creates a Loader over the given store.
func NewLoader(s store.Store) *Loader {
	return &Loader{store: s}
}

// ValidFlower reports whether a raw flower row is loadable: a non-empty id
// and name, and a strictly positive price per stem.
func ValidFlower(r models.RawFlower) bool {
	return r.FlowerID != "" && r.FlowerName != "" && r.PricePerStem.IsPositive()
}

// ValidArrangement requires a non-empty id and name and a positive price.
func ValidArrangement(r models.RawArrangement) bool {
	return r.ArrangementID != "" && r.ArrangementName != "" && r.Price.IsPositive()
}

// ValidOrder requires id, customer name, and a positive total. The email is
// deliberately not a gate; bad emails surface as quality issues instead.
func ValidOrder(r models.RawOrder) bool {
	return r.OrderID != "" && r.CustomerName != "" && r.TotalAmount.IsPositive()
}

// ValidDelivery requires only a delivery id.
func ValidDelivery(r models.RawDelivery) bool {
	return r.DeliveryID != ""
}

// ValidSupply requires id and name, a positive quantity, and a positive
// unit cost.
func ValidSupply(r models.RawSupply) bool {
	return r.SupplyID != "" && r.SupplyName != "" && r.Quantity > 0 && r.UnitCost.IsPositive()
}

// LoadFlowers stages the flower source. Zero valid rows is fatal.
func (l *Loader) LoadFlowers(ctx context.Context, now time.Time) (LoadResult, error) {
	raw, err := l.store.RawFlowers(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	valid := make([]models.RawFlower, 0, len(raw))
	for _, r := range raw {
		if ValidFlower(r) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return LoadResult{}, errors.ValidationError(store.TableRawFlowers, "no valid flower rows to load")
	}
	loaded, err := l.store.UpsertFlowers(ctx, valid, now)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Table: store.TableStagingFlowers, Fetched: len(raw), Loaded: loaded, Skipped: len(raw) - loaded}, nil
}

// LoadArrangements stages the arrangement source. Zero valid rows is fatal.
func (l *Loader) LoadArrangements(ctx context.Context, now time.Time) (LoadResult, error) {
	raw, err := l.store.RawArrangements(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	valid := make([]models.RawArrangement, 0, len(raw))
	for _, r := range raw {
		if ValidArrangement(r) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return LoadResult{}, errors.ValidationError(store.TableRawArrangements, "no valid arrangement rows to load")
	}
	loaded, err := l.store.UpsertArrangements(ctx, valid, now)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Table: store.TableStagingArrangements, Fetched: len(raw), Loaded: loaded, Skipped: len(raw) - loaded}, nil
}

// LoadOrders stages the order source. Zero valid rows is fatal.
func (l *Loader) LoadOrders(ctx context.Context, now time.Time) (LoadResult, error) {
	raw, err := l.store.RawOrders(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	valid := make([]models.RawOrder, 0, len(raw))
	for _, r := range raw {
		if ValidOrder(r) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return LoadResult{}, errors.ValidationError(store.TableRawOrders, "no valid order rows to load")
	}
	loaded, err := l.store.UpsertOrders(ctx, valid, now)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Table: store.TableStagingOrders, Fetched: len(raw), Loaded: loaded, Skipped: len(raw) - loaded}, nil
}

// LoadDeliveries stages the delivery source. The source is optional; zero
// valid rows loads nothing and succeeds.
func (l *Loader) LoadDeliveries(ctx context.Context, now time.Time) (LoadResult, error) {
	raw, err := l.store.RawDeliveries(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	valid := make([]models.RawDelivery, 0, len(raw))
	for _, r := range raw {
		if ValidDelivery(r) {
			valid = append(valid, r)
		}
	}
	result := LoadResult{Table: store.TableStagingDeliveries, Fetched: len(raw), Skipped: len(raw) - len(valid)}
	if len(valid) == 0 {
		return result, nil
	}
	result.Loaded, err = l.store.UpsertDeliveries(ctx, valid, now)
	if err != nil {
		return LoadResult{}, err
	}
	return result, nil
}

// LoadSupplies stages the supply source. Optional, like deliveries.
func (l *Loader) LoadSupplies(ctx context.Context, now time.Time) (LoadResult, error) {
	raw, err := l.store.RawSupplies(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	valid := make([]models.RawSupply, 0, len(raw))
	for _, r := range raw {
		if ValidSupply(r) {
			valid = append(valid, r)
		}
	}
	result := LoadResult{Table: store.TableStagingSupplies, Fetched: len(raw), Skipped: len(raw) - len(valid)}
	if len(valid) == 0 {
		return result, nil
	}
	result.Loaded, err = l.store.UpsertSupplies(ctx, valid, now)
	if err != nil {
		return LoadResult{}, err
	}
	return result, nil
}
