// Package testutil holds shared fixtures for pipeline and command tests.
package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"petalbrew/internal/store"
	"petalbrew/pkg/models"
)

// SampleDay anchors fixture order dates so tests can assert on exact values.
var SampleDay = time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

// SeedSampleShop loads a small but representative raw data set: three
// customers, one order without a delivery, one discounted order, and a
// coffee shop overlap for the cross-business mart.
func SeedSampleShop(m *store.MemStore) {
	m.SeedFlowers(
		models.RawFlower{FlowerID: "F1", FlowerName: "Rose", Color: "red", Season: "spring",
			PricePerStem: decimal.NewFromFloat(2.50), Supplier: "Bloom & Co"},
		models.RawFlower{FlowerID: "F2", FlowerName: "Tulip", Color: "yellow", Season: "spring",
			PricePerStem: decimal.NewFromFloat(1.75), Supplier: "Bloom & Co"},
		models.RawFlower{FlowerID: "F3", FlowerName: "Lily", Color: "white", Season: "summer",
			PricePerStem: decimal.NewFromFloat(3.25), Supplier: "Petal Farms"},
	)

	m.SeedArrangements(
		models.RawArrangement{ArrangementID: "A1", ArrangementName: "Spring Bouquet",
			Category: "bouquet", Price: decimal.NewFromInt(35), FlowerCount: 12},
		models.RawArrangement{ArrangementID: "A2", ArrangementName: "White Elegance",
			Category: "centerpiece", Price: decimal.NewFromInt(55), FlowerCount: 18},
	)

	m.SeedOrders(
		models.RawOrder{OrderID: "O1", CustomerName: "Iris Nakamura", CustomerEmail: "iris@example.com",
			ArrangementID: "A1", DeliveryID: "D1", OrderDate: SampleDay,
			TotalAmount: decimal.NewFromInt(45), DiscountAmount: decimal.NewFromInt(5),
			DeliveryFee: decimal.NewFromFloat(7.50), OrderStatus: "delivered"},
		models.RawOrder{OrderID: "O2", CustomerName: "Fern Okafor", CustomerEmail: "fern@example.com",
			ArrangementID: "A2", OrderDate: SampleDay.Add(24 * time.Hour),
			TotalAmount: decimal.NewFromInt(55), OrderStatus: "confirmed"},
		models.RawOrder{OrderID: "O3", CustomerName: "Reed Castellanos", CustomerEmail: "reed@example.com",
			ArrangementID: "A1", DeliveryID: "D2", OrderDate: SampleDay.Add(48 * time.Hour),
			TotalAmount: decimal.NewFromInt(35), OrderStatus: "pending"},
	)

	m.SeedDeliveries(
		models.RawDelivery{DeliveryID: "D1", DeliveryDate: SampleDay.Add(24 * time.Hour),
			DeliveryStatus: "delivered", Recipient: "Iris Nakamura", Address: "12 Garden Way",
			DeliveryFee: decimal.NewFromFloat(7.50)},
		models.RawDelivery{DeliveryID: "D2", DeliveryDate: SampleDay.Add(72 * time.Hour),
			DeliveryStatus: "pending", Recipient: "Reed Castellanos", Address: "8 Fern Hollow"},
	)

	m.SeedSupplies(
		models.RawSupply{SupplyID: "S1", SupplyName: "Glass Vase", Quantity: 24,
			UnitCost: decimal.NewFromFloat(4.50)},
		models.RawSupply{SupplyID: "S2", SupplyName: "Floral Foam", Quantity: 50,
			UnitCost: decimal.NewFromFloat(1.20)},
	)

	m.SeedCoffeeOrders(
		models.RawCoffeeOrder{OrderID: "C1", CustomerEmail: "iris@example.com",
			OrderDate: SampleDay.Add(2 * time.Hour), Amount: decimal.NewFromFloat(4.75)},
		models.RawCoffeeOrder{OrderID: "C2", CustomerEmail: "nobody@example.com",
			OrderDate: SampleDay, Amount: decimal.NewFromFloat(3.50)},
	)
}
