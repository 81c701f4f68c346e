package shopping

import (
	"github.com/shopspring/decimal"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/grocery"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPackager() *grocery.Packager {
	return grocery.NewPackager(grocery.NewCatalog(money("2.99"),
		grocery.CatalogEntry{Name: "chicken breast", Category: "Meat", PackageDescription: "1 lb package", PackageSize: 1, PackageUnit: "lb", UnitPrice: money("4.99")},
		grocery.CatalogEntry{Name: "rice", Category: "Grains", PackageDescription: "2 lb bag", PackageSize: 2, PackageUnit: "lb", UnitPrice: money("1.98")},
		grocery.CatalogEntry{Name: "broccoli", Category: "Produce", PackageDescription: "12 oz bag", PackageSize: 12, PackageUnit: "oz", UnitPrice: money("1.97")},
		grocery.CatalogEntry{Name: "tomato", Category: "Produce", PackageDescription: "1 lb bundle", PackageSize: 1, PackageUnit: "lb", UnitPrice: money("1.48")},
	))
}
