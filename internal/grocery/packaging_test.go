package grocery

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog(decimal.RequireFromString("2.99"),
		CatalogEntry{Name: "chicken breast", Category: "Meat", PackageDescription: "1 lb package", PackageSize: 1, PackageUnit: "lb", UnitPrice: decimal.RequireFromString("4.99")},
		CatalogEntry{Name: "rice", Category: "Grains", PackageDescription: "2 lb bag", PackageSize: 2, PackageUnit: "lb", UnitPrice: decimal.RequireFromString("1.98")},
		CatalogEntry{Name: "broccoli", Category: "Produce", PackageDescription: "12 oz bag", PackageSize: 12, PackageUnit: "oz", UnitPrice: decimal.RequireFromString("1.97")},
		CatalogEntry{Name: "milk", Category: "Dairy", PackageDescription: "1 gal jug", PackageSize: 128, PackageUnit: "oz", UnitPrice: decimal.RequireFromString("3.48")},
		CatalogEntry{Name: "oats", Category: "Grains", PackageDescription: "0.3 lb pouch", PackageSize: 0.3, PackageUnit: "lb", UnitPrice: decimal.RequireFromString("1.00")},
	)
}

func TestPackagerResolve(t *testing.T) {
	p := NewPackager(testCatalog())

	tests := []struct {
		name         string
		ingredient   string
		quantity     float64
		unit         string
		wantPackages int
		wantCost     string
		wantDesc     string
	}{
		{"ExactPackageDoesNotRoundUp", "chicken breast", 1, "lb", 1, "4.99", "1 × 1 lb package"},
		{"JustOverPackageRoundsUp", "chicken breast", 1.01, "lb", 2, "9.98", "2 × 1 lb package"},
		{"FractionalRoundsUpToOne", "chicken breast", 0.5, "lb", 1, "4.99", "1 × 1 lb package"},
		{"MultiPoundBag", "rice", 5, "lb", 3, "5.94", "3 × 2 lb bag"},
		{"OunceToOunce", "broccoli", 24, "oz", 2, "3.94", "2 × 12 oz bag"},
		{"OunceJustOver", "broccoli", 12.01, "oz", 2, "3.94", "2 × 12 oz bag"},
		{"UnitAliases", "rice", 4, "Pounds", 2, "3.96", "2 × 2 lb bag"},
		{"CupsAlwaysOnePackage", "milk", 20, "cups", 1, "3.48", "1 × 1 gal jug"},
		{"CupAlwaysOnePackage", "milk", 1, "cup", 1, "3.48", "1 × 1 gal jug"},
		{"OunceAgainstPoundPackage", "rice", 40, "oz", 1, "1.98", "1 × 2 lb bag"},
		{"PoundAgainstOuncePackage", "broccoli", 3, "lb", 1, "1.97", "1 × 12 oz bag"},
		{"UnmodeledUnit", "chicken breast", 4, "each", 1, "4.99", "1 × 1 lb package"},
		{"FloatNoiseDoesNotAddPackage", "oats", 0.9, "lb", 3, "3", "3 × 0.3 lb pouch"},
		{"TinyExcessAddsPackage", "rice", 2.0000000001, "lb", 2, "3.96", "2 × 2 lb bag"},
		{"TinyExcessOverOunces", "broccoli", 24.000000001, "oz", 3, "5.91", "3 × 12 oz bag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Resolve(tt.ingredient, tt.quantity, tt.unit)
			assert.Equal(t, tt.wantPackages, got.PackagesNeeded)
			assert.True(t, decimal.RequireFromString(tt.wantCost).Equal(got.TotalCost),
				"expected cost %s, got %s", tt.wantCost, got.TotalCost)
			assert.Equal(t, tt.wantDesc, got.Description)
		})
	}
}

func TestPackagerFallback(t *testing.T) {
	p := NewPackager(testCatalog())

	t.Run("DragonFruit", func(t *testing.T) {
		got := p.Resolve("dragon fruit", 2, "each")
		assert.Equal(t, "2 each", got.Description)
		assert.Equal(t, 1, got.PackagesNeeded)
		assert.True(t, decimal.RequireFromString("2.99").Equal(got.TotalCost))
	})

	t.Run("IndependentOfQuantity", func(t *testing.T) {
		for _, q := range []float64{0.25, 1, 17, 1000} {
			got := p.Resolve("saffron threads", q, "g")
			assert.Equal(t, 1, got.PackagesNeeded)
			assert.True(t, decimal.RequireFromString("2.99").Equal(got.TotalCost))
		}
	})

	t.Run("FractionalQuantityFormatting", func(t *testing.T) {
		got := p.Resolve("za'atar", 0.5, "tsp")
		assert.Equal(t, "0.5 tsp", got.Description)
	})
}

func TestPackagerLookupHook(t *testing.T) {
	var hits, misses int
	p := NewPackager(testCatalog(), WithLookupHook(func(matched bool) {
		if matched {
			hits++
		} else {
			misses++
		}
	}))

	p.Resolve("rice", 1, "lb")
	p.Resolve("rice", 3, "lb")
	p.Resolve("dragon fruit", 1, "each")

	require.Equal(t, 2, hits)
	require.Equal(t, 1, misses)
}

func TestPackagesNeededCeilingProperty(t *testing.T) {
	entry := CatalogEntry{PackageSize: 2.5, PackageUnit: "lb"}
	for k := 1; k <= 20; k++ {
		exact := float64(k) * 2.5
		assert.Equal(t, k, PackagesNeeded(exact, "lb", entry), "exact multiple %v", exact)
		assert.Equal(t, k+1, PackagesNeeded(exact+0.01, "lb", entry), "just over %v", exact)
	}
}

func TestNormalizeUnit(t *testing.T) {
	assert.Equal(t, "lb", NormalizeUnit(" LBS "))
	assert.Equal(t, "oz", NormalizeUnit("Ounces"))
	assert.Equal(t, "cup", NormalizeUnit("Cups"))
	assert.Equal(t, "each", NormalizeUnit("Each"))
}
