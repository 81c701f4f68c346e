package grocery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical units understood by the size-based rounding rules.
const (
	UnitPound = "lb"
	UnitOunce = "oz"
	UnitCup   = "cup"
)

var unitAliases = map[string]string{
	"lb":     UnitPound,
	"lbs":    UnitPound,
	"pound":  UnitPound,
	"pounds": UnitPound,
	"oz":     UnitOunce,
	"ounce":  UnitOunce,
	"ounces": UnitOunce,
	"cup":    UnitCup,
	"cups":   UnitCup,
}

// PackagingResult is the purchasing decision for one ingredient.
type PackagingResult struct {
	Description    string          `json:"description"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	PackagesNeeded int             `json:"packages_needed"`
}

// Packager maps a required quantity onto purchasable catalog packages.
type Packager struct {
	catalog  *Catalog
	onLookup func(matched bool)
}

// PackagerOption configures a Packager.
type PackagerOption func(*Packager)

// WithLookupHook registers a callback invoked after every catalog lookup.
func WithLookupHook(fn func(matched bool)) PackagerOption {
	return func(p *Packager) {
		p.onLookup = fn
	}
}

// NewPackager creates a Packager backed by the given catalog.
func NewPackager(catalog *Catalog, opts ...PackagerOption) *Packager {
	p := &Packager{catalog: catalog}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog the packager resolves against.
func (p *Packager) Catalog() *Catalog {
	return p.catalog
}

// Resolve decides how many packages of the matching catalog item cover the
// requested quantity. Unknown ingredients get a single package at the
// catalog's fallback price.
func (p *Packager) Resolve(name string, quantity float64, unit string) PackagingResult {
	entry, ok := p.catalog.Match(name)
	if p.onLookup != nil {
		p.onLookup(ok)
	}

	if !ok {
		return PackagingResult{
			Description:    strings.TrimSpace(FormatQuantity(quantity) + " " + unit),
			TotalCost:      p.catalog.FallbackPrice(),
			PackagesNeeded: 1,
		}
	}

	n := PackagesNeeded(quantity, unit, entry)
	return PackagingResult{
		Description:    fmt.Sprintf("%d × %s", n, entry.PackageDescription),
		TotalCost:      entry.UnitPrice.Mul(decimal.NewFromInt(int64(n))),
		PackagesNeeded: n,
	}
}

// PackagesNeeded applies the unit-aware rounding rules. Only weight-to-weight
// conversions in matching units are modeled; everything else is one package.
func PackagesNeeded(quantity float64, unit string, entry CatalogEntry) int {
	requested := NormalizeUnit(unit)
	packaged := NormalizeUnit(entry.PackageUnit)

	switch {
	case requested == UnitPound && packaged == UnitPound:
		return ceilPackages(quantity, entry.PackageSize)
	case requested == UnitOunce && packaged == UnitOunce:
		return ceilPackages(quantity, entry.PackageSize)
	case requested == UnitCup:
		return 1
	default:
		return 1
	}
}

// ceilPackages divides in decimal so 0.9/0.3 is exactly three packages while
// any excess over a whole multiple, however small, adds one.
func ceilPackages(quantity, size float64) int {
	if size <= 0 || quantity <= 0 {
		return 1
	}
	n := decimal.NewFromFloat(quantity).Div(decimal.NewFromFloat(size)).Ceil().IntPart()
	if n < 1 {
		return 1
	}
	return int(n)
}

// NormalizeUnit lowercases a unit and folds common spellings of lb, oz and cup.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// FormatQuantity renders a quantity without trailing zeros ("2", "0.5").
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
