package grocery

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// CatalogEntry describes how a grocery item is actually sold.
type CatalogEntry struct {
	Name               string          `yaml:"name" json:"name"`
	Category           string          `yaml:"category" json:"category"`
	PackageDescription string          `yaml:"package" json:"package"`
	PackageSize        float64         `yaml:"size" json:"size"`
	PackageUnit        string          `yaml:"unit" json:"unit"`
	UnitPrice          decimal.Decimal `yaml:"price" json:"price"`
}

// DefaultFallbackPrice applies when a catalog file does not set fallback_price.
var DefaultFallbackPrice = decimal.RequireFromString("2.99")

type catalogFile struct {
	Version       string           `yaml:"version"`
	FallbackPrice *decimal.Decimal `yaml:"fallback_price"`
	Items         []CatalogEntry   `yaml:"items"`
}

// Catalog is the read-only pricing table. It is safe for concurrent use
// because nothing mutates it after load.
type Catalog struct {
	version       string
	fallbackPrice decimal.Decimal
	entries       []CatalogEntry
	lowerNames    []string
}

// DefaultCatalog loads the embedded Walmart reference table.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog from a YAML file on disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML, preserving declaration order.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	fallback := DefaultFallbackPrice
	if f.FallbackPrice != nil {
		fallback = *f.FallbackPrice
	}
	if fallback.IsNegative() {
		return nil, fmt.Errorf("invalid catalog: fallback_price must not be negative")
	}

	lowerNames := make([]string, len(f.Items))
	for i, e := range f.Items {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("invalid catalog: item %d has no name", i)
		}
		if e.PackageSize <= 0 {
			return nil, fmt.Errorf("invalid catalog: %q has non-positive package size", e.Name)
		}
		if e.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("invalid catalog: %q has negative price", e.Name)
		}
		lowerNames[i] = strings.ToLower(strings.TrimSpace(e.Name))
	}

	return &Catalog{
		version:       f.Version,
		fallbackPrice: fallback,
		entries:       f.Items,
		lowerNames:    lowerNames,
	}, nil
}

// NewCatalog builds a catalog in memory. Mostly useful in tests.
func NewCatalog(fallbackPrice decimal.Decimal, entries ...CatalogEntry) *Catalog {
	lowerNames := make([]string, len(entries))
	for i, e := range entries {
		lowerNames[i] = strings.ToLower(strings.TrimSpace(e.Name))
	}
	return &Catalog{
		fallbackPrice: fallbackPrice,
		entries:       append([]CatalogEntry(nil), entries...),
		lowerNames:    lowerNames,
	}
}

// Match returns the first entry, in declaration order, whose name contains the
// ingredient name or is contained by it. Comparison is case-insensitive.
func (c *Catalog) Match(ingredientName string) (CatalogEntry, bool) {
	needle := strings.ToLower(strings.TrimSpace(ingredientName))
	if needle == "" {
		return CatalogEntry{}, false
	}

	for i, name := range c.lowerNames {
		if strings.Contains(needle, name) || strings.Contains(name, needle) {
			return c.entries[i], true
		}
	}
	return CatalogEntry{}, false
}

// Entries returns a copy of the catalog rows.
func (c *Catalog) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

// FallbackPrice is charged for ingredients the catalog does not know.
func (c *Catalog) FallbackPrice() decimal.Decimal {
	return c.fallbackPrice
}

func (c *Catalog) Version() string {
	return c.version
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
