package shopping

import (
	"fmt"
	"strings"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/grocery"
)

// PackageResolver turns a required quantity into a purchasing decision.
// *grocery.Packager is the production implementation.
type PackageResolver interface {
	Resolve(name string, quantity float64, unit string) grocery.PackagingResult
}

// PackagingPolicy selects which quantity packaging is computed from.
type PackagingPolicy string

const (
	// PolicyFirstUsage resolves packaging once, from the first usage seen for
	// an ingredient. Later usages add to the totals but not to the packages.
	PolicyFirstUsage PackagingPolicy = "first_usage"
	// PolicyMergedTotal resolves packaging from the fully merged quantity.
	PolicyMergedTotal PackagingPolicy = "merged_total"
)

// ParsePackagingPolicy accepts the configuration spelling of a policy.
// An empty string selects PolicyFirstUsage.
func ParsePackagingPolicy(s string) (PackagingPolicy, error) {
	switch PackagingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFirstUsage:
		return PolicyFirstUsage, nil
	case PolicyMergedTotal:
		return PolicyMergedTotal, nil
	default:
		return "", fmt.Errorf("unknown packaging policy %q", s)
	}
}

type mergeKey struct {
	name string
	unit string
}

func keyFor(u IngredientUsage) mergeKey {
	return mergeKey{
		name: strings.ToLower(strings.TrimSpace(u.Name)),
		unit: strings.ToLower(strings.TrimSpace(u.Unit)),
	}
}

// Consolidate merges usages sharing a case-insensitive name and unit, keeping
// the order in which each ingredient first appeared. A nil resolver leaves
// Packaging unset.
func Consolidate(usages []IngredientUsage, resolver PackageResolver, policy PackagingPolicy) []ConsolidatedIngredient {
	index := make(map[mergeKey]int, len(usages))
	out := make([]ConsolidatedIngredient, 0, len(usages))

	for _, u := range usages {
		key := keyFor(u)
		if i, ok := index[key]; ok {
			out[i].TotalQuantity += u.Quantity
			out[i].EstimatedCost = out[i].EstimatedCost.Add(u.EstimatedCost)
			continue
		}

		c := ConsolidatedIngredient{
			Name:          u.Name,
			TotalQuantity: u.Quantity,
			Unit:          u.Unit,
			Category:      u.Category,
			EstimatedCost: u.EstimatedCost,
		}
		if resolver != nil && policy != PolicyMergedTotal {
			p := resolver.Resolve(u.Name, u.Quantity, u.Unit)
			c.Packaging = &p
		}
		index[key] = len(out)
		out = append(out, c)
	}

	if resolver != nil && policy == PolicyMergedTotal {
		for i := range out {
			p := resolver.Resolve(out[i].Name, out[i].TotalQuantity, out[i].Unit)
			out[i].Packaging = &p
		}
	}

	return out
}
