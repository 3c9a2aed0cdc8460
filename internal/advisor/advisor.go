// Package advisor maps a portfolio summary and a risk profile onto recommended
// allocations. It performs no I/O.
package advisor

import (
	"sort"

	"github.com/shopspring/decimal"

	"helpinvest/internal/models"
)

// Allocation compares a category's holding with its target.
type Allocation struct {
	Category              string          `json:"category"`
	CurrentBalance        decimal.Decimal `json:"current_balance"`
	CurrentPercentage     float64         `json:"current_percentage"`
	RecommendedBalance    decimal.Decimal `json:"recommended_balance"`
	RecommendedPercentage float64         `json:"recommended_percentage"`
	// Gap is positive when the category is under-allocated.
	Gap decimal.Decimal `json:"gap"`
}

var targetTables = map[models.RiskProfile]map[string]decimal.Decimal{
	models.RiskProfilePrudent: {
		models.CategorySavings:    decimal.RequireFromString("0.50"),
		models.CategoryRealEstate: decimal.RequireFromString("0.30"),
		models.CategoryStocks:     decimal.RequireFromString("0.20"),
	},
	models.RiskProfileBalanced: {
		models.CategorySavings:    decimal.RequireFromString("0.25"),
		models.CategoryRealEstate: decimal.RequireFromString("0.35"),
		models.CategoryStocks:     decimal.RequireFromString("0.40"),
	},
	models.RiskProfileDynamic: {
		models.CategorySavings:    decimal.RequireFromString("0.10"),
		models.CategoryRealEstate: decimal.RequireFromString("0.30"),
		models.CategoryStocks:     decimal.RequireFromString("0.60"),
	},
}

// categoryOrder fixes the output position of known categories; anything else
// sorts alphabetically after them.
var categoryOrder = map[string]int{
	models.CategorySavings:    0,
	models.CategoryRealEstate: 1,
	models.CategoryStocks:     2,
	models.CategoryOther:      3,
}

// Targets returns a copy of the target table for profile. Unknown profiles
// get the balanced table.
func Targets(profile models.RiskProfile) map[string]decimal.Decimal {
	table, ok := targetTables[profile]
	if !ok {
		table = targetTables[models.RiskProfileBalanced]
	}
	out := make(map[string]decimal.Decimal, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}

// Analyze emits one Allocation per category present in summary. Categories
// missing from the target table get a zero target.
func Analyze(summary models.PortfolioSummary, totalEstate decimal.Decimal, profile models.RiskProfile) []Allocation {
	targets := Targets(profile)

	names := make([]string, 0, len(summary.Categories))
	for name := range summary.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iKnown := categoryOrder[names[i]]
		oj, jKnown := categoryOrder[names[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return names[i] < names[j]
		}
	})

	allocations := make([]Allocation, 0, len(names))
	for _, name := range names {
		current := summary.Categories[name].Total
		target := targets[name]

		currentPct := decimal.Zero
		if !totalEstate.IsZero() {
			currentPct = current.Div(totalEstate)
		}
		recommended := totalEstate.Mul(target).Round(2)

		allocations = append(allocations, Allocation{
			Category:              name,
			CurrentBalance:        current,
			CurrentPercentage:     currentPct.InexactFloat64(),
			RecommendedBalance:    recommended,
			RecommendedPercentage: target.InexactFloat64(),
			Gap:                   recommended.Sub(current),
		})
	}
	return allocations
}
