package models

// Top-level asset categories.
const (
	CategorySavings    = "Savings"
	CategoryRealEstate = "Real Estate"
	CategoryStocks     = "Stocks"
	CategoryOther      = "Other"
)

// Category is one (top level, sub-category) pair of the global asset taxonomy.
type Category struct {
	Base
	TopLevelName    string `gorm:"size:64;not null;uniqueIndex:idx_categories_pair" json:"category"`
	SubCategoryName string `gorm:"size:64;not null;uniqueIndex:idx_categories_pair" json:"sub_category"`
}

// defaultTaxonomy is the seeded set of sub-categories per top level.
var defaultTaxonomy = []struct {
	topLevel string
	subs     []string
}{
	{CategorySavings, []string{"Cash", "Livret A/LDDS", "LEP", "Livret Jeune", "PEL/CEL", "Life Insurance", "PER", "PEE/PERCO", "PEA"}},
	{CategoryRealEstate, []string{"Primary Residence", "Rental Property", "SCPI", "Real Estate Crowdfunding"}},
	{CategoryStocks, []string{"Bonds", "Equities", "Crypto"}},
	{CategoryOther, []string{"Private Equity", "Precious Metals", "Exotic Investments"}},
}

// DefaultCategories returns fresh, unsaved rows for the seeded taxonomy.
func DefaultCategories() []Category {
	var out []Category
	for _, group := range defaultTaxonomy {
		for _, sub := range group.subs {
			out = append(out, Category{TopLevelName: group.topLevel, SubCategoryName: sub})
		}
	}
	return out
}
