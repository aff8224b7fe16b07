package interpret

import "strings"

// Rule maps a lowercase keyword substring to a category.
type Rule struct {
	Keyword  string
	Category string
}

// vendorRules is the static vendor keyword table, scanned in order
// with the first hit winning. The order is load-bearing: a vendor name
// containing several keywords gets the category of the earliest rule.
// The table is never mutated at runtime.
var vendorRules = []Rule{
	// Food & Dining
	{"mcdonalds", "Food & Dining"},
	{"burger king", "Food & Dining"},
	{"starbucks", "Food & Dining"},
	{"subway", "Food & Dining"},
	{"pizza", "Food & Dining"},
	{"restaurant", "Food & Dining"},
	{"cafe", "Food & Dining"},
	{"diner", "Food & Dining"},

	// Groceries
	{"walmart", "Groceries"},
	{"target", "Groceries"},
	{"kroger", "Groceries"},
	{"safeway", "Groceries"},
	{"grocery", "Groceries"},
	{"supermarket", "Groceries"},
	{"market", "Groceries"},

	// Gas
	{"shell", "Gas"},
	{"exxon", "Gas"},
	{"chevron", "Gas"},
	{"bp", "Gas"},
	{"gas station", "Gas"},
	{"fuel", "Gas"},

	// Transportation
	{"uber", "Transportation"},
	{"lyft", "Transportation"},
	{"taxi", "Transportation"},
	{"bus", "Transportation"},
	{"metro", "Transportation"},
	{"transit", "Transportation"},

	// Shopping
	{"amazon", "Shopping"},
	{"ebay", "Shopping"},
	{"best buy", "Shopping"},
	{"costco", "Shopping"},
	{"mall", "Shopping"},

	// Healthcare
	{"pharmacy", "Healthcare"},
	{"cvs", "Healthcare"},
	{"walgreens", "Healthcare"},
	{"clinic", "Healthcare"},
	{"hospital", "Healthcare"},
	{"doctor", "Healthcare"},
}

// SuggestCategory suggests an expense category for a vendor name by
// scanning the keyword table in order, falling back to "Other".
func SuggestCategory(vendor string) string {
	lower := strings.ToLower(vendor)
	for _, rule := range vendorRules {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Category
		}
	}
	return "Other"
}
