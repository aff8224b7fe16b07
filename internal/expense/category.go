package expense

// Categories is the fixed expense vocabulary. The display order is
// part of the public contract (downstream UIs index into it), so the
// slice must never be reordered or mutated.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Travel",
	"Education",
	"Business",
	"Personal Care",
	"Groceries",
	"Gas",
	"Other",
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
