package expense

import "errors"

const dateLayout = "2006-01-02"

// Record is a single logged expense. Records are immutable once
// created and carry no separate ID: identity is positional, the order
// of insertion into the store.
type Record struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Vendor      string  `json:"vendor"`
	Description string  `json:"description"`
}

// Validation failures are always surfaced to the caller, never
// auto-corrected.
var (
	ErrInvalidAmount   = errors.New("amount cannot be negative")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrMissingAmount   = errors.New("no amount extracted from receipt")
)
