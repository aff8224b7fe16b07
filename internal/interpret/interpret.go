// Package interpret turns unstructured receipt OCR text into
// structured candidate expense fields. The pipeline is pure text in,
// struct out: no I/O and no shared mutable state, so a single
// Interpreter is safe for any number of concurrent callers.
package interpret

import (
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ErrNoText is returned when the upstream OCR step produced no usable
// text. This is the only way interpretation fails: malformed text
// degrades to defaults instead.
var ErrNoText = errors.New("no text extracted from receipt")

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// systemTimeSource provides the current time
type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time {
	return time.Now()
}

// Extraction contains the candidate expense fields pulled out of one
// receipt's OCR text. A nil Amount means no plausible total was found.
type Extraction struct {
	Amount            *float64 `json:"amount"`
	Date              string   `json:"date"` // YYYY-MM-DD
	Vendor            string   `json:"vendor"`
	SuggestedCategory string   `json:"suggested_category"`
	NeedsReview       bool     `json:"needs_review"`
	RawText           string   `json:"raw_text"`
}

// Interpreter runs the extraction pipeline. The clock is injectable so
// the date fallback is testable.
type Interpreter struct {
	timeSource TimeSource
}

// New creates an Interpreter using the system clock for date fallbacks.
func New() *Interpreter {
	return &Interpreter{timeSource: systemTimeSource{}}
}

// NewWithTimeSource creates an Interpreter with a custom clock for testing.
func NewWithTimeSource(ts TimeSource) *Interpreter {
	return &Interpreter{timeSource: ts}
}

// ProcessText runs the full pipeline over raw OCR text. Uncertainty is
// signaled through defaults and NeedsReview, never through errors;
// only empty OCR output fails.
func (in *Interpreter) ProcessText(raw string) (*Extraction, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoText
	}

	amount := ParseAmount(raw)
	vendor := ParseVendor(raw)

	return &Extraction{
		Amount:            amount,
		Date:              in.ParseDate(raw),
		Vendor:            vendor,
		SuggestedCategory: SuggestCategory(vendor),
		NeedsReview:       amount == nil || vendor == UnknownVendor,
		RawText:           raw,
	}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
