package expense

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zombor/expense-tracker/internal/interpret"
	"github.com/zombor/expense-tracker/internal/ocr"
)

// IDGenerator generates unique IDs for archived scans
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Filter narrows a query. Zero values mean "no constraint"; the
// filters are conjunctive and date bounds are inclusive.
type Filter struct {
	Category  string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

// CategoryTotal pairs a category with its aggregate amount.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// DateRange is the lexical min/max over stored dates. YYYY-MM-DD sorts
// lexically in chronological order, so string comparison suffices.
// Both fields are empty when the store is.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Summary is an aggregate view over the whole store.
type Summary struct {
	TotalAmount  float64         `json:"total_amount"`
	ExpenseCount int             `json:"expense_count"`
	Categories   []CategoryTotal `json:"categories"`
	DateRange    DateRange       `json:"date_range"`
}

// Service orchestrates validation, storage, receipt scanning, and
// aggregation. Store mutation is serialized through a mutex so the
// HTTP handlers can share one service; the design still assumes a
// single process owns the backing file.
type Service struct {
	mu          sync.Mutex
	store       *Store
	archive     Archive
	images      ImageStore
	extractor   ocr.TextExtractor
	interpreter *interpret.Interpreter
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(store *Store, archive Archive, images ImageStore, extractor ocr.TextExtractor) *Service {
	return NewServiceWithDeps(store, archive, images, extractor,
		interpret.New(), &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store *Store, archive Archive, images ImageStore, extractor ocr.TextExtractor,
	interpreter *interpret.Interpreter, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		store:       store,
		archive:     archive,
		images:      images,
		extractor:   extractor,
		interpreter: interpreter,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Add validates and appends a manually-entered expense. An empty date
// defaults to today. The record is persisted before it is returned.
func (s *Service) Add(amount float64, category, vendor, description, date string) (*Record, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if date == "" {
		date = s.timeSource.Now().Format(dateLayout)
	} else if !validDate(date) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	record := Record{
		Date:        date,
		Amount:      amount,
		Category:    category,
		Vendor:      vendor,
		Description: description,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Append(record); err != nil {
		return nil, fmt.Errorf("appending expense: %w", err)
	}
	return &record, nil
}

// AddFromReceipt builds an expense from interpreter output. A receipt
// without a parsable total is a hard stop, not a silent default: it
// must be entered manually. The category override, when given, wins
// over the suggestion.
func (s *Service) AddFromReceipt(ex *interpret.Extraction, categoryOverride string) (*Record, error) {
	if ex.Amount == nil {
		return nil, ErrMissingAmount
	}
	category := ex.SuggestedCategory
	if categoryOverride != "" {
		category = categoryOverride
	}
	return s.Add(*ex.Amount, category, ex.Vendor, "", ex.Date)
}

// Query returns matching records in their original insertion order.
func (s *Service) Query(f Filter) ([]Record, error) {
	if f.Category != "" && !ValidCategory(f.Category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category)
	}
	if f.StartDate != "" && !validDate(f.StartDate) {
		return nil, fmt.Errorf("%w: start_date %q", ErrInvalidDate, f.StartDate)
	}
	if f.EndDate != "" && !validDate(f.EndDate) {
		return nil, fmt.Errorf("%w: end_date %q", ErrInvalidDate, f.EndDate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0)
	for _, r := range s.store.Records() {
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.StartDate != "" && r.Date < f.StartDate {
			continue
		}
		if f.EndDate != "" && r.Date > f.EndDate {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Total sums the amounts of the records Query would return.
func (s *Service) Total(f Filter) (float64, error) {
	records, err := s.Query(f)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range records {
		total += r.Amount
	}
	return total, nil
}

// ByCategory aggregates all records, unfiltered. The slice order
// follows the first occurrence of each category in the store.
func (s *Service) ByCategory() []CategoryTotal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byCategoryLocked()
}

func (s *Service) byCategoryLocked() []CategoryTotal {
	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)
	for _, r := range s.store.Records() {
		i, ok := index[r.Category]
		if !ok {
			i = len(totals)
			index[r.Category] = i
			totals = append(totals, CategoryTotal{Category: r.Category})
		}
		totals[i].Total += r.Amount
	}
	return totals
}

// Summary reports the aggregate view: grand total, record count,
// per-category totals, and the lexical date range.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Categories: s.byCategoryLocked()}
	for _, r := range s.store.Records() {
		sum.TotalAmount += r.Amount
		sum.ExpenseCount++
		if sum.DateRange.Start == "" || r.Date < sum.DateRange.Start {
			sum.DateRange.Start = r.Date
		}
		if r.Date > sum.DateRange.End {
			sum.DateRange.End = r.Date
		}
	}
	return sum
}

// ScanReceipt stores a receipt image, runs OCR, interprets the text,
// and archives the result for later confirmation. Nothing is added to
// the expense store yet.
func (s *Service) ScanReceipt(filename string, data []byte, contentType string) (*ScanRecord, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)
	savedPath, err := s.images.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving image: %w", err)
	}

	text, err := s.extractor.ExtractText(data, contentType)
	if err != nil {
		slog.Error("Failed to extract receipt text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved image since extraction failed
		s.images.Delete(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	extraction, err := s.interpreter.ProcessText(text)
	if err != nil {
		s.images.Delete(savedPath)
		return nil, fmt.Errorf("interpreting receipt: %w", err)
	}

	scan := &ScanRecord{
		ID:                id,
		Vendor:            extraction.Vendor,
		Amount:            extraction.Amount,
		Date:              extraction.Date,
		SuggestedCategory: extraction.SuggestedCategory,
		NeedsReview:       extraction.NeedsReview,
		RawText:           extraction.RawText,
		Filename:          savedPath,
		ContentType:       contentType,
		CreatedAt:         now,
	}

	if err := s.archive.SaveScan(scan); err != nil {
		s.images.Delete(savedPath)
		return nil, fmt.Errorf("archiving scan: %w", err)
	}

	return scan, nil
}

// ConfirmScan turns an archived scan into an expense record. The same
// missing-amount hard stop as AddFromReceipt applies.
func (s *Service) ConfirmScan(id, categoryOverride string) (*Record, error) {
	scan, err := s.archive.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	if scan.Amount == nil {
		return nil, ErrMissingAmount
	}
	category := scan.SuggestedCategory
	if categoryOverride != "" {
		category = categoryOverride
	}
	return s.Add(*scan.Amount, category, scan.Vendor, "Receipt processed: "+scan.Filename, scan.Date)
}

// GetScan retrieves an archived scan by ID
func (s *Service) GetScan(id string) (*ScanRecord, error) {
	scan, err := s.archive.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return scan, nil
}

// ListScans returns all archived scans
func (s *Service) ListScans() ([]*ScanRecord, error) {
	scans, err := s.archive.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return scans, nil
}

// DeleteScan removes an archived scan and its stored image
func (s *Service) DeleteScan(id string) error {
	scan, err := s.archive.GetScan(id)
	if err != nil {
		return fmt.Errorf("getting scan for deletion: %w", err)
	}

	if err := s.images.Delete(scan.Filename); err != nil {
		// Log but continue with archive deletion
		slog.Warn("Failed to delete image", "filename", scan.Filename, "error", err)
	}

	if err := s.archive.DeleteScan(id); err != nil {
		return fmt.Errorf("deleting scan from archive: %w", err)
	}
	return nil
}

// GetScanImage retrieves the stored image for an archived scan
func (s *Service) GetScanImage(id string) ([]byte, string, error) {
	scan, err := s.archive.GetScan(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan: %w", err)
	}

	data, err := s.images.Get(scan.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan image: %w", err)
	}

	return data, scan.ContentType, nil
}

func validDate(date string) bool {
	_, err := time.Parse(dateLayout, date)
	return err == nil
}
