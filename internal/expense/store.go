package expense

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// storeFields is the fixed column order for tabular persistence.
var storeFields = []string{"date", "amount", "category", "vendor", "description"}

// Codec encodes the full record list to its on-disk representation and
// back. Both formats are equally valid views of the same in-memory
// model; the choice is made at store construction and fixed for the
// store's lifetime.
type Codec interface {
	// Name returns the format name ("csv" or "json")
	Name() string

	// Encode serializes the complete record list
	Encode(records []Record) ([]byte, error)

	// Decode parses a previously encoded record list
	Decode(data []byte) ([]Record, error)
}

// CodecFor returns the codec for a format name.
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "csv":
		return CSVCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage format: %q (want csv or json)", format)
	}
}

// Store is a durable, append-only list of expense records backed by a
// single flat file. Every mutation rewrites the whole file, so after a
// successful call the file always reflects exactly the in-memory
// state. One store owns one backing file; concurrent writers to the
// same file are not supported.
type Store struct {
	path    string
	codec   Codec
	records []Record
}

// NewStore opens a store over path. An absent file yields an empty
// store. An unreadable file is logged and discarded rather than
// blocking startup; a corrupted data file should never keep the
// application from running.
func NewStore(path string, codec Codec) *Store {
	s := &Store{path: path, codec: codec}
	if err := s.load(); err != nil {
		slog.Warn("Discarding unreadable expense file, starting empty",
			"path", path,
			"format", codec.Name(),
			"error", err,
		)
		s.records = nil
	}
	return s
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading expense file: %w", err)
	}
	records, err := s.codec.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding expense file: %w", err)
	}
	s.records = records
	return nil
}

// Append adds a record and rewrites the backing file. On write failure
// the in-memory list is rolled back so it keeps matching the file.
func (s *Store) Append(r Record) error {
	s.records = append(s.records, r)
	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return err
	}
	return nil
}

func (s *Store) persist() error {
	data, err := s.codec.Encode(s.records)
	if err != nil {
		return fmt.Errorf("encoding expenses: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing expense file: %w", err)
	}
	return nil
}

// Records returns the stored records in insertion order. The returned
// slice is a copy; the store cannot be mutated through it.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// CSVCodec persists records as a tabular file with a fixed header row.
type CSVCodec struct{}

// Name returns the format name
func (CSVCodec) Name() string { return "csv" }

// Encode serializes records with the fixed field order, header first
func (CSVCodec) Encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(storeFields); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{
			r.Date,
			strconv.FormatFloat(r.Amount, 'f', 2, 64),
			r.Category,
			r.Vendor,
			r.Description,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a tabular file, skipping the header row
func (CSVCodec) Decode(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(storeFields) {
			return nil, fmt.Errorf("expected %d fields per row, got %d", len(storeFields), len(row))
		}
		amount, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", row[1], err)
		}
		records = append(records, Record{
			Date:        row[0],
			Amount:      amount,
			Category:    row[2],
			Vendor:      row[3],
			Description: row[4],
		})
	}
	return records, nil
}

// JSONCodec persists records as a pretty-printed array of objects.
type JSONCodec struct{}

// Name returns the format name
func (JSONCodec) Name() string { return "json" }

// Encode serializes records as an indented JSON array
func (JSONCodec) Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// Decode parses a JSON array of records
func (JSONCodec) Decode(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
