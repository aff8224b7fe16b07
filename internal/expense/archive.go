package expense

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const scanBucketName = "scans"

// ScanRecord is the archived outcome of one receipt scan: the raw OCR
// text, the candidate fields the interpreter pulled out of it, and a
// pointer to the stored image. Confirming a scan turns it into an
// expense record; until then it only lives in the archive.
type ScanRecord struct {
	ID                string    `json:"id"`
	Vendor            string    `json:"vendor"`
	Amount            *float64  `json:"amount"` // nil when no plausible total was found
	Date              string    `json:"date"`   // YYYY-MM-DD
	SuggestedCategory string    `json:"suggested_category"`
	NeedsReview       bool      `json:"needs_review"`
	RawText           string    `json:"raw_text"`
	Filename          string    `json:"filename"`
	ContentType       string    `json:"content_type"`
	CreatedAt         time.Time `json:"created_at"`
}

// Archive defines the interface for scan persistence
type Archive interface {
	// SaveScan saves a scan record to the archive
	SaveScan(scan *ScanRecord) error

	// GetScan retrieves a scan record by ID
	GetScan(id string) (*ScanRecord, error)

	// ListScans returns all archived scans
	ListScans() ([]*ScanRecord, error)

	// DeleteScan removes a scan record from the archive
	DeleteScan(id string) error

	// Close closes the archive
	Close() error
}

// BoltArchive implements the Archive interface using BoltDB
type BoltArchive struct {
	db *bbolt.DB
}

// NewBoltArchive creates a new BoltArchive instance
func NewBoltArchive(path string) (*BoltArchive, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(scanBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating scan bucket: %w", err)
	}

	return &BoltArchive{db: db}, nil
}

// SaveScan saves a scan record to the archive
func (b *BoltArchive) SaveScan(scan *ScanRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data, err := json.Marshal(scan)
		if err != nil {
			return fmt.Errorf("marshaling scan: %w", err)
		}
		return bucket.Put([]byte(scan.ID), data)
	})
}

// GetScan retrieves a scan record by ID
func (b *BoltArchive) GetScan(id string) (*ScanRecord, error) {
	var scan *ScanRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("scan not found: %s", id)
		}
		return json.Unmarshal(data, &scan)
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// ListScans returns all archived scans
func (b *BoltArchive) ListScans() ([]*ScanRecord, error) {
	scans := make([]*ScanRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var scan ScanRecord
			if err := json.Unmarshal(v, &scan); err != nil {
				return fmt.Errorf("unmarshaling scan: %w", err)
			}
			scans = append(scans, &scan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return scans, nil
}

// DeleteScan removes a scan record from the archive
func (b *BoltArchive) DeleteScan(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the archive
func (b *BoltArchive) Close() error {
	return b.db.Close()
}
