// Package ocr is the boundary to the text-recognition engine. The
// rest of the system only ever sees the extracted text; any engine
// satisfying TextExtractor is interchangeable.
package ocr

// TextExtractor turns a receipt image into its raw text.
type TextExtractor interface {
	// ExtractText transcribes all text visible in an image/PDF
	ExtractText(imageData []byte, contentType string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}
