// -----------------------------------------------------------------------
// Document Extractor Interface - Extract text and images from PDF documents
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"fmt"
)

// EncodedImage is a normalized embedded image: base64-encoded PNG whose
// longer side is capped (aspect-preserving, never upscaled). It is a copied
// value with no shared mutable state.
type EncodedImage string

// PageRecord represents the extracted content of a single PDF page.
// Produced once per page by the extractor, immutable thereafter.
type PageRecord struct {
	PageNumber int            `json:"page_number"` // 1-based
	Text       string         `json:"text"`
	Images     []EncodedImage `json:"images"` // In document order
}

// DocumentReadError indicates a document could not be opened, parsed, or
// fully extracted. It is fatal to the run and names the offending path.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("failed to read document %s: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error {
	return e.Err
}

// DocumentExtractor defines the interface for extracting per-page text and
// normalized embedded images from PDF documents. This abstracts the PDF
// backend so different implementations can be used interchangeably.
type DocumentExtractor interface {
	// ExtractDocument returns exactly one PageRecord per page, in page
	// order, with each page's image list preserving the document's
	// embedded image order. Returns a *DocumentReadError if the file is
	// missing, unreadable, or not a valid PDF, or if an embedded image
	// cannot be decoded.
	ExtractDocument(ctx context.Context, path string) ([]PageRecord, error)
}

// ReportRenderer converts a markdown report into a rendered PDF document.
type ReportRenderer interface {
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}
