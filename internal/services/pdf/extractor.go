// -----------------------------------------------------------------------
// Document Extractor Service - Extract per-page text and embedded images
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/gradus/internal/interfaces"
)

// Extractor implements the DocumentExtractor interface using pdfcpu
type Extractor struct {
	logger       arbor.ILogger
	maxImageEdge int
	tempDir      string
}

// Compile-time interface assertion
var _ interfaces.DocumentExtractor = (*Extractor)(nil)

// NewExtractor creates a new document extractor service. maxImageEdge caps
// the longer side of normalized embedded images (0 selects the 512 default).
func NewExtractor(logger arbor.ILogger, maxImageEdge int) *Extractor {
	if maxImageEdge <= 0 {
		maxImageEdge = 512
	}

	// Create a temp directory for PDF processing
	tempDir := filepath.Join(os.TempDir(), "gradus-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:       logger,
		maxImageEdge: maxImageEdge,
		tempDir:      tempDir,
	}
}

var (
	contentPagePattern = regexp.MustCompile(`Content_page_(\d+)\.txt$`)
	imagePagePattern   = regexp.MustCompile(`_(\d+)_([^_]+)\.(png|jpg|jpeg|tif|tiff)$`)
	imageNamePattern   = regexp.MustCompile(`(\d+)$`)
)

// ExtractDocument opens the PDF at path and returns one PageRecord per page,
// in page order, with embedded images normalized (RGB, longer side capped,
// PNG, base64) and in document order. All pdfcpu work artifacts live in a
// scoped temp directory removed before return, even on error.
func (e *Extractor) ExtractDocument(ctx context.Context, path string) ([]interfaces.PageRecord, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, &interfaces.DocumentReadError{Path: path, Err: err}
	}
	pageCount := pdfCtx.PageCount

	workDir, err := os.MkdirTemp(e.tempDir, "extract_")
	if err != nil {
		return nil, &interfaces.DocumentReadError{Path: path, Err: err}
	}
	defer os.RemoveAll(workDir)

	conf := model.NewDefaultConfiguration()

	pageTexts := e.extractPageTexts(path, workDir, conf)

	pageImages, err := e.extractPageImages(ctx, path, workDir, conf)
	if err != nil {
		return nil, &interfaces.DocumentReadError{Path: path, Err: err}
	}

	pages := make([]interfaces.PageRecord, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, interfaces.PageRecord{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
			Images:     pageImages[pageNum],
		})
	}

	e.logger.Debug().
		Str("path", path).
		Int("pages", pageCount).
		Msg("Document extracted")

	return pages, nil
}

// extractPageTexts extracts per-page text content. pdfcpu writes one content
// file per page; page numbers are recovered from the Content_page_N filename.
// A failed content extraction degrades to empty page text rather than
// aborting the run, since image-only submissions are common.
func (e *Extractor) extractPageTexts(path, workDir string, conf *model.Configuration) map[int]string {
	outDir := filepath.Join(workDir, "content")
	os.MkdirAll(outDir, 0755)

	pageTexts := make(map[int]string)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("Failed to extract PDF text content, continuing with empty page text")
		return pageTexts
	}

	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		m := contentPagePattern.FindStringSubmatch(file.Name())
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	return pageTexts
}

// extractPageImages extracts all embedded images grouped by page, in document
// order, normalized for vision calls. A single undecodable image aborts
// extraction for the whole document.
func (e *Extractor) extractPageImages(ctx context.Context, path, workDir string, conf *model.Configuration) (map[int][]interfaces.EncodedImage, error) {
	outDir := filepath.Join(workDir, "images")
	os.MkdirAll(outDir, 0755)

	pageImages := make(map[int][]interfaces.EncodedImage)

	if err := api.ExtractImagesFile(path, outDir, nil, conf); err != nil {
		// A document with no extractable images is not an error
		e.logger.Warn().Err(err).Str("path", path).Msg("Failed to extract PDF images, continuing without images")
		return pageImages, nil
	}

	files, _ := os.ReadDir(outDir)

	type extractedImage struct {
		page     int
		name     string
		fileName string
	}

	var extracted []extractedImage
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		m := imagePagePattern.FindStringSubmatch(file.Name())
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		extracted = append(extracted, extractedImage{
			page:     pageNum,
			name:     m[2],
			fileName: file.Name(),
		})
	}

	// Document order within a page follows the PDF resource name (Im0, Im1, ...)
	sort.Slice(extracted, func(i, j int) bool {
		if extracted[i].page != extracted[j].page {
			return extracted[i].page < extracted[j].page
		}
		ni, iOK := imageNameOrdinal(extracted[i].name)
		nj, jOK := imageNameOrdinal(extracted[j].name)
		if iOK && jOK && ni != nj {
			return ni < nj
		}
		return extracted[i].name < extracted[j].name
	})

	for _, img := range extracted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(outDir, img.fileName))
		if err != nil {
			return nil, err
		}

		encoded, err := NormalizeImage(data, e.maxImageEdge)
		if err != nil {
			// A corrupt embedded image aborts extraction for this document
			return nil, err
		}

		pageImages[img.page] = append(pageImages[img.page], encoded)
	}

	return pageImages, nil
}

// imageNameOrdinal pulls the trailing ordinal out of a PDF image resource
// name such as "Im12".
func imageNameOrdinal(name string) (int, bool) {
	m := imageNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
