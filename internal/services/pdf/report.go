package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/gradus/internal/interfaces"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// ReportService renders the markdown evaluation report as a PDF document.
type ReportService struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ReportRenderer = (*ReportService)(nil)

// NewReportService creates a new report renderer
func NewReportService(logger arbor.ILogger) *ReportService {
	return &ReportService{
		logger: logger,
	}
}

// ConvertMarkdownToPDF converts a markdown report to a PDF byte slice.
// The report uses headings, paragraphs, bold category names, and lists;
// that subset is what the renderer supports.
func (s *ReportService) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Rendering report PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
	)

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &reportRenderer{
		pdf:    pdf,
		source: source,
		font:   "Arial",
		size:   9,
	}

	if err := renderer.render(doc); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render report PDF")
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write report PDF output")
		return nil, fmt.Errorf("failed to write report PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("Report PDF rendered")
	return buf.Bytes(), nil
}

type reportRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	font      string
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

func (r *reportRenderer) render(node ast.Node) error {
	return ast.Walk(node, r.walk)
}

func (r *reportRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *reportRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, string(n.(*ast.Text).Text(r.source)))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindCodeSpan:
		return r.handleCodeSpan(n.(*ast.CodeSpan), entering)
	case ast.KindFencedCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.FencedCodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.CodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindList:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(2)
			}
		}
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			indent := float64(r.listLevel) * 5.0
			r.pdf.SetX(15 + indent)
			r.pdf.Write(5, "- ")
		}
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

func (r *reportRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.pdf.Ln(6)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *reportRenderer) handleCodeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.SetFont("Courier", "", r.size)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.pdf.Write(5, string(textNode.Segment.Value(r.source)))
			}
		}
	} else {
		r.updateFont()
	}
	return ast.WalkSkipChildren, nil
}

func (r *reportRenderer) renderCodeBlock(lines *text.Segments) {
	r.pdf.Ln(2)
	r.pdf.SetFont("Courier", "", r.size)
	r.pdf.SetFillColor(245, 245, 245)

	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.pdf.MultiCell(0, 5, string(line.Value(r.source)), "", "L", true)
	}

	r.pdf.SetFillColor(255, 255, 255)
	r.updateFont()
	r.pdf.Ln(2)
}
