// -----------------------------------------------------------------------
// Grader - orchestrates one grading run end to end: assignment context,
// rubric generation, per-image submission evaluation, score aggregation,
// closing remarks, and report persistence. Calls run strictly in sequence;
// each model response feeds the next prompt, so there is nothing to gain
// from concurrency here.
// -----------------------------------------------------------------------

package grading

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gradus/internal/common"
	"github.com/ternarybob/gradus/internal/interfaces"
	"github.com/ternarybob/gradus/internal/models"
	"github.com/ternarybob/gradus/internal/services/prompts"
)

// Grader runs grading jobs against injected extraction, model, and
// rendering services.
type Grader struct {
	config    *common.Config
	logger    arbor.ILogger
	extractor interfaces.DocumentExtractor
	gateway   *Gateway
	renderer  interfaces.ReportRenderer
}

// NewGrader creates a grader. renderer may be nil when PDF output is
// disabled.
func NewGrader(config *common.Config, logger arbor.ILogger, extractor interfaces.DocumentExtractor, gateway *Gateway, renderer interfaces.ReportRenderer) *Grader {
	return &Grader{
		config:    config,
		logger:    logger,
		extractor: extractor,
		gateway:   gateway,
		renderer:  renderer,
	}
}

// Run executes one grading job and returns the assembled report. The
// rubric and report files are written as side effects. Document read
// failures abort the run; model call failures degrade to sentinel text
// inside the report.
func (g *Grader) Run(ctx context.Context, job *models.GradingJob) (*models.EvaluationReport, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grading job: %w", err)
	}

	runID := common.NewRunID()
	g.logger.Info().
		Str("run_id", runID).
		Str("assignment", job.AssignmentPDF).
		Str("submission", job.SubmissionPDF).
		Str("architect", job.ArchitectName).
		Msg("Starting grading run")

	rubric, err := g.buildRubric(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := g.writeOutput(g.config.Grading.RubricFile, rubric); err != nil {
		return nil, fmt.Errorf("failed to write rubric: %w", err)
	}
	g.logger.Info().Str("path", g.config.Grading.RubricFile).Msg("Rubric written")

	aggregator, err := g.evaluateSubmission(ctx, job, rubric)
	if err != nil {
		return nil, err
	}

	summary := aggregator.SummaryText()
	closing := g.gateway.CompleteChat(ctx, []interfaces.Message{
		{Role: "user", Content: prompts.ClosingPrompt(summary)},
	})

	report := aggregator.BuildReport(runID, rubric, closing.Text)

	reportText := FormatReport(report)
	if err := g.writeOutput(g.config.Grading.ReportFile, reportText); err != nil {
		return nil, fmt.Errorf("failed to write evaluation report: %w", err)
	}
	g.logger.Info().
		Str("path", g.config.Grading.ReportFile).
		Int("evaluations", len(report.Evaluations)).
		Int("categories", len(report.Averages)).
		Msg("Evaluation report written")

	if g.config.Grading.PDFReport {
		if err := g.renderPDF(reportText); err != nil {
			g.logger.Warn().Err(err).Msg("PDF report rendering failed, text report is unaffected")
		}
	}

	return report, nil
}

// buildRubric extracts the assignment brief and runs the two-step chat
// sequence that derives grading context and then the rubric from it.
func (g *Grader) buildRubric(ctx context.Context, job *models.GradingJob) (string, error) {
	pages, err := g.extractor.ExtractDocument(ctx, job.AssignmentPDF)
	if err != nil {
		return "", err
	}
	assignmentText := joinPageTexts(pages)
	g.logger.Debug().
		Int("pages", len(pages)).
		Int("chars", len(assignmentText)).
		Msg("Assignment text extracted")

	contextResult := g.gateway.CompleteChat(ctx, []interfaces.Message{
		{Role: "user", Content: prompts.ContextPrompt(job.Course, job.AssignmentNumber, assignmentText)},
	})

	systemMessage, userMessage := prompts.RubricPrompt(contextResult.Text)
	rubricResult := g.gateway.CompleteChat(ctx, []interfaces.Message{
		{Role: "system", Content: systemMessage},
		{Role: "user", Content: userMessage},
	})

	return rubricResult.Text, nil
}

// evaluateSubmission extracts the submission and evaluates every embedded
// image against the rubric, page by page in document order.
func (g *Grader) evaluateSubmission(ctx context.Context, job *models.GradingJob, rubric string) (*Aggregator, error) {
	pages, err := g.extractor.ExtractDocument(ctx, job.SubmissionPDF)
	if err != nil {
		return nil, err
	}

	aggregator := NewAggregator()
	for _, page := range pages {
		prompt := prompts.EvaluationPrompt(rubric, page.Text, job.ArchitectName, g.config.Grading.PageTextLimit)
		for i, img := range page.Images {
			result := g.gateway.CompleteVision(ctx, prompt, img)
			aggregator.AddEvaluation(models.ImageEvaluation{
				PageNumber:  page.PageNumber,
				ImageNumber: i + 1,
				Text:        result.Text,
				Failed:      result.Failed(),
			})
			g.logger.Debug().
				Int("page", page.PageNumber).
				Int("image", i+1).
				Bool("failed", result.Failed()).
				Msg("Image evaluated")
		}
	}

	return aggregator, nil
}

func (g *Grader) renderPDF(reportText string) error {
	if g.renderer == nil {
		return fmt.Errorf("no report renderer configured")
	}

	data, err := g.renderer.ConvertMarkdownToPDF(reportText, "Evaluation Report")
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(g.config.Grading.ReportFile, filepath.Ext(g.config.Grading.ReportFile))
	pdfPath := base + ".pdf"
	if err := os.WriteFile(pdfPath, data, 0644); err != nil {
		return err
	}
	g.logger.Info().Str("path", pdfPath).Msg("PDF report written")
	return nil
}

func (g *Grader) writeOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func joinPageTexts(pages []interfaces.PageRecord) string {
	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		parts = append(parts, page.Text)
	}
	return strings.Join(parts, "\n")
}
