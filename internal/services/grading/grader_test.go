package grading

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gradus/internal/common"
	"github.com/ternarybob/gradus/internal/interfaces"
	"github.com/ternarybob/gradus/internal/models"
)

// scriptedLLM returns canned chat responses in order and a fixed vision
// response, recording every call it receives.
type scriptedLLM struct {
	chatResponses []string
	chatCalls     [][]interfaces.Message
	chatErr       error

	visionResponse string
	visionCalls    []string
	visionErr      error
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.chatCalls = append(s.chatCalls, messages)
	if s.chatErr != nil {
		return "", s.chatErr
	}
	response := s.chatResponses[0]
	if len(s.chatResponses) > 1 {
		s.chatResponses = s.chatResponses[1:]
	}
	return response, nil
}

func (s *scriptedLLM) Vision(ctx context.Context, prompt string, imagePNGBase64 string) (string, error) {
	s.visionCalls = append(s.visionCalls, prompt)
	if s.visionErr != nil {
		return "", s.visionErr
	}
	return s.visionResponse, nil
}

func (s *scriptedLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *scriptedLLM) GetMode() interfaces.LLMMode           { return interfaces.LLMModeOffline }
func (s *scriptedLLM) Close() error                          { return nil }

// fakeExtractor serves fixed page records per document path.
type fakeExtractor struct {
	documents map[string][]interfaces.PageRecord
}

func (f *fakeExtractor) ExtractDocument(ctx context.Context, path string) ([]interfaces.PageRecord, error) {
	pages, ok := f.documents[path]
	if !ok {
		return nil, &interfaces.DocumentReadError{Path: path, Err: errors.New("not found")}
	}
	return pages, nil
}

func newTestConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Grading.RubricFile = filepath.Join(dir, "rubric.txt")
	cfg.Grading.ReportFile = filepath.Join(dir, "evaluation_result.txt")
	return cfg
}

func touchPDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))
	return path
}

func TestGrader_Run(t *testing.T) {
	dir := t.TempDir()
	assignmentPath := touchPDF(t, dir, "assignment.pdf")
	submissionPath := touchPDF(t, dir, "submission.pdf")

	llmSvc := &scriptedLLM{
		chatResponses: []string{
			"Context: studio assignment on daylight.",
			"Rubric:\n1. Clarity\n2. Use of Light",
			"A thoughtful closing paragraph for the student.",
		},
		visionResponse: "**Clarity**\nScore: 4/5\n**Use of Light**\nScore: 2/5",
	}
	extractor := &fakeExtractor{documents: map[string][]interfaces.PageRecord{
		assignmentPath: {
			{PageNumber: 1, Text: "Design a pavilion."},
			{PageNumber: 2, Text: "Study Barragan's use of light."},
		},
		submissionPath: {
			{PageNumber: 1, Text: "Concept page", Images: []interfaces.EncodedImage{"aW1nMQ=="}},
			{PageNumber: 2, Text: "Sections", Images: []interfaces.EncodedImage{"aW1nMg=="}},
		},
	}}

	cfg := newTestConfig(t)
	logger := arbor.NewLogger()
	grader := NewGrader(cfg, logger, extractor, NewGateway(llmSvc, "test", nil, logger), nil)

	job := &models.GradingJob{
		AssignmentPDF:    assignmentPath,
		SubmissionPDF:    submissionPath,
		ArchitectName:    "Luis Barragan",
		Course:           "COGS 160",
		AssignmentNumber: "2",
	}

	report, err := grader.Run(context.Background(), job)
	require.NoError(t, err)

	// Context, rubric, closing: three chat calls in order
	require.Len(t, llmSvc.chatCalls, 3)
	assert.Contains(t, llmSvc.chatCalls[0][0].Content, "Design a pavilion.")
	assert.Contains(t, llmSvc.chatCalls[0][0].Content, "COGS 160")
	assert.Contains(t, llmSvc.chatCalls[1][len(llmSvc.chatCalls[1])-1].Content, "Context: studio assignment on daylight.")
	assert.Contains(t, llmSvc.chatCalls[2][0].Content, "Clarity: 4.00/5")

	// One vision call per submission image, each carrying the rubric
	require.Len(t, llmSvc.visionCalls, 2)
	assert.Contains(t, llmSvc.visionCalls[0], "Rubric:")
	assert.Contains(t, llmSvc.visionCalls[0], "Luis Barragan")
	assert.Contains(t, llmSvc.visionCalls[0], "Concept page")
	assert.Contains(t, llmSvc.visionCalls[1], "Sections")

	require.Len(t, report.Evaluations, 2)
	assert.Equal(t, 1, report.Evaluations[0].PageNumber)
	assert.Equal(t, 2, report.Evaluations[1].PageNumber)

	require.Len(t, report.Averages, 2)
	assert.InDelta(t, 4.0+2.0, report.FinalScore, 0.0001)
	assert.InDelta(t, 10.0, report.MaxScore, 0.0001)
	assert.Equal(t, "A thoughtful closing paragraph for the student.", report.Closing)

	rubric, err := os.ReadFile(cfg.Grading.RubricFile)
	require.NoError(t, err)
	assert.Equal(t, "Rubric:\n1. Clarity\n2. Use of Light", string(rubric))

	result, err := os.ReadFile(cfg.Grading.ReportFile)
	require.NoError(t, err)
	text := string(result)
	assert.Contains(t, text, "### Page 1 Image 1 Evaluation:")
	assert.Contains(t, text, "### Page 2 Image 1 Evaluation:")
	assert.Contains(t, text, "Clarity: 4.00/5 (averaged over 2 images)")
	assert.Contains(t, text, "Use of Light: 2.00/5 (averaged over 2 images)")
	assert.Contains(t, text, "TOTAL SCORE: 6.00/10")
	assert.Contains(t, text, "A thoughtful closing paragraph for the student.")
}

func TestGrader_Run_MissingAssignmentAborts(t *testing.T) {
	dir := t.TempDir()
	assignmentPath := touchPDF(t, dir, "assignment.pdf")
	submissionPath := touchPDF(t, dir, "submission.pdf")

	// Extractor knows neither document
	extractor := &fakeExtractor{documents: map[string][]interfaces.PageRecord{}}
	llmSvc := &scriptedLLM{chatResponses: []string{"unused"}}

	cfg := newTestConfig(t)
	logger := arbor.NewLogger()
	grader := NewGrader(cfg, logger, extractor, NewGateway(llmSvc, "test", nil, logger), nil)

	_, err := grader.Run(context.Background(), &models.GradingJob{
		AssignmentPDF:    assignmentPath,
		SubmissionPDF:    submissionPath,
		ArchitectName:    "Luis Barragan",
		Course:           "COGS 160",
		AssignmentNumber: "2",
	})

	var readErr *interfaces.DocumentReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, assignmentPath, readErr.Path)
	assert.Empty(t, llmSvc.chatCalls)
}

func TestGrader_Run_ModelFailuresDegradeToSentinels(t *testing.T) {
	dir := t.TempDir()
	assignmentPath := touchPDF(t, dir, "assignment.pdf")
	submissionPath := touchPDF(t, dir, "submission.pdf")

	llmSvc := &scriptedLLM{
		chatErr:   errors.New("rate limited"),
		visionErr: errors.New("timeout"),
	}
	extractor := &fakeExtractor{documents: map[string][]interfaces.PageRecord{
		assignmentPath: {{PageNumber: 1, Text: "Brief"}},
		submissionPath: {{PageNumber: 1, Text: "Page", Images: []interfaces.EncodedImage{"aW1n"}}},
	}}

	cfg := newTestConfig(t)
	logger := arbor.NewLogger()
	grader := NewGrader(cfg, logger, extractor, NewGateway(llmSvc, "test", nil, logger), nil)

	report, err := grader.Run(context.Background(), &models.GradingJob{
		AssignmentPDF:    assignmentPath,
		SubmissionPDF:    submissionPath,
		ArchitectName:    "Luis Barragan",
		Course:           "COGS 160",
		AssignmentNumber: "2",
	})
	require.NoError(t, err)

	// Rubric file carries the chat sentinel, report carries the vision one
	rubric, err := os.ReadFile(cfg.Grading.RubricFile)
	require.NoError(t, err)
	assert.Equal(t, ChatFailedSentinel, string(rubric))

	require.Len(t, report.Evaluations, 1)
	assert.True(t, report.Evaluations[0].Failed)
	assert.Equal(t, VisionFailedSentinel, report.Evaluations[0].Text)
	assert.Empty(t, report.Averages)
	assert.Equal(t, ChatFailedSentinel, report.Closing)

	result, err := os.ReadFile(cfg.Grading.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(result), VisionFailedSentinel)
	assert.Contains(t, string(result), "TOTAL SCORE: 0.00/0")
}

func TestGrader_Run_InvalidJobRejected(t *testing.T) {
	cfg := newTestConfig(t)
	logger := arbor.NewLogger()
	grader := NewGrader(cfg, logger, &fakeExtractor{}, NewGateway(&scriptedLLM{}, "test", nil, logger), nil)

	_, err := grader.Run(context.Background(), &models.GradingJob{
		AssignmentPDF: filepath.Join(t.TempDir(), "missing.pdf"),
		SubmissionPDF: filepath.Join(t.TempDir(), "missing.pdf"),
		ArchitectName: "Luis Barragan",
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid grading job"))
}
