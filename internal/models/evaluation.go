package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// GradingJob describes one grading run. All fields are validated with
// go-playground/validator before the pipeline starts.
type GradingJob struct {
	AssignmentPDF    string `json:"assignment_pdf" validate:"required,file"`
	SubmissionPDF    string `json:"submission_pdf" validate:"required,file"`
	ArchitectName    string `json:"architect_name" validate:"required"`
	Course           string `json:"course" validate:"required"`
	AssignmentNumber string `json:"assignment_number" validate:"required"`
}

// Validate checks the job fields, including that both PDF paths exist.
func (j *GradingJob) Validate() error {
	return validator.New().Struct(j)
}

// CategoryTally is the running sum/count of scores observed for one rubric
// category across all evaluated images. Keyed by category name exactly as it
// appears in the model's response (case-sensitive, whitespace-trimmed).
type CategoryTally struct {
	Category     string  `json:"category"`
	ScoreSum     float64 `json:"score_sum"`
	Observations int     `json:"observations"`
}

// Average returns the mean score for this category. Callers must not invoke
// it for a tally with zero observations.
func (t *CategoryTally) Average() float64 {
	return t.ScoreSum / float64(t.Observations)
}

// ImageEvaluation holds the verbatim model response for one (page, image)
// pair. Failed marks responses where the model call itself failed and a
// sentinel was substituted; such responses contribute no scores.
type ImageEvaluation struct {
	PageNumber  int    `json:"page_number"`  // 1-based
	ImageNumber int    `json:"image_number"` // 1-based within the page
	Text        string `json:"text"`
	Failed      bool   `json:"failed"`
}

// CategoryAverage is one summary line of the final report.
type CategoryAverage struct {
	Category     string  `json:"category"`
	Average      float64 `json:"average"`
	Observations int     `json:"observations"`
}

// EvaluationReport is the final grading output: ordered per-image evaluation
// texts, per-category averages, a total score out of 5 x category count, and
// a closing narrative paragraph.
type EvaluationReport struct {
	RunID       string            `json:"run_id"`
	Rubric      string            `json:"rubric"`
	Evaluations []ImageEvaluation `json:"evaluations"`
	Averages    []CategoryAverage `json:"averages"`
	FinalScore  float64           `json:"final_score"`
	MaxScore    float64           `json:"max_score"`
	Closing     string            `json:"closing"`
	CreatedAt   time.Time         `json:"created_at"`
}
