// -----------------------------------------------------------------------
// Score Aggregator - folds per-image evaluations into category averages
// and a final total. Accumulation is commutative: feeding the same
// evaluations in any order yields the same averages and total.
// -----------------------------------------------------------------------

package grading

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/gradus/internal/models"
)

const maxScorePerCategory = 5

// Aggregator accumulates image evaluations and their parsed scores.
type Aggregator struct {
	evaluations []models.ImageEvaluation
	tallies     map[string]*models.CategoryTally
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		tallies: make(map[string]*models.CategoryTally),
	}
}

// AddEvaluation records one image evaluation. Failed evaluations are kept
// for the report but contribute no scores; successful ones are parsed and
// folded into the per-category tallies.
func (a *Aggregator) AddEvaluation(eval models.ImageEvaluation) {
	a.evaluations = append(a.evaluations, eval)
	if eval.Failed {
		return
	}

	for _, obs := range ParseScores(eval.Text) {
		tally, ok := a.tallies[obs.Category]
		if !ok {
			tally = &models.CategoryTally{Category: obs.Category}
			a.tallies[obs.Category] = tally
		}
		tally.ScoreSum += float64(obs.Score)
		tally.Observations++
	}
}

// Averages returns the per-category averages in alphabetical category
// order. Categories with no successfully parsed score never appear.
func (a *Aggregator) Averages() []models.CategoryAverage {
	averages := make([]models.CategoryAverage, 0, len(a.tallies))
	for _, tally := range a.tallies {
		averages = append(averages, models.CategoryAverage{
			Category:     tally.Category,
			Average:      tally.Average(),
			Observations: tally.Observations,
		})
	}
	sort.Slice(averages, func(i, j int) bool {
		return averages[i].Category < averages[j].Category
	})
	return averages
}

// SummaryText renders the score summary block: one line per category plus
// the final total. The maximum total is five points per observed category.
func (a *Aggregator) SummaryText() string {
	var sb strings.Builder

	finalScore := 0.0
	averages := a.Averages()
	for _, avg := range averages {
		noun := "images"
		if avg.Observations == 1 {
			noun = "image"
		}
		fmt.Fprintf(&sb, "%s: %.2f/%d (averaged over %d %s)\n",
			avg.Category, avg.Average, maxScorePerCategory, avg.Observations, noun)
		finalScore += avg.Average
	}

	fmt.Fprintf(&sb, "\nTOTAL SCORE: %.2f/%d\n", finalScore, maxScorePerCategory*len(averages))
	return sb.String()
}

// BuildReport assembles the final evaluation report from the accumulated
// state plus the rubric and closing text produced elsewhere.
func (a *Aggregator) BuildReport(runID, rubric, closing string) *models.EvaluationReport {
	averages := a.Averages()

	finalScore := 0.0
	for _, avg := range averages {
		finalScore += avg.Average
	}

	return &models.EvaluationReport{
		RunID:       runID,
		Rubric:      rubric,
		Evaluations: a.evaluations,
		Averages:    averages,
		FinalScore:  finalScore,
		MaxScore:    float64(maxScorePerCategory * len(averages)),
		Closing:     closing,
		CreatedAt:   time.Now().UTC(),
	}
}

// FormatReport renders the full report text written to the result file and
// printed to stdout. The section headings double as markdown for the
// optional PDF rendering.
func FormatReport(report *models.EvaluationReport) string {
	var sb strings.Builder

	sb.WriteString("# Evaluation Report\n\n")

	for _, eval := range report.Evaluations {
		fmt.Fprintf(&sb, "### Page %d Image %d Evaluation:\n\n%s\n\n",
			eval.PageNumber, eval.ImageNumber, strings.TrimSpace(eval.Text))
	}

	sb.WriteString("## Score Summary\n\n")
	for _, avg := range report.Averages {
		noun := "images"
		if avg.Observations == 1 {
			noun = "image"
		}
		fmt.Fprintf(&sb, "%s: %.2f/%d (averaged over %d %s)\n",
			avg.Category, avg.Average, maxScorePerCategory, avg.Observations, noun)
	}
	fmt.Fprintf(&sb, "\nTOTAL SCORE: %.2f/%.0f\n", report.FinalScore, report.MaxScore)

	sb.WriteString("\n## Closing Remarks\n\n")
	sb.WriteString(strings.TrimSpace(report.Closing))
	sb.WriteString("\n")

	return sb.String()
}
