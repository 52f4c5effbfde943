// -----------------------------------------------------------------------
// Score Parser - line-oriented extraction of rubric scores from model text
//
// Grammar (one pass over lines, in order):
//   header line:  ^\*\*(.+)\*\*$        after trimming; sets the pending
//                                       category to the trimmed inner text;
//                                       a later header replaces an earlier one
//   score line:   ^score:\s*([^/]+)/    case-insensitive, only while a
//                                       category is pending; the capture must
//                                       parse as an integer or the line is
//                                       silently skipped
// Everything else is ignored for scoring. Category identity is the literal
// header text (case-sensitive, whitespace-trimmed); wording drift between
// responses fragments categories rather than being fuzzily merged.
// -----------------------------------------------------------------------

package grading

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headerPattern = regexp.MustCompile(`^\*\*(.+)\*\*$`)
	scorePattern  = regexp.MustCompile(`(?i)^score:\s*([^/]+)/`)
)

// ScoreObservation is one successfully parsed category score
type ScoreObservation struct {
	Category string
	Score    int
}

// ParseScores scans a model response line by line and returns the score
// observations it contains, in order of appearance. Malformed score lines
// contribute nothing and surface no error.
func ParseScores(response string) []ScoreObservation {
	var observations []ScoreObservation

	pendingCategory := ""
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)

		if m := headerPattern.FindStringSubmatch(line); m != nil {
			pendingCategory = strings.TrimSpace(m[1])
			continue
		}

		if pendingCategory == "" {
			continue
		}

		m := scorePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		score, err := strconv.Atoi(strings.TrimSpace(m[1]))
		if err != nil {
			// Malformed score value: skip the line, keep the category pending
			continue
		}

		observations = append(observations, ScoreObservation{
			Category: pendingCategory,
			Score:    score,
		})
		pendingCategory = ""
	}

	return observations
}
