package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextPrompt(t *testing.T) {
	prompt := ContextPrompt("COGS 160", "2", "Design a pavilion for quiet study.")

	assert.Contains(t, prompt, "COGS 160")
	assert.Contains(t, prompt, "Assignment 2")
	assert.Contains(t, prompt, "Design a pavilion for quiet study.")
	assert.Contains(t, prompt, "5. How are you going to break each part")
}

func TestRubricPrompt(t *testing.T) {
	system, user := RubricPrompt("context summary text")

	assert.Contains(t, system, "out of 5 points for each category")
	assert.Equal(t, "context summary text", user)
}

func TestEvaluationPrompt(t *testing.T) {
	prompt := EvaluationPrompt("RUBRIC BODY", "nearby page text", "Luis Barragan", 1000)

	assert.Contains(t, prompt, "Luis Barragan")
	assert.Contains(t, prompt, "nearby page text")
	assert.Contains(t, prompt, "RUBRIC BODY")
	// The formatting contract the score parser depends on
	assert.Contains(t, prompt, "**[Category Name]**")
	assert.Contains(t, prompt, "Score: x/5")
}

func TestEvaluationPrompt_TruncatesPageText(t *testing.T) {
	longText := strings.Repeat("a", 500) + "MARKER"

	prompt := EvaluationPrompt("rubric", longText, "Luis Barragan", 500)

	assert.NotContains(t, prompt, "MARKER")
	assert.Contains(t, prompt, strings.Repeat("a", 500))
}

func TestEvaluationPrompt_DefaultLimit(t *testing.T) {
	longText := strings.Repeat("b", 1000) + "OVERFLOW"

	prompt := EvaluationPrompt("rubric", longText, "Luis Barragan", 0)

	assert.NotContains(t, prompt, "OVERFLOW")
}

func TestClosingPrompt(t *testing.T) {
	prompt := ClosingPrompt("Clarity: 4.00/5\nTOTAL SCORE: 4.00/5")

	assert.Contains(t, prompt, "Clarity: 4.00/5")
	assert.Contains(t, prompt, "second person")
}
