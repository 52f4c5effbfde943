// Package prompts holds the fixed instructional templates sent to the model.
// All functions are pure: they render a template with interpolated context
// and have no side effects.
package prompts

import (
	"fmt"
)

// ContextPrompt asks the model to derive grading context for an assignment:
// anticipated common mistakes, mitigations, FAQ guidance, visual-quality
// criteria, and a scoring breakdown strategy.
func ContextPrompt(course, assignmentNumber, assignmentText string) string {
	return fmt.Sprintf(
		"You will be evaluating student submission as an autograder for %s. "+
			"Here is instruction for Assignment %s:\n%s\n"+
			"Please answer the following in order:\n"+
			"1. What common problem do you envision among student submissions?\n"+
			"2. What common problem could be minimized?\n"+
			"3. What are the essential advice, FAQs for students to better understand for this assignment?\n"+
			"4. Visual reasoning is required for grading images, what are you looking for for good quality images?\n"+
			"   * High resolution\n"+
			"   * Spatial clarity\n"+
			"   * Clear perspective\n"+
			"   * Understandable shapes\n"+
			"   * Not visually confusing\n"+
			"5. How are you going to break each part based on quantitative and qualitative evaluation?",
		course, assignmentNumber, assignmentText)
}

// RubricPrompt instructs the model to produce a rubric scored out of 5 per
// category from the context summary. Returns the system and user messages.
func RubricPrompt(contextSummary string) (systemMessage, userMessage string) {
	systemMessage = "Based on the assignment context and the issues identified, produce a detailed rubric " +
		"with clear criteria and scoring guidelines out of 5 points for each category."
	userMessage = contextSummary
	return systemMessage, userMessage
}

// evaluationTemplate is the fixed grading instruction. The formatting
// contract at the bottom is load-bearing: the score parser depends on
// category headers wrapped in double asterisks followed by a line beginning
// with "Score:" containing "n/5".
const evaluationTemplate = `
Now, you will begin to evaluate a student's architecture assignment on the architect %s.

This is a formal submission for university credit. You are receiving the full document as **images**, so you can directly observe the formatting, embedded images, captions, structure, and layout.
---
###  How to Grade:
Your role is to critically assess this university-level submission with academic rigor. These assignments are not informal design exercises — they are formal evaluations that contribute to course credit. The student will receive and revise based on your feedback, so your comments must be clear, constructive, and directly tied to the rubric.
Be Fair and Constructive
    - Acknowledge when a student does something well, but avoid vague praise like “good job” — always explain why it works.
    - If something falls short — poor layout, unclear citations, missing sections — call it out. Use phrases like “needs revision” or “this should be improved by…” followed by specific, actionable advice.
Do Not Sugarcoat
    - Don’t assume good intentions compensate for missing elements. Every section is held to the same professional and academic standard.
    - If key parts (e.g., APA citations, required image counts, biographical detail) are missing or flawed, say so plainly and reduce the score accordingly.
When Something is Strong, note It
    - If an image citation is consistent across the document, or if the architectural description is especially well-written, say so.
    - Strong layout and professionalism should be highlighted — this helps students understand what to keep and build on.
Prioritize These Elements Above All
    1. Accuracy of Academic Citations
    2. Caption and Image Attribution Clarity
    3. Clear Distinction Between Interior vs Exterior Images
    4. Overall Layout and Visual Professionalism
---
###  Additional Clarifications:
-  Images are embedded (not just links)
-  Captions below images include attribution (URLs or photographer names)
-  A student photo and bio appear on Page 2
-  Table of Contents is present
-  10 buildings are described
-  Redundant links are likely citations, not missing content
-  If you see an unrelevant image on the very first few pages, it may be an image of the student themselves. Do not grade that image.
---
Now consider the following context from the student document:
### Nearby Text:
%s
---
### RUBRIC
%s
Please assess the submission. For every category:
1. Give a **detailed justification** (1–2 paragraphs)
2. Assign a score **out of 5** based on the detailed rubric below
Format:
**[Category Name]**
Justification: ...
Score: x/5
Start your rubric-based evaluation below:
`

// EvaluationPrompt renders the grading instruction for one submission image,
// interpolating the rubric and a page-text snippet. pageTextLimit caps the
// snippet length (<= 0 selects the 1000-character default).
func EvaluationPrompt(rubric, pageText, architectName string, pageTextLimit int) string {
	if pageTextLimit <= 0 {
		pageTextLimit = 1000
	}
	if len(pageText) > pageTextLimit {
		pageText = pageText[:pageTextLimit]
	}
	return fmt.Sprintf(evaluationTemplate, architectName, pageText, rubric)
}

// ClosingPrompt asks the model for a short closing paragraph appended to the
// end of the evaluation report.
func ClosingPrompt(summary string) string {
	return "Here is the score summary of a student's graded architecture assignment:\n" +
		summary + "\n" +
		"Write a short closing paragraph for the student in the second person. " +
		"Be encouraging and constructive, speak about the work rather than the person, " +
		"and do not restate the numeric scores."
}
