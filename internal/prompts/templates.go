// Package prompts holds the static category to instruction mapping used when a
// note is sent to the completion service, plus the locally rendered fallback
// used when that call fails.
package prompts

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"notesrelay/internal/domain"
)

// TextSlot is the single substitution point inside an instruction.
const TextSlot = "{text}"

// SystemMessage primes the model for every category.
const SystemMessage = "You are a helpful assistant that turns raw voice transcriptions into clean, well organized notes. Keep the user's meaning, fix transcription mistakes, and answer in the language of the input."

// Template pairs the instruction sent to the model with the static fallback.
type Template struct {
	Category    domain.NoteCategory
	Instruction string
	fallback    string
}

var templates = map[domain.NoteCategory]Template{
	domain.CategoryMeeting: {
		Category:    domain.CategoryMeeting,
		Instruction: "Organize the following meeting notes. Produce a short summary, the key discussion points, the decisions made, and a list of action items with owners when mentioned.\n\nMeeting notes:\n" + TextSlot,
		fallback:    "MEETING NOTES\n\nSummary:\n%s\n\nAction items:\n- Review the notes above and assign follow ups\n\n(Automatic formatting was unavailable; the original transcription is kept as is.)",
	},
	domain.CategoryTodo: {
		Category:    domain.CategoryTodo,
		Instruction: "Turn the following text into a clear, actionable to-do list. One task per line, starting with a verb, grouped by priority when the text implies one.\n\nText:\n" + TextSlot,
		fallback:    "TO-DO LIST\n\n- [ ] %s\n\n(Automatic formatting was unavailable; the original transcription is kept as is.)",
	},
	domain.CategoryIdea: {
		Category:    domain.CategoryIdea,
		Instruction: "Develop the following idea into a structured note: the core concept, why it matters, open questions, and possible next steps.\n\nIdea:\n" + TextSlot,
		fallback:    "IDEA\n\n%s\n\nNext steps:\n- Expand on this idea when you have a moment\n\n(Automatic formatting was unavailable; the original transcription is kept as is.)",
	},
	domain.CategoryGeneral: {
		Category:    domain.CategoryGeneral,
		Instruction: "Clean up the following transcription. Fix grammar and punctuation, split it into readable paragraphs, and keep the original meaning.\n\nTranscription:\n" + TextSlot,
		fallback:    "NOTE\n\n%s\n\n(Automatic formatting was unavailable; the original transcription is kept as is.)",
	},
}

var folder = cases.Fold()

// Normalize maps raw client input to a category. The second return value is
// false when the input was not recognized and general was substituted.
func Normalize(raw string) (domain.NoteCategory, bool) {
	c := domain.NoteCategory(folder.String(strings.TrimSpace(raw)))
	if c.Valid() {
		return c, true
	}
	return domain.CategoryGeneral, false
}

// Select returns the template for raw. Unknown input yields the general
// template with ok=false so callers can emit a warning.
func Select(raw string) (Template, bool) {
	c, ok := Normalize(raw)
	return templates[c], ok
}

// Render substitutes text into the instruction.
func (t Template) Render(text string) string {
	return strings.Replace(t.Instruction, TextSlot, text, 1)
}

// Fallback wraps text verbatim in the category's static layout.
func (t Template) Fallback(text string) string {
	return fmt.Sprintf(t.fallback, text)
}

// LimitSuffix is appended to the original text when the monthly allowance is exhausted.
func LimitSuffix(limit *domain.LimitError) string {
	return fmt.Sprintf("\n\n[Processing skipped: monthly limit reached (%d/%d notes on the %s tier). Upgrade or wait for next month to enhance this note.]", limit.CurrentCount, limit.Limit, limit.Tier)
}
