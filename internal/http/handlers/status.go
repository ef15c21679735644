package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// NoteStatus returns a snapshot of a note's processing state.
func (a *App) NoteStatus(w http.ResponseWriter, r *http.Request) {
	noteID := strings.TrimSpace(chi.URLParam(r, "noteId"))
	if _, err := uuid.Parse(noteID); err != nil {
		a.error(w, http.StatusBadRequest, "INVALID_NOTE_ID", "noteId must be a UUID")
		return
	}
	note, err := a.Notes.GetNote(r.Context(), noteID)
	if err != nil {
		a.writeNoteError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success":          true,
		"noteId":           note.ID,
		"status":           note.Status,
		"category":         note.Category,
		"tokensUsed":       note.TokensUsed,
		"processingTimeMs": note.ProcessingTimeMs,
		"hasProcessedText": note.HasProcessedText(),
		"createdAt":        note.CreatedAt,
		"updatedAt":        note.UpdatedAt,
	})
}
