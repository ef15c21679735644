package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"notesrelay/internal/domain"
	"notesrelay/internal/prompts"
)

type createNoteRequest struct {
	UserID       string `json:"userId"`
	OriginalText string `json:"originalText"`
	Category     string `json:"category"`
}

// CreateNote registers a pending note so later process calls can find it.
func (a *App) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Request body must be a JSON object")
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		a.error(w, http.StatusBadRequest, "INVALID_USER_ID", "userId must be a UUID")
		return
	}
	text := strings.TrimSpace(req.OriginalText)
	if text == "" {
		a.error(w, http.StatusBadRequest, "MISSING_ORIGINAL_TEXT", "originalText is required")
		return
	}
	if n := utf8.RuneCountInString(text); n > a.Config.MaxNoteLength {
		a.error(w, http.StatusBadRequest, "NOTE_TOO_LONG", fmt.Sprintf("originalText exceeds %d characters", a.Config.MaxNoteLength))
		return
	}

	warnings := []string{}
	category, ok := prompts.Normalize(req.Category)
	if !ok && strings.TrimSpace(req.Category) != "" {
		msg := fmt.Sprintf("unknown category %q, using %s", req.Category, domain.CategoryGeneral)
		a.Logger.Warn().Str("category", req.Category).Msg("unknown note category")
		warnings = append(warnings, msg)
	}

	note, err := a.Notes.CreateNote(r.Context(), domain.NewNote{
		UserID:       userID.String(),
		OriginalText: text,
		Category:     category,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("create note")
		a.internalError(w, "CREATE_NOTE_ERROR", "Failed to create note", err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"success":  true,
		"note":     toNoteJSON(note),
		"warnings": warnings,
	})
}
