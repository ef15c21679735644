package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"notesrelay/internal/middleware"
)

const maxBodyBytes = 1 << 20

type processRequest struct {
	NoteID string `json:"noteId"`
}

type processResponse struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	Note             noteJSON `json:"note"`
	OpenAISuccess    bool     `json:"openaiSuccess"`
	AlreadyProcessed bool     `json:"alreadyProcessed"`
	TokensUsed       int      `json:"tokensUsed"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
	Warnings         []string `json:"warnings"`
}

// ProcessNote runs the processor for the note named in the body.
func (a *App) ProcessNote(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Request body must be a JSON object")
		return
	}
	noteID := strings.TrimSpace(req.NoteID)
	if noteID == "" {
		a.error(w, http.StatusBadRequest, "MISSING_NOTE_ID", "noteId is required")
		return
	}
	if _, err := uuid.Parse(noteID); err != nil {
		a.error(w, http.StatusBadRequest, "INVALID_NOTE_ID", "noteId must be a UUID")
		return
	}

	res, err := a.Processor.Process(r.Context(), noteID)
	if err != nil {
		a.Logger.Warn().
			Err(err).
			Str("note_id", noteID).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("process note failed")
		a.writeNoteError(w, err)
		return
	}

	msg := "Note processed successfully"
	switch {
	case res.AlreadyProcessed:
		msg = "Note already processed"
	case !res.OpenAISuccess:
		msg = "Completion service unavailable, fallback formatting applied"
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	a.json(w, http.StatusOK, processResponse{
		Success:          true,
		Message:          msg,
		Note:             toNoteJSON(res.Note),
		OpenAISuccess:    res.OpenAISuccess,
		AlreadyProcessed: res.AlreadyProcessed,
		TokensUsed:       res.TokensUsed,
		ProcessingTimeMs: res.ProcessingTime.Milliseconds(),
		Warnings:         warnings,
	})
}
