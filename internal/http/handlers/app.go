package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"notesrelay/internal/domain"
	"notesrelay/internal/http/respond"
	"notesrelay/internal/infra"
	"notesrelay/internal/processor"
	"notesrelay/internal/providers/completion"
)

// App carries the collaborators shared by every handler.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	Processor *processor.Processor
	Notes     domain.NoteStore
	Completer completion.Completer
	StartedAt time.Time
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, proc *processor.Processor, notes domain.NoteStore, completer completion.Completer) *App {
	return &App{
		Config:    cfg,
		Logger:    logger,
		Processor: proc,
		Notes:     notes,
		Completer: completer,
		StartedAt: time.Now(),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	respond.JSON(w, code, v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	respond.Error(w, code, errCode, message, nil)
}

// internalError hides err outside development.
func (a *App) internalError(w http.ResponseWriter, errCode, message string, err error) {
	var extra map[string]any
	if a.Config.IsDevelopment() && err != nil {
		extra = map[string]any{"details": err.Error()}
	}
	respond.Error(w, http.StatusInternalServerError, errCode, message, extra)
}

// writeNoteError maps domain errors raised while handling a note.
func (a *App) writeNoteError(w http.ResponseWriter, err error) {
	var limit *domain.LimitError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "NOTE_NOT_FOUND", "Note not found")
	case errors.As(err, &limit):
		respond.Error(w, http.StatusTooManyRequests, "USAGE_LIMIT_REACHED",
			fmt.Sprintf("Monthly limit reached (%d/%d notes on the %s tier)", limit.CurrentCount, limit.Limit, limit.Tier),
			map[string]any{
				"currentCount": limit.CurrentCount,
				"limit":        limit.Limit,
				"tier":         limit.Tier,
			})
	case errors.Is(err, domain.ErrNoteBusy):
		a.error(w, http.StatusConflict, "NOTE_PROCESSING_IN_PROGRESS", "Note is already being processed")
	default:
		a.internalError(w, "PROCESSING_ERROR", "Failed to process note", err)
	}
}

type noteJSON struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	OriginalText     string    `json:"originalText"`
	ProcessedText    *string   `json:"processedText"`
	Category         string    `json:"category"`
	Status           string    `json:"status"`
	TokensUsed       int       `json:"tokensUsed"`
	ProcessingTimeMs int       `json:"processingTimeMs"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toNoteJSON(n *domain.Note) noteJSON {
	return noteJSON{
		ID:               n.ID,
		UserID:           n.UserID,
		OriginalText:     n.OriginalText,
		ProcessedText:    n.ProcessedText,
		Category:         string(n.Category),
		Status:           string(n.Status),
		TokensUsed:       n.TokensUsed,
		ProcessingTimeMs: n.ProcessingTimeMs,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
	}
}
