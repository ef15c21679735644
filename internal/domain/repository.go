package domain

import (
	"context"
	"time"
)

// NoteStore defines every operation the relay performs against the external note store.
type NoteStore interface {
	GetNote(ctx context.Context, id string) (*Note, error)
	CreateNote(ctx context.Context, note NewNote) (*Note, error)
	// ClaimNote moves a note to processing when it is pending, failed, or stuck in
	// processing since before staleBefore. It returns ErrNoteBusy when the swap fails.
	ClaimNote(ctx context.Context, id string, staleBefore time.Time) (*Note, error)
	// RejectNote marks a note failed with processedText under the same condition
	// as ClaimNote, so a completed or in-flight note is never overwritten.
	RejectNote(ctx context.Context, id, processedText string, staleBefore time.Time) (*Note, error)
	UpdateNote(ctx context.Context, id string, update NoteUpdate) (*Note, error)
	CheckUserLimit(ctx context.Context, userID string) (*UsageLimit, error)
	IncrementMonthlyNotes(ctx context.Context, userID string) (int, error)
	Stats(ctx context.Context) (*NoteStats, error)
	Ping(ctx context.Context) error
	Backend() string
}
