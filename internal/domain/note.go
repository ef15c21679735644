package domain

import "time"

// NoteCategory enumerates the note kinds that select a prompt template.
type NoteCategory string

const (
	CategoryMeeting NoteCategory = "meeting"
	CategoryTodo    NoteCategory = "todo"
	CategoryIdea    NoteCategory = "idea"
	CategoryGeneral NoteCategory = "general"
)

// Categories lists every supported category in display order.
var Categories = []NoteCategory{CategoryMeeting, CategoryTodo, CategoryIdea, CategoryGeneral}

// Valid reports whether c is one of the supported categories.
func (c NoteCategory) Valid() bool {
	switch c {
	case CategoryMeeting, CategoryTodo, CategoryIdea, CategoryGeneral:
		return true
	}
	return false
}

// NoteStatus enumerates processing lifecycle states.
type NoteStatus string

const (
	NoteStatusPending    NoteStatus = "pending"
	NoteStatusProcessing NoteStatus = "processing"
	NoteStatusCompleted  NoteStatus = "completed"
	NoteStatusFailed     NoteStatus = "failed"
)

// Terminal reports whether the status ends a processing attempt.
func (s NoteStatus) Terminal() bool {
	return s == NoteStatusCompleted || s == NoteStatusFailed
}

// Note is a captured piece of speech text plus its enhanced counterpart.
type Note struct {
	ID               string
	UserID           string
	OriginalText     string
	ProcessedText    *string
	Category         NoteCategory
	Status           NoteStatus
	TokensUsed       int
	ProcessingTimeMs int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasProcessedText reports whether a non-empty processed text is stored.
func (n Note) HasProcessedText() bool {
	return n.ProcessedText != nil && *n.ProcessedText != ""
}

// NoteUpdate carries the fields written when a note reaches a terminal state.
// Nil pointers leave the stored value untouched.
type NoteUpdate struct {
	Status           NoteStatus
	ProcessedText    *string
	TokensUsed       *int
	ProcessingTimeMs *int
}

// NewNote holds the client supplied fields for note creation.
type NewNote struct {
	UserID       string
	OriginalText string
	Category     NoteCategory
}
