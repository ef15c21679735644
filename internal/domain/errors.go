package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidNote = errors.New("invalid note")
	ErrNoteBusy    = errors.New("note is already being processed")
	ErrProcessing  = errors.New("processing error")
	ErrUnavailable = errors.New("dependency unavailable")
)

// LimitError is returned when a user has exhausted the monthly allowance.
type LimitError struct {
	CurrentCount int
	Limit        int
	Tier         SubscriptionTier
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("monthly limit reached: %d/%d notes on %s tier", e.CurrentCount, e.Limit, e.Tier)
}
