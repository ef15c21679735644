package domain

// NoteStats aggregates store wide counters.
type NoteStats struct {
	TotalNotes          int
	ByStatus            map[NoteStatus]int
	ByCategory          map[NoteCategory]int
	TotalTokens         int64
	AvgProcessingTimeMs float64
	ProfilesByTier      map[SubscriptionTier]int
}

// SuccessRate returns completed notes over terminal notes as a percentage.
func (s NoteStats) SuccessRate() float64 {
	done := s.ByStatus[NoteStatusCompleted]
	terminal := done + s.ByStatus[NoteStatusFailed]
	if terminal == 0 {
		return 0
	}
	return float64(done) * 100 / float64(terminal)
}
