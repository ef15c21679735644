package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"notesrelay/internal/domain"
	"notesrelay/internal/infra"
)

// MemoryNoteStore is an in-process stand-in for the managed note store, used
// for local runs and tests. It mirrors the conditional claim and the monthly
// counter routines of the Postgres schema.
type MemoryNoteStore struct {
	mu       sync.Mutex
	notes    map[string]*domain.Note
	profiles map[string]*domain.Profile
	limits   domain.TierLimits
	now      func() time.Time
}

// NewMemoryNoteStore creates an empty store enforcing the given tier limits.
func NewMemoryNoteStore(limits domain.TierLimits) *MemoryNoteStore {
	if limits == nil {
		limits = domain.DefaultTierLimits()
	}
	return &MemoryNoteStore{
		notes:    make(map[string]*domain.Note),
		profiles: make(map[string]*domain.Profile),
		limits:   limits,
		now:      time.Now,
	}
}

// SeedNote stores n as is, generating an identifier and timestamps when missing.
func (m *MemoryNoteStore) SeedNote(n domain.Note) domain.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = domain.NoteStatusPending
	}
	if n.Category == "" {
		n.Category = domain.CategoryGeneral
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	stored := n
	m.notes[n.ID] = &stored
	return cloneNote(&stored)
}

// SeedProfile stores p, replacing any existing profile with the same identifier.
func (m *MemoryNoteStore) SeedProfile(p domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.SubscriptionTier == "" {
		p.SubscriptionTier = domain.TierFree
	}
	if p.CountResetAt.IsZero() {
		p.CountResetAt = monthStart(m.now())
	}
	p.MonthlyLimit = m.limits.For(p.SubscriptionTier)
	stored := p
	m.profiles[p.ID] = &stored
}

// Profile returns a copy of the stored profile.
func (m *MemoryNoteStore) Profile(id string) (domain.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domain.Profile{}, false
	}
	return *p, true
}

func (m *MemoryNoteStore) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := cloneNote(n)
	return &c, nil
}

func (m *MemoryNoteStore) CreateNote(ctx context.Context, n domain.NewNote) (*domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	note := m.SeedNote(domain.Note{
		UserID:       n.UserID,
		OriginalText: n.OriginalText,
		Category:     n.Category,
		Status:       domain.NoteStatusPending,
	})
	return &note, nil
}

func (m *MemoryNoteStore) ClaimNote(ctx context.Context, id string, staleBefore time.Time) (*domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !claimable(n, staleBefore) {
		return nil, domain.ErrNoteBusy
	}
	n.Status = domain.NoteStatusProcessing
	n.UpdatedAt = m.now()
	c := cloneNote(n)
	return &c, nil
}

func (m *MemoryNoteStore) RejectNote(ctx context.Context, id, processedText string, staleBefore time.Time) (*domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !claimable(n, staleBefore) {
		return nil, domain.ErrNoteBusy
	}
	n.Status = domain.NoteStatusFailed
	n.ProcessedText = &processedText
	n.UpdatedAt = m.now()
	c := cloneNote(n)
	return &c, nil
}

func (m *MemoryNoteStore) UpdateNote(ctx context.Context, id string, u domain.NoteUpdate) (*domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	n.Status = u.Status
	if u.ProcessedText != nil {
		text := *u.ProcessedText
		n.ProcessedText = &text
	}
	if u.TokensUsed != nil {
		n.TokensUsed = *u.TokensUsed
	}
	if u.ProcessingTimeMs != nil {
		n.ProcessingTimeMs = *u.ProcessingTimeMs
	}
	n.UpdatedAt = m.now()
	c := cloneNote(n)
	return &c, nil
}

func (m *MemoryNoteStore) CheckUserLimit(ctx context.Context, userID string) (*domain.UsageLimit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profileLocked(userID)
	return &domain.UsageLimit{
		CanProcess:   p.Unlimited() || p.MonthlyNotesCount < p.MonthlyLimit,
		CurrentCount: p.MonthlyNotesCount,
		Limit:        p.MonthlyLimit,
		Tier:         p.SubscriptionTier,
	}, nil
}

func (m *MemoryNoteStore) IncrementMonthlyNotes(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profileLocked(userID)
	p.MonthlyNotesCount++
	p.UpdatedAt = m.now()
	return p.MonthlyNotesCount, nil
}

func (m *MemoryNoteStore) Stats(ctx context.Context) (*domain.NoteStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.NoteStats{
		TotalNotes:     len(m.notes),
		ByStatus:       map[domain.NoteStatus]int{},
		ByCategory:     map[domain.NoteCategory]int{},
		ProfilesByTier: map[domain.SubscriptionTier]int{},
	}
	var completedTime, completed int
	for _, n := range m.notes {
		stats.ByStatus[n.Status]++
		stats.ByCategory[n.Category]++
		stats.TotalTokens += int64(n.TokensUsed)
		if n.Status == domain.NoteStatusCompleted {
			completed++
			completedTime += n.ProcessingTimeMs
		}
	}
	if completed > 0 {
		stats.AvgProcessingTimeMs = float64(completedTime) / float64(completed)
	}
	for _, p := range m.profiles {
		stats.ProfilesByTier[p.SubscriptionTier]++
	}
	return stats, nil
}

func (m *MemoryNoteStore) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryNoteStore) Backend() string { return infra.StoreBackendMemory }

// profileLocked returns the profile for userID, creating it on first use and
// resetting the counter when a new month has started. Callers hold m.mu.
func (m *MemoryNoteStore) profileLocked(userID string) *domain.Profile {
	now := m.now()
	p, ok := m.profiles[userID]
	if !ok {
		p = &domain.Profile{
			ID:               userID,
			SubscriptionTier: domain.TierFree,
			CountResetAt:     monthStart(now),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		m.profiles[userID] = p
	}
	p.MonthlyLimit = m.limits.For(p.SubscriptionTier)
	if start := monthStart(now); p.CountResetAt.Before(start) {
		p.MonthlyNotesCount = 0
		p.CountResetAt = start
	}
	return p
}

var _ domain.NoteStore = (*MemoryNoteStore)(nil)

func cloneNote(n *domain.Note) domain.Note {
	c := *n
	if n.ProcessedText != nil {
		text := *n.ProcessedText
		c.ProcessedText = &text
	}
	return c
}

// claimable mirrors the where clause of QClaimNote and QRejectNote.
func claimable(n *domain.Note, staleBefore time.Time) bool {
	switch n.Status {
	case domain.NoteStatusPending, domain.NoteStatusFailed:
		return true
	case domain.NoteStatusProcessing:
		return n.UpdatedAt.Before(staleBefore)
	}
	return false
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
