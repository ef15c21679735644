package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"notesrelay/internal/domain"
	"notesrelay/internal/infra"
	"notesrelay/internal/sqlinline"
)

// NoteRepositoryPG implements domain.NoteStore against the managed Postgres note store.
type NoteRepositoryPG struct {
	sql    infra.SQLExecutor
	limits domain.TierLimits
}

// NewNoteRepository creates a note repository on top of a SQL executor. The
// tier limits are handed to check_user_limit on every call; nil uses the defaults.
func NewNoteRepository(sql infra.SQLExecutor, limits domain.TierLimits) *NoteRepositoryPG {
	if limits == nil {
		limits = domain.DefaultTierLimits()
	}
	return &NoteRepositoryPG{sql: sql, limits: limits}
}

// GetNote fetches a note by identifier.
func (r *NoteRepositoryPG) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	note, err := scanNote(r.sql.QueryRow(ctx, sqlinline.QSelectNoteByID, id))
	if err != nil {
		return nil, wrapNoRows("get note", err)
	}
	return note, nil
}

// CreateNote inserts a pending note.
func (r *NoteRepositoryPG) CreateNote(ctx context.Context, n domain.NewNote) (*domain.Note, error) {
	note, err := scanNote(r.sql.QueryRow(ctx, sqlinline.QInsertNote, n.UserID, n.OriginalText, string(n.Category)))
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// ClaimNote performs the conditional transition to processing.
func (r *NoteRepositoryPG) ClaimNote(ctx context.Context, id string, staleBefore time.Time) (*domain.Note, error) {
	note, err := scanNote(r.sql.QueryRow(ctx, sqlinline.QClaimNote, id, staleBefore))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoteBusy
		}
		return nil, fmt.Errorf("claim note: %w", err)
	}
	return note, nil
}

// RejectNote stores a limit rejection unless the note is completed or claimed.
func (r *NoteRepositoryPG) RejectNote(ctx context.Context, id, processedText string, staleBefore time.Time) (*domain.Note, error) {
	note, err := scanNote(r.sql.QueryRow(ctx, sqlinline.QRejectNote, id, processedText, staleBefore))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoteBusy
		}
		return nil, fmt.Errorf("reject note: %w", err)
	}
	return note, nil
}

// UpdateNote writes status and result fields; nil fields keep their stored value.
func (r *NoteRepositoryPG) UpdateNote(ctx context.Context, id string, u domain.NoteUpdate) (*domain.Note, error) {
	note, err := scanNote(r.sql.QueryRow(ctx, sqlinline.QUpdateNoteResult,
		id,
		string(u.Status),
		u.ProcessedText,
		u.TokensUsed,
		u.ProcessingTimeMs,
	))
	if err != nil {
		return nil, wrapNoRows("update note", err)
	}
	return note, nil
}

// CheckUserLimit delegates to the check_user_limit routine.
func (r *NoteRepositoryPG) CheckUserLimit(ctx context.Context, userID string) (*domain.UsageLimit, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCheckUserLimit, userID,
		r.limits.For(domain.TierFree), r.limits.For(domain.TierPremium))
	var limit domain.UsageLimit
	var tier string
	if err := row.Scan(&limit.CanProcess, &limit.CurrentCount, &limit.Limit, &tier); err != nil {
		return nil, fmt.Errorf("check user limit: %w", err)
	}
	limit.Tier = domain.SubscriptionTier(tier)
	return &limit, nil
}

// IncrementMonthlyNotes delegates to the atomic increment_monthly_notes routine.
func (r *NoteRepositoryPG) IncrementMonthlyNotes(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.sql.QueryRow(ctx, sqlinline.QIncrementMonthlyNotes, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment monthly notes: %w", err)
	}
	return count, nil
}

// Stats aggregates counters across notes and profiles.
func (r *NoteRepositoryPG) Stats(ctx context.Context) (*domain.NoteStats, error) {
	stats := &domain.NoteStats{
		ByStatus:       map[domain.NoteStatus]int{},
		ByCategory:     map[domain.NoteCategory]int{},
		ProfilesByTier: map[domain.SubscriptionTier]int{},
	}
	var pending, processing, completed, failed int
	row := r.sql.QueryRow(ctx, sqlinline.QStatsNotesSummary)
	if err := row.Scan(&stats.TotalNotes, &pending, &processing, &completed, &failed, &stats.TotalTokens, &stats.AvgProcessingTimeMs); err != nil {
		return nil, fmt.Errorf("stats summary: %w", err)
	}
	stats.ByStatus[domain.NoteStatusPending] = pending
	stats.ByStatus[domain.NoteStatusProcessing] = processing
	stats.ByStatus[domain.NoteStatusCompleted] = completed
	stats.ByStatus[domain.NoteStatusFailed] = failed

	if err := r.collectCounts(ctx, sqlinline.QStatsNotesByCategory, func(key string, n int) {
		stats.ByCategory[domain.NoteCategory(key)] = n
	}); err != nil {
		return nil, fmt.Errorf("stats by category: %w", err)
	}
	if err := r.collectCounts(ctx, sqlinline.QStatsProfilesByTier, func(key string, n int) {
		stats.ProfilesByTier[domain.SubscriptionTier(key)] = n
	}); err != nil {
		return nil, fmt.Errorf("stats by tier: %w", err)
	}
	return stats, nil
}

func (r *NoteRepositoryPG) collectCounts(ctx context.Context, query string, add func(key string, n int)) error {
	rows, err := r.sql.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		add(key, n)
	}
	return rows.Err()
}

// Ping runs a trivial query through the executor.
func (r *NoteRepositoryPG) Ping(ctx context.Context) error {
	var one int
	if err := r.sql.QueryRow(ctx, sqlinline.QPing).Scan(&one); err != nil {
		return fmt.Errorf("ping note store: %w", err)
	}
	return nil
}

// Backend names the store implementation.
func (r *NoteRepositoryPG) Backend() string { return infra.StoreBackendPostgres }

var _ domain.NoteStore = (*NoteRepositoryPG)(nil)

func scanNote(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	var category, status string
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.OriginalText,
		&n.ProcessedText,
		&category,
		&status,
		&n.TokensUsed,
		&n.ProcessingTimeMs,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	n.Category = domain.NoteCategory(category)
	n.Status = domain.NoteStatus(status)
	return &n, nil
}

func wrapNoRows(op string, err error) error {
	if infra.IsNoRows(err) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
