package repo

import (
	"context"
	"fmt"

	"notesrelay/internal/domain"
	"notesrelay/internal/infra"
	"notesrelay/internal/sqlinline"
)

// ProfileRepositoryPG manages subscription data for note owners.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a profile repository.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// GetProfile fetches a profile by user identifier.
func (r *ProfileRepositoryPG) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := scanProfile(r.sql.QueryRow(ctx, sqlinline.QSelectProfileByID, id))
	if err != nil {
		return nil, wrapNoRows("get profile", err)
	}
	return p, nil
}

// SetTier assigns a tier, creating the profile when missing. resetCount zeroes
// the monthly counter and restarts the period.
func (r *ProfileRepositoryPG) SetTier(ctx context.Context, id string, tier domain.SubscriptionTier, resetCount bool) (*domain.Profile, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("unsupported tier %q", tier)
	}
	p, err := scanProfile(r.sql.QueryRow(ctx, sqlinline.QUpsertProfileTier, id, string(tier), resetCount))
	if err != nil {
		return nil, fmt.Errorf("set profile tier: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*domain.Profile, error) {
	var p domain.Profile
	var tier string
	if err := row.Scan(&p.ID, &p.MonthlyNotesCount, &tier, &p.CountResetAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.SubscriptionTier = domain.SubscriptionTier(tier)
	return &p, nil
}
