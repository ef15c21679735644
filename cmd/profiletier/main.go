package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"notesrelay/internal/adapter/repo"
	"notesrelay/internal/domain"
	"notesrelay/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		idFlag        string
		tierFlag      string
		keepUsageFlag bool
	)
	flag.StringVar(&idFlag, "id", "", "profile (user) ID to update (UUID)")
	flag.StringVar(&tierFlag, "tier", string(domain.TierPremium), "subscription tier to assign (free, premium)")
	flag.BoolVar(&keepUsageFlag, "keep-usage", false, "preserve the current monthly note count instead of resetting it")
	flag.Parse()

	id, err := uuid.Parse(strings.TrimSpace(idFlag))
	if err != nil {
		exitWithError(errors.New("-id must be a valid UUID"))
	}
	tier := domain.SubscriptionTier(strings.TrimSpace(strings.ToLower(tierFlag)))
	if !tier.Valid() {
		exitWithError(fmt.Errorf("unsupported tier %q", tierFlag))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "profiletier").Logger()
	profiles := repo.NewProfileRepository(infra.NewSQLRunner(pool, logger))

	before, err := profiles.GetProfile(ctx, id.String())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Printf("Profile %s does not exist yet, creating it\n", id)
	case err != nil:
		exitWithError(fmt.Errorf("failed to load profile: %w", err))
	default:
		fmt.Printf("Profile %s currently on %s tier (%d notes this month)\n", before.ID, before.SubscriptionTier, before.MonthlyNotesCount)
	}

	updated, err := profiles.SetTier(ctx, id.String(), tier, !keepUsageFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update profile tier: %w", err))
	}

	fmt.Printf("Profile %s updated to tier %s\n", updated.ID, updated.SubscriptionTier)
	fmt.Printf("monthly_notes_count=%d\n", updated.MonthlyNotesCount)
	fmt.Printf("count_reset_at=%s\n", updated.CountResetAt.UTC().Format(time.RFC3339))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
