package domain

import "time"

// SubscriptionTier enumerates billing tiers.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// Valid reports whether t is a known tier.
func (t SubscriptionTier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// Profile represents the usage state of a note owner.
type Profile struct {
	ID                string
	MonthlyNotesCount int
	SubscriptionTier  SubscriptionTier
	MonthlyLimit      int // <= 0 means unlimited
	CountResetAt      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Unlimited reports whether the profile has no monthly cap.
func (p Profile) Unlimited() bool {
	return p.MonthlyLimit <= 0
}

// UsageLimit is the outcome of a limit check for one user.
type UsageLimit struct {
	CanProcess   bool
	CurrentCount int
	Limit        int
	Tier         SubscriptionTier
}

// TierLimits maps tiers to their monthly processing cap.
type TierLimits map[SubscriptionTier]int

// DefaultTierLimits returns the caps used when no configuration is given.
func DefaultTierLimits() TierLimits {
	return TierLimits{TierFree: 20, TierPremium: 0}
}

// For returns the cap for tier, falling back to the free tier cap.
func (l TierLimits) For(tier SubscriptionTier) int {
	if v, ok := l[tier]; ok {
		return v
	}
	return l[TierFree]
}
