package handlers

import (
	"math"
	"net/http"
	"time"

	"notesrelay/internal/domain"
	"notesrelay/internal/middleware"
)

// Stats reports usage aggregates; authenticated callers get the full breakdown.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Notes.Stats(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("load stats")
		a.internalError(w, "STATS_ERROR", "Failed to load stats", err)
		return
	}

	authenticated := middleware.IsAuthenticated(r.Context())
	body := map[string]any{
		"success":       true,
		"authenticated": authenticated,
		"stats": map[string]any{
			"totalNotes":     stats.TotalNotes,
			"completedNotes": stats.ByStatus[domain.NoteStatusCompleted],
			"successRate":    round2(stats.SuccessRate()),
		},
	}
	if authenticated {
		byStatus := make(map[string]int, 4)
		for _, s := range []domain.NoteStatus{domain.NoteStatusPending, domain.NoteStatusProcessing, domain.NoteStatusCompleted, domain.NoteStatusFailed} {
			byStatus[string(s)] = stats.ByStatus[s]
		}
		byCategory := make(map[string]int, len(domain.Categories))
		for _, c := range domain.Categories {
			byCategory[string(c)] = stats.ByCategory[c]
		}
		byTier := map[string]int{}
		for tier, n := range stats.ProfilesByTier {
			byTier[string(tier)] = n
		}
		body["detailed"] = map[string]any{
			"byStatus":            byStatus,
			"byCategory":          byCategory,
			"totalTokens":         stats.TotalTokens,
			"avgProcessingTimeMs": round2(stats.AvgProcessingTimeMs),
			"profilesByTier":      byTier,
			"backends": map[string]string{
				"store":      a.Notes.Backend(),
				"completion": a.Completer.Provider(),
			},
			"model": a.Completer.Model(),
			"rateLimits": map[string]any{
				"windowMs":           a.Config.RateLimitWindow.Milliseconds(),
				"maxRequests":        a.Config.RateLimitMaxRequests,
				"processMaxRequests": a.Config.ProcessRateLimitMax,
			},
			"uptimeSeconds": int64(time.Since(a.StartedAt).Seconds()),
		}
	}
	a.json(w, http.StatusOK, body)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
