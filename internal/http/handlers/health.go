package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const probeTimeout = 3 * time.Second

type probeResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

func probe(ctx context.Context, ping func(context.Context) error) probeResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	start := time.Now()
	err := ping(ctx)
	res := probeResult{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = "down"
		res.Error = err.Error()
	}
	return res
}

// Health probes the note store and the completion back end in parallel.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	var store, model probeResult
	var g errgroup.Group
	g.Go(func() error {
		store = probe(r.Context(), a.Notes.Ping)
		return nil
	})
	g.Go(func() error {
		model = probe(r.Context(), a.Completer.Ping)
		return nil
	})
	_ = g.Wait()

	status, code := "healthy", http.StatusOK
	if store.Status != "up" || model.Status != "up" {
		status, code = "degraded", http.StatusServiceUnavailable
		a.Logger.Warn().Str("store", store.Error).Str("completion", model.Error).Msg("health check degraded")
	}
	a.json(w, code, map[string]any{
		"status":        status,
		"timestamp":     time.Now().UTC(),
		"uptimeSeconds": int64(time.Since(a.StartedAt).Seconds()),
		"services": map[string]any{
			"store": map[string]any{
				"backend":   a.Notes.Backend(),
				"status":    store.Status,
				"latencyMs": store.LatencyMs,
				"error":     store.Error,
			},
			"completion": map[string]any{
				"provider":  a.Completer.Provider(),
				"model":     a.Completer.Model(),
				"status":    model.Status,
				"latencyMs": model.LatencyMs,
				"error":     model.Error,
			},
		},
	})
}
