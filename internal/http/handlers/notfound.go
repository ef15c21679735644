package handlers

import (
	"net/http"

	"notesrelay/internal/http/respond"
)

// Routes lists the public surface reported on unmatched requests.
var Routes = []string{
	"GET /health",
	"GET /api/health",
	"POST /api/process",
	"GET /api/status/:noteId",
	"GET /api/stats",
	"POST /api/notes",
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "Route "+r.Method+" "+r.URL.Path+" not found", map[string]any{
		"availableRoutes": Routes,
	})
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method "+r.Method+" not allowed on "+r.URL.Path)
}
