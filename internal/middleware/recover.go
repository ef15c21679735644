package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"notesrelay/internal/http/respond"
)

// Recover turns a panic into a 500 INTERNAL_ERROR response. The panic value is
// only echoed back when details is true.
func Recover(l zerolog.Logger, details bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l.Error().
					Str("request_id", RequestIDFromContext(r.Context())).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				var extra map[string]any
				if details {
					extra = map[string]any{"details": fmt.Sprint(rec)}
				}
				respond.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", extra)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
