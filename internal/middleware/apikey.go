package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"notesrelay/internal/http/respond"
)

type authKey struct{}

// APIKeyFromRequest returns the shared secret presented in x-api-key or as a bearer token.
func APIKeyFromRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-API-Key")); v != "" {
		return v
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func keyMatches(presented, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}

// APIKey rejects requests that do not carry the shared secret.
func APIKey(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := APIKeyFromRequest(r)
			if key == "" {
				respond.Error(w, http.StatusUnauthorized, "MISSING_API_KEY", "API key is required. Provide it in the x-api-key header.", nil)
				return
			}
			if !keyMatches(key, secret) {
				respond.Error(w, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key.", nil)
				return
			}
			ctx := context.WithValue(r.Context(), authKey{}, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAPIKey marks the request as authenticated when a valid secret is
// present and lets every other request through unchanged.
func OptionalAPIKey(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := APIKeyFromRequest(r); key != "" && keyMatches(key, secret) {
				r = r.WithContext(context.WithValue(r.Context(), authKey{}, true))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAuthenticated reports whether an API key middleware accepted the request.
func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(authKey{}).(bool)
	return v
}
