package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusTooManyRequests, "USAGE_LIMIT_REACHED", "limit reached", map[string]any{
		"limit": 20,
		"code":  "ignored",
	})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["success"] != false || body["code"] != "USAGE_LIMIT_REACHED" || body["error"] != "limit reached" {
		t.Fatalf("unexpected envelope %#v", body)
	}
	if body["limit"] != float64(20) {
		t.Fatalf("extra field missing: %#v", body)
	}
}
