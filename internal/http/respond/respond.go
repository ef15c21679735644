// Package respond writes the JSON envelopes shared by handlers and middleware.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"success":false,"error":message,"code":errCode} merged with extra.
func Error(w http.ResponseWriter, code int, errCode, message string, extra map[string]any) {
	body := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		body[k] = v
	}
	body["success"] = false
	body["error"] = message
	body["code"] = errCode
	JSON(w, code, body)
}
