package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompleterComplete(t *testing.T) {
	var captured struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var authHeader string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","model":"gpt-3.5-turbo-0125","choices":[{"index":0,"message":{"role":"assistant","content":"  - Buy milk\n- Call mom  "},"finish_reason":"stop"}],"usage":{"prompt_tokens":30,"completion_tokens":12,"total_tokens":42}}`))
	})

	c, err := NewOpenAICompleter(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL + "/v1", MaxTokens: 123})
	if err != nil {
		t.Fatalf("NewOpenAICompleter returned error: %v", err)
	}
	res, err := c.Complete(context.Background(), Request{System: "sys", Prompt: "make a list: buy milk. call mom."})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if res.Text != "- Buy milk\n- Call mom" {
		t.Fatalf("Text = %q", res.Text)
	}
	if res.TokensUsed != 42 {
		t.Fatalf("TokensUsed = %d, want 42", res.TokensUsed)
	}
	if res.Provider != ProviderOpenAI {
		t.Fatalf("Provider = %q", res.Provider)
	}
	if authHeader != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", authHeader)
	}
	if captured.Model != "gpt-3.5-turbo" || captured.MaxTokens != 123 {
		t.Fatalf("request model=%q max_tokens=%d", captured.Model, captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %#v", captured.Messages)
	}
}

func TestOpenAICompleterFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`, reason: "http_500"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down","type":"rate_limit"}}`, reason: "http_429"},
		{name: "no choices", status: http.StatusOK, body: `{"id":"x","choices":[],"usage":{"total_tokens":0}}`, reason: "empty_choices"},
		{name: "blank content", status: http.StatusOK, body: `{"id":"x","choices":[{"message":{"role":"assistant","content":"   "}}]}`, reason: "empty_response"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			c, err := NewOpenAICompleter(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
			if err != nil {
				t.Fatalf("NewOpenAICompleter returned error: %v", err)
			}
			_, err = c.Complete(context.Background(), Request{Prompt: "hi"})
			if !errors.Is(err, ErrCompletion) {
				t.Fatalf("err = %v, want ErrCompletion", err)
			}
			if got := Reason(err); got != tc.reason {
				t.Fatalf("reason = %q, want %q", got, tc.reason)
			}
		})
	}
}

func TestOpenAICompleterTransportError(t *testing.T) {
	c, err := NewOpenAICompleter(OpenAIOptions{
		APIKey: "sk-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAICompleter returned error: %v", err)
	}
	_, err = c.Complete(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrCompletion) {
		t.Fatalf("err = %v, want ErrCompletion", err)
	}
}

func TestNewOpenAICompleterRequiresKey(t *testing.T) {
	if _, err := NewOpenAICompleter(OpenAIOptions{APIKey: "  "}); err == nil {
		t.Fatal("expected error for blank api key")
	}
}

func TestNormalizeOpenAIModel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		input  string
		model  string
		reason string
	}{
		{name: "exact_default", input: "gpt-3.5-turbo", model: "gpt-3.5-turbo", reason: ""},
		{name: "exact_mini", input: "gpt-4o-mini", model: "gpt-4o-mini", reason: ""},
		{name: "alias_short", input: "gpt-3.5", model: "gpt-3.5-turbo", reason: "alias"},
		{name: "alias_spaces", input: "GPT 4", model: "gpt-4-turbo", reason: "alias"},
		{name: "unsupported", input: "davinci-002", model: "gpt-3.5-turbo", reason: "defaulted"},
		{name: "empty", input: "", model: "gpt-3.5-turbo", reason: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotModel, gotReason := normalizeOpenAIModel(tc.input)
			if gotModel != tc.model {
				t.Fatalf("model = %q, want %q", gotModel, tc.model)
			}
			if gotReason != tc.reason {
				t.Fatalf("reason = %q, want %q", gotReason, tc.reason)
			}
		})
	}
}

func TestNewOpenAICompleterWarnsOnUnsupportedModel(t *testing.T) {
	t.Parallel()
	var capturedReason, capturedDetail string
	c, err := NewOpenAICompleter(OpenAIOptions{
		APIKey: "dummy",
		Model:  "gpt 4",
		OnWarning: func(reason, detail string) {
			capturedReason = reason
			capturedDetail = detail
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != "gpt-4-turbo" {
		t.Fatalf("Model = %q", c.Model())
	}
	if capturedReason != "model_alias" {
		t.Fatalf("warning reason = %q, want %q", capturedReason, "model_alias")
	}
	if capturedDetail == "" {
		t.Fatal("expected warning detail to be set")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
