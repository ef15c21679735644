package completion

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// SimulatedCompleter fabricates plausible completions for local runs without
// provider credentials.
type SimulatedCompleter struct {
	model string
	delay time.Duration
}

func NewSimulatedCompleter(model string, delay time.Duration) *SimulatedCompleter {
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	return &SimulatedCompleter{model: model, delay: delay}
}

func (s *SimulatedCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, failure("canceled", ctx.Err())
		case <-timer.C:
		}
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		input = strings.TrimSpace(req.Prompt)
	}
	sb := &strings.Builder{}
	sb.WriteString("Enhanced note (simulated)\n")
	for _, sentence := range splitSentences(input) {
		fmt.Fprintf(sb, "\n- %s", sentence)
	}
	text := sb.String()
	tokens := estimateTokens(req.System) + estimateTokens(req.Prompt) + estimateTokens(text)
	if req.MaxTokens > 0 && tokens > req.MaxTokens {
		tokens = req.MaxTokens
	}
	return &Response{
		Text:       text,
		TokensUsed: tokens,
		Model:      s.model,
		Provider:   ProviderSimulated,
	}, nil
}

func (s *SimulatedCompleter) Ping(ctx context.Context) error { return ctx.Err() }

func (s *SimulatedCompleter) Provider() string { return ProviderSimulated }

func (s *SimulatedCompleter) Model() string { return s.model }

var _ Completer = (*SimulatedCompleter)(nil)

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		out = append(out, string(r))
	}
	if len(out) == 0 {
		out = []string{text}
	}
	return out
}

// estimateTokens approximates OpenAI tokenization at roughly four characters per token.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}
