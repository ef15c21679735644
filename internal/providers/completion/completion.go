package completion

import (
	"context"
	"errors"
	"fmt"
)

const (
	ProviderOpenAI    = "openai"
	ProviderSimulated = "simulated"
)

// Request is a single templated prompt for the completion service.
type Request struct {
	System    string
	Prompt    string
	Input     string // raw note text, used by providers that fabricate output
	MaxTokens int
}

// Response is the generated text plus usage metadata.
type Response struct {
	Text       string
	TokensUsed int
	Model      string
	Provider   string
}

// Completer is implemented by every completion back end.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Ping(ctx context.Context) error
	Provider() string
	Model() string
}

// ErrCompletion marks every failure reported by a Completer.
var ErrCompletion = errors.New("completion failed")

// FailureError carries a short machine readable reason for logging.
type FailureError struct {
	Reason string
	Err    error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completion failed: %s", e.Reason)
	}
	return fmt.Sprintf("completion failed: %s: %v", e.Reason, e.Err)
}

func (e *FailureError) Unwrap() []error {
	return []error{ErrCompletion, e.Err}
}

func failure(reason string, err error) error {
	return &FailureError{Reason: reason, Err: err}
}

// Reason extracts the failure reason from err, or "unknown".
func Reason(err error) string {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return "unknown"
}
