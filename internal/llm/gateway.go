// Package llm wraps the model provider behind a small, provider-agnostic
// gateway: one prompt in, one raw text completion out, with a bounded
// timeout and a single centralized retry policy.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrUnavailable covers timeouts, connection failures, and transient
	// provider errors. Retryable.
	ErrUnavailable = errors.New("llm unavailable")

	// ErrRejected covers explicit provider refusals (safety blocks, empty
	// candidates). Not retryable; retrying the same prompt is futile.
	ErrRejected = errors.New("llm rejected request")
)

const (
	maxAttempts    = 3
	initialBackoff = time.Second
)

// Gateway is a stateless front to any langchaingo model. Parser and
// scoring engine share one instance; neither implements its own retries.
type Gateway struct {
	model   llms.Model
	timeout time.Duration
}

func NewGateway(model llms.Model, timeout time.Duration) *Gateway {
	return &Gateway{model: model, timeout: timeout}
}

// Complete performs exactly one bounded provider call and classifies the
// outcome into the gateway error taxonomy.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(callCtx, g.model, prompt)
	if err != nil {
		return "", classify(err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrRejected)
	}
	return out, nil
}

// CompleteWithRetry retries Complete on ErrUnavailable with exponential
// backoff, up to a small fixed bound. ErrRejected propagates immediately.
func (g *Gateway) CompleteWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := initialBackoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
		}

		out, err := g.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrRejected) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w after %d attempts", lastErr, maxAttempts)
}

// classify maps raw provider errors onto the gateway taxonomy. Provider
// SDKs do not expose stable error types for refusals, so refusal detection
// falls back on the response text.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"blocked", "safety", "prohibited", "refus"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
