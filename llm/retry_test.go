package llm

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type scriptedClient struct {
	errs   []error
	answer string
	calls  int
}

func (c *scriptedClient) Generate(ctx context.Context, messages []Message) (string, error) {
	idx := c.calls
	c.calls++
	if idx < len(c.errs) && c.errs[idx] != nil {
		return "", c.errs[idx]
	}
	return c.answer, nil
}

var _ Client = (*scriptedClient)(nil)

func apiError(status int) error {
	return &openai.APIError{HTTPStatusCode: status, Message: "upstream"}
}

func newTestRetrying(inner Client, attempts int) Client {
	return NewRetrying(inner, RetryOptions{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
	}, log.New(io.Discard, "", 0))
}

func TestRetryingRecoversFromTransientErrors(t *testing.T) {
	inner := &scriptedClient{
		errs:   []error{apiError(http.StatusTooManyRequests), apiError(http.StatusBadGateway)},
		answer: "recovered",
	}
	client := newTestRetrying(inner, 3)

	answer, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "q"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "recovered" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryingExhaustsBudget(t *testing.T) {
	inner := &scriptedClient{
		errs: []error{apiError(503), apiError(503), apiError(503), apiError(503)},
	}
	client := newTestRetrying(inner, 3)

	_, err := client.Generate(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", inner.calls)
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected the last upstream error to be wrapped, got %v", err)
	}
}

func TestRetryingDoesNotRetryFatalErrors(t *testing.T) {
	inner := &scriptedClient{errs: []error{apiError(http.StatusUnauthorized)}}
	client := newTestRetrying(inner, 3)

	_, err := client.Generate(context.Background(), nil)
	if err == nil {
		t.Fatal("expected auth error to propagate")
	}
	if inner.calls != 1 {
		t.Fatalf("fatal errors must not be retried, got %d attempts", inner.calls)
	}
}

func TestRetryingStopsOnContextCancellation(t *testing.T) {
	inner := &scriptedClient{errs: []error{apiError(503), apiError(503), apiError(503)}}
	client := NewRetrying(inner, RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   time.Minute,
		MaxDelay:    time.Minute,
	}, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.Generate(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", inner.calls)
	}
}

func TestTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", apiError(http.StatusTooManyRequests), true},
		{"server error", apiError(http.StatusInternalServerError), true},
		{"bad gateway", apiError(http.StatusBadGateway), true},
		{"unauthorized", apiError(http.StatusUnauthorized), false},
		{"bad request", apiError(http.StatusBadRequest), false},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tc := range cases {
		if got := Transient(tc.err); got != tc.want {
			t.Errorf("%s: Transient = %v, want %v", tc.name, got, tc.want)
		}
	}
}
