package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 10 * time.Second
)

type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RPS caps the outbound generation rate when positive.
	RPS float64
}

type retryingClient struct {
	inner    Client
	attempts int
	base     time.Duration
	max      time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewRetrying wraps a Client with bounded retries on transient failures.
// Rate limits, timeouts and 5xx responses are retried with exponential
// backoff plus jitter; everything else propagates on the first attempt.
func NewRetrying(inner Client, opts RetryOptions, logger *log.Logger) Client {
	if logger == nil {
		logger = log.Default()
	}

	c := &retryingClient{
		inner:    inner,
		attempts: opts.MaxAttempts,
		base:     opts.BaseDelay,
		max:      opts.MaxDelay,
		logger:   logger,
	}
	if c.attempts <= 0 {
		c.attempts = defaultMaxAttempts
	}
	if c.base <= 0 {
		c.base = defaultBaseDelay
	}
	if c.max <= 0 {
		c.max = defaultMaxDelay
	}
	if opts.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return c
}

func (c *retryingClient) Generate(ctx context.Context, messages []Message) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("wait for rate limiter: %w", err)
			}
		}

		answer, err := c.inner.Generate(ctx, messages)
		if err == nil {
			return answer, nil
		}
		if !Transient(err) {
			return "", err
		}

		lastErr = err
		if attempt == c.attempts-1 {
			break
		}

		delay := c.backoff(attempt)
		c.logger.Printf("transient generation error (attempt %d/%d), retrying in %s: %v", attempt+1, c.attempts, delay, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *retryingClient) backoff(attempt int) time.Duration {
	delay := c.base << uint(attempt)
	if delay > c.max || delay <= 0 {
		delay = c.max
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// Transient reports whether err is worth retrying: upstream rate limiting,
// 5xx responses and network timeouts. Auth and malformed-request errors are
// not transient.
func Transient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
