package gitrun

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// RetryConfig controls backoff for network-facing git subcommands
// (clone, fetch, push).
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultRetryConfig returns the adapter's default retry behavior: 3
// attempts, 1s initial backoff doubling to a 30s cap, with 25% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.25,
	}
}

func (cfg RetryConfig) calculateBackoff(attempt int) time.Duration {
	if attempt == 0 {
		return 0
	}

	delay := float64(cfg.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= cfg.Multiplier
	}

	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	jitter := (rand.Float64()*2 - 1) * cfg.JitterFactor //nolint:gosec
	delay *= (1 + jitter)

	return time.Duration(delay)
}

// retryablePatterns and nonRetryablePatterns classify a failed git
// subcommand by its stderr text, since the CLI adapter has no structured
// transport error types to inspect.
var retryablePatterns = []string{
	"connection reset",
	"connection refused",
	"connection timed out",
	"network is unreachable",
	"no route to host",
	"temporary failure",
	"could not resolve host",
	"i/o timeout",
	"eof",
	"broken pipe",
	"502",
	"503",
	"504",
	"429",
	"too many requests",
	"internal server error",
	"service unavailable",
	"gateway timeout",
	"bad gateway",
	"early eof",
	"the remote end hung up unexpectedly",
}

var nonRetryablePatterns = []string{
	"authentication",
	"permission denied",
	"not found",
	"404",
	"401",
	"403",
	"fatal: repository",
	"does not appear to be a git repository",
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// WithRetry runs op, retrying transient network failures with exponential
// backoff for at most cfg.MaxAttempts attempts in total. It returns immediately
// on a non-retryable error, a successful result, or context cancellation.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}

			return zero, err
		}

		if attempt > 0 {
			delay := cfg.calculateBackoff(attempt)
			log.Info("retrying git operation", "attempt", attempt+1, "max_attempts", maxAttempts, "delay", delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := op()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return zero, err
		}
	}

	return zero, lastErr
}
