package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoCredentials means the pool was built without any API keys. It is never retried.
	ErrNoCredentials = errors.New("no model credentials configured")

	// ErrRateLimited is returned when the service throttles a credential.
	ErrRateLimited = errors.New("model service rate limited")

	// ErrUnavailable covers overload and 5xx responses.
	ErrUnavailable = errors.New("model service unavailable")

	// ErrInsufficientContent is returned when a document has too little text to work with.
	ErrInsufficientContent = errors.New("insufficient content")

	// ErrGenerationFailed is terminal for the stage that produced it.
	ErrGenerationFailed = errors.New("generation failed")
)

// HTTPStatusCoder is implemented by client errors that carry an HTTP status.
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

var (
	rateLimitPatterns   = []string{"rate limit", "too many requests", "resource exhausted", "resource_exhausted", "quota"}
	unavailablePatterns = []string{"overloaded", "unavailable", "try again later", "bad gateway", "gateway timeout", "internal error"}
)

// Classify maps a raw client error onto ErrRateLimited or ErrUnavailable,
// keeping the original error in the chain. Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNoCredentials) {
		return err
	}

	var coder HTTPStatusCoder
	if errors.As(err, &coder) {
		switch coder.HTTPStatusCode() {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, rateLimitPatterns):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case containsAny(msg, unavailablePatterns):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

// IsRetryable reports whether err is worth another attempt after backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
