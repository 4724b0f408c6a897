// ABOUTME: Shared provider plumbing: retry policy, rate limiting, and text preparation
// ABOUTME: Every client embeds or completes through these helpers for uniform behavior
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/harper/ragdoc/internal/util"
)

var (
	// ErrEmptyText is returned when asked to embed blank text
	ErrEmptyText = errors.New("cannot generate embedding for empty text")
	// ErrAllEmpty is returned when every text in a batch is blank
	ErrAllEmpty = errors.New("all texts are empty")
	// ErrNoContent is returned when a provider answers without any text
	ErrNoContent = errors.New("no content returned")
)

// Options carries the knobs shared by every provider client
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	// RateLimit is requests per second; zero or less means unlimited
	RateLimit float64
}

// DefaultOptions returns retry and timeout settings suited to hosted APIs
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Timeout:    30 * time.Second,
	}
}

func (o Options) policy() util.Policy {
	return util.Policy{MaxRetries: o.MaxRetries, BaseDelay: o.RetryDelay, Timeout: o.Timeout}
}

func (o Options) limiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(o.RateLimit)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), burst)
}

// call waits for the limiter and then runs op under the retry policy
func call[T any](ctx context.Context, lim *rate.Limiter, o Options, op func(ctx context.Context) (T, error)) (T, error) {
	return util.Do(ctx, o.policy(), func(ctx context.Context) (T, error) {
		if err := lim.Wait(ctx); err != nil {
			var zero T
			return zero, util.Permanent(err)
		}
		return op(ctx)
	})
}

// permanentStatus reports HTTP statuses a retry cannot fix
func permanentStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// cleanText flattens newlines, which degrade embedding quality
func cleanText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

// prepareBatch cleans texts and returns the non-empty ones with their original positions
func prepareBatch(texts []string) (positions []int, cleaned []string) {
	for i, t := range texts {
		if c := cleanText(t); c != "" {
			positions = append(positions, i)
			cleaned = append(cleaned, c)
		}
	}
	return positions, cleaned
}

// scatter places vectors back at their original positions; blanks stay nil
func scatter(n int, positions []int, vectors [][]float32) [][]float32 {
	out := make([][]float32, n)
	for i, pos := range positions {
		if i < len(vectors) {
			out[pos] = vectors[i]
		}
	}
	return out
}
