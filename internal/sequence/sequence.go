package sequence

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	// ErrCounterUnavailable signals that the counter store could not be
	// reached; callers may retry with backoff.
	ErrCounterUnavailable = errors.New("sequence counter unavailable")
	// ErrIdentifierSpaceExhausted means even the randomized fallback
	// collided. Not retriable; surface to an operator.
	ErrIdentifierSpaceExhausted = errors.New("identifier space exhausted")
)

const defaultRetryLimit = 30

const fallbackSuffixBytes = 4

// CounterStore holds one monotonically increasing counter per entity type.
// Next must be a single serialized increment-and-read: no two callers may
// ever observe the same value for an entity type.
type CounterStore interface {
	Next(ctx context.Context, entityType string) (int64, error)
	RecordFormatted(ctx context.Context, entityType, formatted string) error
}

// ExistsFunc reports whether an identifier is already taken by the owning
// entity table. It defends against rows seeded outside the counter, e.g.
// records migrated from a legacy system.
type ExistsFunc func(ctx context.Context, identifier string) (bool, error)

type Issuer struct {
	counters   CounterStore
	retryLimit int
}

type Options struct {
	RetryLimit int
}

func NewIssuer(counters CounterStore, options Options) *Issuer {
	limit := options.RetryLimit
	if limit <= 0 {
		limit = defaultRetryLimit
	}
	return &Issuer{counters: counters, retryLimit: limit}
}

// Issue allocates the next formatted identifier for entityType. Counter
// collisions against seeded rows are retried up to the retry limit; after
// that, or when the counter store is down, a randomized fallback identifier
// is issued instead. Successful calls never return a duplicate.
func (i *Issuer) Issue(ctx context.Context, entityType string, cfg FormatConfig, taken ExistsFunc) (string, error) {
	var lastErr error
	for attempt := 0; attempt < i.retryLimit; attempt++ {
		value, err := i.counters.Next(ctx, entityType)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
			break
		}

		candidate := cfg.Format(value)
		inUse, err := taken(ctx, candidate)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
			break
		}
		if inUse {
			continue
		}

		if err := i.counters.RecordFormatted(ctx, entityType, candidate); err != nil {
			log.Printf("sequence: record formatted value entity=%s: %v", entityType, err)
		}
		return candidate, nil
	}

	fallback, err := i.issueFallback(ctx, entityType, cfg, taken)
	if err != nil {
		if lastErr != nil && !errors.Is(err, ErrIdentifierSpaceExhausted) {
			return "", lastErr
		}
		return "", err
	}
	return fallback, nil
}

func (i *Issuer) issueFallback(ctx context.Context, entityType string, cfg FormatConfig, taken ExistsFunc) (string, error) {
	suffix := make([]byte, fallbackSuffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("fallback identifier: %w", err)
	}
	candidate := cfg.Prefix + strings.ToUpper(hex.EncodeToString(suffix))

	inUse, err := taken(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}
	if inUse {
		return "", ErrIdentifierSpaceExhausted
	}

	log.Printf("sequence: fallback identifier issued entity=%s id=%s", entityType, candidate)
	return candidate, nil
}

// IsFallback reports whether an identifier came from the randomized fallback
// path rather than the sequential counter. Fallback suffixes are hex and a
// fixed length, so they are distinguishable from zero-padded decimals.
func IsFallback(identifier, prefix string) bool {
	suffix := strings.TrimPrefix(identifier, prefix)
	if len(suffix) != fallbackSuffixBytes*2 {
		return false
	}
	hasAlpha := false
	for _, r := range suffix {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'F':
			hasAlpha = true
		default:
			return false
		}
	}
	return hasAlpha
}
