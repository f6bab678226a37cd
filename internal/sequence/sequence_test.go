package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memoryCounters struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func newMemoryCounters() *memoryCounters {
	return &memoryCounters{values: make(map[string]int64)}
}

func (m *memoryCounters) Next(ctx context.Context, entityType string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.values[entityType]++
	return m.values[entityType], nil
}

func (m *memoryCounters) RecordFormatted(ctx context.Context, entityType, formatted string) error {
	return nil
}

type takenSet struct {
	mu  sync.Mutex
	set map[string]bool
}

func newTakenSet(seed ...string) *takenSet {
	set := make(map[string]bool)
	for _, id := range seed {
		set[id] = true
	}
	return &takenSet{set: set}
}

func (s *takenSet) taken(ctx context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set[identifier] {
		return true, nil
	}
	s.set[identifier] = true
	return false, nil
}

func TestIssueSequential(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(newMemoryCounters(), Options{})
	taken := newTakenSet()

	want := []string{"PAT0001", "PAT0002", "PAT0003"}
	for _, expected := range want {
		got, err := issuer.Issue(ctx, "patient", FormatConfig{Prefix: "PAT", Pad: 4}, taken.taken)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if got != expected {
			t.Fatalf("issued %q, want %q", got, expected)
		}
	}
}

func TestIssueIndependentEntityTypes(t *testing.T) {
	ctx := context.Background()
	counters := newMemoryCounters()
	issuer := NewIssuer(counters, Options{})
	taken := newTakenSet()

	first, err := issuer.Issue(ctx, "patient", FormatConfig{Prefix: "PAT", Pad: 4}, taken.taken)
	if err != nil {
		t.Fatalf("issue patient: %v", err)
	}
	second, err := issuer.Issue(ctx, "staff", FormatConfig{Prefix: "STF", Pad: 4}, taken.taken)
	if err != nil {
		t.Fatalf("issue staff: %v", err)
	}
	if first != "PAT0001" || second != "STF0001" {
		t.Fatalf("counters not independent: %q, %q", first, second)
	}
}

func TestIssueConcurrentDistinct(t *testing.T) {
	ctx := context.Background()
	counters := newMemoryCounters()
	issuer := NewIssuer(counters, Options{})
	taken := newTakenSet()

	const workers = 25
	results := make(chan string, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := issuer.Issue(ctx, "queue:2026-03-01", FormatConfig{Prefix: "Q", Pad: 4}, taken.taken)
			if err != nil {
				errs <- err
				return
			}
			results <- id
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("issue: %v", err)
	}

	seen := make(map[string]bool)
	for id := range results {
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d identifiers, got %d", workers, len(seen))
	}

	counters.mu.Lock()
	final := counters.values["queue:2026-03-01"]
	counters.mu.Unlock()
	if final != workers {
		t.Fatalf("counter advanced to %d, want %d", final, workers)
	}
}

func TestIssueSkipsSeededIdentifiers(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(newMemoryCounters(), Options{})
	taken := newTakenSet("PAT0001", "PAT0002")

	got, err := issuer.Issue(ctx, "patient", FormatConfig{Prefix: "PAT", Pad: 4}, taken.taken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got != "PAT0003" {
		t.Fatalf("issued %q, want PAT0003", got)
	}
}

func TestIssueFallbackAfterRetryBudget(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(newMemoryCounters(), Options{RetryLimit: 5})

	calls := 0
	taken := func(ctx context.Context, identifier string) (bool, error) {
		calls++
		// Every sequential candidate (PAT + 4 digits) is already occupied;
		// only the longer randomized fallback gets through.
		return len(identifier) == len("PAT0001"), nil
	}

	got, err := issuer.Issue(ctx, "patient", FormatConfig{Prefix: "PAT", Pad: 4}, taken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(got) != len("PAT")+8 {
		t.Fatalf("expected fallback identifier, got %q", got)
	}
	if calls != 6 {
		t.Fatalf("expected 5 retries plus one fallback check, got %d calls", calls)
	}
}

func TestIssueFallbackCollision(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(newMemoryCounters(), Options{RetryLimit: 2})

	taken := func(ctx context.Context, identifier string) (bool, error) {
		return true, nil
	}

	_, err := issuer.Issue(ctx, "patient", FormatConfig{Prefix: "PAT", Pad: 4}, taken)
	if !errors.Is(err, ErrIdentifierSpaceExhausted) {
		t.Fatalf("expected ErrIdentifierSpaceExhausted, got %v", err)
	}
}

func TestIssueCounterDownFallsBack(t *testing.T) {
	ctx := context.Background()
	counters := newMemoryCounters()
	counters.err = errors.New("connection refused")
	issuer := NewIssuer(counters, Options{})
	taken := newTakenSet()

	got, err := issuer.Issue(ctx, "patient", FormatConfig{Prefix: "PAT", Pad: 4}, taken.taken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(got) != len("PAT")+8 {
		t.Fatalf("expected fallback identifier, got %q", got)
	}
}

func TestIssueCounterDownAndStoreDown(t *testing.T) {
	ctx := context.Background()
	counters := newMemoryCounters()
	counters.err = errors.New("connection refused")
	issuer := NewIssuer(counters, Options{})

	taken := func(ctx context.Context, identifier string) (bool, error) {
		return false, errors.New("connection refused")
	}

	_, err := issuer.Issue(ctx, "patient", FormatConfig{Prefix: "PAT", Pad: 4}, taken)
	if !errors.Is(err, ErrCounterUnavailable) {
		t.Fatalf("expected ErrCounterUnavailable, got %v", err)
	}
}

func TestIsFallback(t *testing.T) {
	cases := []struct {
		identifier string
		prefix     string
		want       bool
	}{
		{"PAT0007", "PAT", false},
		{"PATA1B2C3D4", "PAT", true},
		{"PAT12345678", "PAT", false},
		{"PATA1B2C3", "PAT", false},
		{"PATZZZZZZZZ", "PAT", false},
	}

	for _, tt := range cases {
		if got := IsFallback(tt.identifier, tt.prefix); got != tt.want {
			t.Fatalf("IsFallback(%q)=%v, want %v", tt.identifier, got, tt.want)
		}
	}
}
