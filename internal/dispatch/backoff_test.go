package dispatch

import (
	"testing"
	"time"
)

func TestRetryBackoffDoubles(t *testing.T) {
	base := 100 * time.Millisecond
	for retries, want := range []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	} {
		if got := retryBackoff(base, 0, retries); got != want {
			t.Errorf("retryBackoff(%v, 0, %d) = %v, want %v", base, retries, got, want)
		}
	}
}

func TestRetryBackoffCeiling(t *testing.T) {
	got := retryBackoff(time.Second, 5*time.Second, 10)
	if got != 5*time.Second {
		t.Fatalf("expected ceiling to cap delay, got %v", got)
	}
}

func TestRetryBackoffZeroCeilingUnbounded(t *testing.T) {
	got := retryBackoff(time.Second, 0, 6)
	if got != 64*time.Second {
		t.Fatalf("expected unbounded growth, got %v", got)
	}
}

func TestRetryBackoffLargeRetriesDoesNotOverflow(t *testing.T) {
	got := retryBackoff(time.Hour, 0, 1000)
	if got <= 0 {
		t.Fatalf("overflowed to %v", got)
	}
}

func TestRetryBackoffZeroBase(t *testing.T) {
	if got := retryBackoff(0, time.Second, 3); got != 0 {
		t.Fatalf("expected zero delay for zero base, got %v", got)
	}
}
