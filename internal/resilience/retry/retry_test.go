package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

// fastConfig keeps the backoff short enough for tests while exercising the
// same loop the feed and content fetchers run with.
func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:    maxAttempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_FirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Fatalf("WithBackoff: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestWithBackoff_RecoversFromTransientUpstreamFailure(t *testing.T) {
	// A feed endpoint that serves two 503s before the listing succeeds.
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(5), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithBackoff: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithBackoff_ExhaustsAttemptsAndWrapsLastError(t *testing.T) {
	upstream := &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return upstream
	})

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !errors.Is(err, upstream) {
		t.Errorf("err = %v, want it to wrap the upstream failure", err)
	}
}

func TestWithBackoff_StopsOnNonRetryableStatus(t *testing.T) {
	// A 404 from a content URL will not get better on retry.
	gone := &HTTPError{StatusCode: 404, Message: "Not Found"}
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return gone
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if !errors.Is(err, gone) {
		t.Errorf("err = %v, want the original failure unwrapped", err)
	}
}

func TestWithBackoff_HonorsCancellationBetweenAttempts(t *testing.T) {
	cfg := fastConfig(5)
	cfg.InitialDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := WithBackoff(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &HTTPError{StatusCode: 500, Message: "Internal Server Error"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts < 2 {
		t.Errorf("attempts = %d, want at least 2 before cancellation", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled context", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"upstream 500", &HTTPError{StatusCode: 500, Message: "Internal Server Error"}, true},
		{"upstream 503", &HTTPError{StatusCode: 503, Message: "Service Unavailable"}, true},
		{"rate limited", &HTTPError{StatusCode: 429, Message: "Too Many Requests"}, true},
		{"request timeout", &HTTPError{StatusCode: 408, Message: "Request Timeout"}, true},
		{"bad request", &HTTPError{StatusCode: 400, Message: "Bad Request"}, false},
		{"missing article body", &HTTPError{StatusCode: 404, Message: "Not Found"}, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"network unreachable", syscall.ENETUNREACH, true},
		{"parse failure", errors.New("parsing feed: unexpected EOF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFetchConfigs(t *testing.T) {
	// Listing retries harder than body fetching: a missed listing run loses a
	// whole cycle of articles, a missed body is retried next cycle.
	listing := SourceFetchConfig()
	content := ContentFetchConfig()

	if listing.MaxAttempts <= content.MaxAttempts {
		t.Errorf("listing attempts = %d, content attempts = %d, want listing > content",
			listing.MaxAttempts, content.MaxAttempts)
	}
	if content.MaxDelay > listing.MaxDelay {
		t.Errorf("content MaxDelay = %v exceeds listing MaxDelay = %v",
			content.MaxDelay, listing.MaxDelay)
	}
}

func TestHTTPError_Message(t *testing.T) {
	err := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	if got, want := err.Error(), "HTTP 503: Service Unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAddJitter_StaysWithinFraction(t *testing.T) {
	base := 100 * time.Millisecond
	varied := make(map[time.Duration]bool)

	for i := 0; i < 20; i++ {
		got := addJitter(base, 0.2)
		if got < base || got > time.Duration(float64(base)*1.2) {
			t.Fatalf("addJitter = %v, want within [%v, %v]", got, base, time.Duration(float64(base)*1.2))
		}
		varied[got] = true
	}

	if len(varied) < 2 {
		t.Error("jitter produced identical delays across 20 draws")
	}
}

func TestAddJitter_ZeroFractionIsExact(t *testing.T) {
	base := 100 * time.Millisecond
	if got := addJitter(base, 0); got != base {
		t.Errorf("addJitter = %v, want %v", got, base)
	}
}
