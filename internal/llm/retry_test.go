package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry(p Provider) *RetryProvider {
	r := WithRetry(p, RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}).(*RetryProvider)
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	resp, err := fastRetry(mock).Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` || mock.CallCount() != 3 {
		t.Errorf("content %s after %d calls", resp.Content, mock.CallCount())
	}
}

func TestRetryGivesUp(t *testing.T) {
	down := MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	mock := NewMockProvider(down, down, down, down)
	_, err := fastRetry(mock).Generate(context.Background(), Request{})
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("calls = %d, want 3", mock.CallCount())
	}
}

func TestRetryInvalidResponseOnce(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"level":"expert"}`)},
		MockResponse{Content: json.RawMessage(`{"level":"expert"}`)},
		MockResponse{Content: json.RawMessage(`{"title":"t","level":"basic"}`)},
	)
	_, err := fastRetry(mock).Generate(context.Background(), Request{Schema: levelSchema})
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want invalid response", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"truncated", &ErrMaxTokensExceeded{}},
		{"canceled", context.Canceled},
		{"deadline", context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(MockResponse{Err: tt.err}, MockResponse{Content: json.RawMessage(`{}`)})
			if _, err := fastRetry(mock).Generate(context.Background(), Request{}); !errors.Is(err, tt.err) {
				t.Errorf("err = %v", err)
			}
			if mock.CallCount() != 1 {
				t.Errorf("calls = %d, want 1", mock.CallCount())
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	r := fastRetry(NewMockProvider())
	r.cfg = RetryConfig{MaxAttempts: 5, InitialWait: 100 * time.Millisecond, MaxWait: 300 * time.Millisecond, Multiplier: 2}

	if got := r.backoff(0, &ErrRateLimit{RetryAfter: 7 * time.Second}); got != 7*time.Second {
		t.Errorf("rate limit backoff = %v", got)
	}
	for n, want := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond} {
		got := r.backoff(n, errors.New("x"))
		lo, hi := time.Duration(float64(want)*0.8), time.Duration(float64(want)*1.2)
		if got < lo || got > hi {
			t.Errorf("backoff(%d) = %v, want within 20%% of %v", n, got, want)
		}
	}
}

func TestRetryStopsOnCanceledSleep(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}}, MockResponse{Content: json.RawMessage(`{}`)})
	r := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, Multiplier: 1}).(*RetryProvider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want canceled", err)
	}
}

func TestTimeoutProvider(t *testing.T) {
	var deadline bool
	p := WithTimeout(providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		_, deadline = ctx.Deadline()
		return &Response{}, nil
	}), time.Minute)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
	if !deadline {
		t.Error("request context has no deadline")
	}
	inner := NewMockProvider()
	if WithTimeout(inner, 0) != Provider(inner) {
		t.Error("zero timeout should not wrap")
	}
}

// providerFunc adapts a function to Provider.
type providerFunc func(context.Context, Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }
func (f providerFunc) ModelID() string                                               { return "func" }
