package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMemoryCounter_WindowExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryCounter()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, _ := m.Hit(ctx, "k", time.Minute)
		if n != i {
			t.Fatalf("hit %d: got count %d", i, n)
		}
	}

	now = now.Add(2 * time.Minute)
	n, _ := m.Hit(ctx, "k", time.Minute)
	if n != 1 {
		t.Errorf("expected count reset after window, got %d", n)
	}
}

func TestLimiter_AllowAndReset(t *testing.T) {
	l := New(NewMemoryCounter(), "t:", 2, time.Minute, zap.NewNop())
	ctx := context.Background()

	if !l.Allow(ctx, "a") || !l.Allow(ctx, "a") {
		t.Fatal("first two hits should be allowed")
	}
	if l.Allow(ctx, "a") {
		t.Error("third hit should be limited")
	}
	if !l.Allow(ctx, "b") {
		t.Error("other keys are independent")
	}

	l.Reset(ctx, "a")
	if !l.Allow(ctx, "a") {
		t.Error("expected allow after reset")
	}
}

type failingCounter struct{}

func (failingCounter) Hit(context.Context, string, time.Duration) (int64, error) {
	return 0, context.DeadlineExceeded
}
func (failingCounter) Reset(context.Context, string) error { return nil }

func TestLimiter_FailsOpen(t *testing.T) {
	l := New(failingCounter{}, "t:", 1, time.Minute, zap.NewNop())
	for i := 0; i < 5; i++ {
		if !l.Allow(context.Background(), "x") {
			t.Fatal("expected counter errors to fail open")
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"xff first entry", "203.0.113.5, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.5"},
		{"x-real-ip", "", "198.51.100.7", "10.0.0.2:1234", "198.51.100.7"},
		{"remote addr with port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote addr without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/auth/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_EmailLimitAndReset(t *testing.T) {
	ll := NewLoginLimiterWithConfig(NewMemoryCounter(), zap.NewNop(), 100, time.Minute, 2, time.Minute)

	r := httptest.NewRequest("POST", "/auth/login", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Ada@Test.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	ok, reason := ll.Check(r, " ada@test.com ")
	if ok {
		t.Fatal("expected email limit to trip (case/space folded)")
	}
	if reason == "" {
		t.Error("expected a reason when blocked")
	}

	ll.ResetEmail(context.Background(), "ADA@test.com")
	if ok, _ := ll.Check(r, "ada@test.com"); !ok {
		t.Error("expected allow after ResetEmail")
	}
}

func TestLoginLimiter_IPLimit(t *testing.T) {
	ll := NewLoginLimiterWithConfig(NewMemoryCounter(), zap.NewNop(), 1, time.Minute, 100, time.Minute)

	r := httptest.NewRequest("POST", "/auth/login", nil)
	if ok, _ := ll.Check(r, "a@test.com"); !ok {
		t.Fatal("first attempt should be allowed")
	}
	if ok, _ := ll.Check(r, "b@test.com"); ok {
		t.Error("second attempt from same IP should be blocked")
	}
}
