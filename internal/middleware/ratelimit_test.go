package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowAndDeny(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(2, time.Minute, func() time.Time { return clock })

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("expected allow")
	}
	if !rl.Allow("10.0.0.1") {
		t.Fatalf("expected allow")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("expected deny")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("other keys should be unaffected")
	}

	clock = clock.Add(time.Minute + time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Fatalf("expected allow after window")
	}
}
