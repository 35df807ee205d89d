package notionpress

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	l := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("attempt past the limit should be blocked")
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	l := newRateLimiter(1, time.Minute)

	if !l.Allow("1.1.1.1") {
		t.Fatal("first IP should be allowed")
	}
	if !l.Allow("2.2.2.2") {
		t.Error("limits must be tracked per IP")
	}
	if l.Allow("1.1.1.1") {
		t.Error("first IP should now be blocked")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	l := newRateLimiter(1, 10*time.Millisecond)

	if !l.Allow("1.2.3.4") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("second attempt inside the window should be blocked")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("1.2.3.4") {
		t.Error("attempt after the window should be allowed again")
	}
}
