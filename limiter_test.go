package gitpress

import (
	"testing"
	"time"
)

func TestAuthLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewAuthLimiter(2, 200*time.Millisecond)
	ip := "203.0.113.10"

	if !limiter.Check(ip) {
		t.Fatalf("expected fresh ip to be allowed")
	}
	limiter.Record(ip)
	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected ip to be blocked after max rejections")
	}
}

func TestAuthLimiterCheckDoesNotRecord(t *testing.T) {
	limiter := NewAuthLimiter(1, 200*time.Millisecond)
	ip := "203.0.113.15"

	for i := 0; i < 5; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("check %d was blocked without any recorded rejection", i)
		}
	}
}

func TestAuthLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewAuthLimiter(1, 150*time.Millisecond)
	ip := "203.0.113.20"

	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected ip to be blocked inside the window")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Check(ip) {
		t.Fatalf("expected ip to be allowed after the window")
	}
}

func TestAuthLimiterIsPerIP(t *testing.T) {
	limiter := NewAuthLimiter(1, 200*time.Millisecond)

	limiter.Record("203.0.113.30")
	if limiter.Check("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
	if !limiter.Check("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
}
