package netcore

import (
	"testing"
	"time"
)

func TestHandshakeRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	cfg := HandshakeRateLimitConfig{MaxPerWindow: 3, WindowDuration: time.Minute, CooldownDuration: 0}
	rl := NewHandshakeRateLimiter(cfg)
	defer rl.Stop()

	addr := "10.0.0.1:5555"
	for i := 0; i < 3; i++ {
		if !rl.Allow(addr) {
			t.Fatalf("attempt %d should be allowed within the burst window", i)
		}
	}
	if rl.Allow(addr) {
		t.Fatalf("expected the 4th attempt in the window to be blocked")
	}
}

func TestHandshakeRateLimiterCooldownBlocksRapidRetry(t *testing.T) {
	cfg := HandshakeRateLimitConfig{MaxPerWindow: 10, WindowDuration: time.Minute, CooldownDuration: time.Hour}
	rl := NewHandshakeRateLimiter(cfg)
	defer rl.Stop()

	addr := "10.0.0.2:5555"
	if !rl.Allow(addr) {
		t.Fatalf("first attempt should always be allowed")
	}
	if rl.Allow(addr) {
		t.Fatalf("immediate retry should be blocked by the cooldown")
	}
}

func TestHandshakeRateLimiterIndependentAddresses(t *testing.T) {
	cfg := HandshakeRateLimitConfig{MaxPerWindow: 1, WindowDuration: time.Minute, CooldownDuration: time.Hour}
	rl := NewHandshakeRateLimiter(cfg)
	defer rl.Stop()

	if !rl.Allow("10.0.0.3:1") {
		t.Fatalf("first address's first attempt should be allowed")
	}
	if !rl.Allow("10.0.0.4:1") {
		t.Fatalf("a different address should not be throttled by another address's usage")
	}
}

func TestHandshakeRateLimiterWindowResets(t *testing.T) {
	cfg := HandshakeRateLimitConfig{MaxPerWindow: 1, WindowDuration: 10 * time.Millisecond, CooldownDuration: 0}
	rl := NewHandshakeRateLimiter(cfg)
	defer rl.Stop()

	addr := "10.0.0.5:1"
	if !rl.Allow(addr) {
		t.Fatalf("first attempt should be allowed")
	}
	if rl.Allow(addr) {
		t.Fatalf("second attempt within the same window should be blocked")
	}
	time.Sleep(20 * time.Millisecond)
	if !rl.Allow(addr) {
		t.Fatalf("attempt after the window elapsed should be allowed again")
	}
}
