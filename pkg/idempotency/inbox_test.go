package idempotency

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateKeyDeterministic(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	a := GenerateKey("p-1", "a-1", "alert.raised", ts)
	b := GenerateKey("p-1", "a-1", "alert.raised", ts)
	if a != b {
		t.Error("same inputs produced different keys")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestGenerateKeyTruncatesToMinute(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)

	a := GenerateKey("p-1", "a-1", "alert.raised", base.Add(5*time.Second))
	b := GenerateKey("p-1", "a-1", "alert.raised", base.Add(42*time.Second))
	if a != b {
		t.Error("keys within the same minute should match")
	}

	c := GenerateKey("p-1", "a-1", "alert.raised", base.Add(61*time.Second))
	if a == c {
		t.Error("keys across minute boundary should differ")
	}
}

func TestGenerateKeyVariesByComponent(t *testing.T) {
	ts := time.Now()
	base := GenerateKey("p-1", "a-1", "alert.raised", ts)

	if GenerateKey("p-2", "a-1", "alert.raised", ts) == base {
		t.Error("patient id not part of key")
	}
	if GenerateKey("p-1", "a-2", "alert.raised", ts) == base {
		t.Error("event id not part of key")
	}
	if GenerateKey("p-1", "a-1", "alert.resolved", ts) == base {
		t.Error("event type not part of key")
	}
}

func TestIsTerminalError(t *testing.T) {
	if !isTerminalError(errors.New("validation failed: missing title")) {
		t.Error("validation error should be terminal")
	}
	if isTerminalError(errors.New("connection refused")) {
		t.Error("transient error should not be terminal")
	}
}
