package ratelimit

import (
	"testing"
	"time"
)

func TestAllowUpToLimitThenReject(t *testing.T) {
	window := New(3, time.Minute)
	now := time.Date(2025, time.November, 30, 17, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !window.Allow("key-1", now.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("request %d should fit in the window", i+1)
		}
	}
	if window.Allow("key-1", now.Add(3*time.Second)) {
		t.Fatalf("request over the limit should be rejected")
	}
}

func TestWindowSlides(t *testing.T) {
	window := New(2, time.Minute)
	now := time.Date(2025, time.November, 30, 17, 0, 0, 0, time.UTC)

	if !window.Allow("key-1", now) {
		t.Fatalf("first request should pass")
	}
	if !window.Allow("key-1", now.Add(30*time.Second)) {
		t.Fatalf("second request should pass")
	}
	if window.Allow("key-1", now.Add(40*time.Second)) {
		t.Fatalf("third request inside the window should be rejected")
	}
	if !window.Allow("key-1", now.Add(61*time.Second)) {
		t.Fatalf("request after the first hit expired should pass")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	window := New(1, time.Minute)
	now := time.Now()

	if !window.Allow("key-1", now) {
		t.Fatalf("key-1 should pass")
	}
	if !window.Allow("key-2", now) {
		t.Fatalf("key-2 must not share key-1's budget")
	}
	if window.Allow("key-1", now) {
		t.Fatalf("key-1 should be exhausted")
	}
}
