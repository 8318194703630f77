package cache

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(nil)

	for i := 0; i < 10; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	if cb.State() != CircuitClosed {
		t.Errorf("Expected closed state, got %v", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      3,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: 1,
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errBackend })
	}

	if cb.State() != CircuitOpen {
		t.Fatalf("Expected open state after 3 failures, got %v", cb.State())
	}

	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      3,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: 1,
	})

	_ = cb.Execute(func() error { return errBackend })
	_ = cb.Execute(func() error { return errBackend })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errBackend })

	if cb.State() != CircuitClosed {
		t.Errorf("Expected closed state, got %v", cb.State())
	}
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      1,
		Timeout:          10 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})

	_ = cb.Execute(func() error { return errBackend })
	if cb.State() != CircuitOpen {
		t.Fatalf("Expected open state, got %v", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// The probe call is allowed through and its success closes the circuit.
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("Execute() after timeout error = %v", err)
	}

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute() after recovery error = %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("Expected closed state after recovery, got %v", cb.State())
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker(nil)

	_ = cb.Execute(func() error { return errBackend })

	stats := cb.Stats()
	if stats["state"] != "closed" {
		t.Errorf("Expected closed state in stats, got %v", stats["state"])
	}
	if stats["failure_count"] != 1 {
		t.Errorf("Expected failure_count 1, got %v", stats["failure_count"])
	}
}
