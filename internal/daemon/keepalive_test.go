package daemon

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKeepaliveBeginEndDefersIdleTimerUntilRequestCompletes(t *testing.T) {
	var fired atomic.Int32
	ka := NewKeepalive(20*time.Millisecond, func() { fired.Add(1) })
	defer ka.Stop()

	ka.Begin()

	time.Sleep(40 * time.Millisecond)

	ka.mu.Lock()
	hasTimer := ka.timer != nil
	inFlight := ka.inFlight
	ka.mu.Unlock()

	if hasTimer {
		t.Fatal("timer started while request is still in flight")
	}
	if inFlight != 1 {
		t.Fatalf("inFlight = %d, want 1", inFlight)
	}
	if fired.Load() != 0 {
		t.Fatal("onIdle fired during an in-flight request")
	}

	ka.End()

	ka.mu.Lock()
	hasTimer = ka.timer != nil
	inFlight = ka.inFlight
	ka.mu.Unlock()

	if !hasTimer {
		t.Fatal("timer missing after request completed")
	}
	if inFlight != 0 {
		t.Fatalf("inFlight = %d, want 0", inFlight)
	}
}

func TestKeepaliveWaitsForAllConcurrentRequestsBeforeStartingTimer(t *testing.T) {
	ka := NewKeepalive(20*time.Millisecond, nil)
	defer ka.Stop()

	ka.Begin()
	ka.Begin()
	ka.End()

	time.Sleep(30 * time.Millisecond)

	ka.mu.Lock()
	hasTimer := ka.timer != nil
	inFlight := ka.inFlight
	ka.mu.Unlock()

	if hasTimer {
		t.Fatal("timer started before last in-flight request completed")
	}
	if inFlight != 1 {
		t.Fatalf("inFlight = %d, want 1", inFlight)
	}

	ka.End()

	ka.mu.Lock()
	hasTimer = ka.timer != nil
	ka.mu.Unlock()

	if !hasTimer {
		t.Fatal("timer missing after final in-flight request completed")
	}
}

func TestKeepaliveFiresOnceAfterIdleWindow(t *testing.T) {
	fired := make(chan struct{}, 2)
	ka := NewKeepalive(10*time.Millisecond, func() { fired <- struct{}{} })
	defer ka.Stop()

	ka.Touch()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("onIdle was not called")
	}

	ka.Touch()
	select {
	case <-fired:
		t.Fatal("onIdle fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestKeepaliveIgnoresStaleTimer(t *testing.T) {
	var fired atomic.Int32
	ka := NewKeepalive(time.Hour, func() { fired.Add(1) })
	defer ka.Stop()

	ka.Touch()
	ka.mu.Lock()
	staleID := ka.timerID
	ka.mu.Unlock()
	ka.Touch()

	ka.expire(staleID)
	if fired.Load() != 0 {
		t.Fatal("stale timer triggered onIdle")
	}
}

func TestKeepaliveDisabledWithZeroTimeout(t *testing.T) {
	ka := NewKeepalive(0, func() { t.Error("onIdle called with keepalive disabled") })
	defer ka.Stop()

	ka.Touch()
	ka.Begin()
	ka.End()

	ka.mu.Lock()
	defer ka.mu.Unlock()
	if ka.timer != nil {
		t.Fatal("timer started with zero timeout")
	}
}
