package daemon

import (
	"sync"
	"time"
)

// Keepalive shuts the daemon down after a sliding idle window. The window
// only runs while no request is in flight.
type Keepalive struct {
	mu          sync.Mutex
	timer       *time.Timer
	timerID     uint64
	nextTimerID uint64
	inFlight    int
	timeout     time.Duration
	onIdle      func()
	stopped     bool
}

// NewKeepalive creates a keepalive that calls onIdle once timeout elapses
// with nothing in flight. A timeout <= 0 disables it.
func NewKeepalive(timeout time.Duration, onIdle func()) *Keepalive {
	return &Keepalive{timeout: timeout, onIdle: onIdle}
}

// Begin marks the beginning of an in-flight request.
// Any running idle timer is canceled so a long-running request is never cut off.
func (k *Keepalive) Begin() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.stopTimerLocked()
	k.inFlight++
}

// End marks completion of an in-flight request.
// The idle timer starts only after the final in-flight request completes.
func (k *Keepalive) End() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.inFlight > 1 {
		k.inFlight--
		return
	}
	k.inFlight = 0
	k.startTimerLocked()
}

// Touch restarts the idle window when nothing is in flight.
func (k *Keepalive) Touch() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.inFlight > 0 {
		return
	}
	k.startTimerLocked()
}

func (k *Keepalive) stopTimerLocked() {
	if k.timer != nil {
		k.timer.Stop()
		k.timer = nil
	}
}

func (k *Keepalive) startTimerLocked() {
	k.stopTimerLocked()
	if k.stopped || k.timeout <= 0 {
		return
	}

	k.nextTimerID++
	timerID := k.nextTimerID
	k.timerID = timerID
	k.timer = time.AfterFunc(k.timeout, func() {
		k.expire(timerID)
	})
}

func (k *Keepalive) expire(timerID uint64) {
	k.mu.Lock()
	if k.stopped || k.timer == nil || k.timerID != timerID || k.inFlight > 0 {
		k.mu.Unlock()
		return
	}
	k.timer = nil
	k.stopped = true
	onIdle := k.onIdle
	k.mu.Unlock()

	if onIdle != nil {
		onIdle()
	}
}

// Stop cancels the idle timer for good.
func (k *Keepalive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.stopTimerLocked()
	k.stopped = true
}
