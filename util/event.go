package util

import (
	"sync"
	"time"
)

// Event is a one-shot notification. Notify is idempotent; the first call
// records its timestamp so latency from process start ("time to first frame")
// can be reported later.
type Event struct {
	mu       sync.Mutex
	c        chan struct{}
	notified bool
	at       time.Time
}

func NewEvent() *Event {
	return &Event{c: make(chan struct{})}
}

func (e *Event) Notify() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.notified {
		e.notified = true
		e.at = time.Now()
		close(e.c)
	}
}

// Done returns a channel closed once the event has fired. Usable in select.
func (e *Event) Done() <-chan struct{} {
	return e.c
}

func (e *Event) HasFired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notified
}

// FiredAt returns the time of the first Notify, or the zero time if the event
// has not fired.
func (e *Event) FiredAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.at
}
