package sync_

import "sync"

// Event is an asynchronous boolean flag that goroutines can wait on, in the style of Python's
// threading.Event.
type Event struct {
	mu    sync.RWMutex
	ch    chan struct{}
	value bool
}

// IsSet returns the current state of the Event.
func (e *Event) IsSet() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.value
}

// Set ensures the Event is true (idempotent), notifying any waiters. Returns true if the state
// was changed.
func (e *Event) Set() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.value {
		return false
	}
	e.value = true
	close(e.getChannel(true))
	return true
}

// Clear ensures the Event is false (idempotent). Returns true if the state was changed.
func (e *Event) Clear() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.value {
		return false
	}
	e.value = false
	e.ch = nil // Next getChannel() will create a new channel
	return true
}

// Wait returns a channel that will close when the Event is true (which may be immediately).
func (e *Event) Wait() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getChannel(true)
}

func (e *Event) getChannel(alreadyLocked bool) chan struct{} {
	if !alreadyLocked {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	if e.value {
		select {
		case <-e.ch:
		default:
			close(e.ch)
		}
	}
	return e.ch
}
