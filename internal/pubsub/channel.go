// Package pubsub provides one-way, close-safe event channels and a fan-out publisher, used to
// carry pipeline events to whatever is watching without the workers ever blocking on a stuck
// or departed consumer.
package pubsub

import (
	"sync"
)

type Sender[T any] interface {
	// Send attempts to deliver a message, returning false if the receiving side is closed.
	Send(T) bool
}

type Receiver[T any] interface {
	Receive() <-chan T
}

type Closer interface {
	Close()
	Closed() <-chan struct{}
}

type SenderCloser[T any] interface {
	Sender[T]
	Closer
}

type ReceiverCloser[T any] interface {
	Receiver[T]
	Closer
}

type Channel[T any] interface {
	Sender[T]
	Receiver[T]
	Closer
}

// channel wraps a primitive `chan` in concurrency-safe close semantics: Send never panics on a
// closed channel, and Close waits for in-flight senders before closing the underlying chan.
type channel[T any] struct {
	mu      sync.RWMutex
	ch      chan T
	done    chan struct{}
	closed  bool
	waiting sync.WaitGroup
}

// NewChannel creates a new channel of the specified type and buffer size.
func NewChannel[T any](bufSize int) Channel[T] {
	return &channel[T]{
		ch:   make(chan T, bufSize),
		done: make(chan struct{}),
	}
}

// Receive returns a channel receiver for awaiting the next message.
func (c *channel[T]) Receive() <-chan T {
	return c.ch
}

// Send will attempt to send a message, returning true if successful, or false if the channel is
// closed (before or during the send).
func (c *channel[T]) Send(msg T) bool {
	// Atomically ensure that either the channel send is never attempted or that Close() waits
	// until no more sends will occur
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false
	}
	c.waiting.Add(1)
	defer c.waiting.Done()
	c.mu.RUnlock()

	select {
	case c.ch <- msg:
		return true
	case <-c.done:
		return false
	}
}

// Close idempotently ends the channel so that all current and future Send calls will fail.
func (c *channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	// Stop any waiting senders, and wait for them to exit, before closing the channel to
	// notify receiver(s)
	close(c.done)
	c.waiting.Wait()
	close(c.ch)
	c.closed = true
}

func (c *channel[T]) Closed() <-chan struct{} {
	return c.done
}
