package pubsub

import (
	"errors"
	"sync"

	"github.com/clipforge/clipforge/generic"
	"github.com/clipforge/clipforge/internal/sync_"
)

const (
	DefaultPublisherBufSize  = 1
	DefaultSubscriberBufSize = 1
)

var ErrPublisherClosed = errors.New("publisher closed")

type Publisher[T any] interface {
	SenderCloser[T]
	// AddSubscriber attaches an existing sender as a subscriber. If owned is true, the
	// subscriber is closed when the publisher closes; pass false when forwarding into a
	// publisher with a wider lifetime than this one.
	AddSubscriber(s SenderCloser[T], owned bool) error
	Subscribe() (ReceiverCloser[T], error)
	SubscribeBufSize(int) (ReceiverCloser[T], error)
}

type subscription[T any] struct {
	sender SenderCloser[T]
	owned  bool
}

type publisher[T any] struct {
	mu          sync.Mutex
	ch          Channel[T]
	running     sync.WaitGroup // Fan-out goroutine in progress
	pending     sync.WaitGroup // Messages not yet sent to all subscribers
	subscribers *sync_.Mutexed[generic.Set[subscription[T]]]
	closed      bool
}

func NewPublisher[T any]() Publisher[T] {
	return NewPublisherBufSize[T](DefaultPublisherBufSize)
}

func NewPublisherBufSize[T any](bufSize int) Publisher[T] {
	p := &publisher[T]{
		ch:          NewChannel[T](bufSize),
		subscribers: sync_.NewMutexed(generic.NewSet[subscription[T]]()),
	}
	p.running.Add(1)
	go func() {
		defer p.running.Done()
		for v := range p.ch.Receive() {
			// Snapshot the subscriber set, to avoid holding a lock that would prevent
			// adding new subscribers mid-delivery
			var subs []subscription[T]
			_ = p.subscribers.Locked(func(subscribers generic.Set[subscription[T]]) error {
				subs = subscribers.ToSlice()
				return nil
			})
			for _, s := range subs {
				if ok := s.sender.Send(v); !ok {
					p.unsubscribe(s)
				}
			}
			p.pending.Done()
		}
	}()
	return p
}

// Send publishes the value to all subscribers. A subscriber that has closed is dropped rather
// than blocking delivery to the others.
func (p *publisher[T]) Send(msg T) bool {
	p.pending.Add(1)
	if ok := p.ch.Send(msg); !ok {
		p.pending.Done()
		return false
	}
	return true
}

func (p *publisher[T]) Subscribe() (ReceiverCloser[T], error) {
	return p.SubscribeBufSize(DefaultSubscriberBufSize)
}

func (p *publisher[T]) SubscribeBufSize(bufSize int) (ReceiverCloser[T], error) {
	s := NewChannel[T](bufSize)
	if err := p.AddSubscriber(s, true); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *publisher[T]) AddSubscriber(s SenderCloser[T], owned bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	return p.subscribers.Locked(func(subscribers generic.Set[subscription[T]]) error {
		subscribers.Add(subscription[T]{sender: s, owned: owned})
		return nil
	})
}

func (p *publisher[T]) unsubscribe(s subscription[T]) {
	_ = p.subscribers.Locked(func(subscribers generic.Set[subscription[T]]) error {
		subscribers.Remove(s)
		return nil
	})
}

// Close idempotently shuts down the publisher, closing all owned subscribers too.
func (p *publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	// Close the send channel and wait for in-flight messages to flush
	p.ch.Close()
	p.pending.Wait()
	p.running.Wait()
	var subs []subscription[T]
	_ = p.subscribers.Locked(func(subscribers generic.Set[subscription[T]]) error {
		subs = subscribers.ToSlice()
		subscribers.Clear()
		return nil
	})
	for _, s := range subs {
		if s.owned {
			s.sender.Close()
		}
	}
	p.closed = true
}

func (p *publisher[T]) Closed() <-chan struct{} {
	return p.ch.Closed()
}
