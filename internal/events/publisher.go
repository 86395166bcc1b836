package events

import (
	"sync"
)

// Publisher defines the interface for event publishing.
type Publisher interface {
	// Publish sends an event to all subscribers.
	Publish(event Event)
	// Subscribe returns a channel that receives published events.
	Subscribe() <-chan Event
	// Unsubscribe removes a subscription channel.
	Unsubscribe(ch <-chan Event)
	// Close shuts down the publisher and all subscriptions.
	Close()
}

// MemoryPublisher is an in-memory implementation of Publisher.
type MemoryPublisher struct {
	subscribers []chan Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
}

// PublisherOption configures a MemoryPublisher.
type PublisherOption func(*MemoryPublisher)

// WithBufferSize sets the channel buffer size for subscribers.
func WithBufferSize(size int) PublisherOption {
	return func(p *MemoryPublisher) {
		p.bufferSize = size
	}
}

// NewMemoryPublisher creates a new in-memory publisher.
func NewMemoryPublisher(opts ...PublisherOption) *MemoryPublisher {
	p := &MemoryPublisher{
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends an event to all subscribers.
// Non-blocking: skips subscribers with full buffers.
func (p *MemoryPublisher) Publish(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			// Skip if channel buffer is full (non-blocking)
		}
	}
}

// Subscribe returns a channel that receives published events.
func (p *MemoryPublisher) Subscribe() <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, p.bufferSize)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription channel.
func (p *MemoryPublisher) Unsubscribe(ch <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, sub := range p.subscribers {
		if sub == ch {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			close(sub)
			break
		}
	}
}

// Close shuts down the publisher and closes all subscription channels.
func (p *MemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil
}

// SubscriberCount returns the number of active subscribers.
func (p *MemoryPublisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}

// NopPublisher is a no-op publisher for testing or when events are disabled.
type NopPublisher struct{}

// Publish does nothing.
func (p *NopPublisher) Publish(event Event) {}

// Subscribe returns a closed channel.
func (p *NopPublisher) Subscribe() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

// Unsubscribe does nothing.
func (p *NopPublisher) Unsubscribe(ch <-chan Event) {}

// Close does nothing.
func (p *NopPublisher) Close() {}

// NewNopPublisher creates a no-op publisher.
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}
