package bus

import (
	"context"
	"sync"
)

// MessageBus is a hub-and-spoke bus connecting platform adapters to the
// moderation runtime: adapters publish inbound events, the runtime consumes
// them, and outbound notices flow back to subscribed adapters.
type MessageBus struct {
	inbound  chan InboundEvent
	outbound chan OutboundNotice
	subs     map[string][]func(OutboundNotice) // platform name -> subscribers
	mu       sync.RWMutex
}

// NewMessageBus creates a MessageBus with the given buffer size.
// If bufSize is 0, defaults to 100.
func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 100
	}
	return &MessageBus{
		inbound:  make(chan InboundEvent, bufSize),
		outbound: make(chan OutboundNotice, bufSize),
		subs:     make(map[string][]func(OutboundNotice)),
	}
}

// PublishInbound sends an inbound event onto the bus.
func (b *MessageBus) PublishInbound(ev InboundEvent) {
	b.inbound <- ev
}

// PublishOutbound sends an outbound notice onto the bus.
func (b *MessageBus) PublishOutbound(n OutboundNotice) {
	b.outbound <- n
}

// ConsumeInbound blocks until an inbound event is available or ctx is cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundEvent, error) {
	select {
	case ev, ok := <-b.inbound:
		if !ok {
			return InboundEvent{}, context.Canceled
		}
		return ev, nil
	case <-ctx.Done():
		return InboundEvent{}, ctx.Err()
	}
}

// Subscribe registers fn to receive outbound notices for the given platform.
// An empty platform string subscribes to ALL platforms.
func (b *MessageBus) Subscribe(platform string, fn func(OutboundNotice)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[platform] = append(b.subs[platform], fn)
}

// DispatchOutbound runs in a goroutine, reading outbound notices and
// delivering them to matching subscribers. Returns when ctx is cancelled
// or the outbound channel is closed.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case n, ok := <-b.outbound:
			if !ok {
				return
			}
			b.dispatch(n)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch delivers n to all matching subscribers (platform-specific + wildcard).
func (b *MessageBus) dispatch(n OutboundNotice) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, fn := range b.subs[n.Platform] {
		fn(n)
	}
	for _, fn := range b.subs[""] {
		fn(n)
	}
}

// Close closes both the inbound and outbound channels.
func (b *MessageBus) Close() {
	close(b.inbound)
	close(b.outbound)
}
