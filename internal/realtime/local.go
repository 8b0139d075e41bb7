package realtime

import (
	"context"
	"sync"
	"time"
)

// LocalBus delivers changes to in-process subscribers only. Handlers run
// synchronously on the publishing goroutine.
type LocalBus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(Change)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]func(Change))}
}

func (b *LocalBus) Publish(_ context.Context, c Change) error {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	b.mu.RLock()
	hs := make([]func(Change), 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(c)
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, handler func(Change)) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}
