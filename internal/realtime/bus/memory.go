package bus

import (
	"context"
	"sync"

	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/realtime"
)

type memoryBus struct {
	log    *logger.Logger
	mu     sync.Mutex
	nextID int
	subs   map[int]chan realtime.ChangeEvent
	closed bool
}

// NewMemoryBus returns an in-process hub. Slow subscribers drop events
// rather than block publishers; watchers re-query on the next event anyway.
func NewMemoryBus(log *logger.Logger) Bus {
	return &memoryBus{
		log:  log.With("service", "MemoryBus"),
		subs: make(map[int]chan realtime.ChangeEvent),
	}
}

func (b *memoryBus) Publish(_ context.Context, ev realtime.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.log.Debug("dropping change event for slow subscriber", "subscriber", id)
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context) (<-chan realtime.ChangeEvent, func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan realtime.ChangeEvent, 16)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	stopped := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stopped)
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stopped:
		}
	}()
	return ch, cancel, nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
