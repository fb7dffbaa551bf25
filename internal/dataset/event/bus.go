package event

import (
	"context"
	"errors"
	"sync"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

var ErrBusClosed = errors.New("event bus is closed")

// Bus is an in-process queue of dataset events. Publish blocks while the
// buffer is full.
type Bus struct {
	mu     sync.RWMutex
	closed bool
	ch     chan entity.DatasetReadyEvent
}

func NewBus(buffer int) *Bus {
	return &Bus{
		ch: make(chan entity.DatasetReadyEvent, max(buffer, 1)),
	}
}

func (b *Bus) Publish(ctx context.Context, event entity.DatasetReadyEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Subscribe() <-chan entity.DatasetReadyEvent {
	return b.ch
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.ch)
}
