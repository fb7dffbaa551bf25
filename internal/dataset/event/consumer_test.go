package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkglog"
)

type handlerFunc func(ctx context.Context, event entity.DatasetReadyEvent) error

func (h handlerFunc) Handle(ctx context.Context, event entity.DatasetReadyEvent) error {
	return h(ctx, event)
}

func TestReadyConsumerRetriesAndIdempotent(t *testing.T) {
	bus := NewBus(10)

	var attempts int32
	done := make(chan struct{})
	handler := handlerFunc(func(ctx context.Context, event entity.DatasetReadyEvent) error {
		if pkglog.GetCorrelationID(ctx) != "evt-7" {
			t.Errorf("unexpected correlation id %q", pkglog.GetCorrelationID(ctx))
		}
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("temporary failure")
		}
		close(done)
		return nil
	})

	consumer := NewReadyConsumer(bus, handler, ConsumerConfig{
		Workers:     1,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	})
	consumer.Start()

	event := entity.DatasetReadyEvent{EventID: 7, DatasetID: "ds-1"}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish duplicate: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler")
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestReadyConsumerGivesUp(t *testing.T) {
	bus := NewBus(1)

	var attempts int32
	consumer := NewReadyConsumer(bus, handlerFunc(func(ctx context.Context, event entity.DatasetReadyEvent) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("permanent failure")
	}), ConsumerConfig{Workers: 1, MaxRetries: 1, BaseBackoff: time.Millisecond})
	consumer.Start()

	if err := bus.Publish(context.Background(), entity.DatasetReadyEvent{EventID: 1, DatasetID: "ds-1"}); err != nil {
		t.Fatalf("publish event: %v", err)
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestBusClosed(t *testing.T) {
	bus := NewBus(0)
	bus.Close()
	bus.Close()

	err := bus.Publish(context.Background(), entity.DatasetReadyEvent{EventID: 1})
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}

func TestBusPublishHonorsContext(t *testing.T) {
	bus := NewBus(1)
	if err := bus.Publish(context.Background(), entity.DatasetReadyEvent{EventID: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := bus.Publish(ctx, entity.DatasetReadyEvent{EventID: 2}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type testSaver struct {
	mu    sync.Mutex
	ids   []string
	input usecase.SaveInput
	err   error
}

func (s *testSaver) Save(ctx context.Context, id string, in usecase.SaveInput) (usecase.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return usecase.SaveResult{}, s.err
	}
	s.ids = append(s.ids, id)
	s.input = in
	return usecase.SaveResult{ID: id, Paths: []string{"/out/a.csv"}}, nil
}

func TestAutosaveHandler(t *testing.T) {
	saver := &testSaver{}
	h := AutosaveHandler{
		Saver:   saver,
		Input:   usecase.SaveInput{CleanedName: "clean.csv"},
		Timeout: time.Second,
	}

	if err := h.Handle(context.Background(), entity.DatasetReadyEvent{EventID: 1, DatasetID: "ds-9"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(saver.ids) != 1 || saver.ids[0] != "ds-9" {
		t.Fatalf("unexpected saves: %v", saver.ids)
	}
	if saver.input.CleanedName != "clean.csv" {
		t.Fatalf("unexpected input: %+v", saver.input)
	}

	saver.err = errors.New("disk full")
	if err := h.Handle(context.Background(), entity.DatasetReadyEvent{EventID: 2, DatasetID: "ds-9"}); err == nil {
		t.Fatal("expected save error")
	}

	if err := h.Handle(context.Background(), entity.DatasetReadyEvent{EventID: 3}); err == nil {
		t.Fatal("expected error for missing dataset id")
	}
}

func TestLogHandler(t *testing.T) {
	if err := (LogHandler{}).Handle(context.Background(), entity.DatasetReadyEvent{DatasetID: "ds-1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := (LogHandler{}).Handle(context.Background(), entity.DatasetReadyEvent{}); err == nil {
		t.Fatal("expected error for missing dataset id")
	}
}
