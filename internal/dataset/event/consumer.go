package event

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkglog"
)

type Handler interface {
	Handle(ctx context.Context, event entity.DatasetReadyEvent) error
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
}

// ReadyConsumer drains the bus with a fixed number of workers. Each event is
// handled at most once per EventID and retried with exponential backoff.
type ReadyConsumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        sync.Map
	wg          sync.WaitGroup
}

func NewReadyConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *ReadyConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 2
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	return &ReadyConsumer{
		bus:         bus,
		handler:     handler,
		workers:     workers,
		maxRetries:  max(cfg.MaxRetries, 0),
		baseBackoff: baseBackoff,
	}
}

func (c *ReadyConsumer) Start() {
	for range c.workers {
		c.wg.Add(1)
		go c.worker()
	}
}

// Stop closes the bus and waits for queued events to be handled.
func (c *ReadyConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ReadyConsumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *ReadyConsumer) processEvent(event entity.DatasetReadyEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != 0 {
		if _, loaded := c.seen.LoadOrStore(event.EventID, struct{}{}); loaded {
			slog.Info("skip duplicate dataset event", "event_id", event.EventID, "dataset_id", event.DatasetID)
			return
		}
	}

	ctx := pkglog.SetCorrelationID(context.Background(), "evt-"+strconv.FormatInt(event.EventID, 10))

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(ctx, event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.ErrorContext(ctx, "failed to handle dataset event after retries",
				"event_id", event.EventID, "dataset_id", event.DatasetID, "attempts", attempt+1, "error", err)
			return
		}

		slog.WarnContext(ctx, "dataset event failed, retrying", "dataset_id", event.DatasetID, "backoff", backoff, "error", err)
		time.Sleep(backoff)
		backoff *= 2
	}
}

// LogHandler records the event and nothing else.
type LogHandler struct{}

func (LogHandler) Handle(ctx context.Context, event entity.DatasetReadyEvent) error {
	if event.DatasetID == "" {
		return errors.New("missing dataset id")
	}

	slog.InfoContext(ctx, "dataset ready", "event_id", event.EventID, "dataset_id", event.DatasetID, "file_name", event.FileName)
	return nil
}

type DatasetSaver interface {
	Save(ctx context.Context, id string, in usecase.SaveInput) (usecase.SaveResult, error)
}

// AutosaveHandler writes both variants of every finished dataset to the
// export folder.
type AutosaveHandler struct {
	Saver   DatasetSaver
	Input   usecase.SaveInput
	Timeout time.Duration
}

func (h AutosaveHandler) Handle(ctx context.Context, event entity.DatasetReadyEvent) error {
	if event.DatasetID == "" {
		return errors.New("missing dataset id")
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	res, err := h.Saver.Save(ctx, event.DatasetID, h.Input)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "dataset autosaved", "dataset_id", event.DatasetID, "paths", res.Paths)
	return nil
}
