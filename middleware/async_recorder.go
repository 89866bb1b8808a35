package middleware

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	defaultAsyncBufferSize  = 128
	defaultAsyncConcurrency = 1
)

type asyncOptions struct {
	bufferSize  int
	concurrency int
}

func defaultAsyncOptions() asyncOptions {
	return asyncOptions{
		bufferSize:  defaultAsyncBufferSize,
		concurrency: defaultAsyncConcurrency,
	}
}

// AsyncOption configures an AsyncRecorder.
type AsyncOption func(*asyncOptions)

// WithBufferSize sets the event buffer between the request path and the
// delivery goroutine(s). Defaults to 128.
func WithBufferSize(size int) AsyncOption {
	return func(o *asyncOptions) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithConcurrency sets the number of goroutines draining the buffer.
// Defaults to 1.
func WithConcurrency(n int) AsyncOption {
	return func(o *asyncOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// AsyncRecorder decouples a slow sink from the request path. Record queues
// the event to an internal buffer and returns immediately; dedicated
// goroutines hand buffered events to the wrapped sink. When the buffer is
// full the event is dropped instead of blocking the request.
type AsyncRecorder struct {
	sink     Recorder
	events   chan Event
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewAsyncRecorder starts an AsyncRecorder delivering to sink. Call Close
// to drain the buffer and stop the delivery goroutines.
func NewAsyncRecorder(sink Recorder, opts ...AsyncOption) *AsyncRecorder {
	o := defaultAsyncOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if sink == nil {
		sink = multiRecorder(nil)
	}
	a := &AsyncRecorder{
		sink:     sink,
		events:   make(chan Event, o.bufferSize),
		stopChan: make(chan struct{}),
	}
	a.wg.Add(o.concurrency)
	for i := 0; i < o.concurrency; i++ {
		go a.runProcessor(i)
	}
	return a
}

// Record queues the event without blocking. Events arriving while the
// buffer is full, or after Close, are dropped.
func (a *AsyncRecorder) Record(_ context.Context, ev Event) {
	select {
	case <-a.stopChan:
		log.Warn().Str("key", ev.Key).Msg("async recorder stopped, dropping event")
		return
	default:
	}

	select {
	case a.events <- ev:
	default:
		log.Warn().
			Str("key", ev.Key).
			Int("buffer_cap", cap(a.events)).
			Msg("async recorder buffer full, dropping event")
	}
}

// Close stops intake, waits for the delivery goroutines to drain the
// buffered events, and returns. Safe to call more than once.
func (a *AsyncRecorder) Close() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.wg.Wait()
	})
}

func (a *AsyncRecorder) runProcessor(id int) {
	defer a.wg.Done()
	log.Debug().Int("processor_id", id).Msg("async recorder processor started")

	for {
		select {
		case ev := <-a.events:
			a.deliver(ev)
		case <-a.stopChan:
			// Drain whatever is already buffered, then exit.
			for {
				select {
				case ev := <-a.events:
					a.deliver(ev)
				default:
					log.Debug().Int("processor_id", id).Msg("async recorder processor finished")
					return
				}
			}
		}
	}
}

// deliver hands one event to the sink. The originating request context is
// gone by the time the event is processed, so the sink runs under a
// background context.
func (a *AsyncRecorder) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic_value", r).Str("key", ev.Key).Msg("panic recovered during event delivery")
		}
	}()
	a.sink.Record(context.Background(), ev)
}
