// internal/record/async.go
//
// Async turns any Recorder into a fire-and-forget one: Append only enqueues,
// a single writer goroutine persists in order. Failures are logged and counted
// but never reported back to the session that finished.

package record

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edit0rsky/NumberGame/internal/metrics"
)

const writeTimeout = 5 * time.Second

type job struct {
	sum   Summary
	flush chan struct{} // non-nil for a flush marker
}

type Async struct {
	inner Recorder
	queue chan job
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts the writer goroutine. size bounds the queue; Append returns
// ErrQueueFull instead of blocking when it is full.
func NewAsync(inner Recorder, size int) *Async {
	if size <= 0 {
		size = 64
	}
	a := &Async{
		inner: inner,
		queue: make(chan job, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for j := range a.queue {
		if j.flush != nil {
			close(j.flush)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := a.inner.Append(ctx, j.sum); err != nil {
			metrics.RecorderErrors.Inc()
			log.Warn().Err(err).Str("result", j.sum.ID.String()).Msg("persist result failed")
		}
		cancel()
	}
}

func (a *Async) Append(ctx context.Context, s Summary) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- job{sum: s}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Flush blocks until everything enqueued before the call has been written.
func (a *Async) Flush(ctx context.Context) error {
	marker := make(chan struct{})
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return ErrClosed
	}
	select {
	case a.queue <- job{flush: marker}:
	case <-ctx.Done():
		a.mu.RUnlock()
		return ctx.Err()
	}
	a.mu.RUnlock()

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List, Remove and Clear flush pending appends first so callers read their
// own writes.
func (a *Async) List(ctx context.Context) ([]Summary, error) {
	if err := a.Flush(ctx); err != nil {
		return nil, err
	}
	return a.inner.List(ctx)
}

func (a *Async) Remove(ctx context.Context, id uuid.UUID) error {
	if err := a.Flush(ctx); err != nil {
		return err
	}
	return a.inner.Remove(ctx, id)
}

func (a *Async) Clear(ctx context.Context) error {
	if err := a.Flush(ctx); err != nil {
		return err
	}
	return a.inner.Clear(ctx)
}

// Close stops accepting summaries, drains the queue and closes the inner recorder.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.inner.Close()
}
