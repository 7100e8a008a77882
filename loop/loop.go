/*
Package loop implements the cooperative scheduler streams run on.

A Loop is a FIFO of deferred tasks. Tasks only ever run on the goroutine
that drains the loop, so everything they touch is single-threaded. Any
goroutine may Defer a task; this is how work finished elsewhere (a blocking
read, a timer) re-enters the streams that are owned by the loop.

There are two ways to drive a loop. Drain runs queued tasks on the calling
goroutine until none are left, which suits tests and fully synchronous
code. Run does the same and then waits for more tasks until its context is
done.
*/
package loop

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"pipelined.dev/stream/fifo"
	"pipelined.dev/stream/log"
)

// Loop is a deferred task queue.
type Loop struct {
	mu    sync.Mutex
	tasks *fifo.Queue[func()]
	wake  chan struct{}
	log   logrus.FieldLogger
}

// Option provides a way to set functional parameters to the loop.
type Option func(*Loop)

// WithLogger sets logger to the loop. If this option is not provided,
// silent logger is used.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Loop) {
		l.log = logger
	}
}

// New returns an empty loop.
func New(options ...Option) *Loop {
	l := &Loop{
		tasks: fifo.New[func()](0),
		wake:  make(chan struct{}, 1),
		log:   log.Discard(),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Defer queues fn to run after every task queued before it. It's safe to
// call from any goroutine.
func (l *Loop) Defer(fn func()) {
	l.mu.Lock()
	l.tasks.Push(fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.Len()
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.Shift()
}

// Drain runs tasks until the queue is empty, including the ones queued
// while draining. It returns number of executed tasks.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Run drains the loop every time new tasks arrive until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if n := l.Drain(); n > 0 {
			l.log.WithField("tasks", n).Trace("loop drained")
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Call runs fn on the loop and waits until it's executed. It must not be
// called from a task, because the loop would wait for itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Defer(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
