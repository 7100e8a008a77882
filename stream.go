package stream

import (
	"context"
	"errors"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/stream/internal/state"
	"pipelined.dev/stream/loop"
)

// Stream is the base of all stream kinds. It owns the state register and
// the lifecycle: open, destroy and close.
type Stream struct {
	id    string
	kind  string
	loop  *loop.Loop
	state state.Register
	rs    *readableState
	ws    *writableState

	events      emitter
	log         logrus.FieldLogger
	autoDestroy bool
	stopAbort   func() bool

	openFn       func(Callback)
	destroyFn    func(Callback)
	predestroyFn func()
	readFn       func(Callback)
	writeFn      func(any, Callback)
	writevFn     func([]any, Callback)
	finalFn      func(Callback)
	batching     bool
	// destroyed is called by every Destroy call.
	destroyed func()
}

func noopWorker(cb Callback) {
	cb(nil)
}

func newStream(l *loop.Loop, kind string, o *options) *Stream {
	s := &Stream{
		id:           xid.New().String(),
		kind:         kind,
		loop:         l,
		autoDestroy:  !o.noAutoDestroy,
		openFn:       noopWorker,
		destroyFn:    noopWorker,
		predestroyFn: func() {},
	}
	s.log = o.logger.WithFields(logrus.Fields{
		"stream": s.id,
		"kind":   kind,
	})
	if o.open != nil {
		s.openFn = o.open
	}
	if o.destroy != nil {
		s.destroyFn = o.destroy
	}
	if o.predestroy != nil {
		s.predestroyFn = o.predestroy
	}
	if o.ctx != nil {
		s.stopAbort = context.AfterFunc(o.ctx, func() {
			l.Defer(func() {
				s.Destroy(ErrAborted)
			})
		})
	}
	return s
}

// ID returns unique id of the stream.
func (s *Stream) ID() string {
	return s.id
}

// Loop returns the loop the stream runs on.
func (s *Stream) Loop() *loop.Loop {
	return s.loop
}

// Destroyed reports whether the stream is closed.
func (s *Stream) Destroyed() bool {
	return s.state.Has(state.Destroyed)
}

// Destroying reports whether Destroy was called or the stream destroyed
// itself.
func (s *Stream) Destroying() bool {
	return s.state.Has(state.DestroyStatus)
}

// Err returns the error the stream was destroyed with. Nil is returned
// if there was no explicit cause.
func (s *Stream) Err() error {
	err := s.LatchedErr()
	if errors.Is(err, ErrDestroyed) {
		return nil
	}
	return err
}

// LatchedErr is like Err, but also returns ErrDestroyed if the stream
// was destroyed without a cause.
func (s *Stream) LatchedErr() error {
	if s.rs != nil && s.rs.err != nil {
		return s.rs.err
	}
	if s.ws != nil {
		return s.ws.err
	}
	return nil
}

// Destroy tears the stream down. Only the first call has an effect. The
// error is reported through OnError unless it's nil, OnClose follows in
// any case.
func (s *Stream) Destroy(err error) {
	if !s.state.Has(state.DestroyStatus) {
		if err == nil {
			err = ErrDestroyed
		}
		s.log.WithError(err).Debug("destroying")
		s.state = (s.state | state.Destroying) &^ state.Primary

		if s.rs != nil {
			s.rs.highWaterMark = 0
			s.rs.err = err
		}
		if s.ws != nil {
			s.ws.highWaterMark = 0
			s.ws.err = err
		}

		s.state |= state.Predestroying
		s.predestroyFn()
		s.state &^= state.Predestroying

		if s.rs != nil {
			s.rs.updateNextTick()
		}
		if s.ws != nil {
			s.ws.updateNextTick()
		}
	}
	if s.destroyed != nil {
		s.destroyed()
	}
}

// OnOpen adds a listener called once the open worker is done.
func (s *Stream) OnOpen(fn func()) {
	s.on(evOpen, func(any) { fn() }, false)
}

// OnError adds a listener called when the stream is destroyed with an
// error.
func (s *Stream) OnError(fn func(error)) {
	s.on(evError, func(v any) { fn(v.(error)) }, false)
}

// OnClose adds a listener called once the stream is destroyed.
func (s *Stream) OnClose(fn func()) {
	s.on(evClose, func(any) { fn() }, false)
}

// on adds the listener and enables the work it implies.
func (s *Stream) on(ev event, fn func(any), once bool) {
	switch ev {
	case evData:
		if s.rs != nil {
			s.state |= state.ReadEmitData | state.ReadResumedReadAhead
			s.rs.updateNextTick()
		}
	case evReadable:
		if s.rs != nil {
			s.state |= state.ReadEmitReadable
			s.rs.updateNextTick()
		}
	case evDrain:
		if s.ws != nil {
			s.state |= state.WriteEmitDrain
			s.ws.updateNextTick()
		}
	}
	s.events.add(ev, fn, once)
}

func (s *Stream) emit(ev event, v any) bool {
	return s.events.emit(ev, v)
}

// startOpen runs the open worker. The caller checked state.ShouldOpen.
func (s *Stream) startOpen() {
	s.state = (s.state | state.Active) &^ state.Opening
	s.openFn(s.afterOpen)
}

func (s *Stream) afterOpen(err error) {
	if err != nil {
		s.Destroy(err)
	}

	if !s.state.Has(state.Destroying) {
		if s.state.CanBeReadPrimary() {
			s.state |= state.ReadPrimary
		}
		if s.state.CanBeWritePrimary() {
			s.state |= state.WritePrimary
		}
		s.log.Debug("opened")
		s.emit(evOpen, nil)
	}

	s.state &^= state.Active

	if s.ws != nil {
		s.ws.updateCallback()
	}
	if s.rs != nil {
		s.rs.updateCallback()
	}
}

// startDestroy runs the destroy worker. Latched is the error of the side
// which started it.
func (s *Stream) startDestroy(latched error) {
	s.state |= state.Active
	s.destroyFn(func(err error) {
		s.afterDestroy(latched, err)
	})
}

func (s *Stream) afterDestroy(latched, err error) {
	if err == nil && !errors.Is(latched, ErrDestroyed) {
		err = latched
	}
	if err != nil && !s.emit(evError, err) {
		s.log.WithError(err).Warn("destroyed with unhandled error")
	}
	s.state |= state.Destroyed
	if s.stopAbort != nil {
		s.stopAbort()
	}
	s.log.Debug("closed")
	s.emit(evClose, nil)

	if s.rs != nil && s.rs.pipeline != nil {
		s.rs.pipeline.done(s, err)
	}
	if s.ws != nil {
		s.ws.resolveDrains(false)
		if s.ws.pipeline != nil {
			s.ws.pipeline.done(s, err)
		}
	}
}

// requestAutoDestroy marks the stream for destruction once both sides
// are done.
func (s *Stream) requestAutoDestroy() {
	if s.autoDestroy && s.state.ShouldAutoDestroy() {
		s.state |= state.Destroying
	}
}

// Disturbed reports whether the stream was opened or scheduled any work.
func (s *Stream) Disturbed() bool {
	return s.state.Disturbed()
}

// updateLifecycle runs the destroy or open worker if either is due.
func (s *Stream) updateLifecycle(latched error) {
	if s.state.IsDestroying() {
		if s.state.ShouldDestroy() {
			s.startDestroy(latched)
		}
		return
	}
	if s.state.ShouldOpen() {
		s.startOpen()
	}
}

// write queues data on the write side.
func (s *Stream) write(data any) bool {
	s.ws.updateNextTick()
	return s.ws.push(data)
}

// end finishes the write side after data.
func (s *Stream) end(data any) {
	s.ws.updateNextTick()
	s.ws.end(data)
}
