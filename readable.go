package stream

import (
	"pipelined.dev/stream/fifo"
	"pipelined.dev/stream/internal/state"
	"pipelined.dev/stream/loop"
	"pipelined.dev/stream/metric"
)

// Source is a stream which can be read from: Readable, Duplex or
// Transform.
type Source interface {
	readableStream() *Readable
}

// Readable produces items. Items are pulled from the read worker until
// the buffered weight reaches the high water mark.
type Readable struct {
	*Stream
}

type readableState struct {
	s             *Stream
	queue         *fifo.Queue[any]
	highWaterMark int
	buffered      int
	readAhead     bool
	err           error
	pipeline      *pipeline
	pipeTo        *Stream
	mapFn         func(any) any
	weightFn      func(any) int
	measure       metric.MeasureFunc
	tick          func()
}

func newReadableState(s *Stream, o *options) *readableState {
	hwm := o.hwm()
	rs := readableState{
		s:             s,
		queue:         fifo.New[any](0),
		highWaterMark: hwm,
		readAhead:     hwm > 0,
		mapFn:         o.readableMap,
		weightFn:      o.readableWeight,
		measure:       o.meters(metric.Read),
	}
	if hwm == 0 {
		rs.highWaterMark = 1
	}
	rs.tick = rs.updateNextTickCallback
	return &rs
}

// NewReadable returns a readable stream that runs on l.
func NewReadable(l *loop.Loop, opts ...Option) *Readable {
	o := newOptions(opts)
	s := newStream(l, "readable", o)
	s.state |= state.Opening | state.WriteDone | state.ReadReadAhead
	return initReadable(s, o)
}

func initReadable(s *Stream, o *options) *Readable {
	s.rs = newReadableState(s, o)
	if !s.rs.readAhead {
		s.state &^= state.ReadReadAhead
	}
	r := &Readable{Stream: s}
	s.readFn = noopWorker
	if o.read != nil {
		s.readFn = func(cb Callback) {
			o.read(r, cb)
		}
	}
	if o.eagerOpen {
		s.rs.updateNextTick()
	}
	return r
}

// FromSlice returns a readable stream which produces items and ends. A
// nil item ends the stream early.
func FromSlice(l *loop.Loop, items []any, opts ...Option) *Readable {
	i := 0
	read := func(r *Readable, cb Callback) {
		if i == len(items) {
			r.Push(nil)
		} else {
			r.Push(items[i])
			i++
		}
		cb(nil)
	}
	return NewReadable(l, append(opts, WithRead(read))...)
}

func (r *Readable) readableStream() *Readable {
	return r
}

// Push queues data for consumers. Nil data ends the stream. It returns
// false when the buffered weight has reached the high water mark.
func (r *Readable) Push(data any) bool {
	r.rs.updateNextTickIfOpen()
	return r.rs.push(data)
}

// Unshift puts data back in front of the queue.
func (r *Readable) Unshift(data any) {
	r.rs.updateNextTickIfOpen()
	r.rs.unshift(data)
}

// Read returns the next queued item or nil if there is none. With
// read-ahead disabled, each Read requests one call of read worker.
func (r *Readable) Read() any {
	r.rs.updateNextTick()
	return r.rs.read()
}

// Resume switches the stream into flowing mode.
func (r *Readable) Resume() {
	r.state |= state.ReadResumedReadAhead
	r.rs.updateNextTick()
}

// Pause stops flowing mode.
func (r *Readable) Pause() {
	if r.rs.readAhead {
		r.state &^= state.ReadResumed
	} else {
		r.state &^= state.ReadResumedReadAhead
	}
}

// IsPaused reports whether the stream is not flowing.
func (r *Readable) IsPaused() bool {
	return !r.state.Has(state.ReadResumed)
}

// Ended reports whether all data was consumed after the end of stream.
func (r *Readable) Ended() bool {
	return r.state.Has(state.ReadDone)
}

// Pipe writes all data from the stream into dst and ends it after. Done
// is called once both streams are closed, with the first error that
// occurred. Only one destination is allowed.
func (r *Readable) Pipe(dst Sink, done func(error)) error {
	return pipe(r, dst, done)
}

func pipe(src Source, dst Sink, done func(error)) error {
	r := src.readableStream()
	if r.rs.pipeTo != nil {
		return ErrAlreadyPiped
	}
	r.rs.updateNextTick()
	r.rs.pipe(src, dst, done)
	return nil
}

// OnData adds a listener called with every item. It switches the
// stream into flowing mode.
func (r *Readable) OnData(fn func(data any)) {
	r.on(evData, fn, false)
}

// OnReadable adds a listener called when items are available to Read.
func (r *Readable) OnReadable(fn func()) {
	r.on(evReadable, func(any) { fn() }, false)
}

// OnEnd adds a listener called once all data was consumed.
func (r *Readable) OnEnd(fn func()) {
	r.on(evEnd, func(any) { fn() }, false)
}

// OnPiping adds a listener called when the stream is piped.
func (r *Readable) OnPiping(fn func(dst Sink)) {
	r.on(evPiping, func(v any) { fn(v.(Sink)) }, false)
}

// IsReadBackpressured reports whether src refuses more pushed data.
func IsReadBackpressured(src Source) bool {
	r := src.readableStream()
	return r.state.ReadBackpressured() || r.rs.buffered >= r.rs.highWaterMark
}

func (rs *readableState) pipe(src Source, dst Sink, done func(error)) {
	s := rs.s
	to := dst.writableStream()

	s.state |= state.ReadPipeDrained
	rs.pipeTo = to
	rs.pipeline = newPipeline(s, to, done)
	to.ws.pipeline = rs.pipeline

	if done != nil {
		// errors are reported to done
		s.on(evError, func(any) {}, false)
		to.on(evError, func(any) {}, false)
	}
	to.on(evFinish, rs.pipeline.finished, false)
	to.on(evDrain, func(any) {
		s.state |= state.ReadPipeDrained
		rs.updateCallback()
	}, false)

	s.emit(evPiping, dst)
	to.emit(evPipe, src)
}

func (rs *readableState) push(data any) bool {
	s := rs.s
	if s.state.Has(state.DestroyStatus) {
		return false
	}
	if data == nil {
		rs.highWaterMark = 0
		s.state = (s.state | state.ReadEnding) &^ (state.ReadPrimary | state.ReadNeedsPush)
		return false
	}

	if rs.mapFn != nil {
		if data = rs.mapFn(data); data == nil {
			s.state &^= state.ReadNeedsPush
			return rs.buffered < rs.highWaterMark
		}
	}

	rs.buffered += rs.weightFn(data)
	rs.queue.Push(data)
	s.state = (s.state | state.ReadQueued) &^ state.ReadNeedsPush

	return rs.buffered < rs.highWaterMark
}

func (rs *readableState) shift() any {
	data, _ := rs.queue.Shift()
	rs.buffered -= rs.weightFn(data)
	if rs.queue.IsEmpty() {
		rs.s.state &^= state.ReadQueuedAndEmitted
	}
	return data
}

func (rs *readableState) unshift(data any) {
	if rs.mapFn != nil {
		data = rs.mapFn(data)
	}
	if data == nil {
		return
	}
	queued := make([]any, 0, rs.queue.Len())
	for !rs.queue.IsEmpty() {
		v, _ := rs.queue.Shift()
		queued = append(queued, v)
	}
	rs.queue.Push(data)
	for _, v := range queued {
		rs.queue.Push(v)
	}
	rs.buffered += rs.weightFn(data)
	rs.s.state = (rs.s.state | state.ReadQueued) &^ state.ReadNeedsPush
}

// deliver hands a shifted item to the pipe destination and data
// listeners.
func (rs *readableState) deliver(data any) {
	s := rs.s
	if rs.measure != nil {
		rs.measure(rs.weightFn(data))
	}
	if rs.pipeTo != nil && !rs.pipeTo.write(data) {
		s.state &^= state.ReadFlowing
	}
	if s.state.Has(state.ReadEmitData) {
		s.emit(evData, data)
	}
}

func (rs *readableState) read() any {
	s := rs.s
	if s.state.CanShiftRead() {
		data := rs.shift()
		rs.deliver(data)
		return data
	}
	if !rs.readAhead {
		s.state |= state.ReadReadAhead
		rs.updateNextTick()
	}
	return nil
}

func (rs *readableState) drain() {
	s := rs.s
	for s.state.CanShiftRead() && s.state.Flowing() {
		rs.deliver(rs.shift())
	}
}

func (rs *readableState) update() {
	s := rs.s
	s.state |= state.ReadUpdating

	for {
		rs.drain()

		for rs.buffered < rs.highWaterMark && s.state.ShouldRead() {
			s.state |= state.ReadActiveAndNeedsPush
			s.readFn(rs.afterRead)
			rs.drain()
		}

		if s.state.ShouldEmitReadable() {
			s.state |= state.ReadEmittedReadable
			s.emit(evReadable, nil)
		}

		if !s.state.Has(state.ReadPrimaryAndActive) {
			rs.updateNonPrimary()
		}
		if !rs.continueUpdate() {
			break
		}
	}

	s.state &^= state.ReadUpdating
}

func (rs *readableState) updateNonPrimary() {
	s := rs.s
	if s.state.ShouldEndRead() {
		s.state = (s.state | state.ReadDone) &^ state.ReadEnding
		s.log.Debug("ended")
		s.emit(evEnd, nil)
		s.requestAutoDestroy()
		if rs.pipeTo != nil {
			rs.pipeTo.end(nil)
		}
	}
	s.updateLifecycle(rs.err)
}

func (rs *readableState) continueUpdate() bool {
	if !rs.s.state.Has(state.ReadNextTick) {
		return false
	}
	rs.s.state &^= state.ReadNextTick
	return true
}

func (rs *readableState) afterRead(err error) {
	s := rs.s
	if err != nil {
		s.Destroy(err)
	}
	s.state &^= state.ReadActive
	if !rs.readAhead && !s.state.Has(state.ReadResumed) {
		s.state &^= state.ReadReadAhead
	}
	rs.updateCallback()
}

func (rs *readableState) updateCallback() {
	if rs.s.state.ReadSync() {
		rs.update()
	} else {
		rs.updateNextTick()
	}
}

func (rs *readableState) updateNextTickIfOpen() {
	if rs.s.state.ReadNextTickBlocked() {
		return
	}
	rs.schedule()
}

func (rs *readableState) updateNextTick() {
	if rs.s.state.Has(state.ReadNextTick) {
		return
	}
	rs.schedule()
}

func (rs *readableState) schedule() {
	rs.s.state |= state.ReadNextTick
	if !rs.s.state.Has(state.ReadUpdating) {
		rs.s.loop.Defer(rs.tick)
	}
}

func (rs *readableState) updateNextTickCallback() {
	if !rs.s.state.Has(state.ReadUpdating) {
		rs.s.state &^= state.ReadNextTick
		rs.update()
	}
}
