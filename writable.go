package stream

import (
	"pipelined.dev/stream/fifo"
	"pipelined.dev/stream/internal/state"
	"pipelined.dev/stream/loop"
	"pipelined.dev/stream/metric"
)

// Sink is a stream which can be written to: Writable, Duplex or
// Transform.
type Sink interface {
	writableStream() *Stream
}

// Writable consumes items. Written items are queued and handed to the
// write worker one at time, or in batches to the writev worker.
type Writable struct {
	*Stream
}

type writableState struct {
	s             *Stream
	queue         *fifo.Queue[any]
	highWaterMark int
	buffered      int
	err           error
	pipeline      *pipeline
	drains        []*drain
	mapFn         func(any) any
	weightFn      func(any) int
	measure       metric.MeasureFunc
	tick          func()
}

// drain waits for the number of writes to complete.
type drain struct {
	writes int
	c      chan bool
}

func newWritableState(s *Stream, o *options) *writableState {
	ws := writableState{
		s:             s,
		queue:         fifo.New[any](0),
		highWaterMark: o.hwm(),
		mapFn:         o.writableMap,
		weightFn:      o.writableWeight,
		measure:       o.meters(metric.Write),
	}
	ws.tick = ws.updateNextTickCallback
	return &ws
}

// NewWritable returns a writable stream that runs on l.
func NewWritable(l *loop.Loop, opts ...Option) *Writable {
	o := newOptions(opts)
	s := newStream(l, "writable", o)
	s.state |= state.Opening | state.ReadDone
	initWritable(s, o)
	if o.eagerOpen {
		s.ws.updateNextTick()
	}
	return &Writable{Stream: s}
}

func initWritable(s *Stream, o *options) {
	s.ws = newWritableState(s, o)
	s.writevFn = func(_ []any, cb Callback) { cb(nil) }
	if o.writev != nil {
		s.writevFn = o.writev
		s.batching = o.write == nil
	}
	s.writeFn = s.ws.autoBatch
	if o.write != nil {
		s.writeFn = o.write
	}
	s.finalFn = noopWorker
	if o.final != nil {
		s.finalFn = o.final
	}
}

func (w *Writable) writableStream() *Stream {
	return w.Stream
}

// Write queues data for the write worker. It returns false if the
// caller should wait for drain before writing more. Writes after End or
// Destroy are dropped.
func (w *Writable) Write(data any) bool {
	return w.write(data)
}

// End finishes the stream after all queued data is written. Non-nil
// data is written first.
func (w *Writable) End(data any) {
	w.end(data)
}

// Cork holds queued writes until Uncork.
func (w *Writable) Cork() {
	w.cork()
}

// Uncork releases writes held by Cork.
func (w *Writable) Uncork() {
	w.uncork()
}

// Drained returns a channel which receives true once all data written so
// far is handed to workers and done, or false if the stream is destroyed
// first.
func (w *Writable) Drained() <-chan bool {
	return w.drained()
}

// Finished reports whether the final worker completed.
func (w *Writable) Finished() bool {
	return w.state.Has(state.WriteDone)
}

// OnFinish adds a listener called once the final worker completed.
func (w *Writable) OnFinish(fn func()) {
	w.on(evFinish, func(any) { fn() }, false)
}

// OnDrain adds a listener called when the buffered weight drops back
// after a Write returned false.
func (w *Writable) OnDrain(fn func()) {
	w.on(evDrain, func(any) { fn() }, false)
}

// OnPipe adds a listener called when a source is piped into the stream.
func (w *Writable) OnPipe(fn func(src Source)) {
	w.on(evPipe, func(v any) { fn(v.(Source)) }, false)
}

// IsWriteBackpressured reports whether dst asks producers to wait.
func IsWriteBackpressured(dst Sink) bool {
	return dst.writableStream().state.WriteBackpressured()
}

func (s *Stream) cork() {
	s.state |= state.WriteCorked
}

func (s *Stream) uncork() {
	s.state &^= state.WriteCorked
	s.ws.updateNextTick()
}

func (s *Stream) drained() <-chan bool {
	c := make(chan bool, 1)
	if s.Destroyed() {
		c <- false
		return c
	}
	pending := s.ws.queue.Len()
	if s.batching && pending > 1 {
		pending = 1
	}
	if s.state.Has(state.WriteWriting) {
		pending++
	}
	if pending == 0 {
		c <- true
		return c
	}
	s.ws.drains = append(s.ws.drains, &drain{writes: pending, c: c})
	return c
}

func (ws *writableState) push(data any) bool {
	s := ws.s
	if s.state.DropsWrites() {
		return false
	}
	if ws.mapFn != nil {
		data = ws.mapFn(data)
	}

	ws.buffered += ws.weightFn(data)
	ws.queue.Push(data)

	if ws.buffered < ws.highWaterMark {
		s.state |= state.WriteQueued
		return true
	}
	s.state |= state.WriteQueuedAndUndrained
	return false
}

func (ws *writableState) shift() any {
	data, _ := ws.queue.Shift()
	w := ws.weightFn(data)
	ws.buffered -= w
	if ws.queue.IsEmpty() {
		ws.s.state &^= state.WriteQueued
	}
	if ws.measure != nil {
		ws.measure(w)
	}
	return data
}

func (ws *writableState) end(data any) {
	if data != nil {
		ws.push(data)
	}
	ws.s.state = (ws.s.state | state.WriteFinishing) &^ state.WritePrimary
}

// autoBatch collects the item with everything queued behind it and
// hands them to the writev worker.
func (ws *writableState) autoBatch(data any, cb Callback) {
	s := ws.s
	batch := []any{data}
	for s.state.CanBatchWrite() {
		batch = append(batch, ws.shift())
	}
	if s.state.Has(state.OpenStatus) {
		cb(nil)
		return
	}
	s.writevFn(batch, cb)
}

func (ws *writableState) update() {
	s := ws.s
	s.state |= state.WriteUpdating

	for {
		for s.state.ShouldWrite() {
			data := ws.shift()
			s.state |= state.WriteActiveAndWriting
			s.writeFn(data, ws.afterWrite)
		}

		if !s.state.Has(state.WritePrimaryAndActive) {
			ws.updateNonPrimary()
		}
		if !ws.continueUpdate() {
			break
		}
	}

	s.state &^= state.WriteUpdating
}

func (ws *writableState) updateNonPrimary() {
	s := ws.s
	if s.state.ShouldFinish() {
		s.state |= state.WriteActive
		s.finalFn(ws.afterFinal)
		return
	}
	s.updateLifecycle(ws.err)
}

func (ws *writableState) continueUpdate() bool {
	if !ws.s.state.Has(state.WriteNextTick) {
		return false
	}
	ws.s.state &^= state.WriteNextTick
	return true
}

func (ws *writableState) afterWrite(err error) {
	s := ws.s
	if err != nil {
		s.Destroy(err)
	}
	s.state &^= state.WriteActiveAndWriting

	ws.tickDrains()

	if s.state.ShouldEmitDrain() {
		s.state &^= state.WriteUndrained
		if s.state.Has(state.WriteEmitDrain) {
			s.emit(evDrain, nil)
		}
	}

	ws.updateCallback()
}

func (ws *writableState) afterFinal(err error) {
	s := ws.s
	if err != nil {
		s.Destroy(err)
	}
	if !s.state.Has(state.DestroyStatus) {
		s.state |= state.WriteDone
		s.log.Debug("finished")
		s.emit(evFinish, nil)
	}
	s.requestAutoDestroy()

	s.state &^= state.WriteActiveAndFinishing

	if !s.state.Has(state.WriteUpdating) {
		ws.update()
	} else {
		ws.updateNextTick()
	}
}

// tickDrains counts a completed write for every waiter.
func (ws *writableState) tickDrains() {
	kept := ws.drains[:0]
	for _, d := range ws.drains {
		if d.writes--; d.writes == 0 {
			d.c <- true
			continue
		}
		kept = append(kept, d)
	}
	ws.drains = kept
}

func (ws *writableState) resolveDrains(ok bool) {
	for _, d := range ws.drains {
		d.c <- ok
	}
	ws.drains = nil
}

func (ws *writableState) updateCallback() {
	if ws.s.state.WriteSync() {
		ws.update()
	} else {
		ws.updateNextTick()
	}
}

func (ws *writableState) updateNextTick() {
	s := ws.s
	if s.state.Has(state.WriteNextTick) {
		return
	}
	s.state |= state.WriteNextTick
	if !s.state.Has(state.WriteUpdating) {
		s.loop.Defer(ws.tick)
	}
}

func (ws *writableState) updateNextTickCallback() {
	if !ws.s.state.Has(state.WriteUpdating) {
		ws.s.state &^= state.WriteNextTick
		ws.update()
	}
}
