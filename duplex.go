package stream

import (
	"pipelined.dev/stream/internal/state"
	"pipelined.dev/stream/loop"
)

// Duplex is both readable and writable. Sides share the lifecycle: the
// stream is destroyed once both of them are done.
type Duplex struct {
	Readable
}

// NewDuplex returns a duplex stream that runs on l.
func NewDuplex(l *loop.Loop, opts ...Option) *Duplex {
	o := newOptions(opts)
	return newDuplex(newStream(l, "duplex", o), o)
}

func newDuplex(s *Stream, o *options) *Duplex {
	s.state |= state.Opening | state.WriteDone | state.ReadReadAhead
	r := initReadable(s, o)
	s.state = state.Opening | (s.state & state.ReadReadAhead)
	initWritable(s, o)
	return &Duplex{Readable: *r}
}

func (d *Duplex) writableStream() *Stream {
	return d.Stream
}

// Write queues data for the write worker. See Writable.Write.
func (d *Duplex) Write(data any) bool {
	return d.write(data)
}

// End finishes the write side. See Writable.End.
func (d *Duplex) End(data any) {
	d.end(data)
}

// Cork holds queued writes until Uncork.
func (d *Duplex) Cork() {
	d.cork()
}

// Uncork releases writes held by Cork.
func (d *Duplex) Uncork() {
	d.uncork()
}

// Drained is Writable.Drained for the write side.
func (d *Duplex) Drained() <-chan bool {
	return d.drained()
}

// Finished reports whether the final worker completed.
func (d *Duplex) Finished() bool {
	return d.state.Has(state.WriteDone)
}

// OnFinish adds a listener called once the final worker completed.
func (d *Duplex) OnFinish(fn func()) {
	d.on(evFinish, func(any) { fn() }, false)
}

// OnDrain adds a listener called when the write side drains.
func (d *Duplex) OnDrain(fn func()) {
	d.on(evDrain, func(any) { fn() }, false)
}

// OnPipe adds a listener called when a source is piped into the stream.
func (d *Duplex) OnPipe(fn func(src Source)) {
	d.on(evPipe, func(v any) { fn(v.(Source)) }, false)
}

// Pipe writes all data from the readable side into dst. See
// Readable.Pipe.
func (d *Duplex) Pipe(dst Sink, done func(error)) error {
	return pipe(d, dst, done)
}
