package stream

import (
	"pipelined.dev/stream/loop"
)

// Transform is a duplex stream where written items are transformed and
// pushed to the readable side. At most one written item is held while
// the readable side is full.
//
// Read, write and final workers are provided by the transform itself,
// WithRead, WithWrite, WithWritev and WithFinal options are ignored.
type Transform struct {
	Duplex
	pending     any
	hasPending  bool
	afterFinal  Callback
	transformFn TransformFunc
	flushFn     FlushFunc
}

func identity(data any, cb TransformCallback) {
	cb(data, nil)
}

func noopFlush(cb TransformCallback) {
	cb(nil, nil)
}

// NewTransform returns a transform stream that runs on l. Without
// WithTransform items are passed as is.
func NewTransform(l *loop.Loop, opts ...Option) *Transform {
	o := newOptions(opts)
	t := &Transform{
		Duplex:      *newDuplex(newStream(l, "transform", o), o),
		transformFn: identity,
		flushFn:     noopFlush,
	}
	if o.transform != nil {
		t.transformFn = o.transform
	}
	if o.flush != nil {
		t.flushFn = o.flush
	}
	t.batching = false
	t.readFn = t.release
	t.writeFn = t.hold
	t.finalFn = t.flush
	t.destroyed = t.dropPending
	return t
}

// NewPassThrough returns a transform which passes items as is.
func NewPassThrough(l *loop.Loop, opts ...Option) *Transform {
	t := NewTransform(l, opts...)
	t.transformFn = identity
	t.flushFn = noopFlush
	return t
}

// hold transforms data unless the readable side is full.
// Pipe writes all transformed data into dst. See Readable.Pipe.
func (t *Transform) Pipe(dst Sink, done func(error)) error {
	return pipe(t, dst, done)
}

func (t *Transform) hold(data any, _ Callback) {
	if t.rs.buffered >= t.rs.highWaterMark {
		t.pending, t.hasPending = data, true
		return
	}
	t.transformFn(data, t.afterTransform)
}

// release transforms the held item once there is room for it.
func (t *Transform) release(cb Callback) {
	if !t.hasPending {
		cb(nil)
		return
	}
	data := t.pending
	t.pending, t.hasPending = nil, false
	cb(nil)
	t.transformFn(data, t.afterTransform)
}

func (t *Transform) afterTransform(out any, err error) {
	if out != nil {
		t.Push(out)
	}
	t.ws.afterWrite(err)
}

func (t *Transform) flush(cb Callback) {
	t.afterFinal = cb
	t.flushFn(t.afterFlush)
}

func (t *Transform) afterFlush(out any, err error) {
	cb := t.afterFinal
	if err != nil {
		cb(err)
		return
	}
	if out != nil {
		t.Push(out)
	}
	t.Push(nil)
	cb(nil)
}

// dropPending completes the held write when the stream is destroyed.
func (t *Transform) dropPending() {
	if t.hasPending {
		t.pending, t.hasPending = nil, false
		t.afterTransform(nil, nil)
	}
}
