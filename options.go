package stream

import (
	"context"

	"github.com/sirupsen/logrus"

	"pipelined.dev/stream/log"
	"pipelined.dev/stream/metric"
)

// DefaultHighWaterMark is the buffered weight at which backpressure is
// signaled if WithHighWaterMark isn't provided.
const DefaultHighWaterMark = 16384

// defaultWeight is the weight of items which have no byte length.
const defaultWeight = 1024

type (
	// Callback completes a worker. It must be called exactly once.
	Callback func(err error)

	// ReadFunc is the read worker. It pushes data into r and calls cb
	// when it's done. A read that doesn't push isn't repeated until data
	// is pushed.
	ReadFunc func(r *Readable, cb Callback)

	// WriteFunc is the write worker. It's called with one item at time.
	WriteFunc func(data any, cb Callback)

	// WritevFunc is the batch write worker. It's used when no WriteFunc
	// is provided and gets all items queued at the moment.
	WritevFunc func(batch []any, cb Callback)

	// TransformCallback completes a transform or flush. Out is pushed to
	// the readable side unless it's nil.
	TransformCallback func(out any, err error)

	// TransformFunc transforms one written item.
	TransformFunc func(data any, cb TransformCallback)

	// FlushFunc is called once after all written items are transformed.
	FlushFunc func(cb TransformCallback)
)

// Option provides a way to set functional parameters to streams. Options
// which don't apply to a stream kind are ignored.
type Option func(*options)

type options struct {
	highWaterMark    int
	highWaterMarkSet bool
	readableMap      func(any) any
	writableMap      func(any) any
	readableWeight   func(any) int
	writableWeight   func(any) int

	open       func(Callback)
	destroy    func(Callback)
	predestroy func()
	read       ReadFunc
	write      WriteFunc
	writev     WritevFunc
	final      func(Callback)
	transform  TransformFunc
	flush      FlushFunc

	eagerOpen     bool
	noAutoDestroy bool
	ctx           context.Context
	logger        logrus.FieldLogger
	meter         string
}

func newOptions(opts []Option) *options {
	o := options{
		readableWeight: weight,
		writableWeight: weight,
		logger:         log.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

func (o *options) hwm() int {
	if o.highWaterMarkSet {
		return o.highWaterMark
	}
	return DefaultHighWaterMark
}

func (o *options) meters(side string) metric.MeasureFunc {
	if o.meter == "" {
		return nil
	}
	return metric.Meter(o.meter, side)()
}

// weight returns byte length of byte slices and strings.
func weight(data any) int {
	switch v := data.(type) {
	case []byte:
		return len(v)
	case string:
		return len(v)
	}
	return defaultWeight
}

// WithHighWaterMark sets the buffered weight at which backpressure is
// signaled. Zero mark on readable side disables read-ahead: the read
// worker is called only on Read.
func WithHighWaterMark(hwm int) Option {
	return func(o *options) {
		o.highWaterMark = hwm
		o.highWaterMarkSet = true
	}
}

// WithMap sets the function applied to every item before it's queued on
// both sides. Nil result drops the item on readable side.
func WithMap(fn func(any) any) Option {
	return func(o *options) {
		o.readableMap = fn
		o.writableMap = fn
	}
}

// WithReadableMap sets the map function for readable side only.
func WithReadableMap(fn func(any) any) Option {
	return func(o *options) {
		o.readableMap = fn
	}
}

// WithWritableMap sets the map function for writable side only.
func WithWritableMap(fn func(any) any) Option {
	return func(o *options) {
		o.writableMap = fn
	}
}

// WithWeight sets the function which measures items for backpressure on
// both sides.
func WithWeight(fn func(any) int) Option {
	return func(o *options) {
		o.readableWeight = fn
		o.writableWeight = fn
	}
}

// WithReadableWeight sets the weight function for readable side only.
func WithReadableWeight(fn func(any) int) Option {
	return func(o *options) {
		o.readableWeight = fn
	}
}

// WithWritableWeight sets the weight function for writable side only.
func WithWritableWeight(fn func(any) int) Option {
	return func(o *options) {
		o.writableWeight = fn
	}
}

// WithOpen sets the open worker. It runs once before any read or write.
func WithOpen(fn func(cb Callback)) Option {
	return func(o *options) {
		o.open = fn
	}
}

// WithDestroy sets the destroy worker. It runs once when the stream is
// destroyed and no worker is in flight.
func WithDestroy(fn func(cb Callback)) Option {
	return func(o *options) {
		o.destroy = fn
	}
}

// WithPredestroy sets the hook called synchronously by the first Destroy.
func WithPredestroy(fn func()) Option {
	return func(o *options) {
		o.predestroy = fn
	}
}

// WithRead sets the read worker.
func WithRead(fn ReadFunc) Option {
	return func(o *options) {
		o.read = fn
	}
}

// WithWrite sets the write worker.
func WithWrite(fn WriteFunc) Option {
	return func(o *options) {
		o.write = fn
	}
}

// WithWritev sets the batch write worker.
func WithWritev(fn WritevFunc) Option {
	return func(o *options) {
		o.writev = fn
	}
}

// WithFinal sets the worker which runs once after all writes are done
// and End was called.
func WithFinal(fn func(cb Callback)) Option {
	return func(o *options) {
		o.final = fn
	}
}

// WithTransform sets the transform worker.
func WithTransform(fn TransformFunc) Option {
	return func(o *options) {
		o.transform = fn
	}
}

// WithFlush sets the flush worker of transform.
func WithFlush(fn FlushFunc) Option {
	return func(o *options) {
		o.flush = fn
	}
}

// WithEagerOpen opens the stream right away instead of on first use.
func WithEagerOpen() Option {
	return func(o *options) {
		o.eagerOpen = true
	}
}

// WithoutAutoDestroy keeps the stream alive after both sides are done.
// It has to be destroyed explicitly.
func WithoutAutoDestroy() Option {
	return func(o *options) {
		o.noAutoDestroy = true
	}
}

// WithContext destroys the stream with ErrAborted when ctx is done.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithLogger sets logger to the stream. If this option is not provided,
// silent logger is used.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetric measures items passing the stream under provided name.
func WithMetric(name string) Option {
	return func(o *options) {
		o.meter = name
	}
}
