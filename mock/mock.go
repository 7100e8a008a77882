// Package mock provides stream workers which record what they were called
// with. They are meant to be used in tests of stream consumers.
package mock

import (
	"pipelined.dev/stream"
	"pipelined.dev/stream/loop"
)

// Counter counts calls of workers.
type Counter struct {
	Reads  int
	Writes int
	Items  int
}

// Source produces Limit sequential ints, starting from zero.
type Source struct {
	Limit int
	// Async completes reads on the next loop task.
	Async bool
	// ErrorOnRead is returned by the read that follows the last item.
	ErrorOnRead error
	ErrorOnOpen error
	Counter
	Destroyed bool
}

// Readable returns a readable stream backed by the mock.
func (m *Source) Readable(l *loop.Loop, opts ...stream.Option) *stream.Readable {
	read := func(r *stream.Readable, cb stream.Callback) {
		m.Reads++
		produce := func() {
			switch {
			case m.Items < m.Limit:
				r.Push(m.Items)
				m.Items++
			case m.ErrorOnRead != nil:
				cb(m.ErrorOnRead)
				return
			default:
				r.Push(nil)
			}
			cb(nil)
		}
		if m.Async {
			l.Defer(produce)
			return
		}
		produce()
	}
	return stream.NewReadable(l, append(m.options(), append(opts, stream.WithRead(read))...)...)
}

func (m *Source) options() []stream.Option {
	return []stream.Option{
		stream.WithOpen(func(cb stream.Callback) {
			cb(m.ErrorOnOpen)
		}),
		stream.WithDestroy(func(cb stream.Callback) {
			m.Destroyed = true
			cb(nil)
		}),
	}
}

// Sink records written items.
type Sink struct {
	// Async completes writes on the next loop task.
	Async bool
	// ErrorOnWrite is returned by the write of item with index
	// ErrorAfter.
	ErrorOnWrite error
	ErrorAfter   int
	ErrorOnFinal error
	Counter
	Values    []any
	Finished  bool
	Destroyed bool
}

// Writable returns a writable stream backed by the mock.
func (m *Sink) Writable(l *loop.Loop, opts ...stream.Option) *stream.Writable {
	write := func(data any, cb stream.Callback) {
		m.Writes++
		consume := func() {
			if m.ErrorOnWrite != nil && m.Items == m.ErrorAfter {
				cb(m.ErrorOnWrite)
				return
			}
			m.Values = append(m.Values, data)
			m.Items++
			cb(nil)
		}
		if m.Async {
			l.Defer(consume)
			return
		}
		consume()
	}
	return stream.NewWritable(l, append([]stream.Option{
		stream.WithFinal(func(cb stream.Callback) {
			m.Finished = m.ErrorOnFinal == nil
			cb(m.ErrorOnFinal)
		}),
		stream.WithDestroy(func(cb stream.Callback) {
			m.Destroyed = true
			cb(nil)
		}),
		stream.WithWrite(write),
	}, opts...)...)
}
