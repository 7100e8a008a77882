package stream_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/stream"
	"pipelined.dev/stream/loop"
	"pipelined.dev/stream/mock"
)

func TestTransformIdentity(t *testing.T) {
	tests := []struct {
		name  string
		opts  []stream.Option
		items int
	}{
		{name: "default mark", items: 100},
		{name: "saturated", opts: []stream.Option{stream.WithHighWaterMark(1)}, items: 100},
		{name: "pass through", opts: []stream.Option{stream.WithTransform(nil)}, items: 10},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := loop.New()
			tr := stream.NewTransform(l, test.opts...)
			var expected []any
			for i := 0; i < test.items; i++ {
				tr.Write(i)
				expected = append(expected, i)
			}
			tr.End(nil)
			var got []any
			tr.OnData(func(data any) {
				got = append(got, data)
			})
			finished, ended := false, false
			tr.OnFinish(func() {
				finished = true
			})
			tr.OnEnd(func() {
				ended = true
			})
			l.Drain()

			assert.Equal(t, expected, got)
			assert.True(t, finished)
			assert.True(t, ended)
			assert.True(t, tr.Destroyed())
		})
	}
}

func TestTransformHoldsOne(t *testing.T) {
	l := loop.New()
	transformed := 0
	tr := stream.NewTransform(l,
		stream.WithHighWaterMark(1),
		stream.WithTransform(func(data any, cb stream.TransformCallback) {
			transformed++
			cb(data, nil)
		}),
	)
	for i := 0; i < 5; i++ {
		tr.Write(i)
	}
	tr.Read()
	l.Drain()

	// one item is queued on readable side and one is held.
	assert.Equal(t, 1, transformed)
	assert.True(t, stream.IsReadBackpressured(tr))

	assert.Equal(t, 0, tr.Read())
	l.Drain()
	assert.Equal(t, 2, transformed)
	assert.Equal(t, 1, tr.Read())
}

func TestTransformFlush(t *testing.T) {
	l := loop.New()
	var sb strings.Builder
	tr := stream.NewTransform(l,
		stream.WithTransform(func(data any, cb stream.TransformCallback) {
			sb.WriteString(data.(string))
			cb(nil, nil)
		}),
		stream.WithFlush(func(cb stream.TransformCallback) {
			cb(sb.String(), nil)
		}),
	)
	sink := mock.Sink{}
	assert.NoError(t, tr.Pipe(sink.Writable(l), nil))
	tr.Write("a")
	tr.Write("b")
	tr.End("c")
	l.Drain()

	assert.Equal(t, []any{"abc"}, sink.Values)
	assert.True(t, sink.Finished)
}

func TestTransformError(t *testing.T) {
	errTransform := errors.New("transform")
	errFlush := errors.New("flush")
	tests := []struct {
		name      string
		transform stream.TransformFunc
		flush     stream.FlushFunc
		err       error
	}{
		{
			name: "transform",
			transform: func(data any, cb stream.TransformCallback) {
				cb(nil, errTransform)
			},
			err: errTransform,
		},
		{
			name: "flush",
			flush: func(cb stream.TransformCallback) {
				cb(nil, errFlush)
			},
			err: errFlush,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := loop.New()
			opts := []stream.Option{}
			if test.transform != nil {
				opts = append(opts, stream.WithTransform(test.transform))
			}
			if test.flush != nil {
				opts = append(opts, stream.WithFlush(test.flush))
			}
			tr := stream.NewTransform(l, opts...)
			var err error
			tr.OnError(func(e error) {
				err = e
			})
			tr.Resume()
			tr.Write(1)
			tr.End(nil)
			l.Drain()

			assert.ErrorIs(t, err, test.err)
			assert.True(t, tr.Destroyed())
			assert.False(t, tr.Ended())
		})
	}
}

func TestTransformDestroyReleasesHeld(t *testing.T) {
	l := loop.New()
	tr := stream.NewTransform(l, stream.WithHighWaterMark(1))
	tr.Write(1)
	tr.Write(2)
	drained := tr.Drained()
	l.Drain()

	tr.Destroy(nil)
	l.Drain()
	assert.True(t, tr.Destroyed())
	// destroy completes the held write.
	assert.True(t, <-drained)
	assert.False(t, <-tr.Drained())
}

func TestDuplex(t *testing.T) {
	l := loop.New()
	var written []any
	d := stream.NewDuplex(l,
		stream.WithWrite(func(data any, cb stream.Callback) {
			written = append(written, data)
			cb(nil)
		}),
		stream.WithRead(func(r *stream.Readable, cb stream.Callback) {
			r.Push("pong")
			r.Push(nil)
			cb(nil)
		}),
	)
	var read []any
	d.OnData(func(data any) {
		read = append(read, data)
	})
	closed := 0
	d.OnClose(func() {
		closed++
	})
	d.Write("ping")
	l.Drain()

	assert.Equal(t, []any{"ping"}, written)
	assert.Equal(t, []any{"pong"}, read)
	assert.True(t, d.Ended())
	assert.False(t, d.Destroyed(), "write side is open")

	d.End(nil)
	l.Drain()
	assert.True(t, d.Finished())
	assert.True(t, d.Destroyed())
	assert.Equal(t, 1, closed)
}
