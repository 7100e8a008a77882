package stream

import (
	"errors"
	"fmt"
	"io"

	"pipelined.dev/stream/loop"
)

// DefaultChunkSize is the size of chunks FromReader reads if zero size is
// provided.
const DefaultChunkSize = 64 * 1024

type flusher interface {
	Flush() error
}

// FromReader returns a readable stream of []byte chunks read from rd.
// Reads are done in a separate goroutine, one at time. If rd is an
// io.Closer, it's closed when the stream is destroyed.
func FromReader(l *loop.Loop, rd io.Reader, chunkSize int, opts ...Option) *Readable {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	read := func(r *Readable, cb Callback) {
		go func() {
			buf := make([]byte, chunkSize)
			var (
				n   int
				err error
			)
			for n == 0 && err == nil {
				n, err = rd.Read(buf)
			}
			l.Defer(func() {
				if n > 0 {
					r.Push(buf[:n])
				}
				switch {
				case errors.Is(err, io.EOF):
					r.Push(nil)
				case err != nil:
					cb(fmt.Errorf("read chunk: %w", err))
					return
				}
				cb(nil)
			})
		}()
	}
	destroy := func(cb Callback) {
		if c, ok := rd.(io.Closer); ok {
			cb(c.Close())
			return
		}
		cb(nil)
	}
	return NewReadable(l, append([]Option{WithRead(read), WithDestroy(destroy)}, opts...)...)
}

// ToWriter returns a writable stream which writes items into w. Byte
// slices and strings are written as is, other items are formatted with
// fmt.Fprint. Writes are done in a separate goroutine, one at time. If w
// has Flush method, it's called when the stream is ended.
func ToWriter(l *loop.Loop, w io.Writer, opts ...Option) *Writable {
	write := func(data any, cb Callback) {
		go func() {
			var err error
			switch v := data.(type) {
			case []byte:
				_, err = w.Write(v)
			case string:
				_, err = io.WriteString(w, v)
			default:
				_, err = fmt.Fprint(w, v)
			}
			if err != nil {
				err = fmt.Errorf("write item: %w", err)
			}
			l.Defer(func() {
				cb(err)
			})
		}()
	}
	final := func(cb Callback) {
		if f, ok := w.(flusher); ok {
			cb(f.Flush())
			return
		}
		cb(nil)
	}
	return NewWritable(l, append([]Option{WithWrite(write), WithFinal(final)}, opts...)...)
}
