package stream

import (
	"context"
	"io"
)

// Iterator reads a stream from goroutines other than the loop one.
type Iterator struct {
	r       *Readable
	err     error
	waiting chan result
	final   *result
}

type result struct {
	data any
	err  error
}

// Iterator returns an iterator over items of the stream. It must be
// called on the loop.
func (r *Readable) Iterator() *Iterator {
	it := &Iterator{r: r}
	r.OnError(func(err error) {
		it.err = err
	})
	r.OnReadable(it.onReadable)
	r.OnEnd(it.onEnd)
	r.OnClose(it.onEnd)
	return it
}

// Next returns the next item of the stream. It returns io.EOF once the
// stream has ended, the stream error if it was destroyed with one, or
// ErrDestroyed if it was destroyed before the end. If ctx is done first,
// the item Next was waiting for is left in the stream.
func (it *Iterator) Next(ctx context.Context) (any, error) {
	c := make(chan result, 1)
	it.r.loop.Defer(func() {
		it.next(c)
	})
	select {
	case res := <-c:
		return res.data, res.err
	case <-ctx.Done():
		it.r.loop.Defer(func() {
			if it.waiting == c {
				it.waiting = nil
				return
			}
			select {
			case res := <-c:
				if res.data != nil {
					it.r.Unshift(res.data)
				}
			default:
			}
		})
		return nil, ctx.Err()
	}
}

// Return destroys the stream and waits until it's closed. Following Next
// calls return io.EOF.
func (it *Iterator) Return(ctx context.Context) error {
	return it.destroy(ctx, nil)
}

// Throw destroys the stream with err and waits until it's closed. It
// returns err and following Next calls return it as well.
func (it *Iterator) Throw(ctx context.Context, err error) error {
	return it.destroy(ctx, err)
}

func (it *Iterator) destroy(ctx context.Context, err error) error {
	closed := make(chan struct{})
	it.r.loop.Defer(func() {
		it.r.Destroy(err)
		if it.final == nil {
			if err != nil {
				it.final = &result{err: err}
			} else {
				it.final = &result{err: io.EOF}
			}
		}
		if it.r.Destroyed() {
			close(closed)
			return
		}
		it.r.on(evClose, func(any) { close(closed) }, true)
	})
	select {
	case <-closed:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (it *Iterator) next(c chan result) {
	if it.final != nil {
		c <- *it.final
		return
	}
	it.waiting = c
	if data := it.r.Read(); data != nil {
		it.resolve(data)
	} else if it.r.Destroyed() || it.r.Ended() {
		it.resolve(nil)
	}
}

func (it *Iterator) onReadable() {
	if it.waiting == nil {
		return
	}
	if data := it.r.Read(); data != nil {
		it.resolve(data)
	}
}

func (it *Iterator) onEnd() {
	if it.waiting != nil && !it.r.state.CanShiftRead() {
		it.resolve(nil)
	}
}

func (it *Iterator) resolve(data any) {
	c := it.waiting
	if c == nil {
		return
	}
	it.waiting = nil
	switch {
	case it.err != nil:
		it.final = &result{err: it.err}
	case data != nil:
		c <- result{data: data}
		return
	case it.r.Ended():
		it.final = &result{err: io.EOF}
	default:
		it.final = &result{err: ErrDestroyed}
	}
	c <- *it.final
}
