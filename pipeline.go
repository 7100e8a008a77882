package stream

import (
	"fmt"

	"pipelined.dev/stream/internal/state"
)

// pipeline couples a piped source and destination. Each of them reports
// here once when it's closed, done is called after both did.
type pipeline struct {
	from       *Stream
	to         *Stream
	afterPipe  func(error)
	err        error
	toFinished bool
}

func newPipeline(from, to *Stream, done func(error)) *pipeline {
	return &pipeline{
		from:      from,
		to:        to,
		afterPipe: done,
	}
}

func (p *pipeline) finished(any) {
	p.toFinished = true
}

func (p *pipeline) done(s *Stream, err error) {
	if err != nil && p.err == nil {
		p.err = err
	}

	if s == p.to {
		p.to = nil
		if p.from != nil {
			if !p.from.state.Has(state.ReadDone) || !p.toFinished {
				p.from.Destroy(p.errOr(ErrWritableClosedPrematurely))
			}
			return
		}
	}

	if s == p.from {
		p.from = nil
		if p.to != nil {
			if !s.state.Has(state.ReadDone) {
				p.to.Destroy(p.errOr(ErrReadableClosedBeforeEnding))
			}
			return
		}
	}

	if p.afterPipe != nil {
		p.afterPipe(p.err)
	}
	p.to, p.from, p.afterPipe = nil, nil, nil
}

func (p *pipeline) errOr(err error) error {
	if p.err != nil {
		return p.err
	}
	return err
}

// Pipeline pipes src through every stream of rest in order. All streams
// except the last one must be readable. The first error destroys every
// stream. Done is called once with that error, or with
// ErrPrematureClose if the last stream closes before it's finished.
func Pipeline(done func(error), src Source, rest ...Sink) error {
	if len(rest) == 0 {
		return fmt.Errorf("%w: at least two streams required", ErrInvalidPipeline)
	}
	if src.readableStream().rs.pipeTo != nil {
		return fmt.Errorf("pipeline source %s: %w", src.readableStream().id, ErrAlreadyPiped)
	}
	all := make([]*Stream, 0, len(rest)+1)
	all = append(all, src.readableStream().Stream)
	for i, dst := range rest {
		all = append(all, dst.writableStream())
		if i == len(rest)-1 {
			break
		}
		r, ok := dst.(Source)
		if !ok {
			return fmt.Errorf("%w: stream %s is not readable", ErrInvalidPipeline, dst.writableStream().id)
		}
		if r.readableStream().rs.pipeTo != nil {
			return fmt.Errorf("pipeline stream %s: %w", dst.writableStream().id, ErrAlreadyPiped)
		}
	}

	var err error
	onerror := func(e error) {
		if e == nil || err != nil {
			return
		}
		err = e
		for _, s := range all {
			s.Destroy(e)
		}
	}

	from := src
	for _, dst := range rest {
		from.readableStream().rs.updateNextTick()
		from.readableStream().rs.pipe(from, dst, onerror)
		if r, ok := dst.(Source); ok {
			from = r
		}
	}

	if done == nil {
		return nil
	}
	last := all[len(all)-1]
	finished, called := false, false
	complete := func() {
		if called {
			return
		}
		called = true
		done(err)
	}
	last.on(evError, func(v any) {
		if err == nil {
			err = v.(error)
		}
	}, false)
	last.on(evFinish, func(any) {
		finished = true
		if !last.autoDestroy {
			complete()
		}
	}, false)
	// without auto-destroy a finished stream stays open, but a failed one
	// is still destroyed and only closes
	last.on(evClose, func(any) {
		if err == nil && !finished {
			err = ErrPrematureClose
		}
		complete()
	}, false)
	return nil
}

// PipelineAsync is Pipeline which reports completion to the returned
// channel. The channel receives one value and is closed.
func PipelineAsync(src Source, rest ...Sink) (<-chan error, error) {
	errc := make(chan error, 1)
	err := Pipeline(func(err error) {
		errc <- err
		close(errc)
	}, src, rest...)
	if err != nil {
		return nil, err
	}
	return errc, nil
}

// Wait for the first error or completion.
func Wait(errc <-chan error) error {
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}
