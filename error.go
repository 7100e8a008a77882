package stream

import "errors"

var (
	// ErrDestroyed is latched when a stream is destroyed without a cause.
	// It's not reported through OnError.
	ErrDestroyed = errors.New("stream was destroyed")
	// ErrPrematureClose is returned by Pipeline when the last stream closes
	// before it's finished.
	ErrPrematureClose = errors.New("premature close")
	// ErrWritableClosedPrematurely destroys a pipe source when its
	// destination closes before the source is done.
	ErrWritableClosedPrematurely = errors.New("writable stream closed prematurely")
	// ErrReadableClosedBeforeEnding destroys a pipe destination when its
	// source closes before it has ended.
	ErrReadableClosedBeforeEnding = errors.New("readable stream closed before ending")
	// ErrAborted destroys a stream when its context is done.
	ErrAborted = errors.New("stream aborted")
	// ErrAlreadyPiped is returned if a readable is piped twice.
	ErrAlreadyPiped = errors.New("can only pipe to one destination")
	// ErrInvalidPipeline is returned if Pipeline can't connect the streams.
	ErrInvalidPipeline = errors.New("invalid pipeline")
)
