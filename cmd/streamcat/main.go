package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pipelined.dev/stream"
	"pipelined.dev/stream/log"
	"pipelined.dev/stream/loop"
	"pipelined.dev/stream/metric"
)

var (
	successExitCode = 0
	errorExitCode   = 1
)

// config holds flags shared by all commands.
type config struct {
	highWaterMark int
	chunkSize     int
	stats         bool
	logger        *logrus.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(errorExitCode)
	}
	os.Exit(successExitCode)
}

func newRootCommand() *cobra.Command {
	c := config{logger: log.GetLogger()}
	root := &cobra.Command{
		Use:          "streamcat",
		Short:        "Streamcat copies input to output through a pipeline of streams",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.logger.SetOutput(cmd.ErrOrStderr())
		},
	}
	flags := root.PersistentFlags()
	flags.IntVar(&c.highWaterMark, "high-water-mark", stream.DefaultHighWaterMark, "buffered bytes per stream side before backpressure")
	flags.IntVar(&c.chunkSize, "chunk-size", stream.DefaultChunkSize, "size of chunks read from input")
	flags.BoolVar(&c.stats, "stats", false, "log throughput when done")
	root.AddCommand(
		newCatCommand(&c),
		newLinesCommand(&c),
	)
	return root
}

func (c *config) validate() error {
	if c.highWaterMark < 0 {
		return errors.New("high water mark must not be negative")
	}
	if c.chunkSize < 0 {
		return errors.New("chunk size must not be negative")
	}
	return nil
}

func (c *config) options() []stream.Option {
	return []stream.Option{
		stream.WithHighWaterMark(c.highWaterMark),
		stream.WithLogger(c.logger),
	}
}

// run pipes in into out through transforms, which are built on the loop.
// Cancellation of ctx aborts the pipeline.
func (c *config) run(ctx context.Context, name string, in io.Reader, out io.Writer, transforms func(*loop.Loop) []stream.Sink) error {
	if err := c.validate(); err != nil {
		return err
	}
	l := loop.New(loop.WithLogger(c.logger))
	src := stream.FromReader(l, in, c.chunkSize, append(c.options(), stream.WithContext(ctx), stream.WithMetric(name+".in"))...)
	rest := append(transforms(l), stream.ToWriter(l, out, append(c.options(), stream.WithContext(ctx), stream.WithMetric(name+".out"))...))
	errc, err := stream.PipelineAsync(src, rest...)
	if err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	var g errgroup.Group
	g.Go(func() error {
		if err := l.Run(loopCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer stopLoop()
		return stream.Wait(errc)
	})
	if err := g.Wait(); err != nil {
		c.logger.WithError(err).Error(name + " failed")
		return err
	}

	if c.stats {
		read := metric.Get(name+".in", metric.Read)
		written := metric.Get(name+".out", metric.Write)
		c.logger.WithFields(logrus.Fields{
			"chunks_read":   read[metric.ItemCounter],
			"bytes_read":    read[metric.WeightCounter],
			"items_written": written[metric.ItemCounter],
			"bytes_written": written[metric.WeightCounter],
		}).Info(name + " done")
	}
	return nil
}
