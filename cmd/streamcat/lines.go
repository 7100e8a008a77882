package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"pipelined.dev/stream"
	"pipelined.dev/stream/loop"
)

type linesCommand struct {
	*config
}

func newLinesCommand(c *config) *cobra.Command {
	cmd := linesCommand{config: c}
	return &cobra.Command{
		Use:   "lines",
		Short: "Number lines of input",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			return cmd.run(cc.Context(), "lines", cc.InOrStdin(), cc.OutOrStdout(), cmd.transforms)
		},
	}
}

// transforms splits chunks into lines and numbers them. The last line is
// emitted on flush if input doesn't end with a new line.
func (cmd *linesCommand) transforms(l *loop.Loop) []stream.Sink {
	var (
		partial []byte
		number  int
		split   *stream.Transform
	)
	split = stream.NewTransform(l, append(cmd.options(),
		stream.WithTransform(func(data any, cb stream.TransformCallback) {
			partial = append(partial, data.([]byte)...)
			for {
				i := bytes.IndexByte(partial, '\n')
				if i < 0 {
					break
				}
				split.Push(string(partial[:i]))
				partial = partial[i+1:]
			}
			cb(nil, nil)
		}),
		stream.WithFlush(func(cb stream.TransformCallback) {
			if len(partial) == 0 {
				cb(nil, nil)
				return
			}
			cb(string(partial), nil)
		}),
	)...)
	numbered := stream.NewTransform(l, append(cmd.options(),
		stream.WithTransform(func(data any, cb stream.TransformCallback) {
			number++
			cb(fmt.Sprintf("%6d\t%s\n", number, data), nil)
		}),
	)...)
	return []stream.Sink{split, numbered}
}
