package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"pipelined.dev/stream"
	"pipelined.dev/stream/loop"
)

type catCommand struct {
	*config
	upper bool
}

func newCatCommand(c *config) *cobra.Command {
	cmd := catCommand{config: c}
	cc := &cobra.Command{
		Use:   "cat",
		Short: "Copy input to output",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			return cmd.run(cc.Context(), "cat", cc.InOrStdin(), cc.OutOrStdout(), cmd.transforms)
		},
	}
	cc.Flags().BoolVar(&cmd.upper, "upper", false, "convert input to upper case")
	return cc
}

func (cmd *catCommand) transforms(l *loop.Loop) []stream.Sink {
	if !cmd.upper {
		return []stream.Sink{stream.NewPassThrough(l, cmd.options()...)}
	}
	upper := func(data any, cb stream.TransformCallback) {
		cb(bytes.ToUpper(data.([]byte)), nil)
	}
	return []stream.Sink{
		stream.NewTransform(l, append(cmd.options(), stream.WithTransform(upper))...),
	}
}
