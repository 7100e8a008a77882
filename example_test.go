package stream_test

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"pipelined.dev/stream"
	"pipelined.dev/stream/loop"
)

// Example 1:
//
//	Produce items from a slice
//	Print every item
func Example_one() {
	l := loop.New()
	r := stream.FromSlice(l, []any{"a", "b", "c"})
	r.OnData(func(data any) {
		fmt.Println(data)
	})
	r.OnEnd(func() {
		fmt.Println("end")
	})
	l.Drain()
	// Output:
	// a
	// b
	// c
	// end
}

// Example 2:
//
//	Read text in chunks
//	Convert it to upper case
//	Write it to stdout
func Example_two() {
	l := loop.New()
	upper := stream.NewTransform(l, stream.WithTransform(func(data any, cb stream.TransformCallback) {
		cb(bytes.ToUpper(data.([]byte)), nil)
	}))
	err := stream.Pipeline(func(err error) {
		fmt.Println()
		fmt.Println("done:", err)
	},
		stream.FromSlice(l, []any{[]byte("hello, "), []byte("streams")}),
		upper,
		stream.NewWritable(l, stream.WithWrite(func(data any, cb stream.Callback) {
			_, err := os.Stdout.Write(data.([]byte))
			cb(err)
		})),
	)
	if err != nil {
		fmt.Println(err)
	}
	l.Drain()
	// Output:
	// HELLO, STREAMS
	// done: <nil>
}

// Example 3:
//
//	Write items faster than they are consumed
//	Wait for drain before writing more
func Example_three() {
	l := loop.New()
	var sb strings.Builder
	w := stream.NewWritable(l,
		stream.WithHighWaterMark(2),
		stream.WithWeight(func(any) int { return 1 }),
		stream.WithWrite(func(data any, cb stream.Callback) {
			sb.WriteString(data.(string))
			l.Defer(func() {
				cb(nil)
			})
		}),
	)
	items := []string{"a", "b", "c", "d", "e"}
	var write func()
	write = func() {
		for len(items) > 0 {
			item := items[0]
			items = items[1:]
			if !w.Write(item) {
				fmt.Println("backpressure after", item)
				return
			}
		}
		w.End(nil)
	}
	w.OnDrain(write)
	write()
	l.Drain()
	fmt.Println(sb.String(), w.Finished())
	// Output:
	// backpressure after b
	// backpressure after d
	// abcde true
}
