package fifo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"pipelined.dev/stream/fifo"
)

func TestFixedCapacity(t *testing.T) {
	tests := []struct {
		capacity int
		panics   bool
	}{
		{capacity: 1},
		{capacity: 16},
		{capacity: 1024},
		{capacity: 0, panics: true},
		{capacity: -4, panics: true},
		{capacity: 12, panics: true},
	}
	for _, test := range tests {
		if test.panics {
			assert.Panics(t, func() { fifo.NewFixed[int](test.capacity) }, "capacity %d", test.capacity)
			continue
		}
		assert.Equal(t, test.capacity, fifo.NewFixed[int](test.capacity).Cap())
	}
}

func TestFixed(t *testing.T) {
	f := fifo.NewFixed[string](4)
	assert.True(t, f.IsEmpty())
	for _, v := range []string{"a", "b", "c", "d"} {
		assert.True(t, f.Push(v))
	}
	assert.False(t, f.Push("e"), "full ring must reject")

	v, ok := f.Peek()
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = f.Shift()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.True(t, f.Push("e"), "freed slot must accept")

	var got []string
	for {
		v, ok := f.Shift()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []string{"b", "c", "d", "e"}, got)

	f.Push("x")
	f.Clear()
	assert.True(t, f.IsEmpty())
	_, ok = f.Shift()
	assert.False(t, ok)
}

func TestFixedStoresZeroValues(t *testing.T) {
	f := fifo.NewFixed[any](2)
	assert.True(t, f.Push(nil))
	assert.False(t, f.IsEmpty())
	v, ok := f.Shift()
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestQueueGrows(t *testing.T) {
	q := fifo.New[int](16)
	for i := 0; i < 40; i++ {
		q.Push(i)
	}
	require.Equal(t, 40, q.Len())

	v, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, 0, v)

	for i := 0; i < 40; i++ {
		v, ok := q.Shift()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
	_, ok = q.Shift()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueuePeekAcrossRings(t *testing.T) {
	q := fifo.New[int](2)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	q.Shift()
	q.Shift()
	v, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestQueueClear(t *testing.T) {
	q := fifo.New[int](0)
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	q.Clear()
	assert.True(t, q.IsEmpty())
	q.Push(7)
	v, ok := q.Shift()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestQueueOrderProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := 1 << rapid.IntRange(0, 5).Draw(rt, "shift")
		values := rapid.SliceOf(rapid.Int()).Draw(rt, "values")
		q := fifo.New[int](capacity)
		for _, v := range values {
			q.Push(v)
		}
		if q.Len() != len(values) {
			rt.Fatalf("len %d, want %d", q.Len(), len(values))
		}
		for i, want := range values {
			got, ok := q.Shift()
			if !ok || got != want {
				rt.Fatalf("shift %d: got %v/%v, want %v", i, got, ok, want)
			}
		}
		if !q.IsEmpty() {
			rt.Fatalf("queue not empty")
		}
	})
}

func TestQueueInterleavedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := fifo.New[int](1)
		var model []int
		next := 0
		ops := rapid.SliceOf(rapid.Bool()).Draw(rt, "ops")
		for _, push := range ops {
			if push {
				q.Push(next)
				model = append(model, next)
				next++
				continue
			}
			got, ok := q.Shift()
			if len(model) == 0 {
				if ok {
					rt.Fatalf("shift from empty returned %v", got)
				}
				continue
			}
			if !ok || got != model[0] {
				rt.Fatalf("got %v/%v, want %v", got, ok, model[0])
			}
			model = model[1:]
		}
		if q.Len() != len(model) {
			rt.Fatalf("len %d, want %d", q.Len(), len(model))
		}
	})
}
