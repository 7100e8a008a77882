package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/stream/internal/state"
)

func TestBitfieldsAreDisjoint(t *testing.T) {
	shared := state.Opening | state.Predestroying | state.Destroying | state.Destroyed
	read := state.ReadActive | state.ReadUpdating | state.ReadPrimary | state.ReadQueued |
		state.ReadResumed | state.ReadPipeDrained | state.ReadEnding | state.ReadEmitData |
		state.ReadEmitReadable | state.ReadEmittedReadable | state.ReadDone | state.ReadNextTick |
		state.ReadNeedsPush | state.ReadReadAhead
	write := state.WriteActive | state.WriteUpdating | state.WritePrimary | state.WriteQueued |
		state.WriteUndrained | state.WriteDone | state.WriteEmitDrain | state.WriteNextTick |
		state.WriteWriting | state.WriteFinishing | state.WriteCorked

	assert.Zero(t, shared&read)
	assert.Zero(t, shared&write)
	assert.Zero(t, read&write)
	assert.Equal(t, state.Register(1<<29-1), shared|read|write)
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name  string
		reg   state.Register
		guard func(state.Register) bool
		want  bool
	}{
		{"read when read-ahead", state.ReadPrimary | state.ReadReadAhead, state.Register.ShouldRead, true},
		{"no read while opening", state.Opening | state.ReadReadAhead, state.Register.ShouldRead, false},
		{"no read while active", state.ReadReadAhead | state.ReadActive, state.Register.ShouldRead, false},
		{"no read until pushed", state.ReadReadAhead | state.ReadNeedsPush, state.Register.ShouldRead, false},
		{"no read after ending", state.ReadReadAhead | state.ReadEnding, state.Register.ShouldRead, false},
		{"no read without read-ahead", state.ReadPrimary, state.Register.ShouldRead, false},
		{"shift queued", state.ReadQueued, state.Register.CanShiftRead, true},
		{"no shift when destroying", state.ReadQueued | state.Destroying, state.Register.CanShiftRead, false},
		{"no shift when done", state.ReadQueued | state.ReadDone, state.Register.CanShiftRead, false},
		{"flowing resumed", state.ReadResumed, state.Register.Flowing, true},
		{"flowing piped", state.ReadPipeDrained, state.Register.Flowing, true},
		{"paused", state.ReadQueued, state.Register.Flowing, false},
		{"emit readable", state.ReadEmitReadable | state.ReadQueued, state.Register.ShouldEmitReadable, true},
		{"readable emitted once", state.ReadEmitReadable | state.ReadQueued | state.ReadEmittedReadable, state.Register.ShouldEmitReadable, false},
		{"end when drained", state.ReadEnding, state.Register.ShouldEndRead, true},
		{"no end with queued", state.ReadEnding | state.ReadQueued, state.Register.ShouldEndRead, false},
		{"read sync when primary", state.ReadPrimary, state.Register.ReadSync, true},
		{"read async when updating", state.ReadPrimary | state.ReadUpdating, state.Register.ReadSync, false},
		{"write queued", state.WriteQueued | state.WritePrimary, state.Register.ShouldWrite, true},
		{"no write when corked", state.WriteQueued | state.WriteCorked, state.Register.ShouldWrite, false},
		{"no write when active", state.WriteQueued | state.WriteActive, state.Register.ShouldWrite, false},
		{"batch when active", state.WriteQueued | state.WriteActive, state.Register.CanBatchWrite, true},
		{"finish", state.WriteFinishing, state.Register.ShouldFinish, true},
		{"no finish with queued", state.WriteFinishing | state.WriteQueued, state.Register.ShouldFinish, false},
		{"no finish twice", state.WriteFinishing | state.WriteDone, state.Register.ShouldFinish, false},
		{"drain", state.WriteUndrained | state.WritePrimary, state.Register.ShouldEmitDrain, true},
		{"no drain with queued", state.WriteUndrained | state.WriteQueued, state.Register.ShouldEmitDrain, false},
		{"drop writes when finishing", state.WriteFinishing, state.Register.DropsWrites, true},
		{"drop writes when destroyed", state.Destroyed, state.Register.DropsWrites, true},
		{"accept writes", state.WritePrimary, state.Register.DropsWrites, false},
		{"destroy", state.Destroying, state.Register.ShouldDestroy, true},
		{"destroy waits tick", state.Destroying | state.ReadNextTick, state.Register.ShouldDestroy, false},
		{"destroy once", state.Destroying | state.Destroyed, state.Register.ShouldDestroy, false},
		{"open", state.Opening, state.Register.ShouldOpen, true},
		{"open waits tick", state.Opening | state.WriteNextTick, state.Register.ShouldOpen, false},
		{"no open when destroying", state.Opening | state.Destroying, state.Register.ShouldOpen, false},
		{"auto destroy", state.ReadDone | state.WriteDone, state.Register.ShouldAutoDestroy, true},
		{"no auto destroy half done", state.ReadDone, state.Register.ShouldAutoDestroy, false},
		{"no auto destroy twice", state.Done | state.Destroying, state.Register.ShouldAutoDestroy, false},
		{"fresh stream undisturbed", state.Opening, state.Register.Disturbed, false},
		{"scheduled stream disturbed", state.Opening | state.ReadNextTick, state.Register.Disturbed, true},
		{"opened stream disturbed", state.ReadPrimary, state.Register.Disturbed, true},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.guard(test.reg), test.name)
	}
}

func TestHasIs(t *testing.T) {
	r := state.ReadQueued | state.ReadResumed
	assert.True(t, r.Has(state.ReadFlowing))
	assert.False(t, r.Has(state.WriteQueued))
	assert.True(t, r.Is(state.ReadQueued|state.ReadDone, state.ReadQueued))
	assert.False(t, r.Is(state.ReadQueued|state.ReadResumed, state.ReadQueued))
}
