/*
Package state defines the register that holds the whole state of a stream.

The register is a single integer split into three bitfields: shared
lifecycle bits, read side bits and write side bits. Every transition is a
bitwise operation on one value, so a stream can be inspected and moved to
a new state within a single step. The guards below are the decision table
of the engine: each one names a combination of bits that allows some work.
*/
package state

// Register is the state of a stream.
type Register uint32

// Shared lifecycle.
const (
	Opening Register = 1 << iota
	Predestroying
	Destroying
	Destroyed
)

// Read side.
const (
	ReadActive Register = 1 << (iota + 4)
	ReadUpdating
	ReadPrimary
	ReadQueued
	ReadResumed
	ReadPipeDrained
	ReadEnding
	ReadEmitData
	ReadEmitReadable
	ReadEmittedReadable
	ReadDone
	ReadNextTick
	ReadNeedsPush
	ReadReadAhead
)

// Write side.
const (
	WriteActive Register = 1 << (iota + 18)
	WriteUpdating
	WritePrimary
	WriteQueued
	WriteUndrained
	WriteDone
	WriteEmitDrain
	WriteNextTick
	WriteWriting
	WriteFinishing
	WriteCorked
)

// Combined read bits.
const (
	ReadFlowing               = ReadResumed | ReadPipeDrained
	ReadActiveAndNeedsPush    = ReadActive | ReadNeedsPush
	ReadPrimaryAndActive      = ReadPrimary | ReadActive
	ReadEmitReadableAndQueued = ReadEmitReadable | ReadQueued
	ReadResumedReadAhead      = ReadResumed | ReadReadAhead
	ReadQueuedAndEmitted      = ReadQueued | ReadEmittedReadable
)

// Combined write bits.
const (
	WriteActiveAndWriting   = WriteActive | WriteWriting
	WriteActiveAndFinishing = WriteActive | WriteFinishing
	WriteQueuedAndUndrained = WriteQueued | WriteUndrained
	WriteQueuedAndActive    = WriteQueued | WriteActive
	WritePrimaryAndActive   = WritePrimary | WriteActive
)

// Guard masks.
const (
	writeDropData           = WriteFinishing | WriteDone | DestroyStatus
	writeDrainStatus        = WriteQueued | WriteUndrained | OpenStatus | WriteActive
	writeStatus             = OpenStatus | WriteActive | WriteQueued | WriteCorked
	writePrimaryStatus      = OpenStatus | WriteFinishing | WriteDone
	writeFinishingStatus    = OpenStatus | WriteFinishing | WriteQueuedAndActive | WriteDone
	writeBackpressureStatus = WriteUndrained | DestroyStatus | WriteFinishing | WriteDone
	writeUpdateSyncStatus   = WriteUpdating | OpenStatus | WriteNextTick | WritePrimary
	readPrimaryStatus       = OpenStatus | ReadEnding | ReadDone
	readStatus              = OpenStatus | ReadDone | ReadQueued
	readEndingStatus        = OpenStatus | ReadEnding | ReadQueued
	readReadableStatus      = OpenStatus | ReadEmitReadable | ReadQueued | ReadEmittedReadable
	shouldNotRead           = OpenStatus | ReadActive | ReadEnding | ReadDone | ReadNeedsPush | ReadReadAhead
	readBackpressureStatus  = DestroyStatus | ReadEnding | ReadDone
	readUpdateSyncStatus    = ReadUpdating | OpenStatus | ReadNextTick | ReadPrimary
	readNextTickOrOpening   = ReadNextTick | Opening
	autoDestroyStatus       = DestroyStatus | Done
	isOpeningStatus         = OpenStatus | Ticking
)

// Combined shared bits.
const (
	Active        = ReadActive | WriteActive
	Done          = ReadDone | WriteDone
	DestroyStatus = Destroying | Destroyed | Predestroying
	OpenStatus    = DestroyStatus | Opening
	Primary       = ReadPrimary | WritePrimary
	Ticking       = ReadNextTick | WriteNextTick
)

// Has reports whether any of bits is set.
func (r Register) Has(bits Register) bool {
	return r&bits != 0
}

// Is reports whether bits selected by mask are exactly want.
func (r Register) Is(mask, want Register) bool {
	return r&mask == want
}

// ShouldRead reports whether the read worker may be called: the stream is
// open, read-ahead is on and no read is in flight or owed a push.
func (r Register) ShouldRead() bool {
	return r&shouldNotRead == ReadReadAhead
}

// CanShiftRead reports whether a queued item can be taken from the read
// side.
func (r Register) CanShiftRead() bool {
	return r&readStatus == ReadQueued
}

// Flowing reports whether queued items are delivered without Read calls.
func (r Register) Flowing() bool {
	return r&ReadFlowing != 0
}

// ShouldEmitReadable reports whether a readable notification is owed.
func (r Register) ShouldEmitReadable() bool {
	return r&readReadableStatus == ReadEmitReadableAndQueued
}

// ShouldEndRead reports whether the read side has ended and all queued
// items were consumed.
func (r Register) ShouldEndRead() bool {
	return r&readEndingStatus == ReadEnding
}

// ReadSync reports whether a read completion may update synchronously.
func (r Register) ReadSync() bool {
	return r&readUpdateSyncStatus == ReadPrimary
}

// ReadNextTickBlocked reports whether a push must not schedule an update,
// either because one is already scheduled or the stream is still opening.
func (r Register) ReadNextTickBlocked() bool {
	return r&readNextTickOrOpening != 0
}

// ReadBackpressured reports whether the read side refuses more data
// regardless of the buffered weight.
func (r Register) ReadBackpressured() bool {
	return r&readBackpressureStatus != 0
}

// CanBeReadPrimary reports whether the read side becomes primary after
// opening.
func (r Register) CanBeReadPrimary() bool {
	return r&readPrimaryStatus == 0
}

// ShouldWrite reports whether the next queued item can be handed to the
// write worker.
func (r Register) ShouldWrite() bool {
	return r&writeStatus == WriteQueued
}

// CanBatchWrite reports whether more queued items can join a batch which
// is being written.
func (r Register) CanBatchWrite() bool {
	return r&writeStatus == WriteQueuedAndActive
}

// ShouldFinish reports whether the final worker should run.
func (r Register) ShouldFinish() bool {
	return r&writeFinishingStatus == WriteFinishing
}

// ShouldEmitDrain reports whether a backpressured write side has just
// been emptied.
func (r Register) ShouldEmitDrain() bool {
	return r&writeDrainStatus == WriteUndrained
}

// WriteSync reports whether a write completion may update synchronously.
func (r Register) WriteSync() bool {
	return r&writeUpdateSyncStatus == WritePrimary
}

// DropsWrites reports whether writes are ignored.
func (r Register) DropsWrites() bool {
	return r&writeDropData != 0
}

// WriteBackpressured reports whether the write side asks producers to
// wait.
func (r Register) WriteBackpressured() bool {
	return r&writeBackpressureStatus != 0
}

// CanBeWritePrimary reports whether the write side becomes primary after
// opening.
func (r Register) CanBeWritePrimary() bool {
	return r&writePrimaryStatus == 0
}

// IsDestroying reports whether destroy was requested and not started.
func (r Register) IsDestroying() bool {
	return r&DestroyStatus == Destroying
}

// ShouldDestroy reports whether the destroy worker can run now.
func (r Register) ShouldDestroy() bool {
	return r.IsDestroying() && r&Ticking == 0
}

// ShouldOpen reports whether the open worker can run now.
func (r Register) ShouldOpen() bool {
	return r&isOpeningStatus == Opening
}

// ShouldAutoDestroy reports whether both sides are done and nothing else
// has started the destroy.
func (r Register) ShouldAutoDestroy() bool {
	return r&autoDestroyStatus == Done
}

// Disturbed reports whether the stream was used in any way.
func (r Register) Disturbed() bool {
	return r&Opening != Opening || r&Ticking != 0
}
