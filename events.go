package stream

// event identifies the type of notification.
type event int

// types of events.
const (
	evOpen event = iota
	evData
	evReadable
	evEnd
	evFinish
	evDrain
	evError
	evClose
	evPipe
	evPiping
	numEvents
)

type listener struct {
	fn   func(any)
	once bool
}

// emitter keeps listeners per event. Listeners are called synchronously
// in the order they were added.
type emitter struct {
	listeners [numEvents][]listener
}

func (e *emitter) add(ev event, fn func(any), once bool) {
	e.listeners[ev] = append(e.listeners[ev], listener{fn: fn, once: once})
}

// emit calls listeners of ev with v and reports whether there were any.
func (e *emitter) emit(ev event, v any) bool {
	ls := e.listeners[ev]
	if len(ls) == 0 {
		return false
	}
	called := make([]listener, len(ls))
	copy(called, ls)
	kept := ls[:0]
	for _, l := range ls {
		if !l.once {
			kept = append(kept, l)
		}
	}
	for i := len(kept); i < len(ls); i++ {
		ls[i] = listener{}
	}
	e.listeners[ev] = kept
	for _, l := range called {
		l.fn(v)
	}
	return true
}
