package synth

import "sync/atomic"

// ----- Event ----- //

// EventKind ...
type EventKind int

const (
	// EventNoteOn ...
	EventNoteOn EventKind = iota
	// EventNoteOff ...
	EventNoteOff
	// EventControlChange ...
	EventControlChange
)

// Event is one note or control message headed for the audio thread.
// Velocity is already normalized to 0-1 by the producer. Time is the
// producer's timestamp in nanoseconds; the ring preserves arrival order,
// so draining in FIFO order is draining in timestamp order.
type Event struct {
	Kind     EventKind
	Note     int
	Velocity float64
	Control  ControlID
	Value    float64
	Time     int64
}

// NoteOn makes a note-on event stamped with the current time.
func NoteOn(note int, velocity float64) Event {
	return Event{Kind: EventNoteOn, Note: note, Velocity: velocity, Time: nowNanos()}
}

// NoteOff makes a note-off event stamped with the current time.
func NoteOff(note int) Event {
	return Event{Kind: EventNoteOff, Note: note, Time: nowNanos()}
}

// ----- Event Ring ----- //

// eventRing is a lock-free single-producer/single-consumer queue. When
// the ring is full the producer drops the oldest pending event and bumps
// the overflow counter; neither side ever blocks.
type eventRing struct {
	events  []Event
	read    uint32
	write   uint32
	dropped uint64
}

func newEventRing(size int) *eventRing {
	if size <= 0 || size&(size-1) != 0 {
		panic("event ring size must be a power of 2")
	}
	return &eventRing{
		events: make([]Event, size),
	}
}

// push appends an event, discarding the oldest pending one when full.
// Returns false if anything was dropped to make room.
func (r *eventRing) push(ev Event) bool {
	write := atomic.LoadUint32(&r.write)
	ok := true
	for {
		read := atomic.LoadUint32(&r.read)
		if write-read < uint32(len(r.events)) {
			break
		}
		// Full. Advance the read index ourselves; if the CAS loses, the
		// consumer freed a slot and no drop was needed after all.
		if atomic.CompareAndSwapUint32(&r.read, read, read+1) {
			atomic.AddUint64(&r.dropped, 1)
			ok = false
		}
	}
	r.events[write&uint32(len(r.events)-1)] = ev
	atomic.StoreUint32(&r.write, write+1)
	return ok
}

// drain consumes every pending event in arrival order. The slot is copied
// before the read index is claimed; if the claim loses to the producer's
// overflow drop, the copy is stale and discarded.
func (r *eventRing) drain(f func(Event)) {
	for {
		read := atomic.LoadUint32(&r.read)
		write := atomic.LoadUint32(&r.write)
		if read == write {
			return
		}
		ev := r.events[read&uint32(len(r.events)-1)]
		if !atomic.CompareAndSwapUint32(&r.read, read, read+1) {
			continue
		}
		f(ev)
	}
}

func (r *eventRing) overflowCount() uint64 {
	return atomic.LoadUint64(&r.dropped)
}
