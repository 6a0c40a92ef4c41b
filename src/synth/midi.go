package synth

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn opens the first MIDI IN port and forwards raw messages
// until the context is cancelled. The channel is buffered generously so
// the driver callback never waits on us.
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			ch <- data
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		defer close(ch)
		<-ctx.Done()
	}()
	return ch
}

// DecodeMidi turns a raw channel-voice message into an engine event.
// Velocity is normalized to 0-1 here, at the boundary. Returns false for
// messages the engine has no use for.
func DecodeMidi(data []byte) (Event, bool) {
	if len(data) < 3 {
		return Event{}, false
	}
	switch data[0] >> 4 {
	case 0x8:
		return Event{Kind: EventNoteOff, Note: int(data[1]), Time: nowNanos()}, true
	case 0x9:
		if data[2] == 0 {
			return Event{Kind: EventNoteOff, Note: int(data[1]), Time: nowNanos()}, true
		}
		return Event{
			Kind:     EventNoteOn,
			Note:     int(data[1]),
			Velocity: float64(data[2]) / 127,
			Time:     nowNanos(),
		}, true
	}
	return Event{}, false
}

// Pump merges decoded MIDI messages and locally generated events into
// the intake ring until the context is cancelled. It must be the only
// goroutine pushing to the engine; funneling every source through one
// pump is what upholds the ring's single-producer constraint.
func Pump(ctx context.Context, e *Engine, midi <-chan []byte, events <-chan Event) error {
	push := func(ev Event) {
		if !e.PushEvent(ev) {
			log.Printf("event ring overflowed (%v dropped so far)\n", e.OverflowCount())
		}
	}
	for {
		select {
		case <-ctx.Done():
			log.Println("Pump() interrupted.")
			return nil
		case data, ok := <-midi:
			if !ok {
				midi = nil
				continue
			}
			if ev, ok := DecodeMidi(data); ok {
				push(ev)
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			push(ev)
		}
	}
}
