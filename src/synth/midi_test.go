package synth

import (
	"context"
	"runtime"
	"testing"
)

func TestDecodeMidiNoteOn(t *testing.T) {
	ev, ok := DecodeMidi([]byte{0x90, 69, 127})
	expectEqual(t, ok, true)
	expectEqual(t, ev.Kind, EventNoteOn)
	expectEqual(t, ev.Note, 69)
	expectNearlyEqual(t, ev.Velocity, 1)

	ev, ok = DecodeMidi([]byte{0x91, 60, 64}) // any channel
	expectEqual(t, ok, true)
	expectEqual(t, ev.Kind, EventNoteOn)
	expectNearlyEqual(t, ev.Velocity, 64.0/127)
}

func TestDecodeMidiNoteOff(t *testing.T) {
	ev, ok := DecodeMidi([]byte{0x80, 69, 0})
	expectEqual(t, ok, true)
	expectEqual(t, ev.Kind, EventNoteOff)
	expectEqual(t, ev.Note, 69)

	// note-on with velocity 0 is a note-off in disguise
	ev, ok = DecodeMidi([]byte{0x90, 69, 0})
	expectEqual(t, ok, true)
	expectEqual(t, ev.Kind, EventNoteOff)
}

func TestPumpMergesSources(t *testing.T) {
	e := testEngine(t)
	midi := make(chan []byte, 1)
	events := make(chan Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Pump(ctx, e, midi, events)
	}()
	midi <- []byte{0x90, 60, 100}
	events <- NoteOn(64, 1)
	for len(midi) > 0 || len(events) > 0 {
		runtime.Gosched()
	}
	cancel()
	expectNoError(t, <-done)

	out := make([]float64, 64*2)
	e.RenderBlock(out, 64, 2)
	expectEqual(t, e.ActiveVoices(), 2)
}

func TestDecodeMidiIgnoresOtherMessages(t *testing.T) {
	if _, ok := DecodeMidi([]byte{0xB0, 7, 100}); ok {
		t.Error("expected a control change to be ignored")
	}
	if _, ok := DecodeMidi([]byte{0x90, 69}); ok {
		t.Error("expected a truncated message to be ignored")
	}
	if _, ok := DecodeMidi(nil); ok {
		t.Error("expected an empty message to be ignored")
	}
}
