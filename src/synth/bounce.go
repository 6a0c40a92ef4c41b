package synth

import (
	"io"

	wav "github.com/youpy/go-wav"
)

// BounceNote schedules one note within an offline render, in frames from
// the start.
type BounceNote struct {
	Note     int
	Velocity float64
	OnFrame  int
	OffFrame int
}

// Bounce renders frames of audio offline, block by block, firing the
// scheduled notes at block granularity, and writes the result as a
// 16-bit WAV. Useful for regression listening without a device.
func Bounce(e *Engine, w io.Writer, frames int, notes []BounceNote) error {
	cfg := e.Config()
	writer := wav.NewWriter(w, uint32(frames), uint16(cfg.ChannelCount), uint32(cfg.SampleRate), 16)

	block := make([]float64, cfg.BlockSize*cfg.ChannelCount)
	samples := make([]wav.Sample, cfg.BlockSize)
	for done := 0; done < frames; done += cfg.BlockSize {
		n := frames - done
		if n > cfg.BlockSize {
			n = cfg.BlockSize
		}
		for _, note := range notes {
			if note.OnFrame >= done && note.OnFrame < done+n {
				e.PushEvent(Event{Kind: EventNoteOn, Note: note.Note, Velocity: note.Velocity, Time: nowNanos()})
			}
			if note.OffFrame >= done && note.OffFrame < done+n {
				e.PushEvent(Event{Kind: EventNoteOff, Note: note.Note, Time: nowNanos()})
			}
		}
		e.RenderBlock(block[:n*cfg.ChannelCount], n, cfg.ChannelCount)
		const max = 32767
		for i := 0; i < n; i++ {
			for c := 0; c < cfg.ChannelCount && c < 2; c++ {
				samples[i].Values[c] = int(block[i*cfg.ChannelCount+c] * max)
			}
		}
		if err := writer.WriteSamples(samples[:n]); err != nil {
			return err
		}
	}
	return nil
}
