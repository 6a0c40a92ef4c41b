package synth

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func TestNewEngineValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 0
	if _, err := NewEngine(cfg); err == nil {
		t.Error("expected an error for sample rate 0")
	}
	cfg = DefaultConfig()
	cfg.EventBufferSize = 100
	if _, err := NewEngine(cfg); err == nil {
		t.Error("expected an error for a non-power-of-two event buffer")
	}
	cfg = DefaultConfig()
	cfg.MaxPolyphony = 0
	if _, err := NewEngine(cfg); err == nil {
		t.Error("expected an error for zero polyphony")
	}
}

func TestRenderBlockSilenceWhenIdle(t *testing.T) {
	e := testEngine(t)
	out := make([]float64, 64*2)
	e.RenderBlock(out, 64, 2)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence at %v, but got: %v", i, v)
		}
	}
	expectEqual(t, e.ActiveVoices(), 0)
}

func blockPeak(out []float64) float64 {
	peak := 0.0
	for _, v := range out {
		if v > peak {
			peak = v
		}
		if -v > peak {
			peak = -v
		}
	}
	return peak
}

func TestNoteLifecycle(t *testing.T) {
	e := testEngine(t) // 8kHz, block 64
	expectNoError(t, e.Set("attack", "0.1"))
	out := make([]float64, 64*2)

	e.PushEvent(NoteOn(69, 1))
	prev := 0.0
	for b := 0; b < 10; b++ { // well inside the 800-frame attack
		e.RenderBlock(out, 64, 2)
		peak := blockPeak(out)
		if peak <= prev {
			t.Fatalf("attack ramp not rising at block %v: %v -> %v", b, prev, peak)
		}
		prev = peak
	}
	expectEqual(t, e.ActiveVoices(), 1)
	if prev < 0.01 {
		t.Errorf("expected audible output, but peak=%v", prev)
	}
	for b := 0; b < 22; b++ { // settle on the sustain level
		e.RenderBlock(out, 64, 2)
	}

	e.PushEvent(NoteOff(69))
	prev = 1.0
	for b := 0; b < 50; b++ { // 3200 frames, past the 0.3s release
		e.RenderBlock(out, 64, 2)
		peak := blockPeak(out)
		if peak > prev+0.005 {
			t.Fatalf("release not decaying at block %v: %v -> %v", b, prev, peak)
		}
		prev = peak
	}
	expectEqual(t, e.ActiveVoices(), 0)
	expectNearlyEqual(t, prev, 0)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence after release at %v, but got: %v", i, v)
		}
	}
}

func TestRenderBlockDuplicatesChannels(t *testing.T) {
	e := testEngine(t)
	e.PushEvent(NoteOn(60, 1))
	out := make([]float64, 64*2)
	e.RenderBlock(out, 64, 2)
	for i := 0; i < 64; i++ {
		expectEqual(t, out[2*i], out[2*i+1])
	}
}

func TestNoteOnVelocityZeroReleases(t *testing.T) {
	e := testEngine(t)
	out := make([]float64, 64*2)
	e.PushEvent(NoteOn(60, 1))
	e.RenderBlock(out, 64, 2)
	expectEqual(t, e.ActiveVoices(), 1)
	e.PushEvent(NoteOn(60, 0))
	e.RenderBlock(out, 64, 2)
	v := e.pool.findNote(60)
	if v == nil || v.env.stage != stageRelease {
		t.Error("expected a zero-velocity note-on to start the release")
	}
}

// Reapplying parameters to a sounding voice must not wipe its filter
// history; the seam between the blocks around a control change has to be
// as smooth as the waveform itself.
func TestControlChangeKeepsFilterContinuity(t *testing.T) {
	e := testEngine(t) // 8kHz, block 64
	expectNoError(t, e.Set("filter", "lowpass"))
	expectNoError(t, e.Set("cutoff", "500"))
	e.PushEvent(NoteOn(45, 1)) // 110Hz, well inside the passband
	out := make([]float64, 64*2)
	for b := 0; b < 40; b++ { // settle on the sustain level
		e.RenderBlock(out, 64, 2)
	}
	last := out[(64-1)*2]
	expectNoError(t, e.Set("lfo_freq", "6"))
	e.RenderBlock(out, 64, 2)
	first := out[0]
	// one sample of a 110Hz tone at this amplitude moves by under 0.01
	if math.Abs(first-last) > 0.02 {
		t.Errorf("control change broke continuity: %v -> %v", last, first)
	}
}

func TestSpectrumPeaksAtPlayedNote(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 8192 // 440Hz falls exactly on bin 110
	cfg.ChannelCount = 1
	cfg.BlockSize = 512
	cfg.MaxPolyphony = 4
	e, err := NewEngine(cfg)
	expectNoError(t, err)
	expectNoError(t, e.Set("attack", "0"))
	expectNoError(t, e.Set("sustain", "1"))
	e.PushEvent(NoteOn(69, 1))

	out := make([]float64, 512)
	for b := 0; b < 8; b++ { // fill the whole monitoring window
		e.RenderBlock(out, 512, 1)
	}
	spectrum := e.Spectrum()
	expectEqual(t, len(spectrum), fftSize/2)
	peakBin := 0
	for i, v := range spectrum {
		if v > spectrum[peakBin] {
			peakBin = i
		}
	}
	if peakBin < 109 || peakBin > 111 {
		t.Errorf("expected the spectral peak near bin 110, but got: %v", peakBin)
	}
}

// A monitoring goroutine polling the spectrum while blocks render must
// never share memory with the audio thread outside the snapshot handoff.
// Run with -race to make this bite.
func TestSpectrumWhileRendering(t *testing.T) {
	e := testEngine(t)
	e.PushEvent(NoteOn(69, 1))
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if got := len(e.Spectrum()); got != fftSize/2 {
				t.Errorf("expected %v bins, but got: %v", fftSize/2, got)
				return
			}
		}
	}()
	out := make([]float64, 64*2)
	for b := 0; b < 500; b++ {
		e.RenderBlock(out, 64, 2)
	}
	close(stop)
	wg.Wait()
}

func TestReadProducesPCM(t *testing.T) {
	e := testEngine(t)
	buf := make([]byte, 64*bitDepthInBytes*e.cfg.ChannelCount)
	n, err := e.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, len(buf))
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("expected silent PCM at %v, but got: %v", i, b)
		}
	}

	e.PushEvent(NoteOn(69, 1))
	// spans several blocks
	buf = make([]byte, 1000*bitDepthInBytes*e.cfg.ChannelCount)
	n, err = e.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, len(buf))
	nonZero := false
	for _, b := range buf {
		if b != 0 {
			nonZero = true
			break
		}
	}
	expectEqual(t, nonZero, true)

	if _, err := e.Read(make([]byte, 1)); err == nil {
		t.Error("expected an error for a buffer below one frame")
	}
}

func TestBenchmark(t *testing.T) {
	polyphony := 10
	times := 100

	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	e, err := NewEngine(cfg)
	expectNoError(t, err)
	expectNoError(t, e.Set("wave", "saw"))
	expectNoError(t, e.Set("filter", "lowpass"))
	expectNoError(t, e.Set("cutoff", "2000"))
	expectNoError(t, e.Set("lfo_destination", "vibrato"))
	expectNoError(t, e.Set("lfo_amount", "20"))
	for n := 0; n < polyphony; n++ {
		e.PushEvent(NoteOn(48+n, 1))
	}
	out := make([]byte, cfg.BlockSize*bitDepthInBytes*cfg.ChannelCount)
	_, err = e.Read(out)
	expectNoError(t, err)
	start := time.Now()
	for n := 0; n < times; n++ {
		_, err = e.Read(out)
		expectNoError(t, err)
	}
	average := time.Since(start) / time.Duration(times)
	fmt.Printf("average process time: %v\n", average)
}
