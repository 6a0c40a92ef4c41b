package synth

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const bitDepthInBytes = 2

// fftSize is the length of the monitoring window, a power of two and a
// multiple of the default block size.
const fftSize = 2048

// voiceGain leaves headroom for voice summation before the soft clip.
const voiceGain = 0.15

func nowNanos() int64 {
	return time.Now().UnixNano()
}

// softClip keeps the summed output inside [-1, 1] without the fold-over a
// hard clamp would create.
func softClip(x float64) float64 {
	return math.Tanh(x)
}

// ----- Engine ----- //

// Engine turns note and control events into blocks of audio. All voice
// state belongs to the audio thread: RenderBlock (or Read) must only ever
// be called from one goroutine, and the only structure shared with the
// producer side is the event ring.
type Engine struct {
	cfg    Config
	prm    *params
	pool   *pool
	intake *eventRing
	apply  func(Event)

	fft        *FFT
	monitor    []float64 // last fftSize mono samples, ring, audio thread only
	monitorPos uint64

	// snapshot is the unrolled monitor window handed to the monitoring
	// goroutine. The audio thread refreshes it per block under a TryLock,
	// so it never waits; a contended block skips the refresh.
	snapMu   sync.Mutex
	snapshot []float64

	spectrum     []float64
	activeVoices int32
	scratchBuf   []float64
}

// NewEngine ...
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		prm:      newParams(cfg),
		pool:     newPool(cfg),
		intake:   newEventRing(cfg.EventBufferSize),
		fft:      NewFFT(fftSize, false),
		monitor:  make([]float64, fftSize),
		snapshot: make([]float64, fftSize),
		spectrum: make([]float64, fftSize),
	}
	e.apply = e.applyEvent
	return e, nil
}

// Config ...
func (e *Engine) Config() Config {
	return e.cfg
}

// PushEvent hands an event to the audio thread. It returns false when the
// ring had to drop an older event to make room; rendering continues
// either way. Safe for exactly one producer goroutine.
func (e *Engine) PushEvent(ev Event) bool {
	return e.intake.push(ev)
}

func (e *Engine) applyEvent(ev Event) {
	switch ev.Kind {
	case EventNoteOn:
		v := ev.Velocity
		if v <= 0 {
			// running-status note-off
			e.pool.noteOff(ev.Note)
			return
		}
		if v > 1 {
			v = 1
		}
		e.pool.noteOn(e.prm, ev.Note, v)
	case EventNoteOff:
		e.pool.noteOff(ev.Note)
	case EventControlChange:
		e.applyControl(ev.Control, ev.Value)
	}
}

// RenderBlock fills frames*channels interleaved samples. It drains all
// pending events first, so every event takes effect at a block boundary,
// then advances each active voice one sample per frame. Nothing in here
// allocates, locks or blocks.
func (e *Engine) RenderBlock(out []float64, frames int, channels int) {
	e.intake.drain(e.apply)
	e.pool.reclaimFinished()
	gain := voiceGain * e.prm.gain
	for i := 0; i < frames; i++ {
		sum := 0.0
		for _, v := range e.pool.voices {
			if v.active {
				sum += v.step()
			}
		}
		s := softClip(sum * gain)
		e.monitor[e.monitorPos&(fftSize-1)] = s
		e.monitorPos++
		base := i * channels
		for c := 0; c < channels; c++ {
			out[base+c] = s
		}
	}
	if e.snapMu.TryLock() {
		pos := e.monitorPos & (fftSize - 1)
		copy(e.snapshot, e.monitor[pos:])
		copy(e.snapshot[fftSize-pos:], e.monitor[:pos])
		e.snapMu.Unlock()
	}
	atomic.StoreInt32(&e.activeVoices, int32(e.pool.activeCount()))
}

// ----- Snapshots ----- //

// ActiveVoices reports how many voices were sounding after the last
// rendered block.
func (e *Engine) ActiveVoices() int {
	return int(atomic.LoadInt32(&e.activeVoices))
}

// OverflowCount reports how many events the intake ring has dropped.
func (e *Engine) OverflowCount() uint64 {
	return e.intake.overflowCount()
}

// Spectrum returns the magnitudes of the last snapshotted fftSize
// samples, Han-windowed, up to the Nyquist bin. Meant for one monitoring
// goroutine; holding the lock briefly here only ever costs the audio
// thread a skipped snapshot refresh, never a wait.
func (e *Engine) Spectrum() []float64 {
	e.snapMu.Lock()
	copy(e.spectrum, e.snapshot)
	e.snapMu.Unlock()
	Han(e.spectrum)
	e.fft.CalcAbs(e.spectrum)
	for i, value := range e.spectrum {
		e.spectrum[i] = value * 2 / fftSize
	}
	return e.spectrum[: fftSize/2 : fftSize/2]
}

// ----- PCM Reader ----- //

// Read renders 16-bit little-endian interleaved PCM, the format the oto
// player consumes. It renders in blocks of at most the configured block
// size.
func (e *Engine) Read(buf []byte) (int, error) {
	bytesPerFrame := bitDepthInBytes * e.cfg.ChannelCount
	frames := len(buf) / bytesPerFrame
	if frames == 0 {
		return 0, fmt.Errorf("buffer too small: %v bytes", len(buf))
	}
	done := 0
	for done < frames {
		n := frames - done
		if n > e.cfg.BlockSize {
			n = e.cfg.BlockSize
		}
		e.RenderBlock(e.scratch(n), n, e.cfg.ChannelCount)
		writePCM(e.scratch(n), buf[done*bytesPerFrame:], e.cfg.ChannelCount)
		done += n
	}
	return frames * bytesPerFrame, nil
}

// scratchBuf is lazily sized once; Read keeps reusing it.
func (e *Engine) scratch(frames int) []float64 {
	need := frames * e.cfg.ChannelCount
	if cap(e.scratchBuf) < need {
		e.scratchBuf = make([]float64, need)
	}
	e.scratchBuf = e.scratchBuf[:need]
	return e.scratchBuf
}

func writePCM(in []float64, buf []byte, channels int) {
	const max = 32767
	for i, value := range in {
		b := int16(value * max)
		buf[2*i] = byte(b)
		buf[2*i+1] = byte(b >> 8)
	}
}
