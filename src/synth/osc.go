package synth

import "math"

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveTriangle
	waveSquare
	waveSaw
	waveNoise
)

func waveKindFromString(s string) (int, bool) {
	switch s {
	case "sine":
		return waveSine, true
	case "triangle":
		return waveTriangle, true
	case "square":
		return waveSquare, true
	case "saw":
		return waveSaw, true
	case "noise":
		return waveNoise, true
	}
	return waveSine, false
}

func waveKindToString(kind int) string {
	switch kind {
	case waveSine:
		return "sine"
	case waveTriangle:
		return "triangle"
	case waveSquare:
		return "square"
	case waveSaw:
		return "saw"
	case waveNoise:
		return "noise"
	}
	return "sine"
}

const baseFreq = 440.0

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

// ----- OSC ----- //

// osc walks a wavetable with a fractional phase accumulator. The phase is
// kept in table-index units, [0, tableSize), and wraps by subtraction
// rather than clamping so the waveform stays continuous.
type osc struct {
	kind       int
	table      *Wavetable
	sampleRate float64
	freq       float64
	phase      float64
	inc        float64
	noise      uint64
}

func newOsc(sampleRate int) *osc {
	return &osc{
		kind:       waveSine,
		table:      SineTable(),
		sampleRate: float64(sampleRate),
		noise:      0x2545f4914f6cdd1d,
	}
}

// initWithNote points the oscillator at the table chosen for the note
// (the band-limited one for harmonically rich waves) and sets the
// increment. The caller resolves the table; nothing here may take a lock.
func (o *osc) initWithNote(kind int, table *Wavetable, note int) {
	o.kind = kind
	o.table = table
	o.setFreq(noteToFreq(note))
}

func (o *osc) setFreq(freq float64) {
	o.freq = freq
	o.inc = float64(o.table.Len()) * freq / o.sampleRate
}

// step returns the next sample and advances the phase. freqRatio scales
// the increment for this sample only (vibrato), without touching the
// stored frequency.
func (o *osc) step(freqRatio float64) float64 {
	if o.kind == waveNoise {
		return o.nextNoise()
	}
	value := o.table.Sample(o.phase)
	o.phase += o.inc * freqRatio
	for o.phase >= tableSize {
		o.phase -= tableSize
	}
	return value
}

// xorshift64star; the audio thread must not touch the locked global rand.
func (o *osc) nextNoise() float64 {
	x := o.noise
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	o.noise = x
	return float64(x*0x2545f4914f6cdd1d>>11)/float64(1<<53)*2 - 1
}
