package synth

import (
	"fmt"
	"math"
)

// ----- Filter Kind ----- //

const (
	filterNone = iota
	filterLowPass
	filterOnePole
)

func filterKindFromString(s string) (int, bool) {
	switch s {
	case "none":
		return filterNone, true
	case "lowpass":
		return filterLowPass, true
	case "onepole":
		return filterOnePole, true
	}
	return filterNone, false
}

func filterKindToString(kind int) string {
	switch kind {
	case filterNone:
		return "none"
	case filterLowPass:
		return "lowpass"
	case filterOnePole:
		return "onepole"
	}
	return "none"
}

// ----- Filter ----- //

// filter is a per-voice low-pass stage. Coefficients are computed when the
// cutoff or resonance changes, never inside step().
type filter struct {
	kind       int
	sampleRate float64
	freq       float64
	q          float64
	// biquad coefficients (RBJ cookbook), normalized by a0
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
	// one-pole
	alpha float64
	prev  float64
}

func newFilter(sampleRate int) *filter {
	f := &filter{
		kind:       filterNone,
		sampleRate: float64(sampleRate),
		freq:       20000,
		q:          1,
	}
	f.calcCoefficients()
	return f
}

// setKind clears the history only on an actual kind change; parameter
// changes reapplied to sounding voices must not discontinue the output.
func (f *filter) setKind(kind int) {
	if kind == f.kind {
		return
	}
	f.kind = kind
	f.calcCoefficients()
	f.resetState()
}

// setCutoff rejects an unstable configuration and keeps the previous
// cutoff in place.
func (f *filter) setCutoff(freq float64) error {
	if freq <= 0 || freq >= f.sampleRate/2 {
		return fmt.Errorf("cutoff should be in (0, %v): %v", f.sampleRate/2, freq)
	}
	f.freq = freq
	f.calcCoefficients()
	return nil
}

func (f *filter) setResonance(q float64) error {
	if q <= 0 {
		return fmt.Errorf("resonance should be positive: %v", q)
	}
	f.q = q
	f.calcCoefficients()
	return nil
}

func (f *filter) calcCoefficients() {
	switch f.kind {
	case filterLowPass:
		// from RBJ's cookbook
		w0 := 2 * math.Pi * f.freq / f.sampleRate
		alpha := math.Sin(w0) / (2 * f.q)
		cos := math.Cos(w0)
		b0 := (1 - cos) / 2
		b1 := 1 - cos
		b2 := (1 - cos) / 2
		a0 := 1 + alpha
		a1 := -2 * cos
		a2 := 1 - alpha
		f.b0 = b0 / a0
		f.b1 = b1 / a0
		f.b2 = b2 / a0
		f.a1 = a1 / a0
		f.a2 = a2 / a0
	case filterOnePole:
		rc := 1 / (2 * math.Pi * f.freq)
		dt := 1 / f.sampleRate
		f.alpha = dt / (rc + dt)
	}
}

func (f *filter) resetState() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
	f.prev = 0
}

func (f *filter) step(in float64) float64 {
	switch f.kind {
	case filterLowPass:
		out := f.b0*in + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2 = f.x1
		f.x1 = in
		f.y2 = f.y1
		f.y1 = out
		return out
	case filterOnePole:
		f.prev += f.alpha * (in - f.prev)
		return f.prev
	default:
		return in
	}
}
