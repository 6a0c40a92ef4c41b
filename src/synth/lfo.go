package synth

import "math"

// ----- LFO Destination ----- //

const (
	lfoNone = iota
	lfoVibrato
	lfoTremolo
)

func lfoDestinationFromString(s string) (int, bool) {
	switch s {
	case "none":
		return lfoNone, true
	case "vibrato":
		return lfoVibrato, true
	case "tremolo":
		return lfoTremolo, true
	}
	return lfoNone, false
}

func lfoDestinationToString(dest int) string {
	switch dest {
	case lfoNone:
		return "none"
	case lfoVibrato:
		return "vibrato"
	case lfoTremolo:
		return "tremolo"
	}
	return "none"
}

// ----- LFO ----- //

// lfo is a sine modulator running at control amounts well below audio
// rate. Vibrato amount is in cents, tremolo amount in 0-1.
type lfo struct {
	destination int
	amount      float64
	osc         *osc
}

func newLfo(sampleRate int) *lfo {
	return &lfo{
		destination: lfoNone,
		osc:         newOsc(sampleRate),
	}
}

func (l *lfo) apply(destination int, freq float64, amount float64) {
	l.destination = destination
	l.amount = amount
	l.osc.setFreq(freq)
}

// step returns the frequency and amplitude ratios for one sample.
func (l *lfo) step() (float64, float64) {
	freqRatio := 1.0
	ampRatio := 1.0
	switch l.destination {
	case lfoVibrato:
		freqRatio = math.Pow(2.0, l.osc.step(1.0)*l.amount/100.0/12.0)
	case lfoTremolo:
		ampRatio = 1.0 + (l.osc.step(1.0)-1.0)/2.0*l.amount
	}
	return freqRatio, ampRatio
}
