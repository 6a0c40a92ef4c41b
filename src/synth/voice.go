package synth

import "math/rand"

// ----- Params ----- //

// params is the set of values a voice copies at note-on and tracks on
// control changes. Owned by the engine, mutated only on the audio thread.
type params struct {
	wave       int
	adsr       adsrParams
	filterKind int
	cutoff     float64
	resonance  float64
	lfoDest    int
	lfoFreq    float64
	lfoAmount  float64
	gain       float64
	velSense   float64 // 0: ignore velocity, 1: full scaling
	// band-limited sets, resolved up front so note-on never hits the
	// shared table cache (and its lock) on the audio thread
	sets map[int]*WavetableSet
}

func newParams(cfg Config) *params {
	sets := map[int]*WavetableSet{
		waveTriangle: bandLimitedSet(waveTriangle, cfg.SampleRate),
		waveSquare:   bandLimitedSet(waveSquare, cfg.SampleRate),
		waveSaw:      bandLimitedSet(waveSaw, cfg.SampleRate),
	}
	return &params{
		sets:       sets,
		wave:       waveSine,
		adsr:       adsrParams{attack: 0.01, decay: 0.1, sustain: 0.7, release: 0.3},
		filterKind: filterNone,
		cutoff:     20000,
		resonance:  1,
		lfoDest:    lfoNone,
		lfoFreq:    5,
		lfoAmount:  0,
		gain:       1,
		velSense:   1,
	}
}

func (p *params) tableFor(note int) *Wavetable {
	switch p.wave {
	case waveSine, waveNoise:
		return SineTable()
	default:
		return p.sets[p.wave].Table(note)
	}
}

// ----- Voice ----- //

// voice is one sounding note: oscillator, envelope, filter and LFO. It is
// owned by the pool and only ever touched on the audio thread.
type voice struct {
	osc      *osc
	env      *adsr
	filt     *filter
	lfo      *lfo
	note     int
	velocity float64
	active   bool
	serial   uint64
}

func newVoice(cfg Config) *voice {
	v := &voice{
		osc:  newOsc(cfg.SampleRate),
		env:  newAdsr(cfg.SampleRate),
		filt: newFilter(cfg.SampleRate),
		lfo:  newLfo(cfg.SampleRate),
	}
	// Free-running phase, randomized once at construction. Voices that
	// start at identical phases sum into an artificial onset thump;
	// random phases also mean a stolen voice never snaps back to zero.
	v.osc.phase = rand.Float64() * tableSize
	return v
}

func (v *voice) applyParams(p *params) {
	v.env.setParams(&p.adsr)
	v.filt.setKind(p.filterKind)
	v.filt.setCutoff(p.cutoff)
	v.filt.setResonance(p.resonance)
	v.lfo.apply(p.lfoDest, p.lfoFreq, p.lfoAmount)
}

func (v *voice) noteOn(p *params, note int, velocity float64, serial uint64) {
	wasActive := v.active
	v.note = note
	v.velocity = 1 - p.velSense + p.velSense*velocity
	v.active = true
	v.serial = serial
	v.osc.initWithNote(p.wave, p.tableFor(note), note)
	v.applyParams(p)
	if !wasActive {
		v.filt.resetState()
	}
	v.env.trigger()
}

func (v *voice) noteOff() {
	v.env.release()
}

// finished reports that the envelope has fully released and the pool may
// reclaim the voice.
func (v *voice) finished() bool {
	return v.active && v.env.idle()
}

// step renders one sample: filter(osc * envelope * velocity), with the
// LFO scaling pitch or amplitude.
func (v *voice) step() float64 {
	freqRatio, ampRatio := v.lfo.step()
	level := v.env.step()
	value := v.osc.step(freqRatio)
	return v.filt.step(value * level * v.velocity * ampRatio)
}
