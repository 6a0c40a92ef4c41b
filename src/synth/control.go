package synth

import (
	"fmt"
	"strconv"
)

// ----- Control ----- //

// ControlID identifies an engine parameter. Parameter changes travel the
// same ring as notes; nothing ever mutates engine state from outside the
// audio thread.
type ControlID int

const (
	// ControlWaveKind ...
	ControlWaveKind ControlID = iota
	// ControlAttack ...
	ControlAttack
	// ControlDecay ...
	ControlDecay
	// ControlSustain ...
	ControlSustain
	// ControlRelease ...
	ControlRelease
	// ControlFilterKind ...
	ControlFilterKind
	// ControlCutoff ...
	ControlCutoff
	// ControlResonance ...
	ControlResonance
	// ControlLfoDestination ...
	ControlLfoDestination
	// ControlLfoFreq ...
	ControlLfoFreq
	// ControlLfoAmount ...
	ControlLfoAmount
	// ControlGain ...
	ControlGain
	// ControlVelSense ...
	ControlVelSense
)

// ParseControl validates a textual parameter change and returns the
// control event to push. Invalid values are rejected here, synchronously,
// and the engine keeps its previous value. Split from Set so a caller
// with its own producer goroutine can route the event there.
func (e *Engine) ParseControl(key string, value string) (Event, error) {
	id, v, err := e.parseControl(key, value)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: EventControlChange, Control: id, Value: v, Time: nowNanos()}, nil
}

// Set parses and pushes in one call, for callers that are themselves the
// single producer.
func (e *Engine) Set(key string, value string) error {
	ev, err := e.ParseControl(key, value)
	if err != nil {
		return err
	}
	// A drop here is already counted; the change still lands, an older
	// pending event pays for it.
	e.PushEvent(ev)
	return nil
}

func (e *Engine) parseControl(key string, value string) (ControlID, float64, error) {
	switch key {
	case "wave":
		kind, ok := waveKindFromString(value)
		if !ok {
			return 0, 0, fmt.Errorf("unknown wave kind: %v", value)
		}
		return ControlWaveKind, float64(kind), nil
	case "filter":
		kind, ok := filterKindFromString(value)
		if !ok {
			return 0, 0, fmt.Errorf("unknown filter kind: %v", value)
		}
		return ControlFilterKind, float64(kind), nil
	case "lfo_destination":
		dest, ok := lfoDestinationFromString(value)
		if !ok {
			return 0, 0, fmt.Errorf("unknown lfo destination: %v", value)
		}
		return ControlLfoDestination, float64(dest), nil
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, 0, err
	}
	switch key {
	case "attack", "decay", "release":
		if v < 0 {
			return 0, 0, fmt.Errorf("%v should not be negative: %v", key, v)
		}
		switch key {
		case "attack":
			return ControlAttack, v, nil
		case "decay":
			return ControlDecay, v, nil
		default:
			return ControlRelease, v, nil
		}
	case "sustain":
		if v < 0 || v > 1 {
			return 0, 0, fmt.Errorf("sustain should be in [0,1]: %v", v)
		}
		return ControlSustain, v, nil
	case "cutoff":
		nyquist := float64(e.cfg.SampleRate) / 2
		if v <= 0 || v >= nyquist {
			return 0, 0, fmt.Errorf("cutoff should be in (0, %v): %v", nyquist, v)
		}
		return ControlCutoff, v, nil
	case "resonance":
		if v <= 0 {
			return 0, 0, fmt.Errorf("resonance should be positive: %v", v)
		}
		return ControlResonance, v, nil
	case "lfo_freq":
		if v < 0 {
			return 0, 0, fmt.Errorf("lfo freq should not be negative: %v", v)
		}
		return ControlLfoFreq, v, nil
	case "lfo_amount":
		if v < 0 {
			return 0, 0, fmt.Errorf("lfo amount should not be negative: %v", v)
		}
		return ControlLfoAmount, v, nil
	case "gain":
		if v < 0 {
			return 0, 0, fmt.Errorf("gain should not be negative: %v", v)
		}
		return ControlGain, v, nil
	case "vel_sense":
		if v < 0 || v > 1 {
			return 0, 0, fmt.Errorf("vel_sense should be in [0,1]: %v", v)
		}
		return ControlVelSense, v, nil
	}
	return 0, 0, fmt.Errorf("unknown parameter: %v", key)
}

// applyControl runs on the audio thread. Values pushed through Set are
// already validated; raw events from other producers are range-checked
// again and ignored (prior value retained) when out of range, since there
// is no caller left to report to.
func (e *Engine) applyControl(id ControlID, v float64) {
	p := e.prm
	switch id {
	case ControlWaveKind:
		kind := int(v)
		if kind >= waveSine && kind <= waveNoise {
			p.wave = kind
		}
	case ControlAttack:
		if v >= 0 {
			p.adsr.attack = v
		}
	case ControlDecay:
		if v >= 0 {
			p.adsr.decay = v
		}
	case ControlSustain:
		if v >= 0 && v <= 1 {
			p.adsr.sustain = v
		}
	case ControlRelease:
		if v >= 0 {
			p.adsr.release = v
		}
	case ControlFilterKind:
		kind := int(v)
		if kind >= filterNone && kind <= filterOnePole {
			p.filterKind = kind
		}
	case ControlCutoff:
		if v > 0 && v < float64(e.cfg.SampleRate)/2 {
			p.cutoff = v
		}
	case ControlResonance:
		if v > 0 {
			p.resonance = v
		}
	case ControlLfoDestination:
		dest := int(v)
		if dest >= lfoNone && dest <= lfoTremolo {
			p.lfoDest = dest
		}
	case ControlLfoFreq:
		if v >= 0 {
			p.lfoFreq = v
		}
	case ControlLfoAmount:
		if v >= 0 {
			p.lfoAmount = v
		}
	case ControlGain:
		if v >= 0 {
			p.gain = v
		}
	case ControlVelSense:
		if v >= 0 && v <= 1 {
			p.velSense = v
		}
	}
	e.pool.applyParams(p)
}
