package synth

import "fmt"

// ----- ADSR Params ----- //

type adsrParams struct {
	attack  float64 // sec
	decay   float64 // sec
	sustain float64 // 0-1
	release float64 // sec
}

func (p *adsrParams) validate() error {
	if p.attack < 0 || p.decay < 0 || p.release < 0 {
		return fmt.Errorf("envelope times should not be negative: %+v", *p)
	}
	if p.sustain < 0 || p.sustain > 1 {
		return fmt.Errorf("sustain level should be in [0,1]: %v", p.sustain)
	}
	return nil
}

// ----- ADSR ----- //

const (
	stageIdle = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

/*
  1 +     x
    |    / \
    |   /   \
  s +  /     x------x
    | /              \
    |/                \
  0 +-----+--+------+---
    |a    |d |      |r |
*/
// adsr advances one tick per rendered sample. All increments are
// precomputed when parameters change; step() is pure arithmetic.
type adsr struct {
	sampleRate float64
	stage      int
	level      float64 // 0-1
	sustain    float64
	attackInc  float64
	decayInc   float64
	releaseInc float64
	// kept to recompute releaseInc from the level at note-off
	releaseSec float64
}

func newAdsr(sampleRate int) *adsr {
	return &adsr{sampleRate: float64(sampleRate)}
}

func (a *adsr) setParams(p *adsrParams) {
	a.sustain = p.sustain
	a.attackInc = inverseSamples(p.attack, a.sampleRate)
	a.decayInc = (1 - p.sustain) * inverseSamples(p.decay, a.sampleRate)
	a.releaseSec = p.release
}

// inverseSamples returns 1/(sec*rate), treating a zero duration as an
// immediate jump.
func inverseSamples(sec float64, rate float64) float64 {
	n := sec * rate
	if n < 1 {
		return 1
	}
	return 1 / n
}

// trigger starts the attack from the current level, not from zero, so a
// retrigger of a still-sounding voice cannot click.
func (a *adsr) trigger() {
	a.stage = stageAttack
}

// release starts the fall from wherever the level is right now, even
// mid-attack; the remaining distance is covered in the configured
// release time.
func (a *adsr) release() {
	if a.stage == stageIdle {
		return
	}
	a.releaseInc = a.level * inverseSamples(a.releaseSec, a.sampleRate)
	a.stage = stageRelease
}

func (a *adsr) idle() bool {
	return a.stage == stageIdle
}

// step advances one sample and returns the level after the update.
func (a *adsr) step() float64 {
	switch a.stage {
	case stageIdle:
		a.level = 0
	case stageAttack:
		a.level += a.attackInc
		if a.level >= 1 {
			a.level = 1
			a.stage = stageDecay
		}
	case stageDecay:
		a.level -= a.decayInc
		if a.level <= a.sustain {
			a.level = a.sustain
			a.stage = stageSustain
		}
	case stageSustain:
		a.level = a.sustain
	case stageRelease:
		a.level -= a.releaseInc
		if a.level <= 0 {
			a.level = 0
			a.stage = stageIdle
		}
	}
	return a.level
}
