package synth

// ----- Voice Pool ----- //

// pool owns a fixed set of voices, preallocated up front; note-ons never
// allocate. At most len(voices) voices sound at once.
type pool struct {
	voices    []*voice
	serial    uint64
	retrigger RetriggerMode
}

func newPool(cfg Config) *pool {
	voices := make([]*voice, cfg.MaxPolyphony)
	for i := range voices {
		voices[i] = newVoice(cfg)
	}
	return &pool{
		voices:    voices,
		retrigger: cfg.Retrigger,
	}
}

// noteOn assigns a free voice, or steals one when the pool is exhausted.
// It never refuses a note.
func (p *pool) noteOn(prm *params, note int, velocity float64) {
	p.serial++
	if p.retrigger == RetriggerReuse {
		for _, v := range p.voices {
			if v.active && v.note == note {
				v.noteOn(prm, note, velocity, p.serial)
				return
			}
		}
	}
	for _, v := range p.voices {
		if !v.active {
			v.noteOn(prm, note, velocity, p.serial)
			return
		}
	}
	p.steal().noteOn(prm, note, velocity, p.serial)
}

// steal picks the releasing voice with the lowest remaining level; if none
// is releasing, the oldest-triggered voice (lowest index wins a tie); as a
// last guard, the first voice. The chosen voice is retriggered from its
// current envelope level, the same click-free path a retrigger takes.
func (p *pool) steal() *voice {
	var best *voice
	for _, v := range p.voices {
		if v.active && v.env.stage == stageRelease && (best == nil || v.env.level < best.env.level) {
			best = v
		}
	}
	if best == nil {
		for _, v := range p.voices {
			if v.active && (best == nil || v.serial < best.serial) {
				best = v
			}
		}
	}
	if best == nil {
		best = p.voices[0]
	}
	return best
}

// noteOff releases every voice holding the note. Voices already in
// release are left alone.
func (p *pool) noteOff(note int) {
	for _, v := range p.voices {
		if v.active && v.note == note && v.env.stage != stageRelease {
			v.noteOff()
		}
	}
}

// reclaimFinished returns fully released voices to the free set. Calling
// it with nothing to reclaim changes no state.
func (p *pool) reclaimFinished() {
	for _, v := range p.voices {
		if v.finished() {
			v.active = false
			v.filt.resetState()
		}
	}
}

func (p *pool) applyParams(prm *params) {
	for _, v := range p.voices {
		if v.active {
			v.applyParams(prm)
		}
	}
}

func (p *pool) activeCount() int {
	n := 0
	for _, v := range p.voices {
		if v.active {
			n++
		}
	}
	return n
}
