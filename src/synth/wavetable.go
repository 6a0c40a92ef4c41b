package synth

import (
	"math"
	"sync"
)

// tableSize is the number of samples in one waveform cycle. A power of
// two keeps the lookup wraparound a single mask operation.
const tableSize = 4096
const tableMask = tableSize - 1

// ----- Wavetable ----- //

// Wavetable is one immutable cycle of a periodic waveform. It is shared
// read-only by every oscillator that plays it; nothing mutates it after
// construction.
type Wavetable struct {
	values []float64
}

func newWavetable() *Wavetable {
	return &Wavetable{
		values: make([]float64, tableSize),
	}
}

// Generate ...
func Generate(phaseToValue func(phase float64) float64) *Wavetable {
	wt := newWavetable()
	for i := 0; i < tableSize; i++ {
		phase := 2.0 * math.Pi / float64(tableSize) * float64(i)
		wt.values[i] = phaseToValue(phase)
	}
	return wt
}

// Len ...
func (wt *Wavetable) Len() int {
	return len(wt.values)
}

// Sample returns the linearly interpolated value at a fractional table
// position. The position is wrapped, never rejected.
func (wt *Wavetable) Sample(pos float64) float64 {
	if pos < 0 {
		pos = math.Mod(pos, tableSize) + tableSize
	}
	floor := int(pos)
	frac := pos - float64(floor)
	i := floor & tableMask
	j := (floor + 1) & tableMask
	y1 := wt.values[i]
	y2 := wt.values[j]
	return y1 + frac*(y2-y1)
}

// normalize scales the table so that its peak is 1. Partial sums come out
// with a waveform-dependent gain otherwise.
func (wt *Wavetable) normalize() {
	peak := 0.0
	for _, v := range wt.values {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range wt.values {
		wt.values[i] /= peak
	}
}

var sineOnce sync.Once
var sineTable *Wavetable

// SineTable returns the shared sine cycle.
func SineTable() *Wavetable {
	sineOnce.Do(func() {
		sineTable = Generate(math.Sin)
	})
	return sineTable
}

// ----- Wavetable Set ----- //

// WavetableSet holds one band-limited table per MIDI note. Playing note n
// from tables[n] keeps every partial below the Nyquist frequency.
type WavetableSet struct {
	tables []*Wavetable
}

// Table ...
func (wts *WavetableSet) Table(note int) *Wavetable {
	if note < 0 {
		note = 0
	}
	if note >= len(wts.tables) {
		note = len(wts.tables) - 1
	}
	return wts.tables[note]
}

// MakeBandLimitedSet sums Fourier partials into one table per MIDI note,
// cutting the series at sampleRate/2. calcPartialAmp returns the amplitude
// of partial n, with 0 meaning the partial is absent.
func MakeBandLimitedSet(sampleRate int, calcPartialAmp func(n int) float64) *WavetableSet {
	sine := SineTable()
	wts := &WavetableSet{tables: make([]*Wavetable, 128)}
	for note := 0; note < 128; note++ {
		freq := noteToFreq(note)
		partials := int(float64(sampleRate) / 2 / freq)
		wt := newWavetable()
		for n := 1; n <= partials; n++ {
			amp := calcPartialAmp(n)
			if amp == 0 {
				continue
			}
			// sin(n*phase_i) is an exact stride-n walk over the sine cycle.
			for i := 0; i < tableSize; i++ {
				wt.values[i] += amp * sine.values[(n*i)&tableMask]
			}
		}
		wt.normalize()
		wts.tables[note] = wt
	}
	return wts
}

func calcPartialSquare(n int) float64 {
	if n%2 == 1 {
		return 1.0 / float64(n)
	}
	return 0.0
}

func calcPartialSaw(n int) float64 {
	return 1.0 / float64(n)
}

func calcPartialTriangle(n int) float64 {
	if n%2 == 0 {
		return 0.0
	}
	amp := 1.0 / float64(n*n)
	if n%4 == 3 {
		return -amp
	}
	return amp
}

// tableBank caches the band-limited sets per sample rate so that engines
// (and tests) constructed with the same rate share them.
type tableBankKey struct {
	kind       int
	sampleRate int
}

var tableBankMu sync.Mutex
var tableBank = map[tableBankKey]*WavetableSet{}

func bandLimitedSet(kind int, sampleRate int) *WavetableSet {
	tableBankMu.Lock()
	defer tableBankMu.Unlock()
	key := tableBankKey{kind: kind, sampleRate: sampleRate}
	if wts, ok := tableBank[key]; ok {
		return wts
	}
	var calc func(n int) float64
	switch kind {
	case waveSquare:
		calc = calcPartialSquare
	case waveSaw:
		calc = calcPartialSaw
	case waveTriangle:
		calc = calcPartialTriangle
	default:
		panic("no band-limited set for this wave kind")
	}
	wts := MakeBandLimitedSet(sampleRate, calc)
	tableBank[key] = wts
	return wts
}
