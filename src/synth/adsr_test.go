package synth

import "testing"

func TestAdsrStages(t *testing.T) {
	a := newAdsr(1000)
	a.setParams(&adsrParams{attack: 0.1, decay: 0.1, sustain: 0.5, release: 0.1})
	expectEqual(t, a.idle(), true)

	a.trigger()
	for i := 0; i < 99; i++ {
		level := a.step()
		if level <= 0 || level > 1 {
			t.Fatalf("attack level out of range at step %v: %v", i, level)
		}
	}
	for a.stage == stageAttack {
		a.step()
	}
	expectNearlyEqual(t, a.level, 1)

	for a.stage == stageDecay {
		level := a.step()
		if level < 0.5-0.0001 || level > 1 {
			t.Fatalf("decay level out of range: %v", level)
		}
	}
	expectEqual(t, a.stage, stageSustain)
	for i := 0; i < 100; i++ {
		expectNearlyEqual(t, a.step(), 0.5)
	}

	a.release()
	prev := 0.5
	for i := 0; i < 101; i++ {
		level := a.step()
		if level > prev {
			t.Fatalf("release level rose at step %v: %v -> %v", i, prev, level)
		}
		prev = level
	}
	expectEqual(t, a.idle(), true)
	expectNearlyEqual(t, a.level, 0)
}

func TestAdsrZeroTimesJumpImmediately(t *testing.T) {
	a := newAdsr(1000)
	a.setParams(&adsrParams{attack: 0, decay: 0, sustain: 0.8, release: 0})
	a.trigger()
	a.step() // jumps to 1, enters decay
	expectNearlyEqual(t, a.level, 1)
	a.step()
	expectNearlyEqual(t, a.level, 0.8)
	a.release()
	a.step()
	expectEqual(t, a.idle(), true)
}

// A note-off in mid-attack must fall from the level reached, not from 1,
// and still take the configured release time.
func TestAdsrReleaseMidAttack(t *testing.T) {
	a := newAdsr(1000)
	a.setParams(&adsrParams{attack: 1, decay: 0.1, sustain: 0.5, release: 0.1})
	a.trigger()
	for i := 0; i < 100; i++ {
		a.step()
	}
	expectNearlyEqual(t, a.level, 0.1)

	a.release()
	for i := 0; i < 99; i++ {
		level := a.step()
		if level <= 0 {
			t.Fatalf("released too early at step %v", i)
		}
	}
	for i := 0; i < 2 && !a.idle(); i++ {
		a.step()
	}
	expectEqual(t, a.idle(), true)
}

// Retriggering a sounding envelope restarts the attack from the current
// level so the output cannot click back to zero.
func TestAdsrRetriggerKeepsLevel(t *testing.T) {
	a := newAdsr(1000)
	a.setParams(&adsrParams{attack: 0.1, decay: 0.1, sustain: 0.5, release: 0.1})
	a.trigger()
	for a.stage != stageSustain {
		a.step()
	}
	a.trigger()
	level := a.step()
	if level < 0.5 {
		t.Fatalf("retrigger dropped the level: %v", level)
	}
	expectEqual(t, a.stage, stageAttack)
}

func TestAdsrReleaseWhileIdleIsNoop(t *testing.T) {
	a := newAdsr(1000)
	a.setParams(&adsrParams{attack: 0.1, decay: 0.1, sustain: 0.5, release: 0.1})
	a.release()
	expectEqual(t, a.idle(), true)
	expectNearlyEqual(t, a.step(), 0)
}

func TestAdsrParamsValidate(t *testing.T) {
	ok := adsrParams{attack: 0.1, decay: 0.1, sustain: 0.5, release: 0.1}
	expectNoError(t, ok.validate())
	bad := adsrParams{attack: -0.1, decay: 0.1, sustain: 0.5, release: 0.1}
	if bad.validate() == nil {
		t.Error("expected an error for a negative attack")
	}
	bad = adsrParams{attack: 0.1, decay: 0.1, sustain: 1.5, release: 0.1}
	if bad.validate() == nil {
		t.Error("expected an error for sustain > 1")
	}
}
