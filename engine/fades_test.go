// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/ik5/audmix/fader"
)

func TestFadeVolume_TwoSecondRamp(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20), Volume(0), InaudibleBehavior(true, false))
	e.FadeVolume(h, 1, 2*time.Second)

	if got := e.Volume(h); got != 0 {
		t.Errorf("Volume() at 0s = %v, want 0", got)
	}

	mixFor(e, time.Second)
	if got := e.Volume(h); !near(got, 0.5, 1e-6) {
		t.Errorf("Volume() at 1s = %v, want 0.5", got)
	}

	mixFor(e, time.Second)
	if got := e.Volume(h); got != 1 {
		t.Errorf("Volume() at 2s = %v, want 1", got)
	}

	v := e.voices[e.resolve(h)]
	if v.volumeFader.State() != fader.Inactive {
		t.Errorf("volume fader state = %v after the fade, want inactive", v.volumeFader.State())
	}

	mixFor(e, 500*time.Millisecond)
	if got := e.Volume(h); got != 1 {
		t.Errorf("Volume() past the fade = %v, want 1", got)
	}
}

func TestSetVolume_CancelsFade(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20))
	e.FadeVolume(h, 0, time.Second)

	mixFor(e, 250*time.Millisecond)
	e.SetVolume(h, 0.2)
	mixFor(e, 500*time.Millisecond)

	if got := e.Volume(h); got != 0.2 {
		t.Errorf("Volume() = %v, want 0.2; the fade overwrote a direct set", got)
	}

	out := mixFrames(e, 64)
	if !near(out[0], 0.1, 1e-6) {
		t.Errorf("out[0] = %v, want 0.1", out[0])
	}
}

func TestFade_ZeroDuration(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20))

	e.FadeVolume(h, 0.3, 0)
	e.FadePan(h, -0.5, 0)
	if err := e.FadeRelativePlaySpeed(h, 2, 0); err != nil {
		t.Fatal(err)
	}
	e.FadeGlobalVolume(0.5, 0)

	if e.Volume(h) != 0.3 || e.Pan(h) != -0.5 || e.RelativePlaySpeed(h) != 2 || e.GlobalVolume() != 0.5 {
		t.Errorf("zero duration fades did not land: vol=%v pan=%v speed=%v global=%v",
			e.Volume(h), e.Pan(h), e.RelativePlaySpeed(h), e.GlobalVolume())
	}
}

func TestFade_SupersedeStartsFromCurrent(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20), Volume(0), InaudibleBehavior(true, false))
	e.FadeVolume(h, 1, 2*time.Second)

	mixFor(e, time.Second)
	e.FadeVolume(h, 0, time.Second)

	if got := e.Volume(h); !near(got, 0.5, 1e-6) {
		t.Errorf("Volume() right after refade = %v, want 0.5", got)
	}

	mixFor(e, 500*time.Millisecond)
	if got := e.Volume(h); !near(got, 0.25, 1e-6) {
		t.Errorf("Volume() half way = %v, want 0.25", got)
	}
}

func TestFadePan(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, stereoConfig(2))
	h := e.Play(constant(0.5, 1<<20), Pan(-1))
	e.FadePan(h, 1, time.Second)

	mixFor(e, 500*time.Millisecond)
	if got := e.Pan(h); !near(got, 0, 1e-6) {
		t.Errorf("Pan() half way = %v, want 0", got)
	}

	mixFor(e, time.Second)
	out := mixFrames(e, 64)
	if e.Pan(h) != 1 || !near(out[0], 0, 1e-6) || !near(out[1], 0.5, 1e-6) {
		t.Errorf("Pan() = %v frame = (%v, %v), want hard right", e.Pan(h), out[0], out[1])
	}
}

func TestFadeRelativePlaySpeed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20))
	if err := e.FadeRelativePlaySpeed(h, 2, time.Second); err != nil {
		t.Fatal(err)
	}

	mixFor(e, 500*time.Millisecond)
	if got := e.RelativePlaySpeed(h); !near(got, 1.5, 1e-6) {
		t.Errorf("RelativePlaySpeed() = %v, want 1.5", got)
	}

	if err := e.FadeRelativePlaySpeed(h, 0, time.Second); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("FadeRelativePlaySpeed(0) error = %v, want ErrInvalidParameter", err)
	}
}

func TestFadeGlobalVolume(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	e.Play(constant(0.5, 1<<20))
	e.FadeGlobalVolume(0, time.Second)

	out := mixFor(e, 500*time.Millisecond)
	if got := e.GlobalVolume(); !near(got, 0.5, 1e-6) {
		t.Errorf("GlobalVolume() half way = %v, want 0.5", got)
	}
	if out[len(out)-1] >= out[0] {
		t.Error("output did not get quieter during the fade")
	}

	mixFor(e, 600*time.Millisecond)
	out = mixFrames(e, 64)
	if e.GlobalVolume() != 0 || out[0] != 0 {
		t.Errorf("GlobalVolume() = %v out[0] = %v, want silence", e.GlobalVolume(), out[0])
	}

	e.SetGlobalVolume(1)
	if e.globalFader.Active() {
		t.Error("SetGlobalVolume left the fader running")
	}
}

func TestOscillateVolume(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20), InaudibleBehavior(true, false))
	e.OscillateVolume(h, 0, 1, time.Second)

	mixFor(e, 500*time.Millisecond)
	if got := e.Volume(h); !near(got, 1, 1e-5) {
		t.Errorf("Volume() at half period = %v, want 1", got)
	}

	mixFor(e, 500*time.Millisecond)
	if got := e.Volume(h); !near(got, 0, 1e-5) {
		t.Errorf("Volume() at full period = %v, want 0", got)
	}

	e.SetVolume(h, 0.7)
	mixFor(e, 250*time.Millisecond)
	if got := e.Volume(h); got != 0.7 {
		t.Errorf("Volume() = %v, want the oscillation stopped at 0.7", got)
	}
}

func TestOscillate_OtherParameters(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20))
	e.OscillatePan(h, -1, 1, time.Second)
	if err := e.OscillateRelativePlaySpeed(h, 1, 2, time.Second); err != nil {
		t.Fatal(err)
	}
	e.OscillateGlobalVolume(1, 0.5, time.Second)

	mixFor(e, 500*time.Millisecond)

	if got := e.Pan(h); !near(got, 1, 1e-5) {
		t.Errorf("Pan() = %v, want 1", got)
	}
	if got := e.RelativePlaySpeed(h); !near(got, 2, 1e-5) {
		t.Errorf("RelativePlaySpeed() = %v, want 2", got)
	}
	if got := e.GlobalVolume(); !near(got, 0.5, 1e-5) {
		t.Errorf("GlobalVolume() = %v, want 0.5", got)
	}

	if err := e.OscillateRelativePlaySpeed(h, 0, 1, time.Second); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("OscillateRelativePlaySpeed(0, 1) error = %v, want ErrInvalidParameter", err)
	}
}

func TestSchedulePause(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20))
	e.SchedulePause(h, 500*time.Millisecond)

	mixFor(e, 400*time.Millisecond)
	if e.Paused(h) {
		t.Fatal("paused early")
	}

	mixFor(e, 600*time.Millisecond)
	if !e.Paused(h) {
		t.Fatal("scheduled pause did not fire")
	}

	// Fires at the first block boundary at or past 500ms
	got := e.StreamTime(h)
	if got < 500*time.Millisecond || got > 500*time.Millisecond+time.Second*mixBlock/testRate {
		t.Errorf("StreamTime() = %v when paused, want just past 500ms", got)
	}

	e.SetPause(h, false)
	mixFor(e, 100*time.Millisecond)
	if e.Paused(h) {
		t.Error("scheduled pause fired twice")
	}
}

func TestSetPause_CancelsSchedule(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20))
	e.SchedulePause(h, 100*time.Millisecond)
	e.SetPause(h, false)

	mixFor(e, 300*time.Millisecond)
	if e.Paused(h) {
		t.Error("cancelled pause fired")
	}
}

func TestScheduleStop(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	src := constant(0.5, 1<<20)
	h := e.Play(src, Protected())
	e.ScheduleStop(h, 250*time.Millisecond)

	mixFor(e, 200*time.Millisecond)
	if !e.IsValid(h) {
		t.Fatal("stopped early")
	}

	mixFor(e, 300*time.Millisecond)
	if e.IsValid(h) {
		t.Error("scheduled stop did not fire on a protected voice")
	}
	if src.Closed() != 1 {
		t.Error("source not closed by scheduled stop")
	}
}

func TestFade_GroupHandle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(4))
	a := e.Play(constant(0.5, 1<<20))
	b := e.Play(constant(0.5, 1<<20))

	g, err := e.CreateGroup()
	if err != nil {
		t.Fatal(err)
	}
	if err := e.AssignGroup(g, a, b); err != nil {
		t.Fatal(err)
	}

	e.FadeVolume(g, 0.5, time.Second)
	mixFor(e, time.Second)

	if e.Volume(a) != 0.5 || e.Volume(b) != 0.5 {
		t.Errorf("Volume(a), Volume(b) = %v, %v, want 0.5", e.Volume(a), e.Volume(b))
	}
}

func TestFade_PausedVoiceHoldsStill(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 1<<20))
	e.FadeVolume(h, 0.5, time.Second)
	e.SetPause(h, true)

	mixFor(e, 2*time.Second)
	if got := e.Volume(h); got != 1 {
		t.Errorf("Volume() = %v, want 1 while paused", got)
	}
}
