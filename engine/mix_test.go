// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
)

func stereoConfig(voices int) Config {
	cfg := testConfig(voices)
	cfg.Channels = 2

	return cfg
}

func TestMix_MonoConstant(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	e.Play(constant(0.5, 1<<20))

	out := mixFrames(e, 1000)
	for i, s := range out {
		if s != 0.5 {
			t.Fatalf("out[%d] = %v, want 0.5", i, s)
		}
	}
}

func TestMix_SumsVoices(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(4))
	e.Play(constant(0.25, 1<<20))
	e.Play(constant(0.25, 1<<20))
	e.Play(constant(0.5, 1<<20), Volume(0.5))

	out := mixFrames(e, 100)
	if out[10] != 0.75 {
		t.Errorf("out[10] = %v, want 0.75", out[10])
	}
}

func TestMix_Clipping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		clipper Clipper
		scaler  float32
		want    float32
		tol     float32
	}{
		{"hard", ClipHard, 1, 1, 0},
		{"hard scaled", ClipHard, 0.5, 0.5, 0},
		{"roundoff saturates", ClipRoundoff, 1, 0.9862875, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(4)
			cfg.Clipper = tt.clipper
			cfg.PostClipScaler = tt.scaler
			e := newTestEngine(t, cfg)

			for range 4 {
				e.Play(constant(0.5, 1<<20))
			}

			out := mixFrames(e, 64)
			if !near(out[10], tt.want, tt.tol) {
				t.Errorf("out[10] = %v, want %v", out[10], tt.want)
			}
		})
	}
}

func TestMix_StereoPan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pan         float32
		left, right float32
	}{
		{"left", -1, 0.5, 0},
		{"center", 0, 0.5 * 0.70710677, 0.5 * 0.70710677},
		{"right", 1, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEngine(t, stereoConfig(2))
			e.Play(constant(0.5, 1<<20), Pan(tt.pan))

			out := mixFrames(e, 64)
			if !near(out[20], tt.left, 1e-6) || !near(out[21], tt.right, 1e-6) {
				t.Errorf("frame 10 = (%v, %v), want (%v, %v)", out[20], out[21], tt.left, tt.right)
			}
		})
	}
}

func TestMix_SetPanAbsolute(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, stereoConfig(2))
	h := e.Play(constant(0.5, 1<<20))
	e.SetPanAbsolute(h, 1, 0.5)

	mixFrames(e, 512) // gain ramp
	out := mixFrames(e, 64)

	if out[0] != 0.5 || out[1] != 0.25 {
		t.Errorf("frame 0 = (%v, %v), want (0.5, 0.25)", out[0], out[1])
	}
}

func TestMix_StereoSource(t *testing.T) {
	t.Parallel()

	split := func(sample, channel int) float32 {
		if channel == 0 {
			return 0.5
		}
		return 0.3
	}

	t.Run("stereo out", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, stereoConfig(2))
		e.Play(audiotest.NewMockSource(testRate, 2, 1<<20, split))

		out := mixFrames(e, 64)
		if !near(out[0], 0.5*0.70710677, 1e-6) || !near(out[1], 0.3*0.70710677, 1e-6) {
			t.Errorf("frame 0 = (%v, %v)", out[0], out[1])
		}
	})

	t.Run("mono out downmixes", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, testConfig(2))
		e.Play(audiotest.NewMockSource(testRate, 2, 1<<20, split))

		out := mixFrames(e, 64)
		if !near(out[0], 0.4, 1e-6) {
			t.Errorf("out[0] = %v, want 0.4", out[0])
		}
	})
}

func TestMix_VolumeChangeRamps(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(1, 1<<20))
	mixFrames(e, 512)

	e.SetVolume(h, 0)
	out := mixFrames(e, 512)

	if out[0] != 1 {
		t.Errorf("out[0] = %v, want the ramp to start at the old gain", out[0])
	}
	if out[256] <= 0.4 || out[256] >= 0.6 {
		t.Errorf("out[256] = %v, want about half way", out[256])
	}
	for i := 1; i < len(out); i++ {
		if out[i] > out[i-1] {
			t.Fatalf("ramp not monotonic at %d: %v > %v", i, out[i], out[i-1])
		}
	}

	out = mixFrames(e, 64)
	if out[0] != 0 {
		t.Errorf("out[0] = %v after the ramp, want 0", out[0])
	}
}

func TestMix_GlobalVolume(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	e.Play(constant(0.5, 1<<20))
	e.SetGlobalVolume(0.5)

	mixFrames(e, 512)
	out := mixFrames(e, 64)

	if out[0] != 0.25 {
		t.Errorf("out[0] = %v, want 0.25", out[0])
	}
	if e.GlobalVolume() != 0.5 {
		t.Errorf("GlobalVolume() = %v, want 0.5", e.GlobalVolume())
	}
}

func TestMix_PauseStopsTime(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	src := constant(0.5, 1<<20)
	h := e.Play(src, Paused())

	out := mixFrames(e, 800)
	if out[0] != 0 || src.Reads() != 0 {
		t.Error("paused voice was mixed")
	}
	if e.StreamTime(h) != 0 {
		t.Errorf("StreamTime() = %v while paused, want 0", e.StreamTime(h))
	}

	e.SetPause(h, false)
	out = mixFrames(e, 800)
	if out[0] != 0.5 {
		t.Errorf("out[0] = %v after resume, want 0.5", out[0])
	}
	if got := e.StreamTime(h); got != 100*time.Millisecond {
		t.Errorf("StreamTime() = %v, want 100ms", got)
	}

	e.SetPauseAll(true)
	if !e.Paused(h) {
		t.Error("SetPauseAll(true) missed the voice")
	}
}

func TestMix_Delay(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	// 2ms at 8kHz is 16 frames
	e.Play(constant(0.5, 1<<20), Delay(2*time.Millisecond))

	out := mixFrames(e, 64)
	for i := range 16 {
		if out[i] != 0 {
			t.Fatalf("out[%d] = %v during the delay, want 0", i, out[i])
		}
	}
	if out[16] != 0.5 || out[63] != 0.5 {
		t.Errorf("out[16], out[63] = %v, %v, want 0.5", out[16], out[63])
	}
}

func TestMix_Looping(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 100), Looping())

	out := mixFrames(e, 350)

	if !e.IsValid(h) {
		t.Fatal("looping voice ended")
	}
	if e.LoopCount(h) == 0 {
		t.Error("LoopCount() = 0")
	}
	for i, s := range out {
		if s != 0.5 {
			t.Fatalf("out[%d] = %v, want 0.5 across loop points", i, s)
		}
	}

	// Turning looping off lets it run out
	e.SetLooping(h, false)
	mixFrames(e, 8192)
	if e.IsValid(h) {
		t.Error("voice still alive after looping was switched off")
	}
}

func TestMix_LoopingNeedsRewind(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(audiotest.NewStreamSource(testRate, 1, 100, 0.5), Looping())

	mixFrames(e, 512)
	if e.IsValid(h) {
		t.Error("voice over a non-rewindable source kept looping")
	}
}

func TestMix_EmptyLoopEnds(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 0), Looping())

	mixFrames(e, 64)
	if e.IsValid(h) {
		t.Error("looping an empty source did not end")
	}
}

func TestMix_RelativePlaySpeed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 400))
	if err := e.SetRelativePlaySpeed(h, 2); err != nil {
		t.Fatal(err)
	}

	mixFrames(e, 150)
	if !e.IsValid(h) {
		t.Fatal("voice ended too early")
	}
	mixFrames(e, 100)
	if e.IsValid(h) {
		t.Error("400 frames at double speed outlived 250 output frames")
	}
}

func TestMix_SampleAcrossVoices(t *testing.T) {
	t.Parallel()

	data := make([]float32, 200)
	for i := range data {
		data[i] = 0.25
	}
	s, err := audio.NewSample(data, testRate, 1)
	if err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, testConfig(4))
	e.Play(s.Reader())
	e.Play(s.Reader())

	out := mixFrames(e, 300)
	if out[100] != 0.5 || out[250] != 0 {
		t.Errorf("out[100], out[250] = %v, %v, want 0.5, 0", out[100], out[250])
	}
	if e.VoiceCount() != 0 {
		t.Errorf("VoiceCount() = %d, want 0", e.VoiceCount())
	}
}

func TestMix_MaxActiveVirtualises(t *testing.T) {
	t.Parallel()

	cfg := testConfig(4)
	cfg.MaxActiveVoices = 1
	e := newTestEngine(t, cfg)

	loudSrc := constant(0.25, 1<<20)
	quietSrc := constant(0.25, 1<<20)
	loud := e.Play(loudSrc, Volume(1))
	quiet := e.Play(quietSrc, Volume(0.5))

	if got := e.ActiveVoiceCount(); got != 1 {
		t.Errorf("ActiveVoiceCount() = %d, want 1", got)
	}

	out := mixFrames(e, 800)

	if out[0] != 0.25 {
		t.Errorf("out[0] = %v, want only the loud voice", out[0])
	}
	if quietSrc.Reads() != 0 {
		t.Error("virtual voice's source was read")
	}
	if loudSrc.Reads() == 0 {
		t.Error("active voice's source was not read")
	}
	if e.StreamTime(quiet) != 100*time.Millisecond || e.StreamTime(loud) != 100*time.Millisecond {
		t.Error("stream time did not advance for both voices")
	}
	if e.VoiceCount() != 2 {
		t.Errorf("VoiceCount() = %d, want 2", e.VoiceCount())
	}

	// Swap loudness: the other voice takes over
	e.SetVolume(loud, 0.1)
	mixFrames(e, 64)
	if quietSrc.Reads() == 0 {
		t.Error("louder voice was not promoted to active")
	}
}

func TestMix_InaudibleBehavior(t *testing.T) {
	t.Parallel()

	t.Run("kill", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, testConfig(2))
		h := e.Play(constant(0.5, 1<<20), Volume(0), InaudibleBehavior(false, true))

		mixFrames(e, 64)
		if e.IsValid(h) {
			t.Error("inaudible voice with kill is still alive")
		}
		if got := e.Stats().InaudibleKills; got != 1 {
			t.Errorf("Stats().InaudibleKills = %d, want 1", got)
		}
	})

	t.Run("kill spares protected", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, testConfig(2))
		h := e.Play(constant(0.5, 1<<20), Volume(0), InaudibleBehavior(false, true), Protected())

		mixFrames(e, 64)
		if !e.IsValid(h) {
			t.Error("protected voice was killed")
		}
	})

	t.Run("tick", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, testConfig(2))
		src := constant(0.5, 1<<20)
		h := e.Play(src, Volume(0.001), InaudibleBehavior(true, false))

		mixFrames(e, 64)
		if !e.Inaudible(h) {
			t.Error("Inaudible() = false under the threshold")
		}
		if src.Reads() == 0 {
			t.Error("ticking voice was not mixed")
		}
	})

	t.Run("default keeps without mixing", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, testConfig(2))
		src := constant(0.5, 1<<20)
		h := e.Play(src, Volume(0.001))

		mixFrames(e, 64)
		if !e.IsValid(h) || src.Reads() != 0 {
			t.Errorf("IsValid() = %v, reads = %d, want alive and unread", e.IsValid(h), src.Reads())
		}
	})
}

func TestMixSigned16(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, stereoConfig(2))
	e.Play(constant(0.5, 1<<20), Pan(-1))

	out := make([]int16, 3000)
	e.MixSigned16(out)

	if out[0] != 16383 || out[1] != 0 {
		t.Errorf("frame 0 = (%d, %d), want (16383, 0)", out[0], out[1])
	}
	if out[2998] != 16383 {
		t.Errorf("out[2998] = %d, want 16383 past the first block", out[2998])
	}
}

func TestMix_PartialFrameZeroed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, stereoConfig(2))
	e.Play(constant(0.5, 1<<20), Pan(-1))

	out := []float32{9, 9, 9}
	e.Mix(out)

	if out[0] != 0.5 || out[2] != 0 {
		t.Errorf("out = %v, want [0.5 0 0]", out)
	}
}

func TestApproximateVolume(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, stereoConfig(2))
	e.Play(audiotest.NewSineSource(testRate, 1, 1<<20, 100), Pan(-1))

	mixFrames(e, 512)

	if got := e.ApproximateVolume(0); got < 0.9 || got > 1 {
		t.Errorf("ApproximateVolume(0) = %v, want close to 1", got)
	}
	if got := e.ApproximateVolume(1); got != 0 {
		t.Errorf("ApproximateVolume(1) = %v, want 0", got)
	}
	if got := e.ApproximateVolume(5); got != 0 {
		t.Errorf("ApproximateVolume(5) = %v, want 0", got)
	}
}

func TestStats_Counters(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	e.Play(constant(0.5, 1<<20))
	mixFrames(e, 1000)

	s := e.Stats()
	if s.Played != 1 || s.Voices != 1 || s.ActiveVoices != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.FramesMixed != 1000 || s.MixCycles != 1 {
		t.Errorf("FramesMixed, MixCycles = %d, %d, want 1000, 1", s.FramesMixed, s.MixCycles)
	}
	if e.Time() != 125*time.Millisecond {
		t.Errorf("Time() = %v, want 125ms", e.Time())
	}
}

func TestStats_MixSigned16CountsOneCycle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, stereoConfig(2))
	e.Play(constant(0.5, 1<<20))

	// Spans several staging chunks
	e.MixSigned16(make([]int16, 3000))

	s := e.Stats()
	if s.FramesMixed != 1500 || s.MixCycles != 1 {
		t.Errorf("FramesMixed, MixCycles = %d, %d, want 1500, 1", s.FramesMixed, s.MixCycles)
	}
}

func TestMix_NonFiniteVolumeKeepsBusFinite(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())

	e := newTestEngine(t, testConfig(2))
	e.Play(constant(0.25, 1<<20))
	b := e.Play(constant(0.25, 1<<20))

	e.SetVolume(b, nan)
	e.FadeVolume(b, nan, 0)
	if err := e.SetSampleRate(b, math.NaN()); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("SetSampleRate(NaN) error = %v, want ErrInvalidParameter", err)
	}

	for i, s := range mixFrames(e, 256) {
		if s != 0.5 {
			t.Fatalf("out[%d] = %v, want 0.5 from both voices", i, s)
		}
	}
}

func TestMix_ExtremeRateStaysBounded(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(2))
	h := e.Play(constant(0.5, 100), Looping())

	// Finite but absurd: the mixer caps the source rate
	if err := e.SetRelativePlaySpeed(h, 1e20); err != nil {
		t.Fatal(err)
	}
	if err := e.SetSampleRate(h, 1e30); err != nil {
		t.Fatal(err)
	}

	done := make(chan []float32, 1)
	go func() { done <- mixFrames(e, 64) }()

	select {
	case out := <-done:
		for i, s := range out {
			if math.IsNaN(float64(s)) || s > 0.5+1e-6 {
				t.Fatalf("out[%d] = %v, want at most 0.5", i, s)
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Mix did not return at an extreme play rate")
	}

	if !e.IsValid(h) {
		t.Error("looping voice ended")
	}
}

func BenchmarkMix(b *testing.B) {
	cfg := DefaultConfig()
	e, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()

	for range 32 {
		e.Play(audiotest.NewSineSource(22050, 1, 1<<16, 440), Looping())
	}

	buf := make([]float32, 1024)
	b.ReportAllocs()
	for b.Loop() {
		e.Mix(buf)
	}
}
