// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ik5/audmix/internal/audiotest"
)

// countingLocker records how often the engine takes its lock.
type countingLocker struct {
	sync.Mutex
	locks atomic.Int64
}

func (l *countingLocker) Lock() {
	l.locks.Add(1)
	l.Mutex.Lock()
}

func TestWithLocker(t *testing.T) {
	t.Parallel()

	var l countingLocker
	e := newTestEngine(t, testConfig(2), WithLocker(&l))

	h := e.Play(constant(0.5, 1<<20))
	e.SetVolume(h, 0.5)
	mixFrames(e, 64)

	if got := l.locks.Load(); got < 3 {
		t.Errorf("custom locker taken %d times, want at least 3", got)
	}
}

// TestConcurrentCommandsAndMix drives the engine from a command goroutine
// and a mixing goroutine at once. It is meant to be run with -race.
func TestConcurrentCommandsAndMix(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Voices = 16
	cfg.MaxActiveVoices = 4
	e := newTestEngine(t, cfg)

	g, err := e.CreateGroup()
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()

		buf := make([]float32, 1024)
		for {
			select {
			case <-stop:
				return
			default:
				e.Mix(buf)
			}
		}
	}()

	for i := range 500 {
		h := e.Play(audiotest.NewSineSource(22050, 1+i%2, 4000, 220), Volume(float32(i%10)/10))
		_ = e.AddToGroup(g, h)

		switch i % 5 {
		case 0:
			e.FadeVolume(h, 0, 10*time.Millisecond)
		case 1:
			e.SetPan(g, float32(i%3-1))
		case 2:
			e.SetLooping(h, true)
			e.ScheduleStop(h, 20*time.Millisecond)
		case 3:
			e.Stop(h)
		case 4:
			e.SetPause(AllVoices, i%2 == 0)
		}

		_ = e.Volume(h)
		_ = e.ActiveVoiceCount()
	}

	close(stop)
	wg.Wait()

	if e.VoiceCount() > cfg.Voices {
		t.Errorf("VoiceCount() = %d exceeds capacity", e.VoiceCount())
	}
}
