// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/engine"
)

var errBadScene = errors.New("invalid scene")

// scene is the YAML document the CLI plays.
type scene struct {
	Engine   engine.Config `yaml:"engine"`
	Listener []float64     `yaml:"listener"`
	Voices   []voiceSpec   `yaml:"voices"`
}

type voiceSpec struct {
	File        string    `yaml:"file"`
	Volume      *float32  `yaml:"volume"`
	Pan         float32   `yaml:"pan"`
	Speed       float32   `yaml:"speed"`
	Loop        bool      `yaml:"loop"`
	Protect     bool      `yaml:"protect"`
	DelayMs     int       `yaml:"delay_ms"`
	FadeInMs    int       `yaml:"fade_in_ms"`
	StopAfterMs int       `yaml:"stop_after_ms"`
	Group       string    `yaml:"group"`
	Position    []float64 `yaml:"position"`
	Velocity    []float64 `yaml:"velocity"`
	Attenuation string    `yaml:"attenuation"`
	Rolloff     float64   `yaml:"rolloff"`
}

func parseScene(data []byte) (scene, error) {
	sc := scene{Engine: engine.DefaultConfig()}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return scene{}, fmt.Errorf("decoding scene: %w", err)
	}

	if err := sc.Engine.Validate(); err != nil {
		return scene{}, err
	}

	if _, err := vec(sc.Listener); err != nil {
		return scene{}, fmt.Errorf("listener: %w", err)
	}

	for i, v := range sc.Voices {
		if v.File == "" {
			return scene{}, fmt.Errorf("%w: voice %d has no file", errBadScene, i)
		}
		if _, err := vec(v.Position); err != nil {
			return scene{}, fmt.Errorf("voice %d position: %w", i, err)
		}
		if _, err := vec(v.Velocity); err != nil {
			return scene{}, fmt.Errorf("voice %d velocity: %w", i, err)
		}
		if v.Attenuation != "" {
			if _, err := engine.ParseAttenuation(v.Attenuation); err != nil {
				return scene{}, fmt.Errorf("voice %d: %w", i, err)
			}
		}
		if v.DelayMs < 0 || v.FadeInMs < 0 || v.StopAfterMs < 0 {
			return scene{}, fmt.Errorf("%w: voice %d has a negative time", errBadScene, i)
		}
		if !(v.Rolloff >= 0) || math.IsInf(v.Rolloff, 1) {
			return scene{}, fmt.Errorf("%w: voice %d rolloff %v", errBadScene, i, v.Rolloff)
		}
		if !(v.Speed >= 0) || math.IsInf(float64(v.Speed), 1) {
			return scene{}, fmt.Errorf("%w: voice %d speed %v", errBadScene, i, v.Speed)
		}
		if v.Volume != nil && (!(*v.Volume >= 0) || math.IsInf(float64(*v.Volume), 1)) {
			return scene{}, fmt.Errorf("%w: voice %d volume %v", errBadScene, i, *v.Volume)
		}
		if math.IsNaN(float64(v.Pan)) {
			return scene{}, fmt.Errorf("%w: voice %d pan is NaN", errBadScene, i)
		}
	}

	return sc, nil
}

// vec reads an optional [x, y, z] triple.
func vec(v []float64) (r3.Vec, error) {
	switch len(v) {
	case 0:
		return r3.Vec{}, nil
	case 3:
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return r3.Vec{}, fmt.Errorf("%w: coordinate %v", errBadScene, c)
			}
		}
		return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
	default:
		return r3.Vec{}, fmt.Errorf("%w: want 3 coordinates, got %d", errBadScene, len(v))
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// load is how start reads voice files; tests replace it.
type loader func(path string) (*audio.Sample, error)

// start plays every voice of sc on e. Files are decoded once and shared
// between voices. Paths are relative to dir.
func (sc scene) start(e *engine.Engine, dir string, load loader, logger zerolog.Logger) ([]engine.Handle, error) {
	if load == nil {
		load = audmix.LoadFile
	}

	if len(sc.Listener) > 0 {
		pos, _ := vec(sc.Listener)
		e.Set3DListenerPosition(pos)
	}

	samples := make(map[string]*audio.Sample)
	groups := make(map[string]engine.Handle)
	handles := make([]engine.Handle, 0, len(sc.Voices))

	for i, v := range sc.Voices {
		path := v.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}

		sample, ok := samples[path]
		if !ok {
			var err error
			if sample, err = load(path); err != nil {
				return handles, err
			}
			samples[path] = sample
		}

		h, err := sc.play(e, v, sample)
		if err != nil {
			return handles, fmt.Errorf("voice %d: %w", i, err)
		}
		if h == engine.NullHandle {
			logger.Warn().Int("voice", i).Str("file", v.File).Msg("no free voice")
			continue
		}
		handles = append(handles, h)

		if v.Group != "" {
			g, ok := groups[v.Group]
			if !ok {
				var err error
				if g, err = e.CreateGroup(); err != nil {
					return handles, fmt.Errorf("group %q: %w", v.Group, err)
				}
				groups[v.Group] = g
			}
			if err := e.AddToGroup(g, h); err != nil {
				return handles, fmt.Errorf("group %q: %w", v.Group, err)
			}
		}

		logger.Debug().
			Str("file", v.File).
			Str("handle", h.String()).
			Dur("length", sample.Duration()).
			Msg("voice started")
	}
	e.Update3D()

	return handles, nil
}

// play starts one voice. A voice whose parameters the engine rejects is
// stopped again.
func (sc scene) play(e *engine.Engine, v voiceSpec, sample *audio.Sample) (engine.Handle, error) {
	volume := float32(1)
	if v.Volume != nil {
		volume = *v.Volume
	}

	opts := []engine.PlayOption{engine.Pan(v.Pan), engine.Delay(ms(v.DelayMs))}
	if v.FadeInMs > 0 {
		opts = append(opts, engine.Volume(0))
	} else {
		opts = append(opts, engine.Volume(volume))
	}
	if v.Loop {
		opts = append(opts, engine.Looping())
	}
	if v.Protect {
		opts = append(opts, engine.Protected())
	}

	var h engine.Handle
	if len(v.Position) > 0 {
		pos, _ := vec(v.Position)
		vel, _ := vec(v.Velocity)
		h = e.Play3D(sample.Reader(), pos, vel, opts...)
	} else {
		h = e.Play(sample.Reader(), opts...)
	}
	if h == engine.NullHandle {
		return h, nil
	}

	if v.Attenuation != "" {
		model, _ := engine.ParseAttenuation(v.Attenuation)
		rolloff := v.Rolloff
		if rolloff == 0 {
			rolloff = 1
		}
		if err := e.Set3DSourceAttenuation(h, model, rolloff); err != nil {
			e.Stop(h)
			return engine.NullHandle, err
		}
	}
	if v.Speed > 0 {
		if err := e.SetRelativePlaySpeed(h, v.Speed); err != nil {
			e.Stop(h)
			return engine.NullHandle, err
		}
	}
	if v.FadeInMs > 0 {
		e.FadeVolume(h, volume, ms(v.FadeInMs))
	}
	if v.StopAfterMs > 0 {
		e.ScheduleStop(h, ms(v.StopAfterMs))
	}

	return h, nil
}
