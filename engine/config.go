// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ik5/audmix/utils"
)

// Clipper selects how the summed bus is bounded before output.
type Clipper string

const (
	// ClipRoundoff is a soft cubic limiter.
	ClipRoundoff Clipper = "roundoff"
	// ClipHard clamps to [-1, 1].
	ClipHard Clipper = "hard"
)

func (c Clipper) apply() (func([]float32, float32), bool) {
	switch c {
	case ClipRoundoff:
		return utils.ClipRoundoff, true
	case ClipHard:
		return utils.ClipHard, true
	default:
		return nil, false
	}
}

// Config holds the engine's construction parameters.
type Config struct {
	SampleRate         int     `yaml:"sample_rate"`
	Channels           int     `yaml:"channels"`
	Voices             int     `yaml:"voices"`
	MaxActiveVoices    int     `yaml:"max_active_voices"`
	GlobalVolume       float32 `yaml:"global_volume"`
	PostClipScaler     float32 `yaml:"post_clip_scaler"`
	Clipper            Clipper `yaml:"clipper"`
	InaudibleThreshold float32 `yaml:"inaudible_threshold"`
	SoundSpeed         float32 `yaml:"sound_speed"`
}

// DefaultConfig returns 44.1kHz stereo with 1024 voice slots of which 16
// are mixed at a time.
func DefaultConfig() Config {
	return Config{
		SampleRate:         44100,
		Channels:           2,
		Voices:             1024,
		MaxActiveVoices:    16,
		GlobalVolume:       1,
		PostClipScaler:     0.95,
		Clipper:            ClipRoundoff,
		InaudibleThreshold: 0.01,
		SoundSpeed:         343.3,
	}
}

// Validate reports the first out-of-range field wrapped in
// ErrInvalidParameter.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate %d", ErrInvalidParameter, c.SampleRate)
	case c.Channels != 1 && c.Channels != 2:
		return fmt.Errorf("%w: channels %d, want 1 or 2", ErrInvalidParameter, c.Channels)
	case c.Voices < 1 || c.Voices > MaxVoices:
		return fmt.Errorf("%w: voices %d not in [1, %d]", ErrInvalidParameter, c.Voices, MaxVoices)
	case c.MaxActiveVoices < 1 || c.MaxActiveVoices > c.Voices:
		return fmt.Errorf("%w: max_active_voices %d not in [1, %d]", ErrInvalidParameter, c.MaxActiveVoices, c.Voices)
	case !(c.GlobalVolume >= 0) || !finite32(c.GlobalVolume):
		return fmt.Errorf("%w: global_volume %v", ErrInvalidParameter, c.GlobalVolume)
	case !(c.PostClipScaler > 0) || !finite32(c.PostClipScaler):
		return fmt.Errorf("%w: post_clip_scaler %v", ErrInvalidParameter, c.PostClipScaler)
	case !(c.InaudibleThreshold >= 0) || !finite32(c.InaudibleThreshold):
		return fmt.Errorf("%w: inaudible_threshold %v", ErrInvalidParameter, c.InaudibleThreshold)
	case !(c.SoundSpeed > 0) || !finite32(c.SoundSpeed):
		return fmt.Errorf("%w: sound_speed %v", ErrInvalidParameter, c.SoundSpeed)
	}

	if _, ok := c.Clipper.apply(); !ok {
		return fmt.Errorf("%w: clipper %q", ErrInvalidParameter, c.Clipper)
	}

	return nil
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing engine config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
