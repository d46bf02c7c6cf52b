// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog"

	"github.com/ik5/audmix/engine"
)

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the player's logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Player) {
		p.logger = l.With().Str("component", "playback").Logger()
	}
}

// WithBufferSize asks the driver for a buffer of roughly d. Zero keeps the
// driver default.
func WithBufferSize(d time.Duration) Option {
	return func(p *Player) {
		p.bufferSize = d
	}
}

// Player feeds an engine to the system audio device through oto.
// oto allows a single context per process, so create one Player.
type Player struct {
	logger     zerolog.Logger
	bufferSize time.Duration

	ctx    *oto.Context
	player *oto.Player
}

// Open initialises the audio device at the engine's format and waits for
// it to become ready or for ctx to end. Playback starts paused.
func Open(ctx context.Context, e *engine.Engine, opts ...Option) (*Player, error) {
	p := &Player{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}

	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   e.SampleRate(),
		ChannelCount: e.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   p.bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for audio device: %w", ctx.Err())
	}

	p.ctx = octx
	p.player = octx.NewPlayer(NewStream(e))

	p.logger.Info().
		Int("sample_rate", e.SampleRate()).
		Int("channels", e.Channels()).
		Dur("buffer", p.bufferSize).
		Msg("audio device ready")

	return p, nil
}

// Start resumes pulling audio from the engine.
func (p *Player) Start() {
	p.player.Play()
}

// Pause stops pulling audio. Voices keep their positions.
func (p *Player) Pause() {
	p.player.Pause()
}

// Playing reports whether the device is consuming audio.
func (p *Player) Playing() bool {
	return p.player.IsPlaying()
}

// Close stops playback and releases the player. The oto context itself
// lives until the process exits.
func (p *Player) Close() error {
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("closing player: %w", err)
	}
	p.logger.Debug().Msg("audio device closed")

	return nil
}
