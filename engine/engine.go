// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/fader"
)

// Engine owns the voice table and mixes every live voice into a block of
// output on request. All methods are safe for concurrent use; they
// serialize on one lock, shared with the mixer.
type Engine struct {
	gate       sync.Locker
	logger     zerolog.Logger
	audibility AudibilityFunc

	sampleRate int
	channels   int
	threshold  float32
	clip       func([]float32, float32)

	voices    []*voice
	gens      []uint32
	highest   int // one past the highest occupied slot
	count     int
	maxActive int
	plays     uint64

	groups    []*group
	groupGens []uint32

	globalVolume   float32
	globalGain     float32 // global gain at the end of the last block
	globalFader    fader.Fader
	postClipScaler float32
	frames         int64

	listener   listener
	soundSpeed float64

	peak  [2]float32
	stats Stats

	mix    mixScratch
	expand []int
	active []int

	closed bool
}

// New validates cfg and builds an engine with all slots free.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clip, _ := cfg.Clipper.apply()

	e := &Engine{
		gate:           &sync.Mutex{},
		logger:         zerolog.Nop(),
		audibility:     DefaultAudibility,
		sampleRate:     cfg.SampleRate,
		channels:       cfg.Channels,
		threshold:      cfg.InaudibleThreshold,
		clip:           clip,
		voices:         make([]*voice, cfg.Voices),
		gens:           make([]uint32, cfg.Voices),
		maxActive:      cfg.MaxActiveVoices,
		globalVolume:   cfg.GlobalVolume,
		globalGain:     cfg.GlobalVolume,
		postClipScaler: cfg.PostClipScaler,
		listener:       defaultListener(),
		soundSpeed:     float64(cfg.SoundSpeed),
		mix:            newMixScratch(cfg.Channels),
		expand:         make([]int, 0, cfg.Voices),
		active:         make([]int, 0, cfg.Voices),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger.Info().
		Int("sample_rate", e.sampleRate).
		Int("channels", e.channels).
		Int("voices", cfg.Voices).
		Int("max_active", e.maxActive).
		Str("clipper", string(cfg.Clipper)).
		Msg("engine ready")

	return e, nil
}

// Close stops every voice and closes its source. Later calls are no-ops
// and Play returns NullHandle.
func (e *Engine) Close() error {
	e.gate.Lock()
	defer e.gate.Unlock()

	if e.closed {
		return nil
	}

	for i := range e.highest {
		if e.voices[i] != nil {
			e.free(i)
		}
	}
	e.highest = 0
	e.groups = nil
	e.closed = true

	e.logger.Debug().Msg("engine closed")

	return nil
}

// SampleRate is the output rate.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Channels is the output channel count.
func (e *Engine) Channels() int { return e.channels }

// Play starts src on a free voice slot and returns its handle. When every
// slot is taken the least audible unprotected voice is evicted; if all are
// protected Play returns NullHandle. The engine owns src once a valid
// handle is returned and closes it when the voice ends; on NullHandle the
// caller keeps it.
func (e *Engine) Play(src audio.Source, opts ...PlayOption) Handle {
	v, ok := e.prepare(src, opts)
	if !ok {
		return NullHandle
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	return e.start(v)
}

// Play3D is Play for a voice positioned in space. Its pan, attenuation and
// doppler shift follow the listener; see Update3D.
func (e *Engine) Play3D(src audio.Source, position, velocity r3.Vec, opts ...PlayOption) Handle {
	v, ok := e.prepare(src, opts)
	if !ok {
		return NullHandle
	}

	v.set(flag3D, true)
	if finiteVec(position) {
		v.spatial.position = position
	}
	if finiteVec(velocity) {
		v.spatial.velocity = velocity
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.place(v)

	return e.start(v)
}

func (e *Engine) prepare(src audio.Source, opts []PlayOption) (*voice, bool) {
	if src == nil || src.SampleRate() <= 0 || src.Channels() <= 0 {
		e.logger.Warn().Msg("refusing to play an invalid source")
		return nil, false
	}

	o := playOptions{volume: 1}
	for _, opt := range opts {
		opt(&o)
	}

	v := newVoice(src, e.sampleRate, e.channels)
	if finite32(o.volume) {
		v.volume = o.volume
	}
	if finite32(o.pan) {
		v.setPan(o.pan)
	}
	v.set(flagPaused, o.paused)
	v.set(flagLooping, o.looping)
	v.set(flagProtected, o.protected)
	v.set(flagInaudibleTick, o.tick)
	v.set(flagInaudibleKill, o.kill)
	v.delay = e.framesFor(o.delay)

	return v, true
}

// start installs a prepared voice. Called with the gate held.
func (e *Engine) start(v *voice) Handle {
	if e.closed {
		return NullHandle
	}

	i := e.allocate()
	if i < 0 {
		e.stats.Rejected++
		e.logger.Debug().Msg("no voice slot available, all protected")
		return NullHandle
	}

	e.gens[i] = (e.gens[i] + 1) & genMask
	v.handle = makeHandle(i, e.gens[i])
	v.playIndex = e.plays
	e.plays++

	e.voices[i] = v
	e.count++
	e.highest = max(e.highest, i+1)
	e.stats.Played++

	e.updateOverall(v)
	for ch := range e.channels {
		v.curGain[ch] = v.targetGain(ch, e.channels)
	}

	return v.handle
}

// allocate finds a free slot, evicting when the table is full. Returns -1
// when every voice is protected.
func (e *Engine) allocate() int {
	for i, v := range e.voices {
		if v == nil {
			return i
		}
	}

	victim := -1
	var score float32
	for i, v := range e.voices {
		if v.has(flagProtected) {
			continue
		}

		s := e.audibility(e.info(v))
		// Older voices lose ties
		if victim < 0 || s < score || (s == score && v.playIndex < e.voices[victim].playIndex) {
			victim, score = i, s
		}
	}

	if victim < 0 {
		return -1
	}

	e.logger.Debug().
		Str("handle", e.voices[victim].handle.String()).
		Float32("audibility", score).
		Msg("evicting voice")
	e.stats.Evictions++
	e.free(victim)

	return victim
}

// free stops the voice in slot i. Its handles stop resolving with the
// empty slot and stay stale once start reuses it under a new generation.
func (e *Engine) free(i int) {
	v := e.voices[i]
	e.voices[i] = nil
	e.count--

	if err := v.close(); err != nil {
		e.logger.Debug().Err(err).Msg("closing voice source")
	}
}

// resolve maps a voice handle to its slot, -1 when stale or null.
func (e *Engine) resolve(h Handle) int {
	if h == NullHandle || h.IsGroup() {
		return -1
	}

	i := h.index()
	if i < 0 || i >= len(e.voices) || e.voices[i] == nil || e.gens[i] != h.generation() {
		return -1
	}

	return i
}

// expandHandle lists the live slots h addresses: every voice for
// AllVoices, the live members of a group, or the single voice. The result
// is reused by the next call.
func (e *Engine) expandHandle(h Handle) []int {
	out := e.expand[:0]

	switch {
	case h == AllVoices:
		for i := range e.highest {
			if e.voices[i] != nil {
				out = append(out, i)
			}
		}

	case h.IsGroup():
		g := e.group(h)
		if g == nil {
			break
		}
		for _, m := range g.members {
			if i := e.resolve(m); i >= 0 {
				out = append(out, i)
			}
		}

	default:
		if i := e.resolve(h); i >= 0 {
			out = append(out, i)
		}
	}

	e.expand = out

	return out
}

func (e *Engine) info(v *voice) VoiceInfo {
	return VoiceInfo{
		Handle:      v.handle,
		Volume:      v.volume,
		Attenuation: v.attenuation,
		Protected:   v.has(flagProtected),
		StreamTime:  v.clock(e.sampleRate),
	}
}

// updateOverall refreshes the cached overall volume and inaudible flag.
func (e *Engine) updateOverall(v *voice) {
	v.overall = v.volume * v.attenuation
	v.set(flagInaudible, v.overall < e.threshold)
}

// Stop ends a voice, every member of a group, or every voice for
// AllVoices. Stale handles are ignored.
func (e *Engine) Stop(h Handle) {
	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		e.free(i)
	}
}

// StopAll stops every voice.
func (e *Engine) StopAll() {
	e.Stop(AllVoices)
}

// framesFor converts a duration to whole output frames, never negative.
func (e *Engine) framesFor(d time.Duration) int {
	return max(int(math.Round(d.Seconds()*float64(e.sampleRate))), 0)
}

// now is the engine clock, used by the global volume fader.
func (e *Engine) now() time.Duration {
	return time.Duration(float64(e.frames) / float64(e.sampleRate) * float64(time.Second))
}
