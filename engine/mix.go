// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"io"
	"slices"
	"time"

	"github.com/viterin/vek/vek32"

	"github.com/ik5/audmix/utils"
)

// mixBlock is the largest number of frames mixed in one pass. Longer
// requests are split, so faders update at least this often.
const mixBlock = 512

type mixScratch struct {
	lanes [2][]float32 // planar bus, one lane per output channel
	voice []float32    // interleaved block read from a voice
	mono  []float32    // one channel of voice
	gain  []float32
	tmp   []float32
	pcm   []float32 // staging for MixSigned16
}

func newMixScratch(channels int) mixScratch {
	s := mixScratch{
		voice: make([]float32, mixBlock*2),
		mono:  make([]float32, mixBlock),
		gain:  make([]float32, mixBlock),
		tmp:   make([]float32, mixBlock),
		pcm:   make([]float32, mixBlock*channels),
	}
	for l := range channels {
		s.lanes[l] = make([]float32, mixBlock)
	}

	return s
}

// Mix renders len(dst)/Channels() interleaved frames into dst. It never
// fails: a voice whose source errors is retired and the rest play on. A
// trailing partial frame is zeroed.
func (e *Engine) Mix(dst []float32) {
	e.gate.Lock()
	defer e.gate.Unlock()

	started := time.Now()
	e.mixInto(dst)
	e.stats.MixCycles++
	e.stats.LastMix = time.Since(started)
}

// MixSigned16 is Mix for 16-bit PCM output.
func (e *Engine) MixSigned16(dst []int16) {
	e.gate.Lock()
	defer e.gate.Unlock()

	started := time.Now()
	step := len(e.mix.pcm)
	for off := 0; off < len(dst); off += step {
		n := min(step, len(dst)-off)
		buf := e.mix.pcm[:n]
		e.mixInto(buf)
		utils.Floats32ToInt16(dst[off:off+n], buf)
	}
	e.stats.MixCycles++
	e.stats.LastMix = time.Since(started)
}

func (e *Engine) mixInto(dst []float32) {
	ch := e.channels
	whole := len(dst) - len(dst)%ch
	clear(dst[whole:])

	if e.closed {
		clear(dst)
		return
	}

	for off := 0; off < whole; {
		frames := min((whole-off)/ch, mixBlock)
		e.mixBlock(dst[off:off+frames*ch], frames)
		off += frames * ch
	}
}

// mixBlock runs one cycle: faders, voice selection, per-voice rendering,
// retirement, then the bus stage.
func (e *Engine) mixBlock(out []float32, frames int) {
	var lanes [2][]float32
	for l := range e.channels {
		lanes[l] = vek32.Zeros_Into(e.mix.lanes[l], frames)
	}

	for i := range e.highest {
		v := e.voices[i]
		if v == nil || v.has(flagPaused) {
			continue
		}

		if !e.advanceFaders(v) {
			e.stats.Completed++
			e.free(i)
			continue
		}

		if v.has(flagInaudible) && v.has(flagInaudibleKill) && !v.has(flagProtected) {
			e.logger.Debug().Str("handle", v.handle.String()).Msg("stopping inaudible voice")
			e.stats.InaudibleKills++
			e.free(i)
		}
	}

	e.syncGlobal()
	e.stats.ActiveVoices = len(e.selectActive())

	for i := range e.highest {
		v := e.voices[i]
		if v == nil || v.has(flagPaused) {
			continue
		}

		if v.mixing {
			e.mixVoice(v, lanes, frames)
		} else {
			// Virtual: time passes but the source is left alone
			v.delay = max(v.delay-frames, 0)
		}
		v.frames += int64(frames)
	}

	for i := range e.highest {
		v := e.voices[i]
		if v != nil && v.has(flagEnded) && !v.has(flagProtected) {
			e.stats.Completed++
			e.free(i)
		}
	}
	for e.highest > 0 && e.voices[e.highest-1] == nil {
		e.highest--
	}

	e.bus(out, lanes, frames)

	e.frames += int64(frames)
	e.stats.FramesMixed += uint64(frames)
}

// mixVoice reads the next block of v and adds it into the bus lanes,
// ramping each channel's gain from its last value to the current target.
func (e *Engine) mixVoice(v *voice, lanes [2][]float32, frames int) {
	start := 0
	if v.delay > 0 {
		start = min(v.delay, frames)
		v.delay -= start
	}

	got := 0
	if start < frames && !v.has(flagEnded) {
		got = e.readVoice(v, frames-start)
	}

	for l := range e.channels {
		target := v.targetGain(l, e.channels)
		from := v.curGain[l]
		v.curGain[l] = target

		if got == 0 {
			continue
		}

		samples := e.mix.voice[:got]
		if v.chans > 1 {
			samples = e.mix.mono[:got]
			for f := range got {
				samples[f] = e.mix.voice[f*v.chans+l]
			}
		}

		tmp := e.mix.tmp[:got]
		if from == target {
			vek32.MulNumber_Into(tmp, samples, target)
		} else {
			gain := e.mix.gain[:frames]
			utils.Ramp(gain, from, target)
			vek32.Mul_Into(tmp, samples, gain[start:start+got])
		}
		vek32.Add_Inplace(lanes[l][start:start+got], tmp)
	}
}

// readVoice fills the voice scratch with up to frames frames and returns
// how many arrived. End of stream and source errors both end the voice; a
// protected voice then keeps its slot like any other ended protected voice.
func (e *Engine) readVoice(v *voice, frames int) int {
	if err := v.res.SetSourceRate(v.rate(e.sampleRate)); err != nil {
		v.set(flagEnded, true)
		return 0
	}

	n, err := v.chain.ReadSamples(e.mix.voice[:frames*v.chans])

	switch {
	case err == io.EOF:
		v.set(flagEnded, true)
	case err != nil:
		e.stats.SourceFailures++
		e.logger.Warn().Err(err).Str("handle", v.handle.String()).Msg("source failed, retiring voice")
		v.set(flagEnded, true)
	}

	return n / v.chans
}

// bus applies global volume, clipping and the post clip scaler, meters the
// result and interleaves it into out.
func (e *Engine) bus(out []float32, lanes [2][]float32, frames int) {
	from, to := e.globalGain, e.globalVolume
	e.globalGain = to

	for l := range e.channels {
		lane := lanes[l]
		if from == to {
			vek32.MulNumber_Inplace(lane, to)
		} else {
			gain := e.mix.gain[:frames]
			utils.Ramp(gain, from, to)
			vek32.Mul_Inplace(lane, gain)
		}

		e.clip(lane, e.postClipScaler)

		meter := e.mix.tmp[:frames]
		copy(meter, lane)
		vek32.Abs_Inplace(meter)
		e.peak[l] = vek32.Max(meter)
	}

	if e.channels == 1 {
		copy(out, lanes[0])
		return
	}

	left, right := lanes[0], lanes[1]
	for f := range frames {
		out[f*2] = left[f]
		out[f*2+1] = right[f]
	}
}

// fadingOut reports whether v was audible at the end of the last block,
// so dropping it now would cut off its gain ramp.
func (e *Engine) fadingOut(v *voice) bool {
	return v.curGain[0] >= e.threshold || v.curGain[1] >= e.threshold
}

// selectActive marks the voices this cycle mixes: those audible or
// flagged to tick while inaudible, capped at maxActive by audibility.
// Ticking voices are kept ahead of the rest.
func (e *Engine) selectActive() []int {
	act := e.active[:0]
	must := 0

	for i := range e.highest {
		v := e.voices[i]
		if v == nil {
			continue
		}
		v.mixing = false

		if v.has(flagPaused) || v.has(flagEnded) {
			continue
		}
		tick := v.has(flagInaudibleTick)
		if !tick && v.has(flagInaudible) && !e.fadingOut(v) {
			continue
		}

		act = append(act, i)
		if tick {
			last := len(act) - 1
			act[must], act[last] = act[last], act[must]
			must++
		}
	}

	if len(act) > e.maxActive {
		if must < e.maxActive {
			slices.SortFunc(act[must:], func(a, b int) int {
				va, vb := e.voices[a], e.voices[b]
				sa, sb := e.audibility(e.info(va)), e.audibility(e.info(vb))
				switch {
				case sa > sb:
					return -1
				case sa < sb:
					return 1
				case va.playIndex < vb.playIndex:
					return -1
				case va.playIndex > vb.playIndex:
					return 1
				default:
					return 0
				}
			})
		}
		act = act[:e.maxActive]
	}

	for _, i := range act {
		e.voices[i].mixing = true
	}
	e.active = act

	return act
}
