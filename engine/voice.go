// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/fader"
)

type voiceFlag uint16

const (
	flagLooping voiceFlag = 1 << iota
	flagPaused
	flagProtected
	flagInaudibleTick
	flagInaudibleKill
	flag3D
	// flagInaudible is derived: overall volume under the threshold.
	flagInaudible
	// flagEnded is set once the source is exhausted or failed.
	flagEnded
)

// voice is one playing instance of a source.
type voice struct {
	handle    Handle
	playIndex uint64

	src   audio.Source // as handed to Play
	loop  *loopReader
	res   *audio.Resampler
	chain audio.Source // what the mixer reads
	chans int          // channels of chain

	flags voiceFlag

	baseRate    float64 // native or user-set sample rate
	relSpeed    float32
	doppler     float32
	volume      float32
	pan         float32
	chanVol     [2]float32 // per output channel gain from panning
	curGain     [2]float32 // gain applied at the end of the last block
	attenuation float32
	overall     float32 // volume * attenuation
	delay       int     // output frames of silence left before playback

	frames int64 // stream time in output frames
	mixing bool  // selected for real mixing this cycle

	volumeFader fader.Fader
	panFader    fader.Fader
	speedFader  fader.Fader
	pauseAt     fader.Fader
	stopAt      fader.Fader

	spatial spatial
}

func newVoice(src audio.Source, outRate, outChannels int) *voice {
	v := &voice{
		src:         src,
		baseRate:    float64(src.SampleRate()),
		relSpeed:    1,
		doppler:     1,
		volume:      1,
		attenuation: 1,
		spatial:     defaultSpatial(),
	}

	v.loop = &loopReader{src: src, v: v}

	var head audio.Source = v.loop
	if src.Channels() > outChannels {
		head = audio.NewMonoMixer(head)
	}

	v.res = audio.NewResampler(head, outRate)
	v.chain = v.res
	v.chans = v.chain.Channels()

	v.setPan(0)

	return v
}

func (v *voice) has(f voiceFlag) bool { return v.flags&f != 0 }

func (v *voice) set(f voiceFlag, on bool) {
	if on {
		v.flags |= f
	} else {
		v.flags &^= f
	}
}

// setPan applies the constant power pan law.
func (v *voice) setPan(pan float32) {
	pan = min(max(pan, -1), 1)
	v.pan = pan

	angle := float64(pan+1) * math.Pi / 4
	v.chanVol[0] = float32(math.Cos(angle))
	v.chanVol[1] = float32(math.Sin(angle))
}

// targetGain is the gain output channel ch should reach by the end of the
// block.
func (v *voice) targetGain(ch, outChannels int) float32 {
	if outChannels == 1 {
		return v.overall
	}

	return v.overall * v.chanVol[ch]
}

// clock converts stream frames into time at the output rate.
func (v *voice) clock(outRate int) time.Duration {
	return time.Duration(float64(v.frames) / float64(outRate) * float64(time.Second))
}

// maxRateRatio caps how many source frames a voice consumes per output
// frame once speed, sample rate and doppler are multiplied together.
const maxRateRatio = 64

// rate is the effective source rate for an output running at outRate.
func (v *voice) rate(outRate int) float64 {
	r := v.baseRate * float64(v.relSpeed) * float64(v.doppler)
	if !(r > 0) {
		return v.baseRate
	}

	return min(r, maxRateRatio*float64(outRate))
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func finite32(x float32) bool { return finite(float64(x)) }

func (v *voice) close() error {
	if err := v.chain.Close(); err != nil {
		return fmt.Errorf("closing voice %s: %w", v.handle, err)
	}

	return nil
}

// loopReader sits directly on the played source and rewinds it at the end
// of stream while the voice loops.
type loopReader struct {
	src audio.Source
	v   *voice

	loops       int
	sinceRewind int
	rewound     bool
}

func (l *loopReader) SampleRate() int { return l.src.SampleRate() }
func (l *loopReader) Channels() int   { return l.src.Channels() }
func (l *loopReader) BufSize() int    { return l.src.BufSize() }
func (l *loopReader) Close() error    { return l.src.Close() }

func (l *loopReader) ReadSamples(dst []float32) (int, error) {
	total := 0
	for total < len(dst) {
		n, err := l.src.ReadSamples(dst[total:])
		total += n
		l.sinceRewind += n

		switch {
		case err == io.EOF:
			if !l.v.has(flagLooping) {
				return total, io.EOF
			}

			rw, ok := l.src.(audio.Rewinder)
			if !ok {
				return total, io.EOF
			}

			// A loop that produced nothing would spin forever
			if l.rewound && l.sinceRewind == 0 {
				return total, io.EOF
			}

			if err := rw.Rewind(); err != nil {
				return total, fmt.Errorf("rewinding source: %w", err)
			}

			l.loops++
			l.sinceRewind = 0
			l.rewound = true

		case err != nil:
			return total, err

		case n == 0:
			return total, nil
		}
	}

	return total, nil
}
