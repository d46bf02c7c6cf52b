// SPDX-License-Identifier: EPL-2.0

package audmix_test

import (
	"fmt"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/engine"
)

// Example mixes two voices of one in-memory sample into 16-bit PCM.
func Example() {
	cfg := engine.DefaultConfig()
	cfg.SampleRate = 8000
	cfg.Channels = 1
	cfg.Clipper = engine.ClipHard
	cfg.PostClipScaler = 1

	e, err := engine.New(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer e.Close()

	data := make([]float32, 8000)
	for i := range data {
		data[i] = 0.25
	}
	sample, _ := audio.NewSample(data, 8000, 1)

	e.Play(sample.Reader())
	h := e.Play(sample.Reader(), engine.Volume(0.5))

	pcm := audmix.RenderPCM16(e, 80)
	fmt.Println(pcm[0], e.VoiceCount(), e.StreamTime(h))
	// Output: 12287 2 10ms
}
