// SPDX-License-Identifier: EPL-2.0

// Command audmix plays a YAML scene of sound files through the voice
// engine, either to a WAV file or to the default audio device.
//
//	audmix -config scene.yaml -out mix.wav -seconds 30
//	audmix -config scene.yaml -play
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/playback"
)

// update3DInterval is how often live playback refreshes 3D voices.
const update3DInterval = 50 * time.Millisecond

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	sceneFile := flag.String("config", "scene.yaml", "YAML scene file")
	out := flag.String("out", "", "render into this WAV file, - for stdout")
	play := flag.Bool("play", false, "play through the default audio device")
	seconds := flag.Float64("seconds", 10, "how long to render or play")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	if (*out == "") == !*play || *seconds <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*sceneFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error reading scene file")
	}

	sc, err := parseScene(data)
	if err != nil {
		log.Fatal().Err(err).Str("scene", *sceneFile).Msg("invalid scene")
	}

	e, err := engine.New(sc.Engine, engine.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine")
	}
	defer e.Close()

	if _, err := sc.start(e, filepath.Dir(*sceneFile), nil, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to start scene")
	}

	length := time.Duration(*seconds * float64(time.Second))

	eg, ctx := errgroup.WithContext(context.Background())
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			log.Info().Msg("interrupted")
			cancel()
		case <-done:
		}

		return nil
	})

	eg.Go(func() error {
		defer close(done)

		if *play {
			return playLive(runCtx, e, length)
		}

		return render(runCtx, e, *out, length)
	})

	err = eg.Wait()
	cancel()

	stats := e.Stats()
	log.Info().
		Uint64("played", stats.Played).
		Uint64("completed", stats.Completed).
		Uint64("evictions", stats.Evictions).
		Uint64("frames", stats.FramesMixed).
		Msg("done")

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}

// render writes length of the mix to path, or to stdout for "-".
func render(ctx context.Context, e *engine.Engine, path string, length time.Duration) error {
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}

		if err := audmix.Bounce(ctx, e, f, length); err != nil {
			f.Close()
			return err
		}

		log.Info().Str("file", path).Dur("length", length).Msg("rendered")

		return f.Close()
	}

	// Pipes cannot seek, so the whole mix is buffered for WriteWAV16
	frames := int(length.Seconds() * float64(e.SampleRate()))
	pcm := make([]int16, 0, frames*e.Channels())
	const step = 4096

	for done := 0; done < frames; done += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		pcm = append(pcm, audmix.RenderPCM16(e, min(step, frames-done))...)
	}

	return wav.WriteWAV16(os.Stdout, e.SampleRate(), e.Channels(), pcm)
}

// playLive plays for length or until ctx ends.
func playLive(ctx context.Context, e *engine.Engine, length time.Duration) error {
	player, err := playback.Open(ctx, e, playback.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer player.Close()

	player.Start()

	timer := time.NewTimer(length)
	defer timer.Stop()
	ticker := time.NewTicker(update3DInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-ticker.C:
			e.Update3D()
			log.Debug().
				Int("voices", e.VoiceCount()).
				Float32("peak", e.ApproximateVolume(0)).
				Msg("playing")
		}
	}
}
