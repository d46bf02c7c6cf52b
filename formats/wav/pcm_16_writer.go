// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audmix/utils"
)

const headerSize = 44

// WriteWAV16 writes interleaved 16-bit PCM with a canonical 44 byte
// header. Unlike Writer it needs no seeking, so it can target pipes.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if channels < 1 {
		return ErrInvalidChannels
	}

	blockAlign := channels * 2
	dataSize := uint32(len(samples) * 2)

	header := make([]byte, headerSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing wav header: %w", err)
	}

	const chunk = 8192
	buf := make([]byte, min(len(samples), chunk)*2)

	for i := 0; i < len(samples); i += chunk {
		part := samples[i:min(i+chunk, len(samples))]
		out := buf[:len(part)*2]
		for j, s := range part {
			binary.LittleEndian.PutUint16(out[j*2:], uint16(s))
		}

		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("writing wav data: %w", err)
		}
	}

	return nil
}

// Writer streams 16-bit PCM into a seekable file through the go-audio
// encoder, which patches the chunk sizes on Close.
type Writer struct {
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	pcm    []int16
	closed bool
}

// NewWriter starts a 16-bit PCM WAV on ws.
func NewWriter(ws io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	if channels < 1 {
		return nil, ErrInvalidChannels
	}

	return &Writer{
		enc: wav.NewEncoder(ws, sampleRate, 16, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// WriteInt16 appends interleaved samples.
func (w *Writer) WriteInt16(samples []int16) error {
	if w.closed {
		return ErrWriterClosed
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}

	return nil
}

// WriteFloat32 converts interleaved float samples to 16 bits and appends
// them.
func (w *Writer) WriteFloat32(samples []float32) error {
	if cap(w.pcm) < len(samples) {
		w.pcm = make([]int16, len(samples))
	}
	w.pcm = w.pcm[:len(samples)]
	utils.Floats32ToInt16(w.pcm, samples)

	return w.WriteInt16(w.pcm)
}

// Close finalises the header. The underlying writer is left open.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("finalising wav: %w", err)
	}

	return nil
}
