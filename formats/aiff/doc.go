// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes Audio Interchange File Format streams through
// github.com/go-audio/aiff.
//
// Uncompressed 16, 24 and 32 bit PCM is supported at any sample rate and
// channel count. Sources returned by Decoder implement audio.Rewinder.
package aiff
