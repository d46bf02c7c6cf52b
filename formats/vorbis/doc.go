// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio with github.com/jfreymuth/oggvorbis.
//
// The decoder yields float samples directly, so no scaling happens here.
// Sources implement audio.Rewinder through SetPosition.
package vorbis
