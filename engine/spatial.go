// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Attenuation selects how a positioned voice gets quieter with distance.
type Attenuation int

const (
	// NoAttenuation keeps full volume at any distance.
	NoAttenuation Attenuation = iota
	// InverseDistance follows min / (min + rolloff*(d-min)).
	InverseDistance
	// LinearDistance falls off linearly between the min and max distance.
	LinearDistance
	// ExponentialDistance follows (d/min)^-rolloff.
	ExponentialDistance
)

func (a Attenuation) String() string {
	switch a {
	case NoAttenuation:
		return "none"
	case InverseDistance:
		return "inverse"
	case LinearDistance:
		return "linear"
	case ExponentialDistance:
		return "exponential"
	default:
		return "unknown"
	}
}

// ParseAttenuation maps the names returned by String back to models.
func ParseAttenuation(s string) (Attenuation, error) {
	for a := NoAttenuation; a <= ExponentialDistance; a++ {
		if a.String() == s {
			return a, nil
		}
	}

	return 0, fmt.Errorf("%w: attenuation model %q", ErrInvalidParameter, s)
}

type spatial struct {
	position r3.Vec
	velocity r3.Vec
	minDist  float64
	maxDist  float64
	model    Attenuation
	rolloff  float64
	doppler  float64
}

func defaultSpatial() spatial {
	return spatial{
		minDist: 1,
		maxDist: 1e6,
		model:   NoAttenuation,
		rolloff: 1,
		doppler: 1,
	}
}

type listener struct {
	position r3.Vec
	at       r3.Vec
	up       r3.Vec
	velocity r3.Vec
}

func defaultListener() listener {
	return listener{
		at: r3.Vec{Z: -1},
		up: r3.Vec{Y: 1},
	}
}

// gain computes the distance attenuation for distance d.
func (s *spatial) gain(d float64) float64 {
	minD := max(s.minDist, 1e-6)
	maxD := max(s.maxDist, minD)
	d = min(max(d, minD), maxD)

	switch s.model {
	case InverseDistance:
		return minD / (minD + s.rolloff*(d-minD))
	case LinearDistance:
		if maxD == minD {
			return 1
		}
		return min(max(1-s.rolloff*(d-minD)/(maxD-minD), 0), 1)
	case ExponentialDistance:
		return math.Pow(d/minD, -s.rolloff)
	default:
		return 1
	}
}

// place derives attenuation, pan and doppler shift for a source relative
// to the listener.
func (s *spatial) place(l *listener, soundSpeed float64) (att, pan, doppler float32) {
	rel := r3.Sub(s.position, l.position)
	dist := r3.Norm(rel)

	att = float32(s.gain(dist))
	doppler = 1
	if dist == 0 {
		return att, 0, doppler
	}

	dir := r3.Scale(1/dist, rel)

	right := r3.Cross(l.at, l.up)
	if r3.Norm(right) > 0 {
		pan = float32(r3.Dot(dir, r3.Unit(right)))
	}

	if s.doppler > 0 {
		limit := soundSpeed / s.doppler
		vl := min(r3.Dot(l.velocity, dir), limit)
		vs := min(r3.Dot(s.velocity, dir), limit)

		num := soundSpeed + s.doppler*vl
		den := soundSpeed + s.doppler*vs
		if num > 0 && den > 0 {
			doppler = float32(num / den)
		}
	}

	return att, min(max(pan, -1), 1), doppler
}
