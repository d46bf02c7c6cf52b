// SPDX-License-Identifier: EPL-2.0

package engine

import "time"

// Stats are running counters since the engine was created.
type Stats struct {
	Voices         int
	ActiveVoices   int
	Played         uint64
	Completed      uint64
	Evictions      uint64
	Rejected       uint64
	SourceFailures uint64
	InaudibleKills uint64
	MixCycles      uint64
	FramesMixed    uint64
	// LastMix is the wall time the last Mix call took.
	LastMix time.Duration
}

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	e.gate.Lock()
	defer e.gate.Unlock()

	s := e.stats
	s.Voices = e.count

	return s
}
