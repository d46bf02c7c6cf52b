// SPDX-License-Identifier: EPL-2.0

package engine

import "fmt"

// Handle is an opaque reference to a voice or a voice group.
//
// Layout: bits 0..11 hold slot+1 (zero means null), bits 12..30 hold the
// slot's generation and bit 31 marks a group. A voice handle is live only
// while its generation matches the slot's, so handles to a stopped voice
// never reach whatever plays in that slot later.
type Handle uint32

const (
	// NullHandle never resolves. Play returns it when no slot is available.
	NullHandle Handle = 0
	// AllVoices addresses every live voice.
	AllVoices Handle = 0xFFFFFFFF
)

const (
	slotBits  = 12
	slotMask  = 1<<slotBits - 1
	genBits   = 19
	genMask   = 1<<genBits - 1
	groupFlag = 1 << 31

	// MaxVoices is the largest voice table a handle can address.
	MaxVoices = slotMask

	// maxGroups leaves the top slot pattern free so no group handle can
	// equal AllVoices.
	maxGroups = slotMask - 1
)

func makeHandle(index int, gen uint32) Handle {
	return Handle((gen&genMask)<<slotBits | uint32(index+1))
}

func makeGroupHandle(index int, gen uint32) Handle {
	return makeHandle(index, gen) | groupFlag
}

// IsGroup reports whether h names a voice group (AllVoices included).
func (h Handle) IsGroup() bool {
	return h&groupFlag != 0
}

// index is the zero-based slot (or group) index, -1 for NullHandle.
func (h Handle) index() int {
	return int(h&slotMask) - 1
}

func (h Handle) generation() uint32 {
	return uint32(h>>slotBits) & genMask
}

func (h Handle) String() string {
	switch {
	case h == NullHandle:
		return "null"
	case h == AllVoices:
		return "all"
	case h.IsGroup():
		return fmt.Sprintf("group:%d/%d", h.index(), h.generation())
	default:
		return fmt.Sprintf("voice:%d/%d", h.index(), h.generation())
	}
}
