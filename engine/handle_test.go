// SPDX-License-Identifier: EPL-2.0

package engine

import "testing"

func TestHandle_Layout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		h     Handle
		index int
		gen   uint32
		group bool
	}{
		{"first slot", makeHandle(0, 1), 0, 1, false},
		{"last slot", makeHandle(MaxVoices-1, genMask), MaxVoices - 1, genMask, false},
		{"generation wraps", makeHandle(3, genMask+2), 3, 1, false},
		{"group", makeGroupHandle(7, 5), 7, 5, true},
		{"null", NullHandle, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.h.index(); got != tt.index {
				t.Errorf("index() = %d, want %d", got, tt.index)
			}
			if got := tt.h.generation(); got != tt.gen {
				t.Errorf("generation() = %d, want %d", got, tt.gen)
			}
			if got := tt.h.IsGroup(); got != tt.group {
				t.Errorf("IsGroup() = %v, want %v", got, tt.group)
			}
		})
	}
}

func TestHandle_GroupNeverEqualsAllVoices(t *testing.T) {
	t.Parallel()

	h := makeGroupHandle(maxGroups-1, genMask)
	if h == AllVoices {
		t.Fatal("largest group handle collides with AllVoices")
	}
	if !AllVoices.IsGroup() {
		t.Error("AllVoices should carry the group bit")
	}
}

func TestHandle_String(t *testing.T) {
	t.Parallel()

	tests := map[Handle]string{
		NullHandle:            "null",
		AllVoices:             "all",
		makeHandle(2, 9):      "voice:2/9",
		makeGroupHandle(0, 1): "group:0/1",
	}

	for h, want := range tests {
		if got := h.String(); got != want {
			t.Errorf("Handle(%#x).String() = %q, want %q", uint32(h), got, want)
		}
	}
}
