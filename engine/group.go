// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"slices"
)

type group struct {
	members []Handle
}

// group resolves a group handle, nil when unknown or destroyed.
func (e *Engine) group(h Handle) *group {
	if h == AllVoices || !h.IsGroup() {
		return nil
	}

	i := h.index()
	if i < 0 || i >= len(e.groups) || e.groups[i] == nil || e.groupGens[i] != h.generation() {
		return nil
	}

	return e.groups[i]
}

// CreateGroup returns a new empty group. Every setter accepts the group
// handle and applies to each live member.
func (e *Engine) CreateGroup() (Handle, error) {
	e.gate.Lock()
	defer e.gate.Unlock()

	if e.closed {
		return NullHandle, ErrEngineClosed
	}

	i := slices.Index(e.groups, nil)
	if i < 0 {
		if len(e.groups) >= maxGroups {
			return NullHandle, fmt.Errorf("%w: at most %d groups", ErrInvalidParameter, maxGroups)
		}
		e.groups = append(e.groups, nil)
		e.groupGens = append(e.groupGens, 0)
		i = len(e.groups) - 1
	}

	e.groupGens[i] = (e.groupGens[i] + 1) & genMask
	e.groups[i] = &group{}

	return makeGroupHandle(i, e.groupGens[i]), nil
}

// DestroyGroup forgets the group. Its voices keep playing.
func (e *Engine) DestroyGroup(g Handle) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	if e.group(g) == nil {
		return fmt.Errorf("%w: unknown group %s", ErrInvalidParameter, g)
	}

	i := g.index()
	e.groups[i] = nil

	return nil
}

// AddToGroup adds a live voice to a group. Adding a voice twice is a
// no-op, as is adding a stale voice handle.
func (e *Engine) AddToGroup(g, h Handle) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	return e.addToGroup(g, h)
}

// AssignGroup replaces the members of a group with handles. Handles that
// no longer resolve are skipped.
func (e *Engine) AssignGroup(g Handle, handles ...Handle) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	grp := e.group(g)
	if grp == nil {
		return fmt.Errorf("%w: unknown group %s", ErrInvalidParameter, g)
	}
	for _, h := range handles {
		if h.IsGroup() {
			return fmt.Errorf("%w: cannot nest group %s", ErrInvalidParameter, h)
		}
	}

	grp.members = grp.members[:0]
	for _, h := range handles {
		if err := e.addToGroup(g, h); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) addToGroup(g, h Handle) error {
	grp := e.group(g)
	if grp == nil {
		return fmt.Errorf("%w: unknown group %s", ErrInvalidParameter, g)
	}
	if h.IsGroup() {
		return fmt.Errorf("%w: cannot nest group %s", ErrInvalidParameter, h)
	}
	if e.resolve(h) < 0 {
		return nil
	}

	// Members whose voices ended free their place for newcomers
	grp.compact(e)
	if !slices.Contains(grp.members, h) {
		grp.members = append(grp.members, h)
	}

	return nil
}

// compact drops members that no longer resolve.
func (g *group) compact(e *Engine) {
	g.members = slices.DeleteFunc(g.members, func(h Handle) bool {
		return e.resolve(h) < 0
	})
}

// IsGroup reports whether h is a live group handle.
func (e *Engine) IsGroup(h Handle) bool {
	e.gate.Lock()
	defer e.gate.Unlock()

	return e.group(h) != nil
}

// IsGroupEmpty reports whether a group has no live member. Unknown groups
// count as empty.
func (e *Engine) IsGroupEmpty(g Handle) bool {
	e.gate.Lock()
	defer e.gate.Unlock()

	grp := e.group(g)
	if grp == nil {
		return true
	}
	grp.compact(e)

	return len(grp.members) == 0
}

// GroupSize counts the live members of a group.
func (e *Engine) GroupSize(g Handle) int {
	e.gate.Lock()
	defer e.gate.Unlock()

	grp := e.group(g)
	if grp == nil {
		return 0
	}
	grp.compact(e)

	return len(grp.members)
}
