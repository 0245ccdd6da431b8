package testing

import (
	"slices"
	"sync"
)

// BuildOwner tracks dirty units that need re-rendering.
type BuildOwner struct {
	dirty    []*Unit
	dirtySet map[*Unit]bool
	mu       sync.Mutex

	// OnNeedsFrame is called when a new unit is scheduled for re-render.
	OnNeedsFrame func()
}

// NewBuildOwner creates a new BuildOwner.
func NewBuildOwner() *BuildOwner {
	return &BuildOwner{}
}

// ScheduleBuild marks a unit as needing a re-render.
func (b *BuildOwner) ScheduleBuild(unit *Unit) {
	added := func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.dirtySet[unit] {
			return false
		}
		if b.dirtySet == nil {
			b.dirtySet = make(map[*Unit]bool)
		}
		b.dirtySet[unit] = true
		b.dirty = append(b.dirty, unit)
		return true
	}()

	unit.dirty = true
	if added && b.OnNeedsFrame != nil {
		b.OnNeedsFrame()
	}
}

// NeedsWork returns true if there are dirty units.
func (b *BuildOwner) NeedsWork() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dirty) > 0
}

// FlushBuild re-renders the units that are dirty when it is called, in depth
// order. Units scheduled by those renders wait for the next call. Units
// already re-rendered by an ancestor in the same pass are skipped.
func (b *BuildOwner) FlushBuild() {
	b.mu.Lock()
	if len(b.dirty) == 0 {
		b.mu.Unlock()
		return
	}

	slices.SortFunc(b.dirty, func(a, b *Unit) int {
		return a.depth - b.depth
	})

	dirty := b.dirty
	b.dirty = nil
	clear(b.dirtySet)
	b.mu.Unlock()

	for _, unit := range dirty {
		if !unit.mounted || !unit.dirty {
			continue
		}
		unit.rebuild()
	}
}
