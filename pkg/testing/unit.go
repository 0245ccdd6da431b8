package testing

import "github.com/go-drift/hookwire/pkg/host"

// Unit is one mounted instance of a component.
type Unit struct {
	host      *Host
	component *Component
	props     host.Props
	parent    *Unit
	children  []*Unit
	output    any
	hooks     []any
	cursor    int
	depth     int
	renders   int
	mounted   bool
	dirty     bool
}

// Name returns the component name.
func (u *Unit) Name() string {
	if u.component == nil {
		return ""
	}
	return u.component.Name
}

// Props returns the props of the last render.
func (u *Unit) Props() host.Props { return u.props }

// Output returns what the last render returned.
func (u *Unit) Output() any { return u.output }

// Renders returns how many times the unit has rendered.
func (u *Unit) Renders() int { return u.renders }

// Mounted reports whether the unit is still mounted.
func (u *Unit) Mounted() bool { return u.mounted }

// Depth returns the distance from the root.
func (u *Unit) Depth() int { return u.depth }

// StateAt returns the host-held value of the hook slot at index, which must
// be a state slot.
func (u *Unit) StateAt(index int) any {
	return u.hooks[index].(*stateSlot).value
}

// SetStateAt calls the host's own setter for the state slot at index,
// bypassing whatever setter was handed to the component. It simulates host
// internals changing state directly.
func (u *Unit) SetStateAt(index int, value any) {
	u.hooks[index].(*stateSlot).setter(value)
}

// rebuild renders the unit and reconciles its children.
func (u *Unit) rebuild() {
	if u.component == nil {
		return
	}
	h := u.host
	prev := h.current
	h.current = u
	u.cursor = 0
	u.dirty = false
	out := func() any {
		defer func() { h.current = prev }()
		return u.component.Render(h, u.props)
	}()
	u.renders++
	u.output = out
	u.children = h.reconcile(u, u.children, out)
}

// unmount tears down children first, then runs effect cleanups in reverse
// order.
func (u *Unit) unmount() {
	if !u.mounted {
		return
	}
	for i := len(u.children) - 1; i >= 0; i-- {
		u.children[i].unmount()
	}
	u.mounted = false
	for i := len(u.hooks) - 1; i >= 0; i-- {
		if slot, ok := u.hooks[i].(*effectSlot); ok && slot.cleanup != nil {
			cleanup := slot.cleanup
			slot.cleanup = nil
			cleanup()
		}
	}
}
