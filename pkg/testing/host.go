package testing

import (
	"github.com/go-drift/hookwire/pkg/host"
)

// Component is a function component understood by Host. Components are
// compared by pointer, so define each one once.
type Component struct {
	Name   string
	Render func(h *Host, props host.Props) any
}

// Define creates a component.
func Define(name string, render func(h *Host, props host.Props) any) *Component {
	return &Component{Name: name, Render: render}
}

// Node is an element built by one of the host factories.
type Node struct {
	Type     any
	Props    host.Props
	Children []any
	// Factory names the entrypoint that built the node.
	Factory string
}

// Host is a small in-process reactive runtime with the same primitives a
// browser UI runtime exposes: state, refs, effects with cleanup, element
// factories and a top-level render. Its primitives live in exported fields so
// that they can be patched through Bindings, and all component code calls
// them through those fields.
//
// Host is NOT thread-safe.
type Host struct {
	UseState      host.UseStateFunc
	UseRef        host.UseRefFunc
	UseEffect     host.UseEffectFunc
	CreateElement host.FactoryFunc
	JSX           host.FactoryFunc
	Render        host.RenderFunc

	owner   *BuildOwner
	current *Unit
	roots   map[any]*Unit
	order   []any
	trees   map[any]any
	effects []pendingEffect
	// settleErr holds the Pump error of the last top-level render.
	settleErr error
}

type pendingEffect struct {
	unit *Unit
	run  func()
}

// NewHost creates a host with its own primitives installed.
func NewHost() *Host {
	h := &Host{
		owner: NewBuildOwner(),
		roots: make(map[any]*Unit),
		trees: make(map[any]any),
	}
	h.UseState = h.useState
	h.UseRef = h.useRef
	h.UseEffect = h.useEffect
	h.CreateElement = h.factory("CreateElement")
	h.JSX = h.factory("JSX")
	h.Render = h.render
	return h
}

// Bindings returns the slots a runtime patches.
func (h *Host) Bindings() host.Bindings {
	return host.Bindings{
		UseState:  &h.UseState,
		UseRef:    &h.UseRef,
		UseEffect: &h.UseEffect,
		Factories: []*host.FactoryFunc{&h.CreateElement, &h.JSX},
		Render:    &h.Render,
	}
}

// Owner returns the build owner scheduling re-renders.
func (h *Host) Owner() *BuildOwner {
	return h.owner
}

func (h *Host) factory(name string) host.FactoryFunc {
	return func(typ any, props host.Props, children ...any) any {
		return &Node{Type: typ, Props: props, Children: children, Factory: name}
	}
}

func (h *Host) render(tree, container any) {
	root, ok := h.roots[container]
	if !ok {
		root = &Unit{host: h, mounted: true}
		h.roots[container] = root
		h.order = append(h.order, container)
	}
	h.trees[container] = tree
	root.output = tree
	root.children = h.reconcile(root, root.children, tree)
	h.settleErr = h.Pump()
}

// RenderErr returns and clears the error of the last render that did not
// settle.
func (h *Host) RenderErr() error {
	err := h.settleErr
	h.settleErr = nil
	return err
}

// Unmount tears down everything rendered into container.
func (h *Host) Unmount(container any) {
	root, ok := h.roots[container]
	if !ok {
		return
	}
	for i := len(root.children) - 1; i >= 0; i-- {
		root.children[i].unmount()
	}
	root.mounted = false
	delete(h.roots, container)
	delete(h.trees, container)
	for i, c := range h.order {
		if c == container {
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			break
		}
	}
}

// Tree returns the tree last rendered into container.
func (h *Host) Tree(container any) any {
	return h.trees[container]
}

// Pump flushes pending re-renders and effects until the host is idle. Each
// pass renders one batch of dirty units; a host that is still busy after the
// pass limit returns ErrSettleTimeout.
func (h *Host) Pump() error {
	const maxPasses = 64
	for pass := 0; pass < maxPasses; pass++ {
		h.owner.FlushBuild()
		h.flushEffects()
		if !h.owner.NeedsWork() && len(h.effects) == 0 {
			return nil
		}
	}
	return ErrSettleTimeout
}

func (h *Host) flushEffects() {
	for len(h.effects) > 0 {
		pending := h.effects
		h.effects = nil
		for _, e := range pending {
			if e.unit.mounted {
				e.run()
			}
		}
	}
}

// Units returns every mounted component unit in depth-first pre-order.
func (h *Host) Units() []*Unit {
	var out []*Unit
	var walk func(u *Unit)
	walk = func(u *Unit) {
		if u.component != nil {
			out = append(out, u)
		}
		for _, c := range u.children {
			walk(c)
		}
	}
	for _, c := range h.order {
		walk(h.roots[c])
	}
	return out
}

// reconcile mounts the component units found in tree, reusing previous units
// of the same component at the same position.
func (h *Host) reconcile(parent *Unit, previous []*Unit, tree any) []*Unit {
	var found []*Node
	collectComponents(tree, &found)

	next := make([]*Unit, 0, len(found))
	for i, n := range found {
		comp := n.Type.(*Component)
		if i < len(previous) && previous[i].component == comp && previous[i].mounted {
			u := previous[i]
			u.props = n.Props
			u.rebuild()
			next = append(next, u)
			continue
		}
		if i < len(previous) {
			previous[i].unmount()
		}
		u := &Unit{
			host:      h,
			component: comp,
			props:     n.Props,
			parent:    parent,
			depth:     parent.depth + 1,
			mounted:   true,
		}
		u.rebuild()
		next = append(next, u)
	}
	for i := len(found); i < len(previous); i++ {
		previous[i].unmount()
	}
	return next
}

func collectComponents(tree any, out *[]*Node) {
	switch t := tree.(type) {
	case *Node:
		if _, ok := t.Type.(*Component); ok {
			*out = append(*out, t)
			return
		}
		for _, c := range t.Children {
			collectComponents(c, out)
		}
	case []any:
		for _, c := range t {
			collectComponents(c, out)
		}
	}
}

func (h *Host) currentUnit(hook string) *Unit {
	if h.current == nil {
		panic("testing.Host: " + hook + " called outside of a component render")
	}
	return h.current
}

type stateSlot struct {
	value  any
	setter host.Setter
}

type effectSlot struct {
	deps        []any
	cleanup     func()
	initialized bool
}

func (h *Host) useState(initial any) (any, host.Setter) {
	u := h.currentUnit("UseState")
	slot, fresh := hookSlot[*stateSlot](u)
	if fresh {
		slot.value = initial
		slot.setter = func(value any) {
			next := host.Apply(value, slot.value)
			if depsEqual([]any{next}, []any{slot.value}) {
				return
			}
			slot.value = next
			if u.mounted {
				h.owner.ScheduleBuild(u)
			}
		}
	}
	return slot.value, slot.setter
}

func (h *Host) useRef(initial any) *host.Ref {
	u := h.currentUnit("UseRef")
	slot, fresh := hookSlot[*host.Ref](u)
	if fresh {
		slot.Current = initial
	}
	return slot
}

func (h *Host) useEffect(effect host.EffectFunc, deps []any) {
	u := h.currentUnit("UseEffect")
	slot, _ := hookSlot[*effectSlot](u)
	if slot.initialized && deps != nil && depsEqual(slot.deps, deps) {
		return
	}
	slot.deps = deps
	slot.initialized = true
	h.effects = append(h.effects, pendingEffect{unit: u, run: func() {
		if slot.cleanup != nil {
			slot.cleanup()
		}
		slot.cleanup = effect()
	}})
}

// hookSlot returns the unit's hook slot at the current cursor, creating it on
// the first render.
func hookSlot[T any](u *Unit) (slot T, fresh bool) {
	idx := u.cursor
	u.cursor++
	if idx < len(u.hooks) {
		s, ok := u.hooks[idx].(T)
		if !ok {
			panic("testing.Host: hook order changed between renders")
		}
		return s, false
	}
	var zero T
	s := newSlot(zero).(T)
	u.hooks = append(u.hooks, s)
	return s, true
}

func newSlot(kind any) any {
	switch kind.(type) {
	case *stateSlot:
		return &stateSlot{}
	case *host.Ref:
		return &host.Ref{}
	case *effectSlot:
		return &effectSlot{}
	}
	panic("testing.Host: unknown hook slot")
}

func depsEqual(a, b []any) (eq bool) {
	if len(a) != len(b) {
		return false
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
