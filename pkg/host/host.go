// Package host describes the primitives hookwire consumes from a host UI
// runtime.
//
// The host is an external reactive runtime that hookwire does not own. It
// exposes its hooks and entrypoints as function values stored in slots that
// application code dispatches through. [Bindings] names those slots; it is the
// single adapter boundary at which hookwire substitutes host behaviour.
package host

// Setter pushes a new value into a host-managed state slot and schedules a
// re-render of the owning unit. The value may be an [Updater].
type Setter func(value any)

// Updater computes a new state value from the current one. A Setter receiving
// an Updater calls it with the current value instead of storing it.
type Updater func(current any) any

// Ref is a persistent, mutable cell that survives re-invocations of its
// owning unit and is discarded on unmount.
type Ref struct {
	Current any
}

// EffectFunc runs after a unit mounts and returns an optional cleanup that
// the host calls when the unit unmounts.
type EffectFunc func() (cleanup func())

// Props are the attributes passed to an element factory.
type Props map[string]any

// UseStateFunc is the host's state-constructor primitive.
type UseStateFunc func(initial any) (any, Setter)

// UseRefFunc is the host's persistent-ref primitive.
type UseRefFunc func(initial any) *Ref

// UseEffectFunc is the host's effect-with-cleanup primitive. A nil deps slice
// runs the effect after every invocation; an empty one runs it once on mount.
type UseEffectFunc func(effect EffectFunc, deps []any)

// FactoryFunc constructs one UI-tree node.
type FactoryFunc func(typ any, props Props, children ...any) any

// RenderFunc renders a tree into a container. It is called once per mount
// point.
type RenderFunc func(tree, container any)

// Bindings points at the live host slots hookwire patches. Every pointer must
// reference the variable or field the host dispatches through, so that
// replacing the function it holds changes what application code calls.
type Bindings struct {
	UseState  *UseStateFunc
	UseRef    *UseRefFunc
	UseEffect *UseEffectFunc
	Factories []*FactoryFunc
	Render    *RenderFunc
}

// Missing returns the names of required bindings that are nil.
func (b Bindings) Missing() []string {
	var missing []string
	if b.UseState == nil || *b.UseState == nil {
		missing = append(missing, "UseState")
	}
	if b.UseRef == nil || *b.UseRef == nil {
		missing = append(missing, "UseRef")
	}
	if b.UseEffect == nil || *b.UseEffect == nil {
		missing = append(missing, "UseEffect")
	}
	if len(b.Factories) == 0 {
		missing = append(missing, "Factories")
	}
	for _, f := range b.Factories {
		if f == nil || *f == nil {
			missing = append(missing, "Factories")
			break
		}
	}
	if b.Render == nil || *b.Render == nil {
		missing = append(missing, "Render")
	}
	return missing
}

// Apply resolves value against current: an Updater is called, anything else
// is returned unchanged.
func Apply(value, current any) any {
	switch u := value.(type) {
	case Updater:
		return u(current)
	case func(any) any:
		return u(current)
	default:
		return value
	}
}
