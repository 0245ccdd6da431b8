// Package intercept wraps callables so that a handler decides whether and how
// the original is invoked.
//
// Two forms are provided. [Wrap] works on the uniform [Func] shape and returns
// the replacement for the caller to install. [Patch] works on any typed
// function slot and installs the replacement in place, returning an
// [Interceptable] that remembers the original so it can be restored.
//
// Nothing in this package recovers panics: a panic raised by a handler or by
// the wrapped target reaches the caller exactly as if the original had been
// called directly.
package intercept

// Func is the uniform callable shape used by [Wrap].
type Func func(this any, args []any) any

// Handler receives the wrapped target together with the receiver and
// arguments of the current call. It may call target, replace its result or
// skip it entirely.
type Handler func(target Func, this any, args []any) any

// Wrap returns a replacement for target that routes every call through h.
func Wrap(target Func, h Handler) Func {
	return func(this any, args []any) any {
		return h(target, this, args)
	}
}

// Interceptable is a typed function slot with a replacement installed.
type Interceptable[F any] struct {
	name      string
	slot      *F
	original  F
	current   F
	installed bool
}

// Patch installs wrap(original) into slot and returns the interceptable that
// owns the substitution. A nil slot yields an interceptable that is not
// installed.
func Patch[F any](slot *F, name string, wrap func(original F) F) *Interceptable[F] {
	i := &Interceptable[F]{name: name, slot: slot}
	if slot == nil {
		return i
	}
	i.original = *slot
	i.current = wrap(i.original)
	*slot = i.current
	i.installed = true
	return i
}

// Name returns the binding name given to Patch.
func (i *Interceptable[F]) Name() string { return i.name }

// Original returns the function that was in the slot before patching.
func (i *Interceptable[F]) Original() F { return i.original }

// Current returns the installed replacement.
func (i *Interceptable[F]) Current() F { return i.current }

// Installed reports whether the replacement is currently in the slot.
func (i *Interceptable[F]) Installed() bool { return i.installed }

// Restore puts the original function back into the slot. Calling it more
// than once has no further effect.
func (i *Interceptable[F]) Restore() {
	if !i.installed {
		return
	}
	*i.slot = i.original
	i.installed = false
}
