// Package state intercepts the host's state-constructor primitive and keeps a
// registry of live state instances that independent consumers can observe
// and rewrite.
//
// # Identity
//
// The wrapped constructor asks the host for a persistent ref on every call.
// The first call for a unit stores a fresh instance id in that ref, later
// calls find it again, so one [Instance] follows a unit across all of its
// re-invocations. The host's effect cleanup removes the instance when the
// unit unmounts. Ids are never reused within a [Registry].
//
// # Matcher chain
//
// Every transition that changes an instance's value walks the registered
// matchers once, in registration order. A matcher whose predicate accepts the
// current value (as left by the matchers before it) replaces the value with
// the result of its SetState. The final value is then pushed into the host
// through the host's own setter.
//
// # Feedback control
//
// Each instance carries an epoch counter. A top-level setter call opens a new
// epoch and setter calls made while a walk is running on the same instance
// join it. A matcher runs at most once per instance per epoch, so a matcher
// that updates the instance from inside its own SetState does not run again
// for that nested update.
//
// # Dispatch
//
// Use [Typed] when the state shape is a known Go type; the predicate is then
// only consulted for values of that type. A raw [Matcher] with an untyped
// predicate remains available for shapes this package cannot name.
package state

import (
	"math"
	"reflect"
)

// Origin identifies what triggered a transition.
type Origin int

const (
	// OriginSite marks transitions triggered by host code: instance creation,
	// the setter handed back to the host, and changes the host made directly.
	OriginSite Origin = iota
	// OriginMatcher marks transitions triggered by consumers.
	OriginMatcher
)

func (o Origin) String() string {
	if o == OriginSite {
		return "site"
	}
	return "matcher"
}

// Context is passed to a matcher's SetState.
type Context struct {
	// ID is the instance identity.
	ID uint64
	// Value is the current value, including earlier matchers' changes.
	Value any
	// Origin is the origin of the walk.
	Origin Origin
	// Instance allows nested updates.
	Instance *Instance
}

// Matcher is a consumer registration against the state registry.
type Matcher struct {
	// Matches selects the instances this matcher applies to.
	Matches func(value any) bool
	// SetState returns the replacement value.
	SetState func(ctx Context) any
	// OnStateRemoved is called when a matching instance is torn down.
	OnStateRemoved func(id uint64)
	// InitializeOnce stops the subscribe-time scan after the first match.
	InitializeOnce bool
	// StackOthers keeps this matcher in the chain walk that follows its
	// subscribe-time SetState, so it applies again on top of what the other
	// matchers produce. By default that walk skips it, as with any update a
	// matcher issues itself.
	StackOthers bool
	// OnlyFromSiteUpdate restricts the matcher to host-originated transitions.
	OnlyFromSiteUpdate bool
}

// Typed builds a matcher for values of type T. match may be nil to accept
// every T.
func Typed[T any](match func(T) bool, set func(value T, ctx Context) T) Matcher {
	return Matcher{
		Matches: func(value any) bool {
			v, ok := value.(T)
			return ok && (match == nil || match(v))
		},
		SetState: func(ctx Context) any {
			return set(ctx.Value.(T), ctx)
		},
	}
}

// Same reports whether a and b are the same state value. Maps, slices,
// pointers and channels are compared by reference, NaN is the same as NaN,
// and structs, arrays and interfaces are compared member by member with the
// same rules, so Same(v, v) holds for any v that is not a function. A top
// level function is never the same as anything; functions nested inside a
// value are compared by code pointer.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || va.Kind() == reflect.Func {
		return false
	}
	return same(va, vb)
}

func same(va, vb reflect.Value) bool {
	switch va.Kind() {
	case reflect.Bool:
		return va.Bool() == vb.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return va.Int() == vb.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return va.Uint() == vb.Uint()
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	case reflect.Complex64, reflect.Complex128:
		return va.Complex() == vb.Complex()
	case reflect.String:
		return va.String() == vb.String()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		ea, eb := va.Elem(), vb.Elem()
		return ea.Type() == eb.Type() && same(ea, eb)
	case reflect.Array:
		for i, n := 0, va.Len(); i < n; i++ {
			if !same(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i, n := 0, va.NumField(); i < n; i++ {
			if !same(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	}
	return false
}
