// Package element intercepts the host's element-construction entrypoints.
//
// Every node the host builds passes through [Interceptor.Construct]. Matchers
// registered with [Interceptor.Subscribe] run in registration order; each one
// whose predicate matches may supply a replacement value and the last value
// supplied wins. A matcher that panics is reported and skipped so that one
// faulty consumer cannot break element construction for the whole tree.
package element

import (
	"fmt"
	"sync"

	"github.com/go-drift/hookwire/pkg/errors"
	"github.com/go-drift/hookwire/pkg/host"
	"github.com/go-drift/hookwire/pkg/intercept"
	"github.com/go-drift/hookwire/pkg/metrics"
)

// BypassKey marks props whose construction must skip interception. The key
// is removed before the call reaches the host factory.
const BypassKey = "__hookwire_bypass__"

// MatchFunc reports whether a matcher applies to a construction call.
type MatchFunc func(typ any, props host.Props, children []any) bool

// TransformFunc builds a replacement value. factory is the unwrapped host
// factory, so calling it never re-enters interception. Returning ok == false
// leaves the running result untouched.
type TransformFunc func(factory host.FactoryFunc, typ any, props host.Props, children []any) (value any, ok bool)

// Matcher is a registered predicate and transform pair.
type Matcher struct {
	Matches   MatchFunc
	Transform TransformFunc
}

type entry struct {
	seq     uint64
	matcher Matcher
}

// Interceptor dispatches element construction to registered matchers.
type Interceptor struct {
	mu      sync.Mutex
	entries []entry
	nextSeq uint64
	patches []*intercept.Interceptable[host.FactoryFunc]
	metrics *metrics.Collector
	session string
}

// New creates an interceptor. m may be nil.
func New(m *metrics.Collector, session string) *Interceptor {
	return &Interceptor{metrics: m, session: session}
}

// Raw returns a copy of props tagged so that the wrapped factory forwards the
// call to the host without running any matcher.
func Raw(props host.Props) host.Props {
	out := make(host.Props, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out[BypassKey] = true
	return out
}

// Subscribe registers a matcher and returns a function that removes it.
// The returned function may be called any number of times.
func (i *Interceptor) Subscribe(matches MatchFunc, transform TransformFunc) (unsubscribe func()) {
	i.mu.Lock()
	i.nextSeq++
	seq := i.nextSeq
	i.entries = append(i.entries, entry{seq: seq, matcher: Matcher{Matches: matches, Transform: transform}})
	i.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { i.remove(seq) })
	}
}

func (i *Interceptor) remove(seq uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx, e := range i.entries {
		if e.seq == seq {
			i.entries = append(i.entries[:idx:idx], i.entries[idx+1:]...)
			return
		}
	}
}

// Len returns the number of registered matchers.
func (i *Interceptor) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.entries)
}

// Reset removes every matcher. Installed slots stay patched.
func (i *Interceptor) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = nil
}

// Install wraps every given factory slot identically.
func (i *Interceptor) Install(slots ...*host.FactoryFunc) {
	for n, slot := range slots {
		p := intercept.Patch(slot, fmt.Sprintf("factory[%d]", n), i.Wrap)
		if p.Installed() {
			i.patches = append(i.patches, p)
		}
	}
}

// Uninstall restores every factory slot patched by Install.
func (i *Interceptor) Uninstall() {
	for _, p := range i.patches {
		p.Restore()
	}
	i.patches = nil
}

// Wrap returns factory routed through the interceptor.
func (i *Interceptor) Wrap(factory host.FactoryFunc) host.FactoryFunc {
	return func(typ any, props host.Props, children ...any) any {
		if bypass, _ := props[BypassKey].(bool); bypass {
			clean := make(host.Props, len(props)-1)
			for k, v := range props {
				if k != BypassKey {
					clean[k] = v
				}
			}
			return factory(typ, clean, children...)
		}
		return i.Construct(factory, typ, props, children...)
	}
}

// Construct runs the matcher chain for one construction call and returns the
// chosen value. It never panics because of a matcher.
func (i *Interceptor) Construct(factory host.FactoryFunc, typ any, props host.Props, children ...any) any {
	i.mu.Lock()
	entries := make([]entry, len(i.entries))
	copy(entries, i.entries)
	i.mu.Unlock()

	var (
		final any
		found bool
	)
	for _, e := range entries {
		if v, ok := i.apply(e, factory, typ, props, children); ok {
			final, found = v, true
		}
	}
	i.metrics.ElementIntercepted(found)
	if !found {
		return factory(typ, props, children...)
	}
	return final
}

func (i *Interceptor) apply(e entry, factory host.FactoryFunc, typ any, props host.Props, children []any) (value any, ok bool) {
	site := errors.HookError{Op: "element.Construct", Kind: errors.KindElement, Matcher: e.seq, Session: i.session}
	defer errors.RecoverWithCallback(site, func(any) {
		i.metrics.ElementFailure()
		value, ok = nil, false
	})
	if e.matcher.Matches == nil || !e.matcher.Matches(typ, props, children) {
		return nil, false
	}
	if e.matcher.Transform == nil {
		return nil, false
	}
	return e.matcher.Transform(factory, typ, props, children)
}
