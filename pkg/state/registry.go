package state

import (
	"slices"
	"sync"

	"github.com/go-drift/hookwire/pkg/host"
	"github.com/go-drift/hookwire/pkg/intercept"
	"github.com/go-drift/hookwire/pkg/metrics"
)

// identity is stored in the host ref to find an instance again.
type identity uint64

type matcherEntry struct {
	seq     uint64
	matcher Matcher
}

// Registry tracks live state instances and the shared matcher chain.
type Registry struct {
	mu        sync.Mutex
	instances map[uint64]*Instance
	matchers  []matcherEntry
	nextID    uint64
	nextSeq   uint64
	equal     func(a, b any) bool
	metrics   *metrics.Collector

	useRef    *host.UseRefFunc
	useEffect *host.UseEffectFunc
	patch     *intercept.Interceptable[host.UseStateFunc]
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *metrics.Collector) *Registry {
	return &Registry{
		instances: make(map[uint64]*Instance),
		equal:     Same,
		metrics:   m,
	}
}

// NewRegistryWithEquality creates a registry that uses equal instead of
// [Same] to decide whether a setter call changes anything.
func NewRegistryWithEquality(m *metrics.Collector, equal func(a, b any) bool) *Registry {
	r := NewRegistry(m)
	if equal != nil {
		r.equal = equal
	}
	return r
}

// Install patches the host's state constructor. useRef and useEffect are read
// at call time and are not patched.
func (r *Registry) Install(useState *host.UseStateFunc, useRef *host.UseRefFunc, useEffect *host.UseEffectFunc) {
	r.useRef = useRef
	r.useEffect = useEffect
	r.patch = intercept.Patch(useState, "UseState", r.Wrap)
}

// Uninstall restores the host's state constructor. Live instances stay in the
// registry until their units unmount.
func (r *Registry) Uninstall() {
	if r.patch != nil {
		r.patch.Restore()
		r.patch = nil
	}
}

// Wrap returns original routed through the registry. The returned
// constructor must be called from a host unit's render, where the host's ref
// and effect primitives are usable.
func (r *Registry) Wrap(original host.UseStateFunc) host.UseStateFunc {
	return func(initial any) (any, host.Setter) {
		ref := (*r.useRef)(nil)
		value, setter := original(initial)

		if token, ok := ref.Current.(identity); ok {
			if in := r.Lookup(uint64(token)); in != nil {
				(*r.useEffect)(r.teardown(ref), []any{})
				in.private = setter
				if !r.equal(value, in.hostValue) {
					in.value = value
					in.hostValue = value
					in.settle()
				}
				return in.value, in.site
			}
		}

		in := r.create(value, setter)
		ref.Current = identity(in.id)
		(*r.useEffect)(r.teardown(ref), []any{})
		in.settle()
		return in.value, in.site
	}
}

func (r *Registry) teardown(ref *host.Ref) host.EffectFunc {
	return func() func() {
		return func() {
			if token, ok := ref.Current.(identity); ok {
				r.Remove(uint64(token))
			}
		}
	}
}

func (r *Registry) create(value any, private host.Setter) *Instance {
	r.mu.Lock()
	r.nextID++
	in := newInstance(r, r.nextID, value, private)
	r.instances[in.id] = in
	r.mu.Unlock()
	r.metrics.StateCreated()
	return in
}

// Track registers a state instance that is not owned by an intercepted
// constructor, for hosts that manage state outside the hook primitives.
// The caller is responsible for calling Remove.
func (r *Registry) Track(value any, private host.Setter) *Instance {
	in := r.create(value, private)
	in.settle()
	return in
}

// Lookup returns the live instance with the given id, or nil.
func (r *Registry) Lookup(id uint64) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[id]
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Instances returns the live instances, most recently created first.
func (r *Registry) Instances() []*Instance {
	r.mu.Lock()
	out := make([]*Instance, 0, len(r.instances))
	for _, in := range r.instances {
		out = append(out, in)
	}
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b *Instance) int {
		switch {
		case a.id > b.id:
			return -1
		case a.id < b.id:
			return 1
		}
		return 0
	})
	return out
}

// Subscribe registers m at the end of the chain, then applies it to every
// live instance whose value it matches, most recently created first. Each
// application resolves like [Instance.Set] with m's result: the rest of the
// chain runs on it and the final value is pushed to the host. It is
// consumer-originated, so matchers restricted to site updates skip it. The returned function removes m and may be called any number of
// times.
func (r *Registry) Subscribe(m Matcher) (unsubscribe func()) {
	r.mu.Lock()
	r.nextSeq++
	e := matcherEntry{seq: r.nextSeq, matcher: m}
	r.matchers = append(r.matchers, e)
	r.mu.Unlock()

	if m.Matches != nil && !m.OnlyFromSiteUpdate {
		for _, in := range r.Instances() {
			if in.removed || !m.Matches(in.value) {
				continue
			}
			in.adopt(e)
			if m.InitializeOnce {
				break
			}
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.unsubscribe(e.seq) })
	}
}

func (r *Registry) unsubscribe(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx, e := range r.matchers {
		if e.seq == seq {
			r.matchers = append(r.matchers[:idx:idx], r.matchers[idx+1:]...)
			break
		}
	}
	for _, in := range r.instances {
		delete(in.ran, seq)
	}
}

// Matchers returns the number of registered matchers.
func (r *Registry) Matchers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matchers)
}

func (r *Registry) matcherSnapshot() []matcherEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.matchers)
}

// Remove tears down an instance: its slot is deleted, then every matcher
// whose predicate accepts the last known value is notified. Removing an
// unknown id does nothing.
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	in, ok := r.instances[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	last := in.value
	in.removed = true
	delete(r.instances, id)
	matchers := slices.Clone(r.matchers)
	r.mu.Unlock()

	r.metrics.StateRemoved()
	for _, e := range matchers {
		if e.matcher.OnStateRemoved == nil || e.matcher.Matches == nil {
			continue
		}
		if e.matcher.Matches(last) {
			e.matcher.OnStateRemoved(id)
		}
	}
}

// Reset drops every instance and matcher without notifying anyone. Ids keep
// increasing so that stale identities are never resolved again.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.instances {
		in.removed = true
	}
	r.instances = make(map[uint64]*Instance)
	r.matchers = nil
}
