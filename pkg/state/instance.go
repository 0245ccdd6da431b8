package state

import "github.com/go-drift/hookwire/pkg/host"

// Instance is one unit of host-managed state tracked by the registry.
//
// Instance is NOT thread-safe. Like the host it belongs to, it must only be
// used from the host's UI thread.
//
// hostValue is the value the host slot is known to hold; it diverges from
// value only while a transition is in flight or after the host changed the
// slot without going through the instance.
type Instance struct {
	id        uint64
	registry  *Registry
	value     any
	hostValue any
	private   host.Setter
	site      host.Setter
	epoch     uint64
	depth     int
	ran       map[uint64]uint64
	removed   bool
}

func newInstance(r *Registry, id uint64, value any, private host.Setter) *Instance {
	in := &Instance{
		id:        id,
		registry:  r,
		value:     value,
		hostValue: value,
		private:   private,
		ran:       make(map[uint64]uint64),
	}
	in.site = func(value any) { in.set(value, OriginSite) }
	return in
}

// ID returns the instance identity.
func (in *Instance) ID() uint64 { return in.id }

// Value returns the current boxed value.
func (in *Instance) Value() any { return in.value }

// Removed reports whether the host has torn the instance down.
func (in *Instance) Removed() bool { return in.removed }

// Set is the public setter for consumers. value may be a literal or a
// [host.Updater]. Setting a value that is [Same] as the current one does
// nothing. If a matcher's SetState panics, the panic reaches the caller, the
// instance falls back to the value last pushed to the host and nothing new
// is pushed.
func (in *Instance) Set(value any) {
	in.set(value, OriginMatcher)
}

// SiteSetter returns the setter handed to host code in place of the host's
// own. Its calls count as host-originated.
func (in *Instance) SiteSetter() host.Setter { return in.site }

func (in *Instance) set(value any, origin Origin) {
	if in.removed {
		return
	}
	next := host.Apply(value, in.value)
	if in.registry.equal(next, in.value) {
		in.registry.metrics.StateNoop()
		return
	}
	epoch := in.open()
	defer in.close()
	completed := false
	defer in.restore(&completed)
	in.value = next
	in.walk(origin, epoch)
	completed = true
	in.push(true)
}

// adopt applies a newly subscribed matcher to the instance the way Set would:
// its result is walked through the rest of the chain, which skips the new
// matcher unless it stacks on others.
func (in *Instance) adopt(e matcherEntry) {
	if in.removed || e.matcher.SetState == nil {
		return
	}
	epoch := in.open()
	defer in.close()
	completed := false
	defer in.restore(&completed)
	in.ran[e.seq] = epoch
	next := e.matcher.SetState(in.context(OriginMatcher))
	if in.registry.equal(next, in.value) {
		in.registry.metrics.StateNoop()
		completed = true
		return
	}
	in.value = next
	if e.matcher.StackOthers {
		delete(in.ran, e.seq)
	}
	in.walk(OriginMatcher, epoch)
	completed = true
	in.push(true)
}

// settle runs the chain over a value the host produced and pushes the result
// back only if a matcher changed it.
func (in *Instance) settle() {
	epoch := in.open()
	defer in.close()
	completed := false
	defer in.restore(&completed)
	in.walk(OriginSite, epoch)
	completed = true
	in.push(false)
}

// restore falls back to the value last pushed to the host when a transform
// panicked before the transition completed.
func (in *Instance) restore(completed *bool) {
	if !*completed {
		in.value = in.hostValue
	}
}

func (in *Instance) open() uint64 {
	if in.depth == 0 {
		in.epoch++
	}
	in.depth++
	return in.epoch
}

func (in *Instance) close() {
	in.depth--
}

func (in *Instance) walk(origin Origin, epoch uint64) {
	in.registry.metrics.StateUpdated(origin.String())
	for _, e := range in.registry.matcherSnapshot() {
		if in.ran[e.seq] == epoch {
			continue
		}
		if e.matcher.OnlyFromSiteUpdate && origin != OriginSite {
			continue
		}
		if e.matcher.Matches == nil || !e.matcher.Matches(in.value) {
			continue
		}
		in.ran[e.seq] = epoch
		if e.matcher.SetState == nil {
			continue
		}
		in.value = e.matcher.SetState(in.context(origin))
	}
}

func (in *Instance) push(always bool) {
	if !always && in.registry.equal(in.value, in.hostValue) {
		return
	}
	in.hostValue = in.value
	if in.private != nil {
		in.private(in.value)
	}
}

func (in *Instance) context(origin Origin) Context {
	return Context{ID: in.id, Value: in.value, Origin: origin, Instance: in}
}
