// Package mount tracks every (tree, container) pair the host renders.
//
// The log is append-only and sequence-numbered: a pair is recorded the first
// time it is rendered and never again, and records outlive the mount points
// they describe so that late subscribers can be replayed.
package mount

import (
	"sync"

	"github.com/go-drift/hookwire/pkg/errors"
	"github.com/go-drift/hookwire/pkg/host"
	"github.com/go-drift/hookwire/pkg/intercept"
	"github.com/go-drift/hookwire/pkg/metrics"
	"github.com/go-drift/hookwire/pkg/state"
)

// ReplayMode selects which log records a new subscriber is replayed.
type ReplayMode int

const (
	// ReplayNonMatching hands the subscriber every record its predicate
	// rejects. This is the established behaviour existing consumers rely on.
	ReplayNonMatching ReplayMode = iota
	// ReplayMatching hands the subscriber the records its predicate accepts.
	ReplayMatching
)

func (m ReplayMode) String() string {
	if m == ReplayMatching {
		return "matching"
	}
	return "non-matching"
}

// Record is one rendered (tree, container) pair.
type Record struct {
	Seq       uint64
	Tree      any
	Container any
}

// MatchFunc reports whether a matcher applies to a rendered pair.
type MatchFunc func(tree, container any) bool

// HandleFunc is called for rendered pairs.
type HandleFunc func(tree, container any)

type entry struct {
	seq     uint64
	matches MatchFunc
	handle  HandleFunc
}

// Tracker records rendered pairs and dispatches them to matchers.
type Tracker struct {
	mu      sync.Mutex
	records []Record
	entries []entry
	nextSeq uint64
	nextRec uint64
	replay  ReplayMode
	patch   *intercept.Interceptable[host.RenderFunc]
	metrics *metrics.Collector
	session string
}

// New creates a tracker. m may be nil.
func New(mode ReplayMode, m *metrics.Collector, session string) *Tracker {
	return &Tracker{replay: mode, metrics: m, session: session}
}

// ReplayMode returns the replay mode.
func (t *Tracker) ReplayMode() ReplayMode { return t.replay }

// Install patches the host's render entrypoint.
func (t *Tracker) Install(slot *host.RenderFunc) {
	t.patch = intercept.Patch(slot, "Render", t.Wrap)
}

// Uninstall restores the host's render entrypoint. The log is kept.
func (t *Tracker) Uninstall() {
	if t.patch != nil {
		t.patch.Restore()
		t.patch = nil
	}
}

// Wrap returns render routed through the tracker. The host renders first;
// the pair is then recorded and dispatched if it is new.
func (t *Tracker) Wrap(render host.RenderFunc) host.RenderFunc {
	return func(tree, container any) {
		render(tree, container)
		t.Observe(tree, container)
	}
}

// Observe records a rendered pair and notifies matchers if it is new.
// It reports whether the pair was new.
func (t *Tracker) Observe(tree, container any) bool {
	t.mu.Lock()
	for _, r := range t.records {
		if state.Same(r.Tree, tree) && state.Same(r.Container, container) {
			t.mu.Unlock()
			return false
		}
	}
	t.nextRec++
	rec := Record{Seq: t.nextRec, Tree: tree, Container: container}
	t.records = append(t.records, rec)
	entries := make([]entry, len(t.entries))
	copy(entries, t.entries)
	t.mu.Unlock()

	t.metrics.MountRecorded()
	for _, e := range entries {
		if t.matches(e, rec) {
			t.handle(e, rec)
		}
	}
	return true
}

// Records returns the log in render order.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Subscribe registers a matcher for future renders and replays the log to
// handle, most recently rendered first, according to the tracker's
// [ReplayMode]. With initializeOnce the replay stops after the first handle
// call. The returned function removes the matcher and may be called any
// number of times.
func (t *Tracker) Subscribe(matches MatchFunc, handle HandleFunc, initializeOnce bool) (unsubscribe func()) {
	t.mu.Lock()
	t.nextSeq++
	e := entry{seq: t.nextSeq, matches: matches, handle: handle}
	t.entries = append(t.entries, e)
	records := make([]Record, len(t.records))
	copy(records, t.records)
	t.mu.Unlock()

	want := t.replay == ReplayMatching
	for i := len(records) - 1; i >= 0; i-- {
		if t.matches(e, records[i]) != want {
			continue
		}
		t.handle(e, records[i])
		if initializeOnce {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { t.unsubscribe(e.seq) })
	}
}

func (t *Tracker) unsubscribe(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for idx, e := range t.entries {
		if e.seq == seq {
			t.entries = append(t.entries[:idx:idx], t.entries[idx+1:]...)
			return
		}
	}
}

// Len returns the number of registered matchers.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reset clears matchers and the log.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.records = nil
}

// matches evaluates a predicate; a panicking predicate counts as no match.
func (t *Tracker) matches(e entry, rec Record) (ok bool) {
	defer errors.RecoverWithCallback(t.site(e), func(any) {
		t.metrics.MountFailure()
		ok = false
	})
	return e.matches != nil && e.matches(rec.Tree, rec.Container)
}

func (t *Tracker) handle(e entry, rec Record) {
	defer errors.RecoverWithCallback(t.site(e), func(any) { t.metrics.MountFailure() })
	if e.handle != nil {
		e.handle(rec.Tree, rec.Container)
	}
}

func (t *Tracker) site(e entry) errors.HookError {
	return errors.HookError{Op: "mount.Observe", Kind: errors.KindMount, Matcher: e.seq, Session: t.session}
}
