package testing

import (
	"errors"
	"testing"

	"github.com/go-drift/hookwire/pkg/host"
)

// ErrSettleTimeout is returned when the host keeps scheduling work after the
// pass limit.
var ErrSettleTimeout = errors.New("Pump timed out: host did not settle")

// DefaultContainer is the container PumpComponent renders into.
const DefaultContainer = "root"

// HostTester drives a Host for tests.
type HostTester struct {
	host      *Host
	container any
}

// NewHostTester creates a tester around a fresh Host.
// Call Cleanup() when done, or use NewHostTesterWithT() instead.
func NewHostTester() *HostTester {
	return &HostTester{host: NewHost(), container: DefaultContainer}
}

// NewHostTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewHostTesterWithT(t *testing.T) *HostTester {
	tester := NewHostTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts every container so pending effect cleanups run.
func (t *HostTester) Cleanup() {
	for len(t.host.order) > 0 {
		t.host.Unmount(t.host.order[0])
	}
}

// Host returns the host under test.
func (t *HostTester) Host() *Host {
	return t.host
}

// Bindings returns the host's patchable slots.
func (t *HostTester) Bindings() host.Bindings {
	return t.host.Bindings()
}

// Element builds a node through the host's CreateElement slot, so that any
// installed interception applies.
func (t *HostTester) Element(typ any, props host.Props, children ...any) any {
	return t.host.CreateElement(typ, props, children...)
}

// PumpComponent renders comp with props into the default container through
// the host's Render slot and settles the host.
func (t *HostTester) PumpComponent(comp *Component, props host.Props) error {
	return t.PumpTree(t.Element(comp, props), t.container)
}

// PumpTree renders tree into container through the host's Render slot.
func (t *HostTester) PumpTree(tree, container any) error {
	t.host.Render(tree, container)
	if err := t.host.RenderErr(); err != nil {
		return err
	}
	return t.Pump()
}

// Pump flushes pending re-renders and effects.
func (t *HostTester) Pump() error {
	return t.host.Pump()
}

// Unmount tears down the default container.
func (t *HostTester) Unmount() error {
	t.host.Unmount(t.container)
	return t.Pump()
}

// Find evaluates a finder against the mounted units.
func (t *HostTester) Find(finder Finder) FinderResult {
	return FinderResult{
		units:  finder.Evaluate(t.host.Units()),
		finder: finder,
	}
}
