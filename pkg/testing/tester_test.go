package testing

import (
	"errors"
	"testing"

	"github.com/go-drift/hookwire/pkg/host"
)

type counterHandle struct {
	set host.Setter
	ref *host.Ref
}

func counterComponent(handle *counterHandle, cleanups *int) *Component {
	return Define("Counter", func(h *Host, props host.Props) any {
		count, set := h.UseState(props["start"])
		ref := h.UseRef("token")
		h.UseEffect(func() func() {
			return func() { *cleanups++ }
		}, []any{})
		handle.set = set
		handle.ref = ref
		return h.CreateElement("span", nil, count)
	})
}

func TestPumpComponent_MountsAndRenders(t *testing.T) {
	tester := NewHostTesterWithT(t)
	handle := &counterHandle{}
	cleanups := 0
	comp := counterComponent(handle, &cleanups)

	if err := tester.PumpComponent(comp, host.Props{"start": 1}); err != nil {
		t.Fatal(err)
	}

	unit := tester.Find(ByName("Counter")).First()
	node := unit.Output().(*Node)
	if node.Type != "span" || node.Children[0] != 1 {
		t.Errorf("unexpected output %+v", node)
	}
	if unit.Renders() != 1 {
		t.Errorf("Renders() = %d, want 1", unit.Renders())
	}
	if handle.ref.Current != "token" {
		t.Errorf("ref = %v, want token", handle.ref.Current)
	}
}

func TestSetter_SchedulesRerender(t *testing.T) {
	tester := NewHostTesterWithT(t)
	handle := &counterHandle{}
	cleanups := 0
	comp := counterComponent(handle, &cleanups)
	_ = tester.PumpComponent(comp, host.Props{"start": 1})

	firstRef := handle.ref
	handle.set(host.Updater(func(v any) any { return v.(int) + 1 }))
	if !tester.Host().Owner().NeedsWork() {
		t.Fatal("setter should schedule a re-render")
	}
	if err := tester.Pump(); err != nil {
		t.Fatal(err)
	}

	unit := tester.Find(ByComponent(comp)).First()
	if got := unit.StateAt(0); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	if unit.Renders() != 2 {
		t.Errorf("Renders() = %d, want 2", unit.Renders())
	}
	if handle.ref != firstRef {
		t.Error("ref should persist across renders")
	}

	// Setting the same value does not re-render.
	handle.set(2)
	if tester.Host().Owner().NeedsWork() {
		t.Error("setting an identical value should not schedule work")
	}
}

func TestUnmount_RunsEffectCleanup(t *testing.T) {
	tester := NewHostTesterWithT(t)
	handle := &counterHandle{}
	cleanups := 0
	comp := counterComponent(handle, &cleanups)
	_ = tester.PumpComponent(comp, host.Props{"start": 0})

	handle.set(5)
	_ = tester.Pump()
	if cleanups != 0 {
		t.Fatalf("cleanup ran %d times before unmount, want 0", cleanups)
	}

	if err := tester.Unmount(); err != nil {
		t.Fatal(err)
	}
	if cleanups != 1 {
		t.Errorf("cleanup ran %d times, want 1", cleanups)
	}
	if tester.Find(ByName("Counter")).Exists() {
		t.Error("unit should be gone after unmount")
	}
}

func TestReconcile_ReplacesChangedComponent(t *testing.T) {
	tester := NewHostTesterWithT(t)
	removed := 0
	leaf := Define("Leaf", func(h *Host, _ host.Props) any {
		h.UseEffect(func() func() { return func() { removed++ } }, []any{})
		return "leaf"
	})
	other := Define("Other", func(*Host, host.Props) any { return "other" })

	var showLeaf host.Setter
	parent := Define("Parent", func(h *Host, _ host.Props) any {
		show, set := h.UseState(true)
		showLeaf = set
		if show.(bool) {
			return h.CreateElement("div", nil, h.CreateElement(leaf, nil))
		}
		return h.CreateElement("div", nil, h.CreateElement(other, nil))
	})

	_ = tester.PumpComponent(parent, nil)
	if !tester.Find(ByComponent(leaf)).Exists() {
		t.Fatal("expected Leaf to be mounted")
	}

	showLeaf(false)
	_ = tester.Pump()
	if tester.Find(ByComponent(leaf)).Exists() {
		t.Error("Leaf should be unmounted")
	}
	if !tester.Find(ByComponent(other)).Exists() {
		t.Error("Other should be mounted")
	}
	if removed != 1 {
		t.Errorf("Leaf cleanup ran %d times, want 1", removed)
	}
}

func TestSetStateAt_BypassesComponentSetter(t *testing.T) {
	tester := NewHostTesterWithT(t)
	handle := &counterHandle{}
	cleanups := 0
	_ = tester.PumpComponent(counterComponent(handle, &cleanups), host.Props{"start": 1})

	unit := tester.Find(ByName("Counter")).First()
	unit.SetStateAt(0, 9)
	_ = tester.Pump()
	if got := unit.Output().(*Node).Children[0]; got != 9 {
		t.Errorf("rendered %v, want 9", got)
	}
}

func TestPumpComponent_SettleTimeout(t *testing.T) {
	tester := NewHostTesterWithT(t)
	spinner := Define("Spinner", func(h *Host, _ host.Props) any {
		v, set := h.UseState(0)
		set(v.(int) + 1)
		return nil
	})

	err := tester.PumpComponent(spinner, nil)
	if !errors.Is(err, ErrSettleTimeout) {
		t.Fatalf("PumpComponent() = %v, want ErrSettleTimeout", err)
	}
	if err := tester.Pump(); !errors.Is(err, ErrSettleTimeout) {
		t.Errorf("Pump() = %v, want ErrSettleTimeout while the unit keeps rescheduling", err)
	}
	if got := tester.Find(ByName("Spinner")).First().Renders(); got < 2 {
		t.Errorf("Renders() = %d, want the unit to keep re-rendering", got)
	}
}

func TestFlushBuild_OnePassPerCall(t *testing.T) {
	tester := NewHostTesterWithT(t)
	spinner := Define("Spinner", func(h *Host, _ host.Props) any {
		v, set := h.UseState(0)
		set(v.(int) + 1)
		return nil
	})
	_ = tester.PumpComponent(spinner, nil)
	unit := tester.Find(ByName("Spinner")).First()

	before := unit.Renders()
	tester.Host().Owner().FlushBuild()
	if got := unit.Renders(); got != before+1 {
		t.Errorf("Renders() = %d, want %d after one flush", got, before+1)
	}
	if !tester.Host().Owner().NeedsWork() {
		t.Error("the rescheduled render should wait for the next flush")
	}
}

func TestHook_OutsideRenderPanics(t *testing.T) {
	h := NewHost()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for hook outside render")
		}
	}()
	h.UseState(0)
}

func TestFinderResult_Empty(t *testing.T) {
	tester := NewHostTesterWithT(t)
	r := tester.Find(ByName("Missing"))
	if r.Exists() || r.Count() != 0 || r.FirstOrNil() != nil {
		t.Error("expected empty result")
	}
	defer func() {
		if recover() == nil {
			t.Error("First() on empty result should panic")
		}
	}()
	r.First()
}
