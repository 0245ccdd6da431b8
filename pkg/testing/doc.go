// Package testing provides an in-process host runtime and a tester for
// exercising hookwire against real hook semantics.
//
// # Quick Start
//
// Define a component, install a runtime against the host bindings, pump:
//
//	func TestCounter(t *testing.T) {
//	    tester := hosttest.NewHostTesterWithT(t)
//	    rt, _ := hookwire.New()
//	    if err := rt.Install(tester.Bindings()); err != nil {
//	        t.Fatal(err)
//	    }
//
//	    counter := hosttest.Define("Counter", func(h *hosttest.Host, _ host.Props) any {
//	        count, _ := h.UseState(0)
//	        return h.CreateElement("span", nil, count)
//	    })
//	    tester.PumpComponent(counter, nil)
//
//	    unit := tester.Find(hosttest.ByName("Counter")).First()
//	    _ = unit.Output()
//	}
//
// # Host model
//
// Components are called with the host and their props. Hooks are matched to
// slots by call order, exactly like the browser runtime this package stands
// in for: calls to UseState, UseRef and UseEffect must happen in the same
// order on every render. Setters schedule a re-render through a [BuildOwner];
// effects run after the render pass and their cleanups run on unmount in
// reverse order.
//
// # Snapshots
//
// CaptureSnapshot records every container, its tree and the hook slots of
// each mounted unit. Snapshots can be compared with Diff or against a golden
// file with MatchesFile; run with HOOKWIRE_UPDATE_SNAPSHOTS=1 to rewrite the
// golden files.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import hosttest "github.com/go-drift/hookwire/pkg/testing"
package testing
