package mount

import (
	"slices"
	"testing"

	"github.com/go-drift/hookwire/pkg/errors"
	"github.com/go-drift/hookwire/pkg/host"
	hosttest "github.com/go-drift/hookwire/pkg/testing"
)

type tree struct{ name string }

type capturingHandler struct {
	errs []*errors.HookError
}

func (h *capturingHandler) HandleError(err *errors.HookError) { h.errs = append(h.errs, err) }

func captureErrors(t *testing.T) *capturingHandler {
	t.Helper()
	h := &capturingHandler{}
	old := errors.DefaultHandler
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(old) })
	return h
}

// installed returns a tracker patched into a recording render function.
func installed(mode ReplayMode) (*Tracker, host.RenderFunc, *[]string) {
	var rendered []string
	render := host.RenderFunc(func(tr, container any) {
		rendered = append(rendered, tr.(*tree).name)
	})
	tr := New(mode, nil, "")
	tr.Install(&render)
	return tr, render, &rendered
}

func named(names *[]string) HandleFunc {
	return func(tr, _ any) { *names = append(*names, tr.(*tree).name) }
}

func isTree(want *tree) MatchFunc {
	return func(tr, _ any) bool { return tr == want }
}

func TestRender_ForwardsAndRecords(t *testing.T) {
	tr, render, rendered := installed(ReplayNonMatching)
	a := &tree{"A"}

	render(a, "root")
	if !slices.Equal(*rendered, []string{"A"}) {
		t.Fatalf("host saw %v, want [A]", *rendered)
	}
	recs := tr.Records()
	if len(recs) != 1 || recs[0].Seq != 1 || recs[0].Tree != a || recs[0].Container != "root" {
		t.Errorf("unexpected records %+v", recs)
	}
}

func TestRender_DeduplicatesPairs(t *testing.T) {
	tr, render, rendered := installed(ReplayNonMatching)
	a, b := &tree{"A"}, &tree{"B"}

	var seen []string
	tr.Subscribe(func(any, any) bool { return true }, named(&seen), false)

	render(a, "root")
	render(a, "root")
	render(b, "root")
	render(a, "other")

	if len(*rendered) != 4 {
		t.Errorf("host rendered %d times, want 4", len(*rendered))
	}
	if got := len(tr.Records()); got != 3 {
		t.Errorf("recorded %d pairs, want 3", got)
	}
	if !slices.Equal(seen, []string{"A", "B", "A"}) {
		t.Errorf("handler saw %v, want [A B A]", seen)
	}
}

func TestRender_DispatchesOnlyToMatchingHandlers(t *testing.T) {
	tr, render, _ := installed(ReplayNonMatching)
	a, b := &tree{"A"}, &tree{"B"}

	var seen []string
	tr.Subscribe(isTree(b), named(&seen), false)
	render(a, "root")
	render(b, "root")

	if !slices.Equal(seen, []string{"B"}) {
		t.Errorf("handler saw %v, want [B]", seen)
	}
}

func TestSubscribe_ReplaysRejectedRecordsMostRecentFirst(t *testing.T) {
	tr, render, _ := installed(ReplayNonMatching)
	a, b, c := &tree{"A"}, &tree{"B"}, &tree{"C"}
	render(a, "root")
	render(b, "root")
	render(c, "root")

	var seen []string
	tr.Subscribe(isTree(b), named(&seen), false)

	if !slices.Equal(seen, []string{"C", "A"}) {
		t.Errorf("replay = %v, want [C A]", seen)
	}
}

func TestSubscribe_ReplayMatching(t *testing.T) {
	tr, render, _ := installed(ReplayMatching)
	a, b, c := &tree{"A"}, &tree{"B"}, &tree{"C"}
	render(a, "root")
	render(b, "root")
	render(c, "root")

	var seen []string
	tr.Subscribe(isTree(b), named(&seen), false)

	if !slices.Equal(seen, []string{"B"}) {
		t.Errorf("replay = %v, want [B]", seen)
	}
}

func TestSubscribe_InitializeOnce(t *testing.T) {
	tests := []struct {
		mode ReplayMode
		want []string
	}{
		{ReplayNonMatching, []string{"C"}},
		{ReplayMatching, []string{"C"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			tr, render, _ := installed(tt.mode)
			render(&tree{"A"}, "root")
			render(&tree{"B"}, "root")
			render(&tree{"C"}, "root")

			matches := func(any, any) bool { return tt.mode == ReplayMatching }
			var seen []string
			tr.Subscribe(matches, named(&seen), true)

			if !slices.Equal(seen, tt.want) {
				t.Errorf("replay = %v, want %v", seen, tt.want)
			}
		})
	}
}

func TestSubscribe_IsolatesPanics(t *testing.T) {
	captured := captureErrors(t)
	tr, render, _ := installed(ReplayNonMatching)

	tr.Subscribe(func(any, any) bool { panic("bad predicate") }, named(new([]string)), false)
	tr.Subscribe(func(any, any) bool { return true }, func(any, any) { panic("bad handler") }, false)
	var seen []string
	tr.Subscribe(func(any, any) bool { return true }, named(&seen), false)

	render(&tree{"A"}, "root")

	if !slices.Equal(seen, []string{"A"}) {
		t.Errorf("healthy handler saw %v, want [A]", seen)
	}
	if len(captured.errs) != 2 {
		t.Fatalf("reported %d errors, want 2", len(captured.errs))
	}
	for i, err := range captured.errs {
		if err.Kind != errors.KindMount {
			t.Errorf("error %d kind = %v, want mount", i, err.Kind)
		}
		if err.Matcher != uint64(i+1) {
			t.Errorf("error %d matcher = %d, want %d", i, err.Matcher, i+1)
		}
	}
}

func TestSubscribe_UnsubscribeIsIdempotent(t *testing.T) {
	tr, render, _ := installed(ReplayNonMatching)
	var first, second []string
	unsub := tr.Subscribe(func(any, any) bool { return true }, named(&first), false)
	tr.Subscribe(func(any, any) bool { return true }, named(&second), false)

	unsub()
	unsub()
	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tr.Len())
	}

	render(&tree{"A"}, "root")
	if len(first) != 0 {
		t.Errorf("removed handler saw %v", first)
	}
	if !slices.Equal(second, []string{"A"}) {
		t.Errorf("remaining handler saw %v, want [A]", second)
	}
}

func TestUninstall_KeepsLog(t *testing.T) {
	render := host.RenderFunc(func(any, any) {})
	tr := New(ReplayNonMatching, nil, "")
	tr.Install(&render)
	render(&tree{"A"}, "root")

	tr.Uninstall()
	render(&tree{"B"}, "root")

	if got := len(tr.Records()); got != 1 {
		t.Errorf("recorded %d pairs, want 1", got)
	}
}

func TestTracker_WithHost(t *testing.T) {
	tester := hosttest.NewHostTesterWithT(t)
	b := tester.Bindings()
	tr := New(ReplayNonMatching, nil, "")
	tr.Install(b.Render)
	t.Cleanup(tr.Uninstall)

	app := hosttest.Define("App", func(h *hosttest.Host, _ host.Props) any { return "app" })
	if err := tester.PumpComponent(app, nil); err != nil {
		t.Fatal(err)
	}

	recs := tr.Records()
	if len(recs) != 1 || recs[0].Container != hosttest.DefaultContainer {
		t.Fatalf("unexpected records %+v", recs)
	}
	if got := tester.Host().Tree(hosttest.DefaultContainer); got != recs[0].Tree {
		t.Error("record should hold the rendered tree")
	}
	if !tester.Find(hosttest.ByName("App")).Exists() {
		t.Error("host should still mount the tree")
	}
}
