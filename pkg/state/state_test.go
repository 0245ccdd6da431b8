package state

import (
	"math"
	"testing"
)

func TestSame(t *testing.T) {
	m := map[string]int{"a": 1}
	s := []int{1, 2}
	p := &struct{}{}
	type pair struct {
		A int
		B any
	}
	type record struct {
		Items []string
		Index map[string]int
		name  string
	}
	items := record{Items: []string{"a"}, Index: map[string]int{"a": 0}, name: "l"}
	var handler func()
	type withFunc struct{ On func() }

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil value", nil, 0, false},
		{"ints", 1, 1, true},
		{"different ints", 1, 2, false},
		{"different types", 1, int64(1), false},
		{"strings", "x", "x", true},
		{"nan", math.NaN(), math.NaN(), true},
		{"floats", 1.5, 1.5, true},
		{"same map", m, m, true},
		{"equal maps", map[string]int{"a": 1}, map[string]int{"a": 1}, false},
		{"same slice", s, s, true},
		{"resliced", s, s[:1], false},
		{"same pointer", p, p, true},
		{"structs", pair{A: 1}, pair{A: 1}, true},
		{"structs with slices", pair{B: []int{1}}, pair{B: []int{1}}, false},
		{"struct with slice itself", items, items, true},
		{"struct copy shares slice", items, record{Items: items.Items, Index: items.Index, name: "l"}, true},
		{"struct unexported field differs", items, record{Items: items.Items, Index: items.Index, name: "m"}, false},
		{"struct with fresh slice", items, record{Items: []string{"a"}, Index: items.Index, name: "l"}, false},
		{"interface holding slice", pair{B: s}, pair{B: s}, true},
		{"nil interface field", pair{}, pair{}, true},
		{"arrays of slices", [2][]int{s, s}, [2][]int{s, s}, true},
		{"arrays differ", [2]int{1, 2}, [2]int{1, 3}, false},
		{"nested func", withFunc{On: handler}, withFunc{On: handler}, true},
		{"funcs", func() {}, func() {}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTyped(t *testing.T) {
	m := Typed(func(v int) bool { return v > 0 }, func(v int, _ Context) int { return v * 2 })

	if m.Matches("text") {
		t.Error("typed matcher should reject other types")
	}
	if m.Matches(-1) {
		t.Error("typed matcher should apply its predicate")
	}
	if !m.Matches(3) {
		t.Error("typed matcher should accept matching ints")
	}
	if got := m.SetState(Context{Value: 3}); got != 6 {
		t.Errorf("SetState = %v, want 6", got)
	}

	all := Typed[string](nil, func(v string, _ Context) string { return v + "!" })
	if !all.Matches("") {
		t.Error("nil predicate should accept every value of the type")
	}
}

func TestOriginString(t *testing.T) {
	if OriginSite.String() != "site" || OriginMatcher.String() != "matcher" {
		t.Errorf("unexpected origin names %q %q", OriginSite, OriginMatcher)
	}
}
