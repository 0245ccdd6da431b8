package testing

import (
	"fmt"
)

// Finder locates units in the mounted tree.
type Finder interface {
	// Evaluate returns the matching units, preserving order.
	Evaluate(units []*Unit) []*Unit
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	units  []*Unit
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *Unit {
	if len(r.units) == 0 {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder found no units: %s", desc))
	}
	return r.units[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *Unit {
	if len(r.units) == 0 {
		return nil
	}
	return r.units[0]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*Unit {
	return r.units
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.units)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.units) > 0
}

// ByName finds units of the component with the given name.
func ByName(name string) Finder {
	return byPredicate{
		fn:   func(u *Unit) bool { return u.Name() == name },
		desc: fmt.Sprintf("ByName(%q)", name),
	}
}

// ByComponent finds units of comp.
func ByComponent(comp *Component) Finder {
	return byPredicate{
		fn:   func(u *Unit) bool { return u.component == comp },
		desc: fmt.Sprintf("ByComponent(%s)", comp.Name),
	}
}

// ByPredicate finds units matching fn.
func ByPredicate(fn func(*Unit) bool) Finder {
	return byPredicate{fn: fn, desc: "ByPredicate"}
}

type byPredicate struct {
	fn   func(*Unit) bool
	desc string
}

func (f byPredicate) Evaluate(units []*Unit) []*Unit {
	var out []*Unit
	for _, u := range units {
		if f.fn(u) {
			out = append(out, u)
		}
	}
	return out
}

func (f byPredicate) Description() string { return f.desc }

// descendantFinder finds units matching 'matching' whose ancestors include a
// unit matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(units []*Unit) []*Unit {
	ancestors := f.of.Evaluate(units)
	if len(ancestors) == 0 {
		return nil
	}
	set := make(map[*Unit]bool, len(ancestors))
	for _, a := range ancestors {
		set[a] = true
	}
	var out []*Unit
	for _, u := range f.matching.Evaluate(units) {
		for p := u.parent; p != nil; p = p.parent {
			if set[p] {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches units satisfying 'matching'
// that are descendants of units matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}
