package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gathered sums every sample of the named family, optionally filtered by a
// label value.
func gathered(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() = %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && !hasLabel(m, label, value) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
	}
	return total
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ElementIntercepted(true)
	c.ElementFailure()
	c.StateCreated()
	c.StateRemoved()
	c.StateUpdated(OriginSite)
	c.StateNoop()
	c.MountRecorded()
	c.MountFailure()
	if err := c.Register(prometheus.NewRegistry()); err != nil {
		t.Errorf("Register on nil collector = %v, want nil", err)
	}
}

func TestCollectorCounts(t *testing.T) {
	c := New("")
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("Register() = %v", err)
	}
	if err := c.Register(reg); err != nil {
		t.Fatalf("second Register() = %v, want nil", err)
	}

	c.ElementIntercepted(true)
	c.ElementIntercepted(false)
	c.ElementIntercepted(false)
	c.StateCreated()
	c.StateCreated()
	c.StateRemoved()
	c.StateUpdated(OriginSite)
	c.StateUpdated(OriginMatcher)
	c.StateUpdated(OriginMatcher)
	c.MountRecorded()

	if got := gathered(t, reg, "hookwire_element_intercepts_total", "outcome", "passthrough"); got != 2 {
		t.Errorf("passthrough intercepts = %v, want 2", got)
	}
	if got := gathered(t, reg, "hookwire_state_instances", "", ""); got != 1 {
		t.Errorf("instances gauge = %v, want 1", got)
	}
	if got := gathered(t, reg, "hookwire_state_updates_total", "origin", OriginMatcher); got != 2 {
		t.Errorf("matcher updates = %v, want 2", got)
	}
	if got := gathered(t, reg, "hookwire_mount_records_total", "", ""); got != 1 {
		t.Errorf("mount records = %v, want 1", got)
	}
	if got := gathered(t, reg, "hookwire_state_removals_total", "", ""); got != 1 {
		t.Errorf("removals = %v, want 1", got)
	}
}
