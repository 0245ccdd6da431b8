// Package metrics exposes Prometheus collectors for interception activity.
//
// A nil *Collector is valid: every recording method is a no-op on it, so
// interceptors can record unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "hookwire"

// Update origins used as the origin label.
const (
	OriginSite    = "site"
	OriginMatcher = "matcher"
)

// Collector holds the hookwire collectors.
type Collector struct {
	elementIntercepts *prometheus.CounterVec
	elementFailures   prometheus.Counter
	stateInstances    prometheus.Gauge
	stateUpdates      *prometheus.CounterVec
	stateNoops        prometheus.Counter
	stateRemovals     prometheus.Counter
	mountRecords      prometheus.Counter
	mountFailures     prometheus.Counter

	registered bool
}

// New creates a collector whose metric names are prefixed with namespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		elementIntercepts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "element",
			Name:      "intercepts_total",
			Help:      "Element construction calls seen by the interceptor, by outcome.",
		}, []string{"outcome"}),
		elementFailures: newCounter(namespace, "element", "transform_failures_total",
			"Element matchers that panicked and were isolated."),
		stateInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "instances",
			Help:      "Live state instances in the registry.",
		}),
		stateUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "updates_total",
			Help:      "State transitions that ran the matcher chain, by origin.",
		}, []string{"origin"}),
		stateNoops: newCounter(namespace, "state", "noop_updates_total",
			"Public setter calls short-circuited by value equality."),
		stateRemovals: newCounter(namespace, "state", "removals_total",
			"State instances torn down by the host."),
		mountRecords: newCounter(namespace, "mount", "records_total",
			"Distinct (tree, container) pairs recorded."),
		mountFailures: newCounter(namespace, "mount", "handler_failures_total",
			"Mount matchers that panicked and were isolated."),
	}
}

func newCounter(namespace, subsystem, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

// Register registers every collector with reg. Registering twice is a no-op.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if c == nil || c.registered {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, col := range c.collectors() {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	c.registered = true
	return nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.elementIntercepts,
		c.elementFailures,
		c.stateInstances,
		c.stateUpdates,
		c.stateNoops,
		c.stateRemovals,
		c.mountRecords,
		c.mountFailures,
	}
}

// ElementIntercepted records one element construction; transformed reports
// whether a matcher supplied the final value.
func (c *Collector) ElementIntercepted(transformed bool) {
	if c == nil {
		return
	}
	outcome := "passthrough"
	if transformed {
		outcome = "transformed"
	}
	c.elementIntercepts.WithLabelValues(outcome).Inc()
}

// ElementFailure records an isolated element matcher failure.
func (c *Collector) ElementFailure() {
	if c == nil {
		return
	}
	c.elementFailures.Inc()
}

// StateCreated records a new state instance.
func (c *Collector) StateCreated() {
	if c == nil {
		return
	}
	c.stateInstances.Inc()
}

// StateRemoved records a torn down state instance.
func (c *Collector) StateRemoved() {
	if c == nil {
		return
	}
	c.stateInstances.Dec()
	c.stateRemovals.Inc()
}

// StateUpdated records a transition that ran the matcher chain.
func (c *Collector) StateUpdated(origin string) {
	if c == nil {
		return
	}
	c.stateUpdates.WithLabelValues(origin).Inc()
}

// StateNoop records a setter call short-circuited by equality.
func (c *Collector) StateNoop() {
	if c == nil {
		return
	}
	c.stateNoops.Inc()
}

// MountRecorded records a new mount record.
func (c *Collector) MountRecorded() {
	if c == nil {
		return
	}
	c.mountRecords.Inc()
}

// MountFailure records an isolated mount matcher failure.
func (c *Collector) MountFailure() {
	if c == nil {
		return
	}
	c.mountFailures.Inc()
}
