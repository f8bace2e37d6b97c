package reconcile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for reconciliation passes.
type Metrics struct {
	registry *prometheus.Registry
	passes   prometheus.Counter
	items    *prometheus.CounterVec
	matches  *prometheus.CounterVec
	updates  *prometheus.CounterVec
	loads    prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry. Short-lived CLI
// processes export it with WriteTextfile.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storysync",
			Name:      "reconcile_passes_total",
			Help:      "Number of reconciliation passes run.",
		}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storysync",
			Name:      "reconcile_items_total",
			Help:      "Todo items seen by reconciliation, by outcome.",
		}, []string{"outcome"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storysync",
			Name:      "reconcile_matches_total",
			Help:      "Todo items paired with the previous snapshot, by match type.",
		}, []string{"type"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storysync",
			Name:      "checkbox_updates_total",
			Help:      "Checkbox writes, by resulting state.",
		}, []string{"state"}),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storysync",
			Name:      "story_loads_total",
			Help:      "Number of stories loaded into the todo list.",
		}),
	}
	reg.MustRegister(m.passes, m.items, m.matches, m.updates, m.loads)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeLoad() {
	if m == nil {
		return
	}
	m.loads.Inc()
}

func (m *Metrics) observe(r Report) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.items.WithLabelValues("processed").Add(float64(r.Processed))
	m.items.WithLabelValues("low_confidence").Add(float64(r.LowConfidence))
	m.items.WithLabelValues("identity_miss").Add(float64(r.IdentityMisses))
	m.items.WithLabelValues("locate_miss").Add(float64(r.LocateMisses))
	m.items.WithLabelValues("invalid").Add(float64(len(r.Invalid)))
	m.matches.WithLabelValues("id").Add(float64(r.MatchedID))
	m.matches.WithLabelValues("exact-content").Add(float64(r.MatchedExact))
	m.matches.WithLabelValues("similar-content").Add(float64(r.MatchedSimilar))
	m.updates.WithLabelValues("checked").Add(float64(r.Checked))
	m.updates.WithLabelValues("unchecked").Add(float64(r.Unchecked))
}

// WriteTextfile writes the current values in the node-exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
