// Package metrics counts what a sync run did and writes the counters in
// the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bcgov/mmti-sync/pkg/reconcile"
	"github.com/bcgov/mmti-sync/pkg/storage"
)

// Project outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Recorder holds the run's counters on a private registry so tests and
// repeated runs never collide with the default one.
type Recorder struct {
	registry *prometheus.Registry
	projects *prometheus.CounterVec
	inserted *prometheus.CounterVec
	deleted  *prometheus.CounterVec
	dropped  prometheus.Counter
	lastRun  prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		projects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmti_sync_projects_total",
			Help: "Projects reconciled, by outcome.",
		}, []string{"outcome"}),
		inserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmti_sync_records_inserted_total",
			Help: "Records written, by collection.",
		}, []string{"collection"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmti_sync_records_deleted_total",
			Help: "Records removed before re-import, by collection.",
		}, []string{"collection"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmti_sync_collections_dropped_total",
			Help: "Fetched collections that never reached the store.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mmti_sync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.projects, r.inserted, r.deleted, r.dropped, r.lastRun)
	return r
}

// ObserveProject records one reconciliation. res may be nil when the
// project failed before anything was fetched.
func (r *Recorder) ObserveProject(res *reconcile.ProjectResult, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
	}
	r.projects.WithLabelValues(outcome).Inc()
	if res == nil || res.DryRun {
		return
	}
	// Written covers a failed project too: inserts that landed before the
	// failure stay in the store.
	for coll, n := range res.Written {
		r.ObserveInserted(coll, n)
	}
	for coll, n := range res.Deleted {
		r.deleted.WithLabelValues(string(coll)).Add(float64(n))
	}
	r.dropped.Add(float64(res.Dropped))
}

// ObserveInserted counts n records stored in coll.
func (r *Recorder) ObserveInserted(coll storage.Collection, n int) {
	if r == nil {
		return
	}
	r.inserted.WithLabelValues(string(coll)).Add(float64(n))
}

// MarkRun stamps the end of a run.
func (r *Recorder) MarkRun(t time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes every counter to path for node-exporter's textfile
// collector. The write goes through a temp file and a rename.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
