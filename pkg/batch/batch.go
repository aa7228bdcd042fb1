// Package batch runs the reconciler over every selected project.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bcgov/mmti-sync/pkg/metrics"
	"github.com/bcgov/mmti-sync/pkg/records"
	"github.com/bcgov/mmti-sync/pkg/reconcile"
	"github.com/bcgov/mmti-sync/pkg/storage"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Reconciler is what Run drives for each project.
type Reconciler interface {
	ReconcileProject(ctx context.Context, project records.Project) (*reconcile.ProjectResult, error)
}

// Config holds everything Run needs.
type Config struct {
	Store      storage.Store
	Reconciler Reconciler
	// ProjectCode limits the run to one project. Empty means all.
	ProjectCode string
	// Concurrency bounds the number of projects in flight. <= 0 is
	// unbounded.
	Concurrency int

	RunID   string            // optional; a UUID is generated when empty
	Log     Logger            // optional; nil = no logging
	Metrics *metrics.Recorder // optional

	// OnProjectDone is called from worker goroutines once per project.
	OnProjectDone func(ProjectOutcome)
}

// ProjectOutcome is the result of one project's pipeline.
type ProjectOutcome struct {
	Project  records.Project
	Result   *reconcile.ProjectResult
	Err      error
	Duration time.Duration
}

// Result holds the outcome of a whole run.
type Result struct {
	RunID     string
	Outcomes  []ProjectOutcome // in project order
	Succeeded int
	Failed    int
}

// Errors returns the per-project failures.
func (r *Result) Errors() []error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Project.Code, o.Err))
		}
	}
	return errs
}

// Run lists the selected projects and reconciles them concurrently. A
// project's failure is attached to its outcome and never stops the
// others. The returned error is reserved for failures of the run itself.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	result := &Result{RunID: cfg.RunID}
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}

	projects, err := cfg.Store.ListProjects(ctx, cfg.ProjectCode)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if cfg.ProjectCode != "" && len(projects) == 0 {
		log.Warnf("No project with code %q", cfg.ProjectCode)
	}
	log.Infof("Reconciling %d project(s), run %s", len(projects), result.RunID)

	result.Outcomes = make([]ProjectOutcome, len(projects))

	// The group's context is not used: a failing project must not cancel
	// its siblings, so workers never return an error.
	var g errgroup.Group
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	var mu sync.Mutex
	for i, p := range projects {
		i, p := i, p // per-iteration copies (module targets go 1.21 loop semantics)
		g.Go(func() error {
			start := time.Now()
			res, err := cfg.Reconciler.ReconcileProject(ctx, p)
			outcome := ProjectOutcome{Project: p, Result: res, Err: err, Duration: time.Since(start)}
			if err != nil {
				log.Errorf("Project %s failed: %v", p.Code, err)
			} else {
				log.Debugf("Project %s done in %s", p.Code, outcome.Duration)
			}

			mu.Lock()
			result.Outcomes[i] = outcome
			if err != nil {
				result.Failed++
			} else {
				result.Succeeded++
			}
			mu.Unlock()

			cfg.Metrics.ObserveProject(res, err)
			if cfg.OnProjectDone != nil {
				cfg.OnProjectDone(outcome)
			}
			return nil
		})
	}
	_ = g.Wait()

	cfg.Metrics.MarkRun(time.Now())
	log.Infof("Run %s finished: %d succeeded, %d failed", result.RunID, result.Succeeded, result.Failed)
	return result, nil
}
