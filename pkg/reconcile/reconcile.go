// Package reconcile replaces a project's imported MEM records with a fresh
// snapshot of its collections.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcgov/mmti-sync/pkg/classify"
	"github.com/bcgov/mmti-sync/pkg/records"
	"github.com/bcgov/mmti-sync/pkg/sources"
	"github.com/bcgov/mmti-sync/pkg/storage"
	"github.com/bcgov/mmti-sync/pkg/transform"
)

// ErrSourceUnavailable wraps a failed collections fetch. The project's
// stored records are left alone when it is returned.
var ErrSourceUnavailable = errors.New("source unavailable")

// Logger abstracts logging so callers can use logrus or anything with the
// same printf-style methods.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Reconciler wires a source, a transformer and a store together.
type Reconciler struct {
	Source      sources.Source
	Store       storage.Store
	Transformer transform.MEM
	Log         Logger // optional
	// DryRun fetches and transforms but leaves the store untouched.
	DryRun bool
}

// ProjectResult reports what one reconciliation did.
type ProjectResult struct {
	Code           string
	PermitRefresh  sources.Outcome
	Collections    int
	Authorizations int
	Inspections    int
	OtherDocuments int
	Deleted        map[storage.Collection]int64
	// Written holds the records each insert actually stored. A collection
	// is missing when its insert failed or never ran.
	Written map[storage.Collection]int
	DryRun  bool
	// Dropped counts fetched collections that never reached the store
	// because a store write failed.
	Dropped int
}

// Inserted is the number of records written.
func (r *ProjectResult) Inserted() int {
	return r.Authorizations + r.Inspections + r.OtherDocuments
}

// batch is the transformed snapshot of one project.
type batch struct {
	authorizations []interface{}
	inspections    []interface{}
	otherDocuments []interface{}
}

// Delete filters for records previously imported from MEM. The agency
// markers catch records written before importSource existed.
func authorizationFilter(code string) storage.Filter {
	return storage.Filter{ProjectCode: code, AnyOf: []storage.Cond{
		storage.Eq("agencyCode", transform.AgencyMEM),
		storage.Eq("agencyCode", transform.AgencyENV),
		storage.Eq("importSource", records.SourceMEM),
	}}
}

func inspectionFilter(code string) storage.Filter {
	return storage.Filter{ProjectCode: code, AnyOf: []storage.Cond{
		storage.Contains("inspectionName", "MEM"),
		storage.Contains("inspectionName", "EMPR"),
		storage.Contains("inspectionName", "ENV"),
		storage.Eq("importSource", records.SourceMEM),
	}}
}

func otherDocumentFilter(code string) storage.Filter {
	return storage.Filter{ProjectCode: code}
}

func (r *Reconciler) log() Logger {
	if r.Log == nil {
		return nopLogger{}
	}
	return r.Log
}

// ReconcileProject fetches the project's collections and replaces the
// stored records with them. The delete and insert steps are not atomic:
// a failure between them leaves the category empty until the next run.
func (r *Reconciler) ReconcileProject(ctx context.Context, project records.Project) (*ProjectResult, error) {
	log := r.log()
	result := &ProjectResult{Code: project.Code, DryRun: r.DryRun, Deleted: map[storage.Collection]int64{}, Written: map[storage.Collection]int{}}

	pf := r.Source.FetchProject(ctx, project.Code)
	result.PermitRefresh = pf.Outcome
	switch pf.Outcome {
	case sources.OutcomeOK:
		project.MemPermitID = pf.Project.MemPermitID
	case sources.OutcomeEmpty:
		log.Warnf("no %s project for %q, keeping permit id %q", r.Source.Name(), project.Code, project.MemPermitID)
	default:
		log.Warnf("could not refresh permit id for %q: %v", project.Code, pf.Err)
	}

	cf := r.Source.FetchCollections(ctx, project.Code)
	if cf.Outcome == sources.OutcomeFailed {
		return result, fmt.Errorf("%w: %w", ErrSourceUnavailable, cf.Err)
	}
	result.Collections = len(cf.Collections)

	b := r.transform(project, cf.Collections)
	result.Authorizations = len(b.authorizations)
	result.Inspections = len(b.inspections)
	result.OtherDocuments = len(b.otherDocuments)

	if r.DryRun {
		log.Infof("dry run: %q would get %d authorization(s), %d inspection(s), %d other document(s)",
			project.Code, result.Authorizations, result.Inspections, result.OtherDocuments)
		return result, nil
	}

	deletes := []struct {
		coll   storage.Collection
		filter storage.Filter
		what   string
	}{
		{storage.Authorizations, authorizationFilter(project.Code), "MEM/ENV authorizations"},
		{storage.Inspections, inspectionFilter(project.Code), "MEM/ENV inspections"},
		{storage.OtherDocuments, otherDocumentFilter(project.Code), "other documents"},
	}
	for _, d := range deletes {
		log.Debugf("removing %s for %q", d.what, project.Code)
		n, err := r.Store.DeleteMany(ctx, d.coll, d.filter)
		if err != nil {
			result.Dropped = result.Collections
			return result, err
		}
		result.Deleted[d.coll] = n
	}

	inserts := []struct {
		coll storage.Collection
		docs []interface{}
	}{
		{storage.Authorizations, b.authorizations},
		{storage.Inspections, b.inspections},
		{storage.OtherDocuments, b.otherDocuments},
	}
	written := 0
	for _, in := range inserts {
		log.Debugf("adding %d %s for %q", len(in.docs), in.coll, project.Code)
		if len(in.docs) == 0 {
			continue
		}
		if _, err := r.Store.InsertMany(ctx, in.coll, in.docs); err != nil {
			result.Dropped = result.Collections - written
			return result, err
		}
		written += len(in.docs)
		result.Written[in.coll] = len(in.docs)
	}

	return result, nil
}

func (r *Reconciler) transform(project records.Project, collections []records.ExternalCollection) batch {
	var b batch
	for _, c := range collections {
		switch classify.Classify(c, r.log()) {
		case classify.Authorizations:
			b.authorizations = append(b.authorizations, r.Transformer.Authorization(project, c))
		case classify.ComplianceAndEnforcement:
			b.inspections = append(b.inspections, r.Transformer.Inspection(project, c))
		default:
			b.otherDocuments = append(b.otherDocuments, r.Transformer.OtherDocument(project, c))
		}
	}
	return b
}
