package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcgov/mmti-sync/pkg/records"
)

// Outcome tags the result of a fetch.
type Outcome int

const (
	// OutcomeOK means the source answered with data.
	OutcomeOK Outcome = iota
	// OutcomeEmpty means the source answered successfully with nothing.
	OutcomeEmpty
	// OutcomeFailed means the request failed; Err says why.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Failure kinds. Match them with errors.Is.
var (
	ErrTransport = errors.New("transport failure")
	ErrNotFound  = errors.New("not found")
	ErrAuth      = errors.New("session rejected")
	ErrStatus    = errors.New("unexpected status")
	ErrParse     = errors.New("malformed response")
)

// Failure describes a failed fetch.
type Failure struct {
	Kind       error
	Code       string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s for %q", f.Kind, f.Code)
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

// ProjectFetch is the tagged result of Source.FetchProject.
type ProjectFetch struct {
	Outcome Outcome
	Project records.ExternalProject
	Err     error
}

// CollectionsFetch is the tagged result of Source.FetchCollections.
type CollectionsFetch struct {
	Outcome     Outcome
	Collections []records.ExternalCollection
	Err         error
}

// Source abstracts the external records API. Fetches never return Go
// errors: failures come back as OutcomeFailed so one bad project does not
// stop a batch.
type Source interface {
	Name() string
	FetchProject(ctx context.Context, code string) ProjectFetch
	FetchCollections(ctx context.Context, code string) CollectionsFetch
}
