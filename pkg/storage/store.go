package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bcgov/mmti-sync/pkg/records"
)

var ErrUnsupportedURI = errors.New("unsupported store uri")

// Store is the document store the sync jobs read projects from and write
// records to.
type Store interface {
	// ListProjects returns projects sorted by code, limited to one project
	// when code is set. Only id, code and name are loaded.
	ListProjects(ctx context.Context, code string) ([]records.Project, error)
	// Find decodes the matching documents into out, a pointer to a slice.
	Find(ctx context.Context, coll Collection, f Filter, out interface{}) error
	InsertMany(ctx context.Context, coll Collection, docs []interface{}) (int, error)
	DeleteMany(ctx context.Context, coll Collection, f Filter) (int64, error)
	// UpdateProject sets fields on the project with the given code and
	// reports whether a project matched.
	UpdateProject(ctx context.Context, code string, fields map[string]interface{}) (bool, error)
	CountByProject(ctx context.Context, coll Collection) (map[string]int64, error)
	Close(ctx context.Context) error
}

// Open picks a backend from the uri scheme: mongodb:// and mongodb+srv://
// open MongoDB, sqlite://<path> opens a SQLite file.
func Open(ctx context.Context, uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return OpenMongo(ctx, uri)
	case strings.HasPrefix(uri, "sqlite://"):
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("%w: missing sqlite path", ErrUnsupportedURI)
		}
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
}
