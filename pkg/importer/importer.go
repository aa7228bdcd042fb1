// Package importer loads one-off JSON files into the store: EAO
// collection exports, project field updates and new projects.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/bcgov/mmti-sync/pkg/classify"
	"github.com/bcgov/mmti-sync/pkg/records"
	"github.com/bcgov/mmti-sync/pkg/storage"
	"github.com/bcgov/mmti-sync/pkg/transform"
)

// ErrNotArray is returned when an input file is not a JSON array.
var ErrNotArray = errors.New("expected a JSON array")

type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

func parseArray(data []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ErrNotArray
	}
	return root.Array(), nil
}

// EAOOptions tunes ImportEAO.
type EAOOptions struct {
	Transformer transform.EAO
	Log         Logger
	DryRun      bool
}

// EAOResult counts what ImportEAO did.
type EAOResult struct {
	Rows           int
	Authorizations int
	Inspections    int
	OtherDocuments int
	UnknownProject int
	UnknownType    int
	// Written holds the records stored per collection. It stays nil on a
	// dry run.
	Written map[storage.Collection]int
}

// ParseEAOCollection decodes one row of an EAO export.
func ParseEAOCollection(row gjson.Result) records.EAOCollection {
	c := records.EAOCollection{
		Code: row.Get("Code").String(),
		ID:   row.Get("ID").String(),
		Date: row.Get("Date").String(),
		Type: row.Get("Type").String(),
		Name: row.Get("Collection Name").String(),
	}
	for _, d := range row.Get("Documents").Array() {
		c.Documents = append(c.Documents, records.EAODocument{
			Name: d.Get("Doc Name").String(),
			URL:  d.Get("Doc URL").String(),
			Date: d.Get("Doc Date").String(),
		})
	}
	return c
}

// ImportEAO inserts the records of an EAO collections export. Rows for
// unknown projects or of unknown types are logged and skipped. Nothing is
// deleted, so running it twice duplicates the records.
func ImportEAO(ctx context.Context, store storage.Store, data []byte, opts EAOOptions) (*EAOResult, error) {
	log := orNop(opts.Log)
	rows, err := parseArray(data)
	if err != nil {
		return nil, fmt.Errorf("parse EAO export: %w", err)
	}

	projects, err := store.ListProjects(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	byCode := make(map[string]records.Project, len(projects))
	for _, p := range projects {
		byCode[p.Code] = p
	}

	res := &EAOResult{Rows: len(rows)}
	var auths, insps, others []interface{}
	for _, row := range rows {
		c := ParseEAOCollection(row)
		p, ok := byCode[c.Code]
		if !ok {
			log.Warnf("Skipping %q: no project with code %q", c.Name, c.Code)
			res.UnknownProject++
			continue
		}
		cat, ok := classify.ClassifyEAO(c.Type)
		if !ok {
			log.Warnf("Skipping %q: unknown type %q", c.Name, c.Type)
			res.UnknownType++
			continue
		}
		switch cat {
		case classify.Authorizations:
			auths = append(auths, opts.Transformer.Authorization(p, c))
		case classify.ComplianceAndEnforcement:
			insps = append(insps, opts.Transformer.Inspection(p, c))
		default:
			others = append(others, opts.Transformer.OtherDocument(p, c))
		}
	}
	res.Authorizations, res.Inspections, res.OtherDocuments = len(auths), len(insps), len(others)

	for _, in := range []struct {
		coll storage.Collection
		docs []interface{}
	}{
		{storage.Authorizations, auths},
		{storage.Inspections, insps},
		{storage.OtherDocuments, others},
	} {
		log.Infof("Adding %d %s", len(in.docs), in.coll)
		if len(in.docs) == 0 || opts.DryRun {
			continue
		}
		if _, err := store.InsertMany(ctx, in.coll, in.docs); err != nil {
			return res, err
		}
		if res.Written == nil {
			res.Written = map[storage.Collection]int{}
		}
		res.Written[in.coll] = len(in.docs)
	}
	return res, nil
}

// UpdateResult counts what ApplyProjectUpdates did.
type UpdateResult struct {
	Updated  int
	NotFound []string
	Skipped  int
}

// ApplyProjectUpdates sets every key of each element except code on the
// project with that code. Elements without a code are skipped.
func ApplyProjectUpdates(ctx context.Context, store storage.Store, data []byte, log Logger) (*UpdateResult, error) {
	log = orNop(log)
	rows, err := parseArray(data)
	if err != nil {
		return nil, fmt.Errorf("parse project updates: %w", err)
	}

	res := &UpdateResult{}
	for i, row := range rows {
		code := row.Get("code").String()
		if code == "" {
			log.Warnf("Update #%d has no project code, skipping: %s", i, row.Raw)
			res.Skipped++
			continue
		}
		fields := map[string]interface{}{}
		row.ForEach(func(k, v gjson.Result) bool {
			if k.String() != "code" {
				fields[k.String()] = v.Value()
			}
			return true
		})
		if len(fields) == 0 {
			res.Skipped++
			continue
		}
		log.Infof("Updating %s", code)
		ok, err := store.UpdateProject(ctx, code, fields)
		if err != nil {
			return res, err
		}
		if !ok {
			log.Warnf("No project with code %q", code)
			res.NotFound = append(res.NotFound, code)
			continue
		}
		res.Updated++
	}
	return res, nil
}

// ImportProjects inserts project documents as they are in the file.
func ImportProjects(ctx context.Context, store storage.Store, data []byte) (int, error) {
	rows, err := parseArray(data)
	if err != nil {
		return 0, fmt.Errorf("parse projects: %w", err)
	}
	docs := make([]interface{}, 0, len(rows))
	for i, row := range rows {
		doc, ok := row.Value().(map[string]interface{})
		if !ok || row.Get("code").String() == "" {
			return 0, fmt.Errorf("project #%d: missing code", i)
		}
		docs = append(docs, doc)
	}
	return store.InsertMany(ctx, storage.Projects, docs)
}
