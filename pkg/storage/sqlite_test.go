package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcgov/mmti-sync/pkg/records"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func seedProjects(t *testing.T, s Store, projects ...map[string]interface{}) {
	t.Helper()
	docs := make([]interface{}, 0, len(projects))
	for _, p := range projects {
		docs = append(docs, p)
	}
	_, err := s.InsertMany(context.Background(), Projects, docs)
	require.NoError(t, err)
}

func TestListProjectsSortedAndSingle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedProjects(t, s,
		map[string]interface{}{"_id": "p3", "code": "red-chris", "name": "Red Chris"},
		map[string]interface{}{"code": "brule", "name": "Brule", "memPermitID": "C-1"},
		map[string]interface{}{"_id": "p2", "code": "myra-falls", "name": "Myra Falls"},
	)

	all, err := s.ListProjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"brule", "myra-falls", "red-chris"}, []string{all[0].Code, all[1].Code, all[2].Code})
	require.NotEmpty(t, all[0].ID, "row id used when _id is missing")
	require.Empty(t, all[0].MemPermitID, "projection loads code and name only")
	require.Equal(t, "p2", all[1].ID)

	one, err := s.ListProjects(ctx, "myra-falls")
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, "Myra Falls", one[0].Name)

	none, err := s.ListProjects(ctx, "nope")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestInsertFindDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	docs := []interface{}{
		records.Authorization{ProjectCode: "brule", AgencyCode: "MEM", DocumentName: "a"},
		records.Authorization{ProjectCode: "brule", AgencyCode: "EAO", DocumentName: "b"},
		records.Authorization{ProjectCode: "brule", AgencyCode: "", ImportSource: records.SourceMEM, DocumentName: "c"},
		records.Authorization{ProjectCode: "other", AgencyCode: "MEM", DocumentName: "d"},
	}
	n, err := s.InsertMany(ctx, Authorizations, docs)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	var found []records.Authorization
	require.NoError(t, s.Find(ctx, Authorizations, Filter{ProjectCode: "brule"}, &found))
	require.Len(t, found, 3)
	require.Equal(t, "a", found[0].DocumentName)

	deleted, err := s.DeleteMany(ctx, Authorizations, Filter{
		ProjectCode: "brule",
		AnyOf: []Cond{
			Eq("agencyCode", "MEM"),
			Eq("agencyCode", "ENV"),
			Eq("importSource", records.SourceMEM),
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	found = nil
	require.NoError(t, s.Find(ctx, Authorizations, Filter{}, &found))
	require.Len(t, found, 2)
	require.Equal(t, "b", found[0].DocumentName)
	require.Equal(t, "d", found[1].DocumentName)
}

func TestDeleteContains(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.InsertMany(ctx, Inspections, []interface{}{
		records.Inspection{ProjectCode: "brule", InspectionName: "EMPR-1 (Ministry of Energy, Mines and Petroleum Resources)"},
		records.Inspection{ProjectCode: "brule", InspectionName: "ENV-2 (Ministry of Environment)"},
		records.Inspection{ProjectCode: "brule", InspectionName: "EAO- (Environmental Assessment Office)"},
		records.Inspection{ProjectCode: "brule", InspectionName: "local"},
	})
	require.NoError(t, err)

	deleted, err := s.DeleteMany(ctx, Inspections, Filter{
		ProjectCode: "brule",
		AnyOf:       []Cond{Contains("inspectionName", "MEM"), Contains("inspectionName", "EMPR"), Contains("inspectionName", "ENV")},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	counts, err := s.CountByProject(ctx, Inspections)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"brule": 2}, counts)
}

func TestFindEmpty(t *testing.T) {
	s := openTestStore(t)
	var found []records.OtherDocument
	require.NoError(t, s.Find(context.Background(), OtherDocuments, Filter{ProjectCode: "x"}, &found))
	require.Empty(t, found)
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedProjects(t, s, map[string]interface{}{"code": "brule", "name": "Brule"})

	ok, err := s.UpdateProject(ctx, "brule", map[string]interface{}{"name": "Brule Mine", "memPermitID": "C-799"})
	require.NoError(t, err)
	require.True(t, ok)

	var raw []map[string]interface{}
	require.NoError(t, s.Find(ctx, Projects, Filter{ProjectCode: "brule"}, &raw))
	require.Len(t, raw, 1)
	require.Equal(t, "Brule Mine", raw[0]["name"])
	require.Equal(t, "C-799", raw[0]["memPermitID"])

	ok, err = s.UpdateProject(ctx, "missing", map[string]interface{}{"name": "x"})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.UpdateProject(ctx, "brule", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateProjectCodeChange(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedProjects(t, s, map[string]interface{}{"code": "old", "name": "Old"})

	ok, err := s.UpdateProject(ctx, "old", map[string]interface{}{"code": "new"})
	require.NoError(t, err)
	require.True(t, ok)

	projects, err := s.ListProjects(ctx, "new")
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "postgres://localhost/db")
	require.True(t, errors.Is(err, ErrUnsupportedURI))

	_, err = Open(context.Background(), "sqlite://")
	require.True(t, errors.Is(err, ErrUnsupportedURI))
}

func TestOpenSQLiteURI(t *testing.T) {
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "x.sqlite"))
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))
}
