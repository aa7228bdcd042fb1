package mem

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcgov/mmti-sync/pkg/sources"
)

const collectionsJSON = `[
  {
    "type": "Permit",
    "displayName": "Permit C-123",
    "date": "2016-02-01T00:00:00.000Z",
    "isForMEM": true,
    "isForENV": false,
    "mainDocument": {"document": {"_id": "d1", "displayName": "Permit", "date": "2016-02-01"}},
    "otherDocuments": [
      {"document": {"_id": "d2", "displayName": "Schedule A"}},
      null,
      {"document": null}
    ]
  },
  {
    "type": "Inspection Report",
    "parentType": "Compliance and Enforcement",
    "displayName": "12345",
    "status": "Closed"
  }
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/api", SessionID: "tok"})
}

func TestFetchCollections(t *testing.T) {
	var gotPath, gotCookie string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(collectionsJSON))
	})

	res := c.FetchCollections(context.Background(), "brule")

	require.Equal(t, sources.OutcomeOK, res.Outcome)
	require.NoError(t, res.Err)
	require.Equal(t, "/api/collections/project/brule-dillon", gotPath, "local code must be mapped")
	require.Equal(t, "sessionId=tok", gotCookie)
	require.Len(t, res.Collections, 2)

	permit := res.Collections[0]
	require.Equal(t, "Permit", permit.Type)
	require.True(t, permit.IsForMEM)
	require.False(t, permit.IsForENV)
	require.NotNil(t, permit.MainDocument)
	require.Equal(t, "d1", permit.MainDocument.Document.ID)
	require.Len(t, permit.OtherDocuments, 3)
	require.Equal(t, "Schedule A", permit.OtherDocuments[0].Document.DisplayName)
	require.Nil(t, permit.OtherDocuments[1])
	require.NotNil(t, permit.OtherDocuments[2])
	require.Nil(t, permit.OtherDocuments[2].Document)

	inspection := res.Collections[1]
	require.Equal(t, "Compliance and Enforcement", inspection.ParentType)
	require.Equal(t, "Closed", inspection.Status)
	require.Nil(t, inspection.MainDocument)
	require.Empty(t, inspection.OtherDocuments)
}

func TestFetchCollectionsEmpty(t *testing.T) {
	for _, body := range []string{"", "  ", "[]", "null"} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		res := c.FetchCollections(context.Background(), "x")
		require.Equal(t, sources.OutcomeEmpty, res.Outcome, "body %q", body)
		require.Empty(t, res.Collections)
	}
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		ctype   string
		body    string
		kind    error
		project bool
	}{
		{"unauthorized", http.StatusUnauthorized, "", "", sources.ErrAuth, false},
		{"forbidden", http.StatusForbidden, "", "", sources.ErrAuth, true},
		{"not found", http.StatusNotFound, "", "", sources.ErrNotFound, true},
		{"server error", http.StatusInternalServerError, "", "oops", sources.ErrStatus, false},
		{"bad json", http.StatusOK, "application/json", "[{", sources.ErrParse, false},
		{"object instead of array", http.StatusOK, "application/json", `{"a":1}`, sources.ErrParse, false},
		{"array instead of object", http.StatusOK, "application/json", `[1]`, sources.ErrParse, true},
		{"login page", http.StatusOK, "text/html", `<html><title>Login</title><input type="password"></html>`, sources.ErrAuth, true},
		{"other html", http.StatusOK, "text/html", `<html><title>Maintenance</title></html>`, sources.ErrParse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.ctype != "" {
					w.Header().Set("Content-Type", tt.ctype)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			var outcome sources.Outcome
			var err error
			if tt.project {
				res := c.FetchProject(context.Background(), "x")
				outcome, err = res.Outcome, res.Err
			} else {
				res := c.FetchCollections(context.Background(), "x")
				outcome, err = res.Outcome, res.Err
				require.Empty(t, res.Collections)
			}

			require.Equal(t, sources.OutcomeFailed, outcome)
			require.True(t, errors.Is(err, tt.kind), "expected %v, got %v", tt.kind, err)
		})
	}
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: base, SessionID: "tok"})
	res := c.FetchProject(context.Background(), "x")
	require.Equal(t, sources.OutcomeFailed, res.Outcome)
	require.ErrorIs(t, res.Err, sources.ErrTransport)
}

func TestFetchProject(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"code":"copper-mountain-similco","name":"Copper Mountain","memPermitID":"M-29"}`))
	})

	res := c.FetchProject(context.Background(), "copper-mountain")
	require.Equal(t, sources.OutcomeOK, res.Outcome)
	require.Equal(t, "/api/project/bycode/copper-mountain-similco", gotPath)
	require.Equal(t, "M-29", res.Project.MemPermitID)
	require.Equal(t, "Copper Mountain", res.Project.Name)
}

func TestFetchProjectEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})
	res := c.FetchProject(context.Background(), "x")
	require.Equal(t, sources.OutcomeEmpty, res.Outcome)
	require.NoError(t, res.Err)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Options{})
	require.Equal(t, DefaultBaseURL, c.DocumentBase())
	require.Equal(t, "mem", c.Name())
}
