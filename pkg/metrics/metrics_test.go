package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/bcgov/mmti-sync/pkg/reconcile"
	"github.com/bcgov/mmti-sync/pkg/storage"
)

func TestObserveProject(t *testing.T) {
	r := NewRecorder()
	r.ObserveProject(&reconcile.ProjectResult{
		Authorizations: 2,
		Inspections:    1,
		Deleted:        map[storage.Collection]int64{storage.Authorizations: 3},
		Written:        map[storage.Collection]int{storage.Authorizations: 2, storage.Inspections: 1},
	}, nil)
	r.ObserveProject(&reconcile.ProjectResult{Collections: 4, Dropped: 4}, errors.New("boom"))
	r.ObserveProject(nil, errors.New("listing"))
	r.ObserveProject(&reconcile.ProjectResult{
		Authorizations: 9,
		DryRun:         true,
		Written:        map[storage.Collection]int{storage.Authorizations: 9},
	}, nil)

	require.Equal(t, 2.0, testutil.ToFloat64(r.projects.WithLabelValues(OutcomeSucceeded)))
	require.Equal(t, 2.0, testutil.ToFloat64(r.projects.WithLabelValues(OutcomeFailed)))
	require.Equal(t, 2.0, testutil.ToFloat64(r.inserted.WithLabelValues("authorizations")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.inserted.WithLabelValues("inspections")))
	require.Equal(t, 3.0, testutil.ToFloat64(r.deleted.WithLabelValues("authorizations")))
	require.Equal(t, 4.0, testutil.ToFloat64(r.dropped))
}

func TestObserveProjectCountsWritesBeforeFailure(t *testing.T) {
	r := NewRecorder()
	r.ObserveProject(&reconcile.ProjectResult{
		Collections:    4,
		Authorizations: 2,
		Inspections:    1,
		OtherDocuments: 1,
		Written:        map[storage.Collection]int{storage.Authorizations: 2},
		Dropped:        2,
	}, errors.New("disk full"))

	require.Equal(t, 1.0, testutil.ToFloat64(r.projects.WithLabelValues(OutcomeFailed)))
	require.Equal(t, 2.0, testutil.ToFloat64(r.inserted.WithLabelValues("authorizations")))
	require.Equal(t, 0.0, testutil.ToFloat64(r.inserted.WithLabelValues("inspections")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.dropped))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveProject(&reconcile.ProjectResult{}, nil)
	r.ObserveInserted(storage.Inspections, 3)
	r.MarkRun(time.Now())
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveInserted(storage.OtherDocuments, 5)
	r.MarkRun(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "mmti_sync.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	require.True(t, strings.Contains(out, `mmti_sync_records_inserted_total{collection="otherdocuments"} 5`), out)
	require.True(t, strings.Contains(out, "mmti_sync_last_run_timestamp_seconds 1.7e+09"), out)
}
