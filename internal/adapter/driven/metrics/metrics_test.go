package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/posixsync/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

func sampleSummary() model.RunSummary {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var s model.RunSummary
	s.StartedAt = start
	s.FinishedAt = start.Add(1500 * time.Millisecond)
	s.Add(model.UpdateResult{Kind: model.ResourceUser, Identifier: "a@x.com", Success: true})
	s.Add(model.UpdateResult{Kind: model.ResourceUser, Identifier: "b@x.com", Cause: model.CauseAPIError})
	s.Add(model.UpdateResult{Kind: model.ResourceGroup, Identifier: "g@x.com", Success: true})
	return s
}

func TestRecorder_ObserveRun(t *testing.T) {
	r := metrics.NewRecorder()

	r.ObserveRun(sampleSummary())

	expected := `
# HELP posixsync_updates_total Update entries processed, by resource kind and result.
# TYPE posixsync_updates_total counter
posixsync_updates_total{kind="group",result="success"} 1
posixsync_updates_total{kind="user",result="failure"} 1
posixsync_updates_total{kind="user",result="success"} 1
# HELP posixsync_update_failures_total Failed update entries by cause.
# TYPE posixsync_update_failures_total counter
posixsync_update_failures_total{cause="api_error",kind="user"} 1
# HELP posixsync_last_run_duration_seconds Wall time of the last update run.
# TYPE posixsync_last_run_duration_seconds gauge
posixsync_last_run_duration_seconds 1.5
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected),
		"posixsync_updates_total", "posixsync_update_failures_total", "posixsync_last_run_duration_seconds"))
}

func TestRecorder_InstrumentRoundTripper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	r := metrics.NewRecorder()
	client := &http.Client{Transport: r.InstrumentRoundTripper(http.DefaultTransport)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	req, err := http.NewRequest(http.MethodPatch, server.URL, nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, 2, testutil.CollectAndCount(r.Registry(), "posixsync_api_requests_total"))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := metrics.NewRecorder()
	r.ObserveRun(sampleSummary())
	path := filepath.Join(t.TempDir(), "posixsync.prom")

	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `posixsync_updates_total{kind="user",result="failure"} 1`)
	assert.Contains(t, string(data), "posixsync_last_run_timestamp_seconds 1.772355601e+09")
}

func TestRecorder_WriteTextfile_MissingDir(t *testing.T) {
	r := metrics.NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "posixsync.prom"))
	assert.Error(t, err)
}
