package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAggregates(t *testing.T) {
	m := New()

	m.ObserveHTTPRequest(http.MethodGet, "/portal", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/portal/personal-info", http.StatusSeeOther, 40*time.Millisecond)
	m.ObserveBackendCall(http.MethodGet, "School", http.StatusOK, 10*time.Millisecond)
	m.ObserveBackendCall(http.MethodGet, "School", 0, 30*time.Millisecond)
	m.ObserveBackendCall(http.MethodPost, "DegreeCert", http.StatusBadGateway, 20*time.Millisecond)

	s := m.Snapshot()
	assert.EqualValues(t, 2, s.Requests)
	assert.InDelta(t, 30, s.AvgRequestMs, 0.001)
	assert.EqualValues(t, 3, s.BackendCalls)
	assert.EqualValues(t, 2, s.BackendFailures)
	assert.InDelta(t, 20, s.AvgBackendMs, 0.001)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveBackendCall(http.MethodGet, "AcademicProgram", http.StatusOK, time.Millisecond)
	m.RecordUpload("DegreeCert", "rejected_type")
	m.RecordLockDenial("academic_delete")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `studyportal_backend_requests_total{method="GET",resource="AcademicProgram",status="200"} 1`)
	assert.Contains(t, string(body), `studyportal_document_uploads_total{outcome="rejected_type",slot="DegreeCert"} 1`)
	assert.Contains(t, string(body), `studyportal_edit_lock_denials_total{action="academic_delete"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveBackendCall(http.MethodGet, "School", http.StatusOK, time.Millisecond)
	m.RecordUpload("DegreeCert", "ok")
	assert.Equal(t, Snapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
