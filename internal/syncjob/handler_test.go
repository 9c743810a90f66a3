package syncjob

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busfleet/opsproxy/internal/cache"
)

func TestHandler_SyncNow(t *testing.T) {
	gateway := &gatewayStub{results: map[string]json.RawMessage{
		"bookings-db":    json.RawMessage(`{"results":[]}`),
		"maintenance-db": json.RawMessage(`{"results":[]}`),
	}}
	job := newTestJob(true, gateway, &recordingCalendar{})

	responseCache := cache.NewResponseCache(time.Hour)
	responseCache.Put("db_X", json.RawMessage(`"stale"`))

	handler := NewHandler(job, responseCache)

	rec := httptest.NewRecorder()
	handler.HandleSyncNow(rec, httptest.NewRequest("POST", "/api/sync-now", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"sync completed"}`, rec.Body.String())
	assert.Equal(t, 2, gateway.calls())

	// the full cache clear after the run
	assert.Equal(t, 0, responseCache.Len())
}

func TestHandler_SyncNow_JobFailureIsSwallowed(t *testing.T) {
	gateway := &gatewayStub{queryErr: assert.AnError}
	job := newTestJob(true, gateway, &recordingCalendar{})
	handler := NewHandler(job, cache.NewResponseCache(time.Hour))

	rec := httptest.NewRecorder()
	handler.HandleSyncNow(rec, httptest.NewRequest("POST", "/api/sync-now", nil))

	// sync errors never surface to the caller
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"sync completed"}`, rec.Body.String())
}
