package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_HandleHealth(t *testing.T) {
	handler := NewHandler(true, false, "abc123")

	rec := httptest.NewRecorder()
	handler.HandleHealth(rec, httptest.NewRequest("GET", "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status             string          `json:"status"`
		Timestamp          string          `json:"timestamp"`
		UpstreamKeyPresent bool            `json:"upstreamKeyPresent"`
		Features           map[string]bool `json:"features"`
		Version            string          `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
	assert.True(t, resp.UpstreamKeyPresent)
	assert.Equal(t, map[string]bool{"dailySync": false}, resp.Features)
	assert.Equal(t, "abc123", resp.Version)
}
