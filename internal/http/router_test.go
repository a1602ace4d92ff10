package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc map[string]bool
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.True(t, doc["ok"])
}

func TestUnknownPath(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var doc map[string]string
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.NotEmpty(t, doc["error"])
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodPatch, "/users", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.NotEmpty(t, doc["error"])

	resp, _ = api.do(t, http.MethodPatch, "/tokens", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	// Generate one request, then scrape.
	resp, _ := api.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := api.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "recordhub_http_requests_total"))
}
