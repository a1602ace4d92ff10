package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recordhub/server/internal/credential"
	"github.com/recordhub/server/internal/http/handlers"
	"github.com/recordhub/server/internal/metrics"
	"github.com/recordhub/server/internal/store"
)

// testAPI wires a full router against a throwaway data directory.
type testAPI struct {
	Server *httptest.Server
	Store  *store.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	hasher, err := credential.NewHasher("test-hash-key")
	require.NoError(t, err)

	router := NewRouter(
		handlers.NewUserHandler(st, hasher),
		handlers.NewTokenHandler(st, hasher),
		st,
		metrics.NewCollector(),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testAPI{Server: server, Store: st}
}

// do sends a JSON request and returns the response with its body read.
func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

// createUser registers a user and requires success.
func (a *testAPI) createUser(t *testing.T, phone, password string) {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/users", map[string]any{
		"firstName":    "Ada",
		"lastName":     "Lovelace",
		"phone":        phone,
		"password":     password,
		"tosAgreement": true,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "create user; body: %s", body)
}

// tokenResponse matches the POST /tokens response body.
type tokenResponse struct {
	ID      string `json:"id"`
	Phone   string `json:"phone"`
	Expires string `json:"expires"`
}

// createToken authenticates and returns the minted token.
func (a *testAPI) createToken(t *testing.T, phone, password string) tokenResponse {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/tokens", map[string]string{
		"phone":    phone,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "create token; body: %s", body)
	var token tokenResponse
	require.NoError(t, json.Unmarshal(body, &token))
	return token
}

func bearer(id string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + id}
}
