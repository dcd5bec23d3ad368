package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpsbridge/vpsbridge/internal/migrations"
	"github.com/vpsbridge/vpsbridge/internal/model"
	"github.com/vpsbridge/vpsbridge/internal/provider"
	"github.com/vpsbridge/vpsbridge/internal/service/bridge"
	"github.com/vpsbridge/vpsbridge/internal/service/calllog"
	"github.com/vpsbridge/vpsbridge/internal/service/provision"
	"github.com/vpsbridge/vpsbridge/internal/service/registry"
	"github.com/vpsbridge/vpsbridge/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/v1/regions") {
			fmt.Fprint(w, `{"code": "OKAY", "data": [{"id": "us-east", "name": "US East"}]}`)
			return
		}
		fmt.Fprint(w, `{"code": "OKAY", "data": {}}`)
	}))
	t.Cleanup(upstream.Close)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrations.Migrate(db))

	providerClient, err := provider.NewClient(&provider.Config{BaseURL: upstream.URL})
	require.NoError(t, err)

	toolRegistry, err := registry.NewRegistry(providerClient, provision.NewService(providerClient, nil))
	require.NoError(t, err)

	callLogService := calllog.NewService(db)
	dispatcher := bridge.NewDispatcher(toolRegistry, callLogService, nil, nil)

	s, err := NewServer(&ServerOptions{
		Port:           "0",
		Dispatcher:     dispatcher,
		CallLogService: callLogService,
	})
	require.NoError(t, err)
	return s, db
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestMetadataEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doRequest(s, http.MethodGet, "/metadata", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var meta types.ServerMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.NotEmpty(t, meta.Version)
}

func TestListToolsEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v0/tools", "")
	require.Equal(t, http.StatusOK, w.Code)

	var tools []types.Tool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tools))
	assert.Len(t, tools, 17)
	assert.Equal(t, "list_instances", tools[0].Name)
}

func TestInvokeToolEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v0/tools/invoke",
		`{"name": "list_regions", "arguments": {}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result types.ToolInvokeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.IsError)
	assert.NotEmpty(t, result.TraceID)
}

func TestInvokeToolEndpointToolFailureIs200(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v0/tools/invoke",
		`{"name": "get_instance", "arguments": {}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result types.ToolInvokeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.True(t, result.IsError)
	assert.Equal(t, types.ErrInvalidArguments, result.Error.Kind)
}

func TestInvokeToolEndpointMalformedBody(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v0/tools/invoke", `{"name": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallsEndpoints(t *testing.T) {
	s, _ := setupTestServer(t)

	// generate two logged calls
	doRequest(s, http.MethodPost, "/api/v0/tools/invoke", `{"name": "list_regions"}`)
	doRequest(s, http.MethodPost, "/api/v0/tools/invoke", `{"name": "no_such_tool"}`)

	w := doRequest(s, http.MethodGet, "/api/v0/calls?page=1&per_page=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page types.CallPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Calls, 2)
	// newest first
	assert.Equal(t, "no_such_tool", page.Calls[0].Tool)
	assert.Equal(t, "list_regions", page.Calls[1].Tool)

	w = doRequest(s, http.MethodGet, fmt.Sprintf("/api/v0/calls/%d", page.Calls[0].ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var record types.CallRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "no_such_tool", record.Tool)
	assert.Equal(t, string(types.ErrUnknownTool), record.ErrorKind)
}

func TestGetCallNotFound(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v0/calls/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodGet, "/api/v0/calls/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCallStorageFailureIs500(t *testing.T) {
	s, db := setupTestServer(t)
	require.NoError(t, db.Migrator().DropTable(&model.ToolCall{}))

	w := doRequest(s, http.MethodGet, "/api/v0/calls/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
