package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/storage/memory"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

func newTestHandlers(t *testing.T, capacity int) (*Handlers, *storage.Store) {
	t.Helper()
	store := storage.NewStore(memory.New(), capacity)
	h := New(store, Settings{
		APIBaseURL: "http://localhost:3000",
		Defaults:   types.BuiltinDefaults(),
		LogBackend: "memory",
	}, time.Now())
	return h, store
}

func call(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestConfig(t *testing.T) {
	h, _ := newTestHandlers(t, 10)

	rec := call(h.Config, http.MethodGet, "/api/admin/config")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"API_BASE_URL": "http://localhost:3000",
		"DEFAULT_PARAMS": {
			"negative_prompt": "blurry, low quality, distorted faces, poor lighting, extra limbs, deformed, ugly, bad anatomy",
			"style_preset": "neon-punk",
			"aspect_ratio": "16:9",
			"output_format": "png",
			"seed": 0
		}
	}`, rec.Body.String())
}

func TestStats(t *testing.T) {
	h, store := newTestHandlers(t, 10)
	ctx := context.Background()

	rec := call(h.Stats, http.MethodGet, "/api/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalGenerations":0,"totalErrors":0,"lastGeneration":null,"lastError":null}`, rec.Body.String())

	require.NoError(t, store.Append(ctx, storage.StreamGenerations, map[string]any{"id": "g1"}))
	require.NoError(t, store.Append(ctx, storage.StreamGenerations, map[string]any{"id": "g2"}))
	require.NoError(t, store.Append(ctx, storage.StreamErrors, map[string]any{"id": "e1"}))

	rec = call(h.Stats, http.MethodGet, "/api/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalGenerations":2,"totalErrors":1,"lastGeneration":{"id":"g2"},"lastError":{"id":"e1"}}`, rec.Body.String())
}

func TestListStreams(t *testing.T) {
	h, store := newTestHandlers(t, 150)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		require.NoError(t, store.Append(ctx, storage.StreamGenerations, map[string]any{"n": i}))
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
		wantLen int
	}{
		{"default limit", h.Generations, "/api/admin/generations", DefaultLimit},
		{"explicit limit", h.Generations, "/api/admin/generations?limit=5", 5},
		{"limit above stored", h.Generations, "/api/admin/generations?limit=140", 120},
		{"empty errors", h.Errors, "/api/admin/errors", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(tt.handler, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)

			var records []map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
			assert.Len(t, records, tt.wantLen)
			assert.NotNil(t, records)
			if tt.wantLen > 0 {
				assert.Equal(t, float64(119), records[0]["n"])
			}
		})
	}

	rec := call(h.Generations, http.MethodGet, "/api/admin/generations?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(h.Generations, http.MethodGet, "/api/admin/generations?limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLimitCappedAtCapacity(t *testing.T) {
	h, _ := newTestHandlers(t, 3)
	limit, err := h.parseLimit(httptest.NewRequest(http.MethodGet, "/api/admin/errors?limit=50", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, limit)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandlers(t, 10)

	for name, handler := range map[string]http.HandlerFunc{
		"config":      h.Config,
		"stats":       h.Stats,
		"errors":      h.Errors,
		"generations": h.Generations,
	} {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			rec := call(handler, method, "/api/admin/"+name)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, fmt.Sprintf("%s %s", method, name))
			assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
		}
	}
}

type brokenBackend struct{}

var errDown = errors.New("down")

func (brokenBackend) Push(context.Context, string, []byte, int) error       { return errDown }
func (brokenBackend) Range(context.Context, string, int) ([][]byte, error) { return nil, errDown }
func (brokenBackend) Len(context.Context, string) (int, error)             { return 0, errDown }
func (brokenBackend) Ping(context.Context) error                           { return errDown }
func (brokenBackend) Close() error                                         { return nil }

func TestReadFailures(t *testing.T) {
	h := New(storage.NewStore(brokenBackend{}, 10), Settings{}, time.Now())

	rec := call(h.Errors, http.MethodGet, "/api/admin/errors")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to read errors log"}`, rec.Body.String())

	rec = call(h.Generations, http.MethodGet, "/api/admin/generations")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to read generations log"}`, rec.Body.String())

	rec = call(h.Stats, http.MethodGet, "/api/admin/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = call(h.AdminHealth, http.MethodGet, "/api/admin/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestAdminInfo(t *testing.T) {
	h, _ := newTestHandlers(t, 10)
	h.CacheStats = func() map[string]any { return map[string]any{"enabled": false} }

	rec := call(h.AdminInfo, http.MethodGet, "/api/admin/info")
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "memory", info["log_store"])
	assert.Equal(t, float64(10), info["log_capacity"])
	assert.Equal(t, map[string]any{"enabled": false}, info["image_cache"])
}
