package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"github.com/mandalnilabja/pixelrelay/internal/provider"
	"github.com/mandalnilabja/pixelrelay/internal/relay"
	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/storage/memory"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/admin"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/imageproxy"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware/ratelimit"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

type upload struct {
	key         string
	contentType string
	data        []byte
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []upload
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{key: key, contentType: contentType, data: data})
	return "https://cdn.example.com/" + key, nil
}

type testEnv struct {
	router   http.Handler
	store    *storage.Store
	uploader *fakeUploader
	upstream *httptest.Server
	images   *httptest.Server
	received chan types.GenerationPayload
}

func sourcePNG(t *testing.T) (image.Image, []byte) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: 120, B: uint8(y * 30), A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return img, buf.Bytes()
}

func newTestEnv(t *testing.T, opts *RouterOptions) *testEnv {
	t.Helper()
	_, pngData := sourcePNG(t)

	env := &testEnv{
		uploader: &fakeUploader{},
		received: make(chan types.GenerationPayload, 4),
	}

	env.images = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngData)
	}))
	t.Cleanup(env.images.Close)

	env.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p types.GenerationPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		env.received <- p
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"direct_url": env.images.URL + "/img.png",
		})
	}))
	t.Cleanup(env.upstream.Close)

	env.store = storage.NewStore(memory.New(), 50)
	t.Cleanup(func() { _ = env.store.Close() })

	proxy, err := imageproxy.New(imageproxy.Options{})
	require.NoError(t, err)
	t.Cleanup(proxy.Close)

	repo := handler.NewRepo(handler.Deps{
		Generator:  provider.NewClient(env.upstream.URL),
		Relay:      relay.New(env.uploader),
		Store:      env.store,
		ImageProxy: proxy,
		Defaults:   types.BuiltinDefaults(),
		Settings:   admin.Settings{LogBackend: "memory", RelayEnabled: true},
		Port:       "3000",
	})
	env.router = NewRouter(repo, opts)
	return env
}

func (e *testEnv) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGenerateEndToEndWebP(t *testing.T) {
	env := newTestEnv(t, nil)
	src, _ := sourcePNG(t)

	rec := env.do(http.MethodPost, "/api/generate",
		`{"video_description":"a red fox in snow","output_format":"webp"}`,
		map[string]string{"Content-Type": "application/json", "User-Agent": "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)

	require.Len(t, env.uploader.uploads, 1)
	up := env.uploader.uploads[0]
	assert.True(t, strings.HasSuffix(up.key, ".webp"), up.key)
	assert.Equal(t, "image/webp", up.contentType)

	newURL := "https://cdn.example.com/" + up.key
	assert.Equal(t, true, body["success"])
	assert.Equal(t, newURL, body["direct_url"])
	assert.Equal(t, newURL, body["image_url"])

	// Lossless: every pixel survives the transcode.
	got, err := webp.Decode(bytes.NewReader(up.data))
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), got.Bounds())
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r1, g1, b1, a1 := src.At(x, y).RGBA()
			r2, g2, b2, a2 := got.At(x, y).RGBA()
			assert.Equal(t, [4]uint32{r1, g1, b1, a1}, [4]uint32{r2, g2, b2, a2}, "pixel %d,%d", x, y)
		}
	}

	// Defaults were applied before forwarding.
	forwarded := <-env.received
	defaults := types.BuiltinDefaults()
	assert.Equal(t, "a red fox in snow", forwarded.Prompt)
	assert.Equal(t, defaults.NegativePrompt, forwarded.NegativePrompt)
	assert.Equal(t, defaults.StylePreset, forwarded.StylePreset)
	assert.Equal(t, defaults.AspectRatio, forwarded.AspectRatio)
	assert.Equal(t, "webp", forwarded.OutputFormat)

	ctx := context.Background()
	n, err := env.store.Count(ctx, storage.StreamGenerations)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = env.store.Count(ctx, storage.StreamErrors)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := env.store.Recent(ctx, storage.StreamGenerations, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0]["success"])
	assert.Equal(t, newURL, entries[0]["image_url"])
	assert.Equal(t, "a red fox in snow", entries[0]["prompt"])
	assert.Equal(t, "mobile", entries[0]["deviceType"])

	hist := decode(t, env.do(http.MethodGet, "/api/user-history", "", nil))
	items, ok := hist["history"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, newURL, items[0].(map[string]any)["image_url"])
}

func TestRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is running on port 3000", decode(t, rec)["message"])

	rec = env.do(http.MethodGet, "/api/generate", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", decode(t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/generate", `{"video_description":"  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodOptions, "/api/generate", "", map[string]string{"Access-Control-Request-Method": "POST"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = env.do(http.MethodGet, "/api/proxy-image", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/proxy-image?url="+env.images.URL+"/img.png", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = env.do(http.MethodGet, "/api/download-image?url="+env.images.URL+"/img.png", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = env.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route /api/nope not found", decode(t, rec)["message"])

	rec = env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pixelrelay", decode(t, rec)["name"])

	rec = env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/admin/stats", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestWebUIRoutes(t *testing.T) {
	env := newTestEnv(t, &RouterOptions{EnableWebUI: true})

	rec := env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/app.js")

	rec = env.do(http.MethodGet, "/static/app.css", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesRequirePassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret", &auth.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	require.NoError(t, err)
	env := newTestEnv(t, &RouterOptions{AdminPasswordHash: hash})

	for _, path := range []string{"/api/admin/config", "/api/admin/stats", "/api/admin/errors", "/api/admin/generations", "/api/admin/health", "/api/admin/info"} {
		rec := env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := env.do(http.MethodGet, "/api/admin/generations", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/admin/generations", "", map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	// Public routes stay open.
	rec = env.do(http.MethodGet, "/api/user-history", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAttemptsAreRateLimited(t *testing.T) {
	hash, err := auth.HashPassword("s3cret", &auth.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	require.NoError(t, err)
	env := newTestEnv(t, &RouterOptions{AdminPasswordHash: hash})

	bad := map[string]string{"Authorization": "Bearer wrong"}
	for i := 0; i < AdminAuthRateLimit; i++ {
		rec := env.do(http.MethodGet, "/api/admin/stats", "", bad)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i)
	}

	rec := env.do(http.MethodGet, "/api/admin/stats", "", bad)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Generation is limited separately and stays open.
	rec = env.do(http.MethodPost, "/api/generate", `{"video_description":"a lighthouse"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOpenWithoutPasswordIsNotLimited(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i <= AdminAuthRateLimit; i++ {
		rec := env.do(http.MethodGet, "/api/admin/config", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestGenerateRateLimit(t *testing.T) {
	env := newTestEnv(t, &RouterOptions{GenerateLimiter: ratelimit.New(1)})
	body := `{"video_description":"a lighthouse"}`

	rec := env.do(http.MethodPost, "/api/generate", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/generate", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// History is not throttled.
	rec = env.do(http.MethodGet, "/api/user-history", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
