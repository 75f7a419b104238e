package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pubmemory "github.com/JakeFAU/showcase-sync/internal/publisher/memory"
	"github.com/JakeFAU/showcase-sync/internal/showcase"
	"github.com/JakeFAU/showcase-sync/internal/storage/memory"
	"github.com/JakeFAU/showcase-sync/internal/worker"
)

type fakeBuilder struct {
	records map[int]*showcase.ProjectRecord
	errs    map[int]error
}

func (b *fakeBuilder) Build(_ context.Context, job showcase.ProjectJob) (*showcase.ProjectRecord, error) {
	if err := b.errs[job.ProjectID]; err != nil {
		return nil, err
	}
	rec, ok := b.records[job.ProjectID]
	if !ok {
		return nil, nil
	}
	out := *rec
	out.Track = job.Track
	return &out, nil
}

type schedule map[int]int

func (s schedule) Timestamp(id int) (int, bool) {
	ts, ok := s[id]
	return ts, ok
}

func (schedule) Track(int) (string, bool) { return "", false }

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeIDGen struct{}

func (fakeIDGen) NewID() (string, error) { return "run-1", nil }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	server *Server
	store  *memory.ProjectStore
}

func newTestEnv(t *testing.T, cfg Config, ready Pinger) *testEnv {
	t.Helper()
	builder := &fakeBuilder{
		records: map[int]*showcase.ProjectRecord{
			1: {ProjectID: 1, ProjectName: "Foo Bar", Slug: "foo-bar"},
		},
		errs: map[int]error{
			2: fmt.Errorf("list branches: %w", showcase.ErrTransport),
		},
	}
	store := memory.NewProjectStore()
	runner := worker.New(
		builder,
		store,
		memory.NewBlobStore(),
		pubmemory.New(),
		schedule{1: 10, 2: 20, 3: 30},
		fakeClock{now: time.Unix(100, 0)},
		fakeIDGen{},
		worker.Config{VideoURL: "https://youtube.com/watch?v=v"},
		zap.NewNop(),
	)
	handler := NewProjectHandler(builder, runner, zap.NewNop())
	return &testEnv{
		server: NewServer(handler, ready, cfg, zap.NewNop()),
		store:  store,
	}
}

func serve(t *testing.T, s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{}, nil)
	rec := serve(t, env.server, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	ok := newTestEnv(t, Config{}, fakePinger{})
	require.Equal(t, http.StatusOK, serve(t, ok.server, http.MethodGet, "/readyz", nil).Code)

	down := newTestEnv(t, Config{}, fakePinger{err: errors.New("dial tcp: refused")})
	rec := serve(t, down.server, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "database unavailable")
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{}, nil)
	serve(t, env.server, http.MethodGet, "/healthz", nil)
	rec := serve(t, env.server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_PreviewReturnsRecord(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{}, nil)
	rec := serve(t, env.server, http.MethodGet, "/v1/projects/1/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Record showcase.ProjectRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "foo-bar", body.Record.Slug)
	assert.Equal(t, showcase.DefaultTrack, body.Record.Track)
	assert.Empty(t, env.store.IDs(), "preview must not write")
}

func TestServer_PreviewErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{}, nil)
	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "malformed id", path: "/v1/projects/abc/preview", want: http.StatusBadRequest},
		{name: "non-positive id", path: "/v1/projects/0/preview", want: http.StatusBadRequest},
		{name: "no timestamp", path: "/v1/projects/9/preview", want: http.StatusNotFound},
		{name: "transport failure", path: "/v1/projects/2/preview", want: http.StatusBadGateway},
		{name: "no config", path: "/v1/projects/3/preview", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, env.server, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServer_SyncPersistsProject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{}, nil)
	rec := serve(t, env.server, http.MethodPost, "/v1/projects/1/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res worker.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "synced", res.Outcome)
	assert.Equal(t, "memory://run-1/project-1.json", res.SnapshotURI)

	stored, ok := env.store.Project(1)
	require.True(t, ok)
	assert.Equal(t, "Foo Bar", stored.ProjectName)
}

func TestServer_SyncOutcomes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{}, nil)

	rec := serve(t, env.server, http.MethodPost, "/v1/projects/2/sync", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "failed")

	rec = serve(t, env.server, http.MethodPost, "/v1/projects/3/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "skipped")

	rec = serve(t, env.server, http.MethodPost, "/v1/projects/x/sync", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_APIKeyMiddleware(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{APIKey: "secret"}, nil)

	require.Equal(t, http.StatusOK, serve(t, env.server, http.MethodGet, "/healthz", nil).Code)
	require.Equal(t, http.StatusForbidden, serve(t, env.server, http.MethodGet, "/v1/projects/1/preview", nil).Code)

	rec := serve(t, env.server, http.MethodGet, "/v1/projects/1/preview", map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, env.server, http.MethodGet, "/v1/projects/1/preview", map[string]string{"X-API-Key": "wrong"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_APIKeyIgnoresQueryParameter(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{APIKey: "secret"}, nil)

	rec := serve(t, env.server, http.MethodGet, "/v1/projects/1/preview?api_key=secret", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{}, nil)
	rec := serve(t, env.server, http.MethodGet, "/healthz", nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(t, env.server, http.MethodGet, "/healthz", map[string]string{"X-Request-ID": "abc"})
	require.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	h := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "internal server error"))
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.EqualError(t, err, "hijacker not supported")

	h := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = &responseWriter{ResponseWriter: h}
	conn, buf, err := rw.Hijack()
	require.NoError(t, err)
	require.NotNil(t, buf)
	require.NoError(t, conn.Close())
	require.NoError(t, h.CloseClient())
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func (h *hijackableRecorder) CloseClient() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}
