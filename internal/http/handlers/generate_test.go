package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/promptcast/internal/catalog"
	"github.com/dropDatabas3/promptcast/internal/entitlement"
	mw "github.com/dropDatabas3/promptcast/internal/http/middlewares"
	"github.com/dropDatabas3/promptcast/internal/identity"
	"github.com/dropDatabas3/promptcast/internal/llm"
	"github.com/dropDatabas3/promptcast/internal/store"
	memstore "github.com/dropDatabas3/promptcast/internal/store/memory"
)

// fakeStream devuelve los chunks del script y después err (nil = io.EOF).
type fakeStream struct {
	chunks    []string
	i         int
	err       error
	closed    int
	beforeEnd func()
}

func (s *fakeStream) Recv() (string, error) {
	if s.i < len(s.chunks) {
		c := s.chunks[s.i]
		s.i++
		return c, nil
	}
	if s.beforeEnd != nil {
		s.beforeEnd()
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

type fakeStreamer struct {
	stream  *fakeStream
	openErr error
	calls   int
	lastReq llm.Request
}

func (f *fakeStreamer) Stream(_ context.Context, req llm.Request) (llm.Stream, error) {
	f.calls++
	f.lastReq = req
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

func seedStore(t *testing.T, tier string) *memstore.Store {
	t.Helper()
	st := memstore.New()
	created := time.Now().Add(-90 * 24 * time.Hour) // fuera de cualquier trial
	st.Seed("u1", store.Profile{Tier: tier, CreatedAt: &created})
	return st
}

func newGenerate(st store.ProfileStore, streamer llm.Streamer) *Generate {
	return &Generate{
		Registry:     catalog.Default(),
		Resolver:     entitlement.NewResolver(st, nil, 0),
		Streamer:     streamer,
		DefaultModel: "claude-3-haiku-20240307",
	}
}

func doGenerate(t *testing.T, h *Generate, ctx context.Context, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))
	req = req.WithContext(mw.WithIdentity(ctx, identity.Identity{ID: "u1", Email: "u1@test.local"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"categoryId":"marketing","toolId":"seo-keyword-research","inputs":{"keyword":"crm","industry":"saas"}}`

func TestGenerate_RelayCompleted(t *testing.T) {
	fs := &fakeStream{chunks: []string{"Hola", " mundo"}}
	streamer := &fakeStreamer{stream: fs}
	h := newGenerate(seedStore(t, "scale"), streamer)

	rec := doGenerate(t, h, context.Background(), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	want := "data: {\"text\":\"Hola\"}\n\n" +
		"data: {\"text\":\" mundo\"}\n\n" +
		"data: [DONE]\n\n"
	require.Equal(t, want, rec.Body.String())
	require.Equal(t, 1, fs.closed)
	require.Equal(t, 1, streamer.calls)
}

func TestGenerate_RequestShape(t *testing.T) {
	fs := &fakeStream{}
	streamer := &fakeStreamer{stream: fs}
	h := newGenerate(seedStore(t, "scale"), streamer)

	doGenerate(t, h, context.Background(), validBody)

	require.Equal(t, "claude-3-haiku-20240307", streamer.lastReq.Model)
	require.Equal(t, 1024, streamer.lastReq.MaxTokens)
	require.Contains(t, streamer.lastReq.User, "crm")
	require.Contains(t, streamer.lastReq.User, "saas")
	require.NotEmpty(t, streamer.lastReq.System)
}

func TestGenerate_DeniedNeverCallsUpstream(t *testing.T) {
	streamer := &fakeStreamer{stream: &fakeStream{chunks: []string{"nope"}}}
	// free vencido pidiendo una herramienta fuera de su lista
	h := newGenerate(seedStore(t, "free"), streamer)

	body := `{"categoryId":"branding","toolId":"tagline","inputs":{"brand":"x"}}`
	rec := doGenerate(t, h, context.Background(), body)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, streamer.calls)

	var resp struct {
		Code            string `json:"code"`
		UpgradeRequired bool   `json:"upgradeRequired"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.UpgradeRequired)
}

func TestGenerate_FreeInTrialStreamsAnyTool(t *testing.T) {
	st := memstore.New()
	created := time.Now().Add(-24 * time.Hour)
	st.Seed("u1", store.Profile{Tier: "free", CreatedAt: &created})

	fs := &fakeStream{chunks: []string{"listo"}}
	streamer := &fakeStreamer{stream: fs}
	h := &Generate{
		Registry:     catalog.Default(),
		Resolver:     entitlement.NewResolver(st, nil, 14*24*time.Hour),
		Streamer:     streamer,
		DefaultModel: "claude-3-haiku-20240307",
	}

	// free dentro del trial: acceso a herramientas fuera de su lista
	body := `{"categoryId":"branding","toolId":"tagline","inputs":{"brand":"crm para pymes"}}`
	rec := doGenerate(t, h, context.Background(), body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "data: {\"text\":\"listo\"}\n\ndata: [DONE]\n\n", rec.Body.String())
	require.Equal(t, 1, streamer.calls)
}

func TestGenerate_UnknownToolIs404(t *testing.T) {
	streamer := &fakeStreamer{stream: &fakeStream{}}
	h := newGenerate(seedStore(t, "evolution"), streamer)

	body := `{"categoryId":"marketing","toolId":"no-existe","inputs":{}}`
	rec := doGenerate(t, h, context.Background(), body)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Zero(t, streamer.calls)
}

func TestGenerate_MissingRequiredInput(t *testing.T) {
	streamer := &fakeStreamer{stream: &fakeStream{}}
	h := newGenerate(seedStore(t, "scale"), streamer)

	body := `{"categoryId":"marketing","toolId":"seo-keyword-research","inputs":{"industry":"saas"}}`
	rec := doGenerate(t, h, context.Background(), body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, streamer.calls)
}

func TestGenerate_MalformedBody(t *testing.T) {
	h := newGenerate(seedStore(t, "scale"), &fakeStreamer{stream: &fakeStream{}})

	for _, body := range []string{"", "{", `{"categoryId":"","toolId":""}`} {
		rec := doGenerate(t, h, context.Background(), body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestGenerate_UpstreamOpenFailure(t *testing.T) {
	streamer := &fakeStreamer{openErr: errors.New("dial tcp: connection refused")}
	h := newGenerate(seedStore(t, "scale"), streamer)

	rec := doGenerate(t, h, context.Background(), validBody)

	// el stream nunca abrió: error JSON normal, no SSE
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestGenerate_MidStreamErrorEmitsErrorEvent(t *testing.T) {
	fs := &fakeStream{chunks: []string{"parcial"}, err: errors.New("upstream: overloaded")}
	h := newGenerate(seedStore(t, "scale"), &fakeStreamer{stream: fs})

	rec := doGenerate(t, h, context.Background(), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "data: {\"text\":\"parcial\"}\n\n")
	// mensaje genérico: el detalle del upstream jamás llega al cliente
	require.Contains(t, body, "data: {\"error\":\"generation failed\"}\n\n")
	require.NotContains(t, body, "overloaded")
	require.NotContains(t, body, doneSentinel)
	require.Equal(t, 1, fs.closed)
}

func TestGenerate_ClientAbortSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fs := &fakeStream{
		chunks:    []string{"a", "b"},
		err:       errors.New("context canceled"),
		beforeEnd: cancel, // el cliente corta después del segundo chunk
	}
	h := newGenerate(seedStore(t, "scale"), &fakeStreamer{stream: fs})

	rec := doGenerate(t, h, ctx, validBody)

	body := rec.Body.String()
	require.Contains(t, body, "data: {\"text\":\"a\"}\n\n")
	require.Contains(t, body, "data: {\"text\":\"b\"}\n\n")
	// abort: sin evento de error y sin [DONE]
	require.NotContains(t, body, "error")
	require.NotContains(t, body, doneSentinel)
	require.Equal(t, 1, fs.closed)
}

func TestGenerate_MissingIdentityIs500(t *testing.T) {
	h := newGenerate(seedStore(t, "scale"), &fakeStreamer{stream: &fakeStream{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
