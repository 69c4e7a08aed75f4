package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/promptcast/internal/catalog"
	"github.com/dropDatabas3/promptcast/internal/entitlement"
	"github.com/dropDatabas3/promptcast/internal/http/handlers"
	"github.com/dropDatabas3/promptcast/internal/identity"
	"github.com/dropDatabas3/promptcast/internal/llm"
	"github.com/dropDatabas3/promptcast/internal/rate"
	"github.com/dropDatabas3/promptcast/internal/store"
	memstore "github.com/dropDatabas3/promptcast/internal/store/memory"
)

const routerSecret = "router-test-secret"

type scriptedStream struct{ chunks []string }

func (s *scriptedStream) Recv() (string, error) {
	if len(s.chunks) == 0 {
		return "", io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *scriptedStream) Close() error { return nil }

type scriptedStreamer struct{ chunks []string }

func (f *scriptedStreamer) Stream(context.Context, llm.Request) (llm.Stream, error) {
	return &scriptedStream{chunks: append([]string(nil), f.chunks...)}, nil
}

func testRouter(t *testing.T, limiter rate.Limiter) http.Handler {
	t.Helper()

	st := memstore.New()
	created := time.Now().Add(-60 * 24 * time.Hour)
	st.Seed("u1", store.Profile{Tier: "scale", CreatedAt: &created})

	registry := catalog.Default()
	resolver := entitlement.NewResolver(st, nil, 0)

	return New(Deps{
		Verifier: identity.NewTokenVerifier(identity.ModeStrict, routerSecret, ""),
		Generate: &handlers.Generate{
			Registry:     registry,
			Resolver:     resolver,
			Streamer:     &scriptedStreamer{chunks: []string{"hola"}},
			DefaultModel: "claude-3-haiku-20240307",
		},
		Tools:       &handlers.Tools{Registry: registry, Resolver: resolver},
		Health:      &handlers.Health{},
		RateLimiter: limiter,
	})
}

func signRouterToken(t *testing.T, sub string) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{"sub": sub})
	s, err := tok.SignedString([]byte(routerSecret))
	require.NoError(t, err)
	return s
}

func TestRouter_HealthIsPublic(t *testing.T) {
	h := testRouter(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_GenerateRequiresToken(t *testing.T) {
	h := testRouter(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader("{}"))
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_GenerateEndToEnd(t *testing.T) {
	h := testRouter(t, nil)

	body := `{"categoryId":"marketing","toolId":"blog-outline","inputs":{"topic":"go testing"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signRouterToken(t, "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "data: {\"text\":\"hola\"}\n\n")
	require.Contains(t, rec.Body.String(), "data: [DONE]\n\n")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_ToolsEndToEnd(t *testing.T) {
	h := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/tools", nil)
	req.Header.Set("Authorization", "Bearer "+signRouterToken(t, "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tier":"scale"`)
}

func TestRouter_RateLimitAppliesToAuthedGroup(t *testing.T) {
	h := testRouter(t, rate.NewMemoryLimiter(1, time.Hour))
	token := signRouterToken(t, "u1")

	do := func(path, method string) int {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.NotEqual(t, http.StatusTooManyRequests, do("/v1/tools", http.MethodGet))
	require.Equal(t, http.StatusTooManyRequests, do("/v1/tools", http.MethodGet))

	// la key incluye el path: otro endpoint conserva su propia ventana
	require.NotEqual(t, http.StatusTooManyRequests, do("/v1/generate", http.MethodPost))

	// health queda fuera del grupo limitado
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRouteJSON404(t *testing.T) {
	h := testRouter(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/no-such", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
