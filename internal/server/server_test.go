package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qbdsl/internal/compiler"
	"github.com/roach88/qbdsl/internal/querydsl"
)

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

const colorTree = `{"type":"group","properties":{"conjunction":"AND"},"children1":{
  "r1":{"type":"rule","properties":{"field":"color","operator":"equal","value":["red"],"valueSrc":["value"],"valueType":["text"]}}
}}`

const funcTree = `{"type":"group","children1":{
  "r1":{"type":"rule","properties":{"field":"name","operator":"equal","value":[{"func":"LOWER","args":{}}],"valueSrc":["func"],"valueType":["text"]}}
}}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(compiler.New(nil), WithRegistry(prometheus.NewRegistry()))
}

func compiles(s *Server, outcome string) float64 {
	return testutil.ToFloat64(s.metrics.compiles.WithLabelValues(outcome))
}

func postCompile(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/v1/compile", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleCompile_OK(t *testing.T) {
	s := newTestServer(t)

	w := postCompile(t, s, `{"tree":`+colorTree+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CompileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.JSONEq(t, `{"bool":{"must":[{"term":{"color":"red"}}]}}`, string(resp.Query))
	assert.Empty(t, resp.Warnings)
	assert.Len(t, resp.Hash, 64)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, 1.0, compiles(s, OutcomeOK))
}

func TestHandleCompile_HashMatchesCanonicalQuery(t *testing.T) {
	s := newTestServer(t)

	w := postCompile(t, s, `{"tree":`+colorTree+`}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	clause := querydsl.NewBool(querydsl.Must, &querydsl.Criterion{
		Primitive: querydsl.Term,
		Field:     "color",
		Body:      querydsl.Object{"color": "red"},
	})
	assert.Equal(t, querydsl.MustHash(clause), resp.Hash)
}

func TestHandleCompile_EchoesRequestID(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, "/v1/compile", strings.NewReader(`{"tree":`+colorTree+`}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestHandleCompile_AbsentQueryIsNull(t *testing.T) {
	s := newTestServer(t)

	w := postCompile(t, s, `{"tree":{"type":"group","children1":{}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "null", string(raw["query"]))
	assert.Equal(t, "[]", string(raw["warnings"]))

	assert.Equal(t, 1.0, compiles(s, OutcomeAbsent))
}

func TestHandleCompile_Warnings(t *testing.T) {
	s := newTestServer(t)

	w := postCompile(t, s, `{"tree":`+funcTree+`}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "null", string(resp.Query))
	assert.Equal(t, []string{compiler.CodeFuncValue}, resp.Warnings.Codes())

	assert.Equal(t, 1.0, compiles(s, OutcomeWarnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.warnings.WithLabelValues(compiler.CodeFuncValue)))
}

func TestHandleCompile_Strict(t *testing.T) {
	s := newTestServer(t)

	w := postCompile(t, s, `{"strict":true,"tree":`+funcTree+`}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPILE_WARNINGS", resp.Code)
	assert.Contains(t, resp.Error, "func_value")
	assert.Equal(t, []string{compiler.CodeFuncValue}, resp.Warnings.Codes())
}

func TestHandleCompile_StrictWithoutWarnings(t *testing.T) {
	s := newTestServer(t)

	w := postCompile(t, s, `{"strict":true,"tree":`+colorTree+`}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleCompile_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, "INVALID_REQUEST"},
		{"missing tree", `{"strict":true}`, "INVALID_REQUEST"},
		{"tree not an object", `{"tree":[1,2]}`, "INVALID_TREE"},
		{"null tree", `{"tree":null}`, "INVALID_TREE"},
		{"unknown node type", `{"tree":{"type":"widget"}}`, "INVALID_TREE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := postCompile(t, s, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Details)

			assert.Equal(t, 1.0, compiles(s, OutcomeInvalid))
		})
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Greater(t, resp.Operators, 0)
	assert.Greater(t, resp.Widgets, 0)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	postCompile(t, s, `{"tree":`+colorTree+`}`)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `qbdsl_compiler_compiles_total{outcome="ok"} 1`)
	assert.Contains(t, body, "qbdsl_compiler_duration_seconds_count 1")
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/v1/compile"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(`{"tree":`+colorTree+`}`))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	s := newTestServer(t)

	err := s.Run(context.Background(), "256.0.0.1:bad")
	assert.Error(t, err)
}
