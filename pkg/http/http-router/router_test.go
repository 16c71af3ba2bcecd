package http_router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geocoder"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubService struct{}

func (stubService) Geocode(ctx context.Context, query string, opts geocoder.Options) ([]datastructure.Result, error) {
	return []datastructure.Result{{ID: "place.1", Text: query}}, nil
}

func (stubService) Reverse(ctx context.Context, lon, lat float64, opts geocoder.Options) ([]datastructure.Result, error) {
	return []datastructure.Result{}, nil
}

func (stubService) Tokenize(query string) usecases.TokenizeResult { return usecases.TokenizeResult{} }

func (stubService) Layers() []string { return []string{"place"} }

func newHandler(t *testing.T, limit RateLimitConfig) (http.Handler, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, reg)
	return NewAPI(zap.NewNop()).Handler(zap.NewNop(), stubService{}, m, limit), m
}

func TestHandler(t *testing.T) {
	h, m := newHandler(t, RateLimitConfig{})

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		code        int
	}{
		{name: "heartbeat", method: http.MethodGet, target: "/healthz", code: http.StatusOK},
		{name: "geocode", method: http.MethodGet, target: "/api/geocode?q=bandung", code: http.StatusOK},
		{name: "post json", method: http.MethodPost, target: "/api/geocode", contentType: "application/json", body: `{"query":"bandung"}`, code: http.StatusOK},
		{name: "post json charset", method: http.MethodPost, target: "/api/geocode", contentType: "application/json; charset=utf-8", body: `{"query":"bandung"}`, code: http.StatusOK},
		{name: "post form", method: http.MethodPost, target: "/api/geocode", contentType: "text/plain", body: `query=bandung`, code: http.StatusUnsupportedMediaType},
		{name: "metrics", method: http.MethodGet, target: "/metrics", code: http.StatusOK},
		{name: "unknown", method: http.MethodGet, target: "/nope", code: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			var req *http.Request
			if body != nil {
				req = httptest.NewRequest(tt.method, tt.target, body)
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/geocode", "200")))
}

func TestRequestIDPropagated(t *testing.T) {
	h, _ := newHandler(t, RateLimitConfig{})
	req := httptest.NewRequest(http.MethodGet, "/api/geocode?q=bandung", nil)
	req.Header.Set(requestIDHeader, "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc123", rec.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	h, _ := newHandler(t, RateLimitConfig{RPS: 0.001, Burst: 2})

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?q=bandung", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecoverPanic(t *testing.T) {
	api := NewAPI(zap.NewNop())
	h := api.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.9"}, want: "10.0.0.9"},
		{name: "garbage", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, want: "192.0.2.1:1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { got = r.RemoteAddr }))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}
