package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"library-api/internal/shared/response"
	"library-api/pkg/logger"
	"library-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, target string, header http.Header) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("generated", func(t *testing.T) {
		t.Parallel()
		rec := serve(router, http.MethodGet, "/ping", nil)

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		require.Equal(t, id, rec.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		t.Parallel()
		id := uuid.NewString()
		rec := serve(router, http.MethodGet, "/ping", http.Header{RequestIDHeader: {id}})

		require.Equal(t, id, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated in any header case", func(t *testing.T) {
		t.Parallel()
		id := uuid.NewString()
		rec := serve(router, http.MethodGet, "/ping", http.Header{"x-request-id": {id}})

		require.Equal(t, id, rec.Header().Get(RequestIDHeader))
		require.Equal(t, id, rec.Body.String())
	})

	t.Run("garbage replaced", func(t *testing.T) {
		t.Parallel()
		rec := serve(router, http.MethodGet, "/ping", http.Header{RequestIDHeader: {"<script>"}})

		require.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(CORS())
	router.GET("/api/authors", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, http.MethodGet, "/api/authors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(router, http.MethodOptions, "/api/authors", http.Header{
		"Origin":                         {"http://example.com"},
		"Access-Control-Request-Method":  {"PUT"},
		"Access-Control-Request-Headers": {"Content-Type"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	require.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	var sys bytes.Buffer
	log := logger.NewJSON(&sys, &bytes.Buffer{}, logger.LevelDebug)

	router := gin.New()
	router.Use(RequestID(), Recovery(log))
	router.GET("/boom", func(*gin.Context) { panic("unexpected") })

	rec := serve(router, http.MethodGet, "/boom", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"message":"`+response.GenericErrorMessage+`"}`, rec.Body.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(sys.Bytes(), &entry))
	require.Equal(t, "Unhandled error", entry["message"])
	require.Equal(t, "unexpected", entry["panic"])
	require.Equal(t, "/boom", entry["endpoint"])
	require.NotEmpty(t, entry["request_id"])
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var sys bytes.Buffer
	log := logger.NewJSON(&sys, &bytes.Buffer{}, logger.LevelDebug)

	router := gin.New()
	router.Use(RequestID(), Logger(log))
	router.GET("/api/books", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := serve(router, http.MethodGet, "/api/books?page=2", nil)
	require.Equal(t, http.StatusTeapot, rec.Code)

	entries := decodeLines(t, sys.Bytes())
	require.Len(t, entries, 2)

	arrival := entries[0]
	require.Equal(t, "info", arrival["level"])
	require.Equal(t, "GET /api/books?page=2", arrival["message"])
	require.Equal(t, rec.Header().Get(RequestIDHeader), arrival["request_id"])
	require.NotContains(t, arrival, "status")

	done := entries[1]
	require.Equal(t, "debug", done["level"])
	require.Equal(t, "GET /api/books?page=2 completed", done["message"])
	require.EqualValues(t, http.StatusTeapot, done["status"])
}

func TestLoggerWritesBeforeHandlerReturns(t *testing.T) {
	t.Parallel()

	var sys bytes.Buffer
	log := logger.NewJSON(&sys, &bytes.Buffer{}, logger.LevelInfo)

	var seen string
	router := gin.New()
	router.Use(Logger(log))
	router.DELETE("/api/authors/:id", func(c *gin.Context) {
		seen = sys.String()
		c.Status(http.StatusOK)
	})

	serve(router, http.MethodDelete, "/api/authors/3", nil)

	require.Contains(t, seen, `"message":"DELETE /api/authors/3"`)
	require.Len(t, decodeLines(t, sys.Bytes()), 1)
}

func decodeLines(t *testing.T, raw []byte) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(raw), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerRespectsThreshold(t *testing.T) {
	t.Parallel()

	var sys bytes.Buffer
	log := logger.NewJSON(&sys, &bytes.Buffer{}, logger.LevelWarn)

	router := gin.New()
	router.Use(Logger(log))
	router.GET("/api/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/api/books", nil)
	require.Empty(t, strings.TrimSpace(sys.String()))
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	router := gin.New()
	router.Use(Metrics(m))
	router.DELETE("/api/books/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodDelete, "/api/books/4", nil)
	serve(router, http.MethodDelete, "/api/books/5", nil)
	serve(router, http.MethodGet, "/nowhere", nil)

	series, err := testutil.GatherAndCount(m.Registry, "library_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, series)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(), `library_http_requests_total{method="DELETE",route="/api/books/:id",status="200"} 2`)
	require.Contains(t, rec.Body.String(), `library_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header http.Header
		remote string
		want   string
	}{
		{name: "forwarded chain", header: http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1"}}, remote: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "invalid forwarded falls back to real ip", header: http.Header{"X-Forwarded-For": {"unknown"}, "X-Real-Ip": {"198.51.100.2"}}, remote: "10.0.0.1:5000", want: "198.51.100.2"},
		{name: "real ip header in any case", header: http.Header{"x-real-ip": {"198.51.100.9"}}, remote: "10.0.0.1:5000", want: "198.51.100.9"},
		{name: "socket peer", remote: "192.0.2.10:41000", want: "192.0.2.10"},
		{name: "ipv6 peer", remote: "[::1]:41000", want: "::1"},
		{name: "unparseable peer", remote: "pipe", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			for k, vv := range tc.header {
				for _, v := range vv {
					c.Request.Header.Add(k, v)
				}
			}

			require.Equal(t, tc.want, clientIP(c))
		})
	}
}
