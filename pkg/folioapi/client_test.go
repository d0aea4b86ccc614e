package folioapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json error field", http.StatusNotFound, `{"error":"not found"}`, "not found"},
		{"raw text", http.StatusInternalServerError, "oops", "oops"},
		{"raw text trimmed", http.StatusBadGateway, "  upstream down\n", "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "", "Request failed (503)"},
		{"non-string error field", http.StatusBadRequest, `{"error":{"code":1}}`, `{"error":{"code":1}}`},
		{"empty error field", http.StatusConflict, `{"error":""}`, `{"error":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil).Get(context.Background(), "/x")
			require.Error(t, err)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			require.Equal(t, tt.status, reqErr.StatusCode)
			require.Equal(t, tt.message, reqErr.Message)
			require.Equal(t, tt.message, err.Error())
			require.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestClientParseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"html", "<html>not json</html>"},
		{"empty", ""},
		{"whitespace", " \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			rec, err := NewClient(srv.URL, nil).Get(context.Background(), "/x")
			require.Nil(t, rec)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			require.Equal(t, http.StatusOK, parseErr.StatusCode)
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).Post(context.Background(), "/skills", map[string]string{"name": "Go"})

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.MethodPost, netErr.Method)
	require.Equal(t, url+"/skills", netErr.URL)
	require.Zero(t, StatusCode(err))
}

func TestClientCancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{}")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, nil).Get(ctx, "/")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestClientSuccess(t *testing.T) {
	t.Parallel()

	type seen struct {
		method      string
		path        string
		auth        string
		hasAuth     bool
		contentType string
		body        string
	}
	requests := make(chan seen, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, hasAuth := r.Header["Authorization"]
		requests <- seen{
			method:      r.Method,
			path:        r.URL.Path,
			auth:        r.Header.Get("Authorization"),
			hasAuth:     hasAuth,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		}
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"data":[{"id":9007199254740993}],"count":1}`)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("get without token omits header", func(t *testing.T) {
		got, err := NewClient(srv.URL, nil).Get(ctx, "/api/skills")
		require.NoError(t, err)

		req := <-requests
		require.Equal(t, http.MethodGet, req.method)
		require.Equal(t, "/api/skills", req.path)
		require.False(t, req.hasAuth)

		m, ok := got.(map[string]any)
		require.True(t, ok)
		require.Equal(t, json.Number("1"), m["count"])

		item := m["data"].([]any)[0].(map[string]any)
		require.Equal(t, json.Number("9007199254740993"), item["id"])
	})

	t.Run("empty token omits header", func(t *testing.T) {
		_, err := NewClient(srv.URL, StaticToken("")).Get(ctx, "/api/skills")
		require.NoError(t, err)
		require.False(t, (<-requests).hasAuth)
	})

	t.Run("post sends json and bearer", func(t *testing.T) {
		_, err := NewClient(srv.URL, StaticToken("abc")).Post(ctx, "/api/skills", map[string]string{"name": "Go"})
		require.NoError(t, err)

		req := <-requests
		require.Equal(t, http.MethodPost, req.method)
		require.Equal(t, "Bearer abc", req.auth)
		require.Equal(t, "application/json", req.contentType)
		require.JSONEq(t, `{"name":"Go"}`, req.body)
	})

	t.Run("put sends json", func(t *testing.T) {
		_, err := NewClient(srv.URL+"/", StaticToken("abc")).Put(ctx, "/api/skills/3", map[string]int{"level": 4})
		require.NoError(t, err)

		req := <-requests
		require.Equal(t, http.MethodPut, req.method)
		require.Equal(t, "/api/skills/3", req.path)
		require.JSONEq(t, `{"level":4}`, req.body)
	})

	t.Run("delete with 204 returns nil", func(t *testing.T) {
		got, err := NewClient(srv.URL, StaticToken("abc")).Delete(ctx, "/api/skills/3")
		require.NoError(t, err)
		require.Nil(t, got)
		require.Equal(t, http.MethodDelete, (<-requests).method)
	})
}

func TestClientUploadRequiresFiles(t *testing.T) {
	t.Parallel()

	_, err := NewClient("http://127.0.0.1:1", nil).Upload(context.Background(), "/x", FieldFiles)
	require.ErrorIs(t, err, ErrNoFiles)
}

func TestUploadErrorPolicy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"error":"file too large"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Upload(context.Background(), "/x", FieldFile,
		File{Name: "big.bin", Reader: strings.NewReader("data")})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "file too large", reqErr.Message)
}

func TestMetricsInstrumentTransport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{}")
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	c := NewClient(srv.URL, nil)
	c.HTTPClient = &http.Client{Transport: m.InstrumentTransport(nil)}

	for range 3 {
		_, err := c.Get(context.Background(), "/")
		require.NoError(t, err)
	}

	require.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	require.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() == "folio_client_requests_total" {
			for _, metric := range mf.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(3), total)
}
