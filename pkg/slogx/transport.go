package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/idx"
)

// Transport is the client-side counterpart of HTTPMiddleware. It stamps every
// outgoing request with an X-Request-ID (unless one is already set) and logs
// the round trip at debug level.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	logger := t.Logger
	if logger == nil {
		logger = FromContext(req.Context())
	}

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = idx.New().String()
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, reqID)
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)

	attrs := []any{
		"req_id", reqID,
		"method", req.Method,
		"url", req.URL.Redacted(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.Debug("http_client_request", append(attrs, "error", err)...)
		return nil, err
	}

	logger.Debug("http_client_request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
