package httpx

import (
	"context"
	"net/http"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/slogx"
)

// TokenVerifier checks a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(raw string) (subject string, err error)
}

// VerifierFunc adapts a plain function to TokenVerifier.
type VerifierFunc func(raw string) (subject string, err error)

func (f VerifierFunc) Verify(raw string) (string, error) { return f(raw) }

// AuthnMiddleware rejects requests without a valid bearer token with
// 401 {"error": "Unauthorized"}.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := BearerToken(r)
			if raw == "" {
				writeUnauthorized(w)
				return
			}

			subject, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("bearer verify failed", "err", err)
				writeUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, CtxKeySubject, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	WriteError(w, http.StatusUnauthorized, "Unauthorized")
}
