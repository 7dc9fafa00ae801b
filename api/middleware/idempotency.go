package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/pkg/config"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	pkgredis "github.com/zapkart/zapkart-backend/pkg/redis"
)

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the recorded response when a key is reused with
// the same request, and rejects reuse with a different body. Apply it
// per-route on unsafe endpoints.
func Idempotency(store *pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(config.HeaderIdempotencyKey))
			if key == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, config.HeaderIdempotencyKey+" header required"))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodyBytes))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			scope := buildScope(r)

			recorded, inFlight, err := store.Begin(r.Context(), scope, key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if inFlight {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeIdempotency, "request with this key is still processing"))
				return
			}
			if recorded != nil {
				if recorded.RequestHash != requestHash {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(recorded.StatusCode)
				_, _ = w.Write(recorded.Body)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			// Server-side failures release the key so the client can retry.
			if status >= http.StatusInternalServerError {
				if err := store.Release(r.Context(), scope, key); err != nil && logg != nil {
					logg.Error(r.Context(), "release idempotency key", err)
				}
				return
			}

			err = store.Complete(r.Context(), scope, key, pkgredis.RecordedResponse{
				StatusCode:  status,
				Body:        rec.body.Bytes(),
				RequestHash: requestHash,
			})
			if err != nil && logg != nil {
				logg.Error(r.Context(), "persist idempotency record", err)
			}
		})
	}
}

func buildScope(r *http.Request) string {
	return strings.Join([]string{
		UserIDFromContext(r.Context()).String(),
		r.Method,
		r.URL.Path,
	}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
