package snshttp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/thomasdesr/snsauth"
)

// MaxBodySize bounds the delivery body read by Middleware. SNS messages are
// at most 256 KiB; the envelope and JSON escaping can grow that.
const MaxBodySize = 1 << 20

const (
	messageInvalidPayload    = "Invalid SNS payload"
	messageSubscribeFailed   = "Failed to subscribe to topic"
	messageInsufficientScope = "Insufficient scope"
	messagePayloadTooLarge   = "Payload too large"
)

// Evaluator is satisfied by *snsauth.Authenticator.
type Evaluator interface {
	Evaluate(ctx context.Context, raw []byte) snsauth.Outcome
}

// Middleware authenticates every request body as an SNS delivery. Requests
// that authenticate reach next with the body intact and an *snsauth.Scope
// attached to their context; everything else is answered directly:
//
//   - 401 when the delivery is rejected
//   - 400 when a confirmation message couldn't be confirmed
//   - 413 when the body exceeds MaxBodySize
func Middleware(e Evaluator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, messagePayloadTooLarge)
				return
			}
			writeError(w, http.StatusUnauthorized, messageInvalidPayload)
			return
		}

		outcome := e.Evaluate(r.Context(), raw)

		switch outcome.Kind {
		case snsauth.Authenticated:
			r = r.WithContext(snsauth.AttachScopeToContext(r.Context(), snsauth.NewScope(outcome.Message)))
			r.Body = io.NopCloser(bytes.NewReader(raw))
			r.ContentLength = int64(len(raw))
			next.ServeHTTP(w, r)
		case snsauth.SubscribeFailed:
			writeError(w, http.StatusBadRequest, messageSubscribeFailed)
		default:
			writeError(w, http.StatusUnauthorized, messageInvalidPayload)
		}
	})
}

// RequireScope only lets through requests whose authenticated topic name is
// one of scopes. It must run behind Middleware.
func RequireScope(next http.Handler, scopes ...string) http.Handler {
	allowed := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		allowed[s] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := snsauth.ScopeFromContext(r.Context())
		if scope == nil {
			writeError(w, http.StatusUnauthorized, messageInvalidPayload)
			return
		}

		if _, ok := allowed[scope.Name]; !ok {
			writeError(w, http.StatusForbidden, messageInsufficientScope)
			return
		}

		next.ServeHTTP(w, r)
	})
}
