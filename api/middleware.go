package api

import (
	"context"
	"net/http"

	"medinsight/domain/core"
)

type ctxKey int

const requestIDKey ctxKey = iota

// requestID stamps every request with an identifier, reusing the client's
// X-Request-ID when one is supplied so ids survive proxy hops.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = core.NewRequestID().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom returns the request id carried on the context, or ""
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
