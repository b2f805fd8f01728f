// Package request provides middleware that assigns each request a correlation
// ID, honoring an inbound X-Request-ID header when present.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"lifeline/pkg/requestcontext"
)

// HeaderRequestID is the header carrying the correlation ID in and out.
const HeaderRequestID = "X-Request-ID"

// RequestID ensures every request has a correlation ID in context and echoes
// it back in the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
