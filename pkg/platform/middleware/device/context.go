// Package device derives a stable device fingerprint for each request so the
// auth service can record which device a login came from without storing raw
// client metadata.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"lifeline/pkg/requestcontext"
)

// Middleware computes the device fingerprint from client metadata and stores
// it in the request context. Must run after metadata.ClientMetadata.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fp := Fingerprint(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))
		ctx = requestcontext.WithDeviceFingerprint(ctx, fp)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Fingerprint hashes client IP and User-Agent into a hex digest. The same
// device always produces the same fingerprint; raw values are never stored.
func Fingerprint(clientIP, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(clientIP))
	h.Write([]byte{0})
	h.Write([]byte(userAgent))
	return hex.EncodeToString(h.Sum(nil))
}
