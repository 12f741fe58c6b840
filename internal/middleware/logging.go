// Package middleware holds the HTTP middleware shared by all route groups.
package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

var redacted = []string{"Authorization", "Cookie", "Proxy-Authorization"}

func redactHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vv := range h {
		out[k] = vv
		for _, name := range redacted {
			if strings.EqualFold(k, name) {
				out[k] = []string{"<redacted>"}
				break
			}
		}
	}
	return out
}

// Logging logs one line per request once the response is written.
// verbose adds the (redacted) request headers.
func Logging(logger *log.Logger, verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if verbose {
				logger.Printf("req=%s %s %s origin=%q status=%d bytes=%d duration=%s headers=%v",
					chimw.GetReqID(r.Context()), r.Method, r.URL.RequestURI(), r.Header.Get("Origin"),
					status, ww.BytesWritten(), time.Since(start), redactHeaders(r.Header))
				return
			}
			logger.Printf("req=%s %s %s origin=%q status=%d bytes=%d duration=%s",
				chimw.GetReqID(r.Context()), r.Method, r.URL.RequestURI(), r.Header.Get("Origin"),
				status, ww.BytesWritten(), time.Since(start))
		})
	}
}
