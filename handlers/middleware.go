package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/cache"
)

const maxCachedBody = 1 << 20

// RequestLogger logs each request using zap.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// PublicCache serves GET responses of the public API from c and stores
// successful JSON responses up to 1 MiB. Writes purge c.
func PublicCache(c cache.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c == nil || r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := r.URL.RequestURI()
			if entry, ok := c.Get(r.Context(), key); ok {
				w.Header().Set("Content-Type", entry.ContentType)
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(entry.Status)
				_, _ = w.Write(entry.Body)
				return
			}

			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status != http.StatusOK || buf.Len() == 0 || buf.Len() > maxCachedBody {
				return
			}
			c.Set(r.Context(), key, cache.Entry{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
			})
		})
	}
}
