package middleware

import (
	"log"
	"net/http"
	"time"
)

type wrappedWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (w *wrappedWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *wrappedWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// silentPaths are polled by the UI for transcription progress and are
// only logged on errors (status >= 400).
var silentPaths = map[string]bool{
	"/api/jobs":           true,
	"/api/transcriptions": true,
}

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &wrappedWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if silentPaths[r.URL.Path] && wrapped.statusCode < 400 && r.Method == http.MethodGet {
			return
		}
		log.Printf("%s %s %d %dB %s", r.Method, r.URL.Path, wrapped.statusCode, wrapped.bytes, time.Since(start))
	})
}
