package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

var numericSegment = regexp.MustCompile(`/(\d+)`)

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.status = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.status = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware records request count and latency. The path label is normalized
// so numeric ids do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		defer func() {
			status := rec.status
			if rv := recover(); rv != nil {
				status = http.StatusInternalServerError
				RecordRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(status), time.Since(start).Seconds())
				panic(rv)
			}
			RecordRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(status), time.Since(start).Seconds())
		}()
		next.ServeHTTP(rec, r)
	})
}

// normalizePath replaces numeric path segments with ":id".
//
//	/api/v1/posts/42 -> /api/v1/posts/:id
func normalizePath(path string) string {
	return numericSegment.ReplaceAllString(path, "/:id")
}
