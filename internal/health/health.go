// Package health serves liveness and readiness endpoints.
package health

import (
	"encoding/json"
	"net/http"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// ReadinessReporter is implemented by components that gate readiness, such
// as the invalidation consumer reporting its assigned partitions.
type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

// Readiness answers ready only once every reporter is ready. An empty
// reporter list means the service is unconditionally ready.
func Readiness(reporters ...ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status     string  `json:"status"`
			Partitions []int32 `json:"partitions,omitempty"`
		}
		out := resp{Status: "ready"}
		code := http.StatusOK
		for _, rr := range reporters {
			if rr == nil {
				continue
			}
			ready, parts := rr.Readiness()
			if !ready {
				out = resp{Status: "not_ready", Partitions: nil}
				code = http.StatusServiceUnavailable
				break
			}
			out.Partitions = append(out.Partitions, parts...)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	}
}
