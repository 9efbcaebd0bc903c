package httpx

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// MirrorCounter reports how many session mirrors are alive.
type MirrorCounter interface {
	Len() int
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

const readinessTimeout = 2 * time.Second

// healthHandler is the liveness probe: 200 with the live mirror count.
func healthHandler(mirrors MirrorCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		body := map[string]any{"status": "ok"}
		if mirrors != nil {
			body["mirrors"] = mirrors.Len()
		}
		WriteJSON(w, http.StatusOK, body)
	}
}

// readyHandler runs every check concurrently and answers 503 if any fails.
func readyHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(names))
		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			failed bool
		)
		for _, name := range names {
			wg.Add(1)
			go func(name string, check HealthCheck) {
				defer wg.Done()
				status := "ok"
				if err := check(ctx); err != nil {
					status = err.Error()
				}
				mu.Lock()
				results[name] = status
				if status != "ok" {
					failed = true
				}
				mu.Unlock()
			}(name, checks[name])
		}
		wg.Wait()

		code, status := http.StatusOK, "ok"
		if failed {
			code, status = http.StatusServiceUnavailable, "degraded"
		}
		WriteJSON(w, code, map[string]any{"status": status, "checks": results})
	}
}
