package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/torua/cachenode/internal/cacheengine"
)

type metricLine struct {
	name string
	kind string
	help string
}

var metricLines = []metricLine{
	{"cache_hits_total", "counter", "Total number of cache Get calls that found a live entry."},
	{"cache_misses_total", "counter", "Total number of cache Get calls that did not find a live entry."},
	{"cache_size", "gauge", "Current number of live entries in the cache."},
	{"cache_capacity", "gauge", "Configured maximum number of live entries."},
	{"cache_eviction_interval_ms", "gauge", "Configured sweeper wake period in milliseconds."},
}

// MetricsHandler returns an http.HandlerFunc that renders cache's counters
// and gauges as Prometheus text exposition format.
func MetricsHandler(cache *cacheengine.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := map[string]uint64{
			"cache_hits_total":           cache.Hits(),
			"cache_misses_total":         cache.Misses(),
			"cache_size":                 uint64(cache.Size()),
			"cache_capacity":             uint64(cache.Capacity()),
			"cache_eviction_interval_ms": uint64(cache.EvictionInterval().Milliseconds()),
		}

		var b strings.Builder
		for i, m := range metricLines {
			fmt.Fprintf(&b, "# HELP %s %s\n", m.name, m.help)
			fmt.Fprintf(&b, "# TYPE %s %s\n", m.name, m.kind)
			fmt.Fprintf(&b, "%s %d\n", m.name, values[m.name])
			if i != len(metricLines)-1 {
				b.WriteString("\n")
			}
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(b.String()))
	}
}
