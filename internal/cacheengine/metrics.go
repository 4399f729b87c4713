package cacheengine

import gometrics "github.com/rcrowley/go-metrics"

// metricsSet holds the cache's hit/miss counters. Counting is delegated to
// go-metrics rather than a hand-rolled atomic.Uint64 pair: it is the
// established counter abstraction for in-process instrumentation, and
// leaves room for a registry-wide dump (go-metrics.Registry) without
// touching the cache's call sites if the node ever grows more counters.
type metricsSet struct {
	hits   gometrics.Counter
	misses gometrics.Counter
}

func newMetricsSet() *metricsSet {
	return &metricsSet{
		hits:   gometrics.NewCounter(),
		misses: gometrics.NewCounter(),
	}
}

func (m *metricsSet) recordHit()  { m.hits.Inc(1) }
func (m *metricsSet) recordMiss() { m.misses.Inc(1) }

func (m *metricsSet) Hits() uint64   { return uint64(m.hits.Count()) }
func (m *metricsSet) Misses() uint64 { return uint64(m.misses.Count()) }
