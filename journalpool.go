package runner

import "sync"

// journalPoolManager recycles Journal instances across invocations the
// way the teacher's PoolManager recycles ExecutionCtx/ResolveCtx:
// sync.Pool plus hit/miss metrics, since every runTask call would
// otherwise allocate a fresh map on a hot path.
type journalPoolManager struct {
	pool sync.Pool

	metricsMu sync.Mutex
	hits      uint64
	misses    uint64
}

func newJournalPoolManager() *journalPoolManager {
	return &journalPoolManager{
		pool: sync.Pool{
			New: func() any {
				return &Journal{values: make(map[string]any, 8)}
			},
		},
	}
}

var journalPool = newJournalPoolManager()

func (pm *journalPoolManager) acquire() *Journal {
	j, ok := pm.pool.Get().(*Journal)
	pm.metricsMu.Lock()
	if ok {
		pm.hits++
	} else {
		pm.misses++
	}
	pm.metricsMu.Unlock()

	if !ok {
		j = &Journal{values: make(map[string]any, 8)}
	}
	return j
}

func (pm *journalPoolManager) release(j *Journal) {
	if j == nil {
		return
	}
	for k := range j.values {
		delete(j.values, k)
	}
	pm.pool.Put(j)
}

// JournalPoolMetrics reports pool efficiency, exposed for tests and
// debug instrumentation.
type JournalPoolMetrics struct {
	Hits   uint64
	Misses uint64
}

// Metrics returns a snapshot of the journal pool's hit/miss counters.
func (pm *journalPoolManager) Metrics() JournalPoolMetrics {
	pm.metricsMu.Lock()
	defer pm.metricsMu.Unlock()
	return JournalPoolMetrics{Hits: pm.hits, Misses: pm.misses}
}

// JournalPoolStats exposes the global journal pool's metrics.
func JournalPoolStats() JournalPoolMetrics {
	return journalPool.Metrics()
}
