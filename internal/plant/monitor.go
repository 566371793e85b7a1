package plant

import "sync"

// StabilityMonitor accumulates solve-health counters for one model
// instance. Counters are mutex-guarded so a single instance can be shared
// across batch workers; the batch engine normally gives each worker its
// own instance and merges the stats afterwards.
type StabilityMonitor struct {
	mu sync.Mutex

	solves        int
	regularized   int
	pseudoInverse int
	failures      int
	worstCond     float64
}

type MonitorStats struct {
	Solves        int
	Regularized   int
	PseudoInverse int
	Failures      int
	WorstCond     float64
}

func (m *StabilityMonitor) record(d Diagnostics, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.solves++
	if d.RegularizationApplied {
		m.regularized++
	}
	if d.UsedPseudoInverse {
		m.pseudoInverse++
	}
	if !ok {
		m.failures++
	}
	if d.ConditionNumber > m.worstCond {
		m.worstCond = d.ConditionNumber
	}
}

func (m *StabilityMonitor) Stats() MonitorStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MonitorStats{
		Solves:        m.solves,
		Regularized:   m.regularized,
		PseudoInverse: m.pseudoInverse,
		Failures:      m.failures,
		WorstCond:     m.worstCond,
	}
}

// Merge folds per-worker stats into this monitor.
func (m *StabilityMonitor) Merge(s MonitorStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.solves += s.Solves
	m.regularized += s.Regularized
	m.pseudoInverse += s.PseudoInverse
	m.failures += s.Failures
	if s.WorstCond > m.worstCond {
		m.worstCond = s.WorstCond
	}
}
