package authcore

import "sync/atomic"

// MetricID identifies a counter in the in-process metrics set.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful password logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected password logins.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins refused by the sliding window.
	MetricLoginRateLimited
	// MetricAccountLocked counts logins refused because the account is locked.
	MetricAccountLocked
	// MetricLockoutTriggered counts the moments a lock is first applied.
	MetricLockoutTriggered
	// MetricRefreshSuccess counts successful token rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts.
	MetricRefreshFailure
	// MetricLogout counts per-device logouts.
	MetricLogout
	// MetricGuestSessionStarted counts guest token grants.
	MetricGuestSessionStarted
	// MetricRegisterSuccess counts new or re-registered accounts.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts registrations refused as duplicates.
	MetricRegisterDuplicate
	// MetricCodeIssued counts one-time codes generated and dispatched.
	MetricCodeIssued
	// MetricCodeConsumed counts codes accepted.
	MetricCodeConsumed
	// MetricCodeRejected counts codes refused as wrong, expired, or reused.
	MetricCodeRejected
	// MetricResetRequested counts password reset requests, valid or not.
	MetricResetRequested
	// MetricResetCompleted counts completed password resets.
	MetricResetCompleted
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters for engine operations. A nil or disabled
// Metrics turns every method into a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters record anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
