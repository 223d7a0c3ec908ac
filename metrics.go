package goIdentity

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an engine counter.
type MetricID uint16

const (
	// MetricVerifySuccess counts tokens accepted by Verify.
	MetricVerifySuccess MetricID = iota
	// MetricVerifyFailure counts tokens rejected by Verify.
	MetricVerifyFailure
	// MetricVerifyCacheHit counts verifications answered from the session cache.
	MetricVerifyCacheHit
	// MetricVerifyCacheMiss counts verifications that went to the stores.
	MetricVerifyCacheMiss
	// MetricVerifyBackendError counts verifications aborted by a store failure.
	MetricVerifyBackendError
	MetricSessionIssued
	MetricSessionRevoked
	MetricCacheInvalidated
	MetricLoginSuccess
	MetricLoginFailure
	// MetricLoginThrottled counts logins refused by the failed-attempt throttle.
	MetricLoginThrottled
	// MetricAuthorizationDenied counts RequireAuthorized denials.
	MetricAuthorizationDenied
	// MetricVerifyLatency is the only histogram-backed metric.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters and one latency histogram.
// A nil or disabled Metrics ignores updates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] set from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the verify latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of id. Only [MetricVerifyLatency] has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters. Disabled metrics yield empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

// Verification is expected to be sub-millisecond on a cache hit, so the buckets are
// finer than a request-level histogram.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 100:
		return 0
	case us <= 250:
		return 1
	case us <= 500:
		return 2
	case us <= 1000:
		return 3
	case us <= 5000:
		return 4
	case us <= 25000:
		return 5
	case us <= 100000:
		return 6
	default:
		return 7
	}
}
