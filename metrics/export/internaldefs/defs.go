package internaldefs

import (
	goIdentity "github.com/MrEthical07/goIdentity"
)

// CounterDef names an engine counter.
type CounterDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// HistogramDef names an engine histogram.
type HistogramDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goIdentity.MetricVerifySuccess, Name: "goidentity_verify_success_total", Help: "Tokens accepted by verification."},
	{ID: goIdentity.MetricVerifyFailure, Name: "goidentity_verify_failure_total", Help: "Tokens rejected by verification."},
	{ID: goIdentity.MetricVerifyCacheHit, Name: "goidentity_verify_cache_hit_total", Help: "Verifications answered from the session cache."},
	{ID: goIdentity.MetricVerifyCacheMiss, Name: "goidentity_verify_cache_miss_total", Help: "Verifications that loaded the session from the store."},
	{ID: goIdentity.MetricVerifyBackendError, Name: "goidentity_verify_backend_error_total", Help: "Verifications aborted by a store failure."},
	{ID: goIdentity.MetricSessionIssued, Name: "goidentity_session_issued_total", Help: "Issued sessions."},
	{ID: goIdentity.MetricSessionRevoked, Name: "goidentity_session_revoked_total", Help: "Revoked sessions."},
	{ID: goIdentity.MetricCacheInvalidated, Name: "goidentity_cache_invalidated_total", Help: "Session cache invalidations."},
	{ID: goIdentity.MetricLoginSuccess, Name: "goidentity_login_success_total", Help: "Successful logins."},
	{ID: goIdentity.MetricLoginFailure, Name: "goidentity_login_failure_total", Help: "Failed logins."},
	{ID: goIdentity.MetricLoginThrottled, Name: "goidentity_login_throttled_total", Help: "Logins refused by the failed-attempt throttle."},
	{ID: goIdentity.MetricAuthorizationDenied, Name: "goidentity_authorization_denied_total", Help: "Denied authorization checks."},
}

var HistogramDefs = []HistogramDef{
	{ID: goIdentity.MetricVerifyLatency, Name: "goidentity_verify_latency_seconds", Help: "Token verification latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine latency buckets.
var HistogramBounds = []string{
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside instrument names.
var HistogramBoundSuffix = []string{
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"0_1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

// CacheHitRatio returns hits / (hits + misses) from a counter snapshot, or 0 without traffic.
func CacheHitRatio(counters map[goIdentity.MetricID]uint64) float64 {
	hits := counters[goIdentity.MetricVerifyCacheHit]
	total := hits + counters[goIdentity.MetricVerifyCacheMiss]
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
