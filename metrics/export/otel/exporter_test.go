package otel

import (
	"context"
	"sync"
	"testing"

	goIdentity "github.com/MrEthical07/goIdentity"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goIdentity.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goIdentity.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goIdentity.MetricsSnapshot{
		Counters:   make(map[goIdentity.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goIdentity.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newMeter()
	src := &fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricVerifySuccess:   3,
				goIdentity.MetricVerifyCacheHit:  1,
				goIdentity.MetricVerifyCacheMiss: 1,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricVerifyLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(provider.Meter("goidentity-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	m, ok := findMetric(rm, "goidentity_verify_success_total")
	if !ok {
		t.Fatal("verify success counter not collected")
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 3 {
		t.Fatalf("unexpected verify success data %+v", m.Data)
	}

	ratio, ok := findMetric(rm, "goidentity_verify_cache_hit_ratio")
	if !ok {
		t.Fatal("cache hit ratio not collected")
	}
	gauge, ok := ratio.Data.(metricdata.Gauge[float64])
	if !ok || len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 0.5 {
		t.Fatalf("unexpected hit ratio data %+v", ratio.Data)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newMeter()

	if _, err := NewExporterFromSource(provider.Meter("goidentity-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newMeter()
	src := &fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricVerifySuccess: 1,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricVerifyLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporterFromSource(provider.Meter("goidentity-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goIdentity.MetricVerifySuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
