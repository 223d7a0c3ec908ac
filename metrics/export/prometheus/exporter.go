package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goIdentity.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders engine metrics for a Prometheus scrape.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter that reads from engine.
func NewExporter(engine *goIdentity.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter over any snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text. It is empty when metrics are disabled and no
// audit events were dropped.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeHeader(&b, def.Name, def.Help, "counter")
		writeSample(&b, def.Name, strconv.FormatUint(snapshot.Counters[def.ID], 10))
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		writeHistogram(&b, def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)))
	}

	if len(snapshot.Counters) > 0 {
		writeHeader(&b, "goidentity_verify_cache_hit_ratio", "Share of verifications answered from the session cache.", "gauge")
		writeSample(&b, "goidentity_verify_cache_hit_ratio",
			strconv.FormatFloat(internaldefs.CacheHitRatio(snapshot.Counters), 'g', -1, 64))
	}

	writeHeader(&b, "goidentity_audit_dropped_total", "Audit events dropped because the dispatcher buffer was full.", "counter")
	writeSample(&b, "goidentity_audit_dropped_total", strconv.FormatUint(dropped, 10))

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		writeSample(b, name+"_bucket{le=\""+le+"\"}", strconv.FormatUint(cumulative[i], 10))
	}
	writeSample(b, name+"_count", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	// snapshots carry bucket counts only
	writeSample(b, name+"_sum", "0")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
