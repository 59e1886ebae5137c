package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"git.home.luguber.info/inful/metricsd/internal/config"
)

// snapshotDocument is the JSON shape of a registry snapshot. Families are
// grouped by metric kind; the header records which units duration- and
// rate-valued numbers were scaled into.
type snapshotDocument struct {
	Registry     string                    `json:"registry"`
	Timestamp    string                    `json:"timestamp"`
	RateUnit     string                    `json:"rate_unit"`
	DurationUnit string                    `json:"duration_unit"`
	Gauges       map[string]gaugeValue     `json:"gauges"`
	Counters     map[string]counterValue   `json:"counters"`
	Histograms   map[string]histogramValue `json:"histograms"`
	Summaries    map[string]summaryValue   `json:"summaries"`
	Untyped      map[string]gaugeValue     `json:"untyped"`
}

type gaugeValue struct {
	Value float64 `json:"value"`
}

type counterValue struct {
	Count float64 `json:"count"`
}

type histogramValue struct {
	Count   uint64            `json:"count"`
	Sum     float64           `json:"sum"`
	Mean    float64           `json:"mean"`
	Buckets map[string]uint64 `json:"buckets,omitempty"`
}

type summaryValue struct {
	Count     uint64             `json:"count"`
	Sum       float64            `json:"sum"`
	Quantiles map[string]float64 `json:"quantiles,omitempty"`
}

// snapshotEncoder turns gathered metric families into the pretty-printed
// JSON document. Prometheus encodes durations in seconds and rates per
// second; the encoder rescales both into the configured units.
type snapshotEncoder struct {
	registryName string
	rateUnit     config.TimeUnit
	durationUnit config.TimeUnit
	showSamples  bool

	// durationScale converts seconds into the duration unit; rateScale
	// converts per-second rates into per-rate-unit rates.
	durationScale float64
	rateScale     float64
}

func newSnapshotEncoder(cfg config.MetricsConfig) *snapshotEncoder {
	return &snapshotEncoder{
		registryName:  cfg.Name,
		rateUnit:      cfg.RateUnit,
		durationUnit:  cfg.DurationUnit,
		showSamples:   cfg.ShowSamples,
		durationScale: float64(time.Second) / float64(cfg.DurationUnit.Duration()),
		rateScale:     cfg.RateUnit.Duration().Seconds(),
	}
}

// Encode gathers g and renders the snapshot document.
func (e *snapshotEncoder) Encode(g prom.Gatherer) (string, error) {
	families, err := g.Gather()
	if err != nil {
		return "", fmt.Errorf("gather registry: %w", err)
	}

	doc := snapshotDocument{
		Registry:     e.registryName,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		RateUnit:     e.rateUnit.Label(),
		DurationUnit: e.durationUnit.Label(),
		Gauges:       map[string]gaugeValue{},
		Counters:     map[string]counterValue{},
		Histograms:   map[string]histogramValue{},
		Summaries:    map[string]summaryValue{},
		Untyped:      map[string]gaugeValue{},
	}

	for _, family := range families {
		name := family.GetName()
		scale := e.scaleFor(name)
		for _, m := range family.GetMetric() {
			key := metricKey(name, m.GetLabel())
			switch family.GetType() {
			case dto.MetricType_GAUGE:
				doc.Gauges[key] = gaugeValue{Value: m.GetGauge().GetValue() * scale}
			case dto.MetricType_COUNTER:
				doc.Counters[key] = counterValue{Count: m.GetCounter().GetValue() * scale}
			case dto.MetricType_HISTOGRAM:
				doc.Histograms[key] = e.histogram(m.GetHistogram(), scale)
			case dto.MetricType_SUMMARY:
				doc.Summaries[key] = e.summary(m.GetSummary(), scale)
			default:
				doc.Untyped[key] = gaugeValue{Value: m.GetUntyped().GetValue() * scale}
			}
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(out), nil
}

// scaleFor picks the unit conversion for a family based on its name.
// Duration-valued families carry a _seconds component by prometheus naming
// convention; rate-valued ones end in _per_second.
func (e *snapshotEncoder) scaleFor(name string) float64 {
	if strings.HasSuffix(name, "_per_second") {
		return e.rateScale
	}
	if strings.HasSuffix(name, "_seconds") || strings.Contains(name, "_seconds_") {
		return e.durationScale
	}
	return 1
}

func (e *snapshotEncoder) histogram(h *dto.Histogram, scale float64) histogramValue {
	v := histogramValue{
		Count: h.GetSampleCount(),
		Sum:   h.GetSampleSum() * scale,
	}
	if v.Count > 0 {
		v.Mean = v.Sum / float64(v.Count)
	}
	if e.showSamples {
		v.Buckets = make(map[string]uint64, len(h.GetBucket()))
		for _, b := range h.GetBucket() {
			v.Buckets[formatFloat(b.GetUpperBound()*scale)] = b.GetCumulativeCount()
		}
	}
	return v
}

func (e *snapshotEncoder) summary(s *dto.Summary, scale float64) summaryValue {
	v := summaryValue{
		Count: s.GetSampleCount(),
		Sum:   s.GetSampleSum() * scale,
	}
	if e.showSamples {
		v.Quantiles = make(map[string]float64, len(s.GetQuantile()))
		for _, q := range s.GetQuantile() {
			v.Quantiles[formatFloat(q.GetQuantile())] = q.GetValue() * scale
		}
	}
	return v
}

// metricKey renders a family name plus its label pairs: name{k="v",...}.
// Labels arrive sorted from the registry, so keys are deterministic.
func metricKey(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, lp := range labels {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(lp.GetName())
		sb.WriteString(`="`)
		sb.WriteString(lp.GetValue())
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
