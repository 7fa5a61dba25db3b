package convert

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anupcshan/srec2bin/srec"
)

// Metrics counts conversion activity. A single Metrics may be shared by
// Converters running in parallel. All methods accept a nil receiver.
type Metrics struct {
	records     *prometheus.CounterVec
	malformed   prometheus.Counter
	written     prometheus.Counter
	imageSize   prometheus.Histogram
	conversions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "srec2bin",
			Name:      "records_total",
			Help:      "S-records scanned, by record type",
		}, []string{"type"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "srec2bin",
			Name:      "malformed_lines_total",
			Help:      "Lines skipped as malformed",
		}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "srec2bin",
			Name:      "payload_bytes_written_total",
			Help:      "Record payload bytes written into images",
		}),
		imageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "srec2bin",
			Name:      "image_size_bytes",
			Help:      "Size of reconstructed images",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "srec2bin",
			Name:      "conversions_total",
			Help:      "Finished conversions, by result",
		}, []string{"result"}),
	}
	reg.MustRegister(m.records, m.malformed, m.written, m.imageSize, m.conversions)

	return m
}

func (m *Metrics) record(t srec.RecordType) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) skipped() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

func (m *Metrics) wrote(n int) {
	if m == nil {
		return
	}
	m.written.Add(float64(n))
}

func (m *Metrics) finished(size int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.conversions.WithLabelValues(resultLabel(err)).Inc()
		return
	}
	m.imageSize.Observe(float64(size))
	m.conversions.WithLabelValues("ok").Inc()
}

func resultLabel(err error) string {
	switch KindOf(err) {
	case ErrInputUnreadable:
		return "input_unreadable"
	case ErrOutputUnwritable:
		return "output_unwritable"
	case ErrEmptyRange:
		return "empty_range"
	case ErrMalformedRecord:
		return "malformed_record"
	case ErrImageTooLarge:
		return "image_too_large"
	}
	return "error"
}
