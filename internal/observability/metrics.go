package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rfctl"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "transport", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "transport", "status"},
	)
	codecFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "frames_total",
			Help:      "Frames formatted per protocol and command.",
		},
		[]string{"protocol", "command"},
	)
	codecErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "errors_total",
			Help:      "Failed format or conversion attempts.",
		},
		[]string{"protocol", "reason"},
	)
	rawConversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "raw",
			Name:      "conversions_total",
			Help:      "Frames re-rendered as raw pulse trains.",
		},
		[]string{"protocol"},
	)
	rawFrameBits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "raw",
			Name:      "frame_bits",
			Help:      "Length of converted raw frames in bits.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		},
		[]string{"protocol"},
	)
	transportSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "sends_total",
			Help:      "Frame sequences handed to a transport.",
		},
		[]string{"transport", "format", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			codecFrames, codecErrors,
			rawConversions, rawFrameBits,
			transportSends,
		)
	})
}

func RecordHTTPRequest(method, route, transport string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, transport, statusLabel).Inc()
	httpDuration.WithLabelValues(method, route, transport, statusLabel).Observe(duration.Seconds())
}

func RecordFrame(protocol, command string) {
	RegisterMetrics()
	codecFrames.WithLabelValues(protocol, command).Inc()
}

func RecordCodecError(protocol, reason string) {
	RegisterMetrics()
	codecErrors.WithLabelValues(protocol, reason).Inc()
}

func RecordRawConversion(protocol string, bits int) {
	RegisterMetrics()
	rawConversions.WithLabelValues(protocol).Inc()
	rawFrameBits.WithLabelValues(protocol).Observe(float64(bits))
}

func RecordTransportSend(transport, format string, success bool) {
	RegisterMetrics()
	transportSends.WithLabelValues(transport, format, strconv.FormatBool(success)).Inc()
}
