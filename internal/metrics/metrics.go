package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    operations = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfmanager",
            Name:      "operations_total",
            Help:      "Total operations by kind (split, merge, preview) and result",
        },
        []string{"kind", "result"},
    )

    operationLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfmanager",
            Name:      "operation_duration_seconds",
            Help:      "Duration of operations by kind",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"kind"},
    )

    pagesProduced = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfmanager",
            Name:      "pages_produced_total",
            Help:      "Pages written to output documents by kind",
        },
        []string{"kind"},
    )

    thumbnails = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfmanager",
            Name:      "thumbnails_rendered_total",
            Help:      "Total page thumbnails rendered",
        },
    )

    decodeFailures = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfmanager",
            Name:      "decode_failures_total",
            Help:      "Uploads that could not be decoded as PDF",
        },
    )

    limiterRejects = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfmanager",
            Name:      "limiter_rejections_total",
            Help:      "Requests rejected because too many operations were in flight",
        },
    )

    artifactsStored = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pdfmanager",
            Name:      "artifacts_stored",
            Help:      "Artifacts currently held by the in-memory store",
        },
    )
)

var initOnce sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
    initOnce.Do(func() {
        prometheus.MustRegister(operations, operationLatency, pagesProduced, thumbnails, decodeFailures, limiterRejects, artifactsStored)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveOperation(kind, result string, dur time.Duration) {
    operations.WithLabelValues(kind, result).Inc()
    operationLatency.WithLabelValues(kind).Observe(dur.Seconds())
}

func AddPages(kind string, n int) { pagesProduced.WithLabelValues(kind).Add(float64(n)) }
func IncThumbnail()               { thumbnails.Inc() }
func IncDecodeFailure()           { decodeFailures.Inc() }
func IncLimiterReject()           { limiterRejects.Inc() }
func SetArtifacts(n int)          { artifactsStored.Set(float64(n)) }
