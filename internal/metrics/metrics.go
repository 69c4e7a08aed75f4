// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// Generation metrics
	generationRequestsTotal *prometheus.CounterVec
	generationChunksTotal   prometheus.Counter
	generationDuration      prometheus.Histogram
)

// Register inicializa las métricas y devuelve el handler para /metrics.
func Register(registry prometheus.Registerer) http.Handler {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		generationRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "generation_requests_total",
			Help: "Generaciones por herramienta y resultado terminal",
		}, []string{"category", "tool", "outcome"})

		generationChunksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "generation_chunks_total",
			Help: "Incrementos de texto relayados al cliente",
		})

		generationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "generation_stream_duration_seconds",
			Help:    "Duración del stream de generación, de apertura a evento terminal",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		})

		registry.MustRegister(
			generationRequestsTotal,
			generationChunksTotal,
			generationDuration,
		)
	})

	return promhttp.Handler()
}

// ObserveGeneration registra el resultado terminal de una generación.
// outcome: completed | failed | aborted | denied | not_found | bad_request
func ObserveGeneration(category, tool, outcome string, chunks int, dur time.Duration) {
	if generationRequestsTotal == nil {
		return // métricas no inicializadas (tests)
	}
	generationRequestsTotal.WithLabelValues(category, tool, outcome).Inc()
	if chunks > 0 {
		generationChunksTotal.Add(float64(chunks))
	}
	switch outcome {
	case "completed", "failed", "aborted":
		generationDuration.Observe(dur.Seconds())
	}
}
