// Package metrics exposes generation and publish telemetry to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns every storeforge collector. It satisfies the recorder hooks
// of the engine, imaging and publish packages.
type Registry struct {
	reg *prometheus.Registry

	StageSeconds     *prometheus.HistogramVec
	Runs             *prometheus.CounterVec
	ContentFallbacks *prometheus.CounterVec
	Images           *prometheus.CounterVec
	ImageSeconds     prometheus.Histogram
	Publishes        *prometheus.CounterVec
	PublishSeconds   prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	stage := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storeforge_stage_duration_seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"stage"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storeforge_runs_total"}, []string{"status"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storeforge_content_fallbacks_total"}, []string{"field"})
	images := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storeforge_images_total"}, []string{"kind"})
	imageSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storeforge_image_duration_seconds",
		Buckets: []float64{1, 10, 30, 60, 120, 300, 600, 900},
	})
	publishes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storeforge_publishes_total"}, []string{"outcome"})
	publishSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storeforge_publish_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(stage, runs, fallbacks, images, imageSec, publishes, publishSec,
		prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return &Registry{
		reg:              r,
		StageSeconds:     stage,
		Runs:             runs,
		ContentFallbacks: fallbacks,
		Images:           images,
		ImageSeconds:     imageSec,
		Publishes:        publishes,
		PublishSeconds:   publishSec,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) StageDuration(stage string, d time.Duration) {
	r.StageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Registry) RunFinished(status string) { r.Runs.WithLabelValues(status).Inc() }

func (r *Registry) ContentFallback(field string) { r.ContentFallbacks.WithLabelValues(field).Inc() }

func (r *Registry) ImageEnhanced(kind string, d time.Duration) {
	r.Images.WithLabelValues(kind).Inc()
	r.ImageSeconds.Observe(d.Seconds())
}

func (r *Registry) PublishFinished(outcome string, d time.Duration) {
	r.Publishes.WithLabelValues(outcome).Inc()
	r.PublishSeconds.Observe(d.Seconds())
}
