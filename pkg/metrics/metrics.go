// Package metrics exposes the Prometheus counters the API and worker record.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the narrow surface use cases depend on.
type Recorder interface {
	ViewRecorded()
	ViewRecordFailed()
	SlugConflict()
	PreviewFailed(reason string)
	UploadRejected(kind string)
	CacheResult(hit bool)
}

type Collector struct {
	viewsRecorded   prometheus.Counter
	viewsFailed     prometheus.Counter
	slugConflicts   prometheus.Counter
	previewFailures *prometheus.CounterVec
	uploadsRejected *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	registry        *prometheus.Registry
}

func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		viewsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_views_recorded_total",
			Help: "Public portfolio views persisted",
		}),
		viewsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_views_failed_total",
			Help: "Public portfolio views that could not be recorded",
		}),
		slugConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_slug_conflicts_total",
			Help: "Slug reservations rejected because the slug was taken",
		}),
		previewFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_link_preview_failures_total",
			Help: "Link preview fetches that degraded to an empty preview",
		}, []string{"reason"}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_uploads_rejected_total",
			Help: "Uploads refused by the asset policy",
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_public_cache_lookups_total",
			Help: "Public view cache lookups by result",
		}, []string{"result"}),
		registry: reg,
	}

	reg.MustRegister(
		c.viewsRecorded,
		c.viewsFailed,
		c.slugConflicts,
		c.previewFailures,
		c.uploadsRejected,
		c.cacheLookups,
	)
	return c
}

func (c *Collector) ViewRecorded() { c.viewsRecorded.Inc() }
func (c *Collector) ViewRecordFailed() { c.viewsFailed.Inc() }
func (c *Collector) SlugConflict() { c.slugConflicts.Inc() }

func (c *Collector) PreviewFailed(reason string) {
	c.previewFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) UploadRejected(kind string) {
	c.uploadsRejected.WithLabelValues(kind).Inc()
}

func (c *Collector) CacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop satisfies Recorder without recording anything.
type Nop struct{}

func (Nop) ViewRecorded() {}
func (Nop) ViewRecordFailed() {}
func (Nop) SlugConflict() {}
func (Nop) PreviewFailed(string) {}
func (Nop) UploadRejected(string) {}
func (Nop) CacheResult(bool) {}
