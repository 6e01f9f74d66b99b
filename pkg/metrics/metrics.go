// Package metrics counts archive activity on a private prometheus registry
// and can dump it in the node_exporter textfile format at the end of a run.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	errs "igarchiver/pkg/errors"
)

const namespace = "igarchiver"

// Collector holds all Prometheus metrics for one run
type Collector struct {
	registry *prometheus.Registry

	Profiles     *prometheus.CounterVec
	Pages        *prometheus.CounterVec
	PageDuration prometheus.Histogram
	Posts        prometheus.Counter
	Assets       *prometheus.CounterVec
	AssetBytes   prometheus.Counter
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Profiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "profiles_total",
				Help:      "Profiles processed, by outcome",
			},
			[]string{"status"},
		),
		Pages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_total",
				Help:      "Pagination requests, by outcome",
			},
			[]string{"status"},
		),
		PageDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "page_duration_seconds",
				Help:      "Pagination request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Posts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_archived_total",
				Help:      "Posts whose metadata was written",
			},
		),
		Assets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assets_total",
				Help:      "Asset downloads, by outcome",
			},
			[]string{"status"},
		),
		AssetBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "asset_bytes_total",
				Help:      "Bytes of downloaded assets",
			},
		),
	}

	c.registry.MustRegister(c.Profiles, c.Pages, c.PageDuration, c.Posts, c.Assets, c.AssetBytes)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordProfile counts a finished profile
func (c *Collector) RecordProfile(err error) {
	if err != nil {
		c.Profiles.WithLabelValues("failed").Inc()
		return
	}
	c.Profiles.WithLabelValues("ok").Inc()
}

// RecordPage counts one pagination attempt
func (c *Collector) RecordPage(d time.Duration, err error) {
	c.PageDuration.Observe(d.Seconds())
	c.Pages.WithLabelValues(pageStatus(err)).Inc()
}

// RecordPosts counts archived posts
func (c *Collector) RecordPosts(n int) {
	c.Posts.Add(float64(n))
}

// RecordAsset counts one asset job
func (c *Collector) RecordAsset(size int, skipped bool, err error) {
	switch {
	case err != nil:
		c.Assets.WithLabelValues("failed").Inc()
	case skipped:
		c.Assets.WithLabelValues("skipped").Inc()
	default:
		c.Assets.WithLabelValues("saved").Inc()
		c.AssetBytes.Add(float64(size))
	}
}

// WriteTextfile writes every metric to path in the text exposition format
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

func pageStatus(err error) string {
	var fetchErr *errs.FetchError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &fetchErr):
		return string(fetchErr.Reason)
	default:
		return "error"
	}
}
