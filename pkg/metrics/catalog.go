package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics tracks catalog replacement and storage contention.
type CatalogMetrics struct {
	products    prometheus.Gauge
	categories  prometheus.Gauge
	lastSync    prometheus.Gauge
	busyRetries *prometheus.CounterVec
	queries     *prometheus.HistogramVec
}

func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	m := &CatalogMetrics{
		products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_catalog_products",
			Help: "Products stored by the last successful catalog replace.",
		}),
		categories: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_catalog_categories",
			Help: "Distinct categories stored by the last successful catalog replace.",
		}),
		lastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_catalog_last_sync_timestamp_seconds",
			Help: "Unix time of the last successful catalog replace.",
		}),
		busyRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_storage_busy_retries_total",
			Help: "Statements retried because the store reported busy or locked.",
		}, []string{"op"}),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_catalog_query_duration_seconds",
			Help:    "Latency of catalog repository reads.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.products, m.categories, m.lastSync, m.busyRetries, m.queries)
	return m
}

// ObserveReplace records the size of a committed catalog.
func (m *CatalogMetrics) ObserveReplace(products, categories int, at time.Time) {
	if m == nil || m.products == nil {
		return
	}
	m.products.Set(float64(products))
	m.categories.Set(float64(categories))
	m.lastSync.Set(float64(at.Unix()))
}

func (m *CatalogMetrics) IncBusyRetry(op string) {
	if m == nil || m.busyRetries == nil {
		return
	}
	m.busyRetries.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *CatalogMetrics) ObserveQuery(op string, d time.Duration) {
	if m == nil || m.queries == nil {
		return
	}
	m.queries.WithLabelValues(normalizeLabel(op)).Observe(d.Seconds())
}
