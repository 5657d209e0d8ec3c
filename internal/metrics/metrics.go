package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for catalog loading and matching.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Catalog metrics
	PackagesLoaded   prometheus.Counter
	PackagesRejected *prometheus.CounterVec
	PlanesDeclared   prometheus.Counter
	ParseDiagnostics *prometheus.CounterVec
	ReferenceEntries *prometheus.GaugeVec
	CatalogPackages  prometheus.Gauge

	// Match metrics
	MatchesTotal  *prometheus.CounterVec
	MatchDuration prometheus.Histogram
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter

	// Live traffic metrics
	AssignmentsTotal prometheus.Counter
	RegistryMisses   prometheus.Counter
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PackagesLoaded: f.NewCounter(prometheus.CounterOpts{
			Name: "csl_packages_loaded_total",
			Help: "Packages fully parsed and added to the catalog",
		}),
		PackagesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csl_packages_rejected_total",
			Help: "Package directories skipped during the header phase by reason",
		}, []string{"reason"}),
		PlanesDeclared: f.NewCounter(prometheus.CounterOpts{
			Name: "csl_planes_declared_total",
			Help: "Planes declared across all parsed packages",
		}),
		ParseDiagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csl_parse_diagnostics_total",
			Help: "Declaration file diagnostics by severity and command",
		}, []string{"severity", "command"}),
		ReferenceEntries: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "csl_reference_entries",
			Help: "Entries loaded from each reference document",
		}, []string{"document"}),
		CatalogPackages: f.NewGauge(prometheus.GaugeOpts{
			Name: "csl_catalog_packages",
			Help: "Packages in the current catalog",
		}),
		MatchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csl_matches_total",
			Help: "Match queries by the phase that answered them",
		}, []string{"phase"}),
		MatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "csl_match_duration_seconds",
			Help:    "Match query latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "csl_match_cache_hits_total",
			Help: "Match queries answered from the cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "csl_match_cache_misses_total",
			Help: "Match queries that ran the matcher",
		}),
		AssignmentsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "csl_assignments_total",
			Help: "Model assignments recorded for live aircraft",
		}),
		RegistryMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "csl_registry_misses_total",
			Help: "Live addresses with no aircraft registry entry",
		}),
	}
}

func (m *Metrics) PackageLoaded(planes int) {
	if m == nil {
		return
	}
	m.PackagesLoaded.Inc()
	m.PlanesDeclared.Add(float64(planes))
}

func (m *Metrics) PackageRejected(reason string) {
	if m == nil {
		return
	}
	m.PackagesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Diagnostic(severity, command string) {
	if m == nil {
		return
	}
	m.ParseDiagnostics.WithLabelValues(severity, command).Inc()
}

func (m *Metrics) ReferenceLoaded(document string, entries int) {
	if m == nil {
		return
	}
	m.ReferenceEntries.WithLabelValues(document).Set(float64(entries))
}

func (m *Metrics) CatalogSize(packages int) {
	if m == nil {
		return
	}
	m.CatalogPackages.Set(float64(packages))
}

func (m *Metrics) Matched(phase string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.MatchesTotal.WithLabelValues(phase).Inc()
	m.MatchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) Assigned(n int) {
	if m == nil {
		return
	}
	m.AssignmentsTotal.Add(float64(n))
}

func (m *Metrics) RegistryMiss() {
	if m == nil {
		return
	}
	m.RegistryMisses.Inc()
}
