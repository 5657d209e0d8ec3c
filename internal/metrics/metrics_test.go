package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PackageLoaded(4)
	m.PackageLoaded(2)
	m.PackageRejected("already_loaded")
	m.Diagnostic("warn", "ICAO")
	m.ReferenceLoaded("Doc8643.txt", 120)
	m.CatalogSize(2)
	m.Matched("exact", time.Millisecond)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.Assigned(5)
	m.RegistryMiss()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PackagesLoaded))
	assert.Equal(t, float64(6), testutil.ToFloat64(m.PlanesDeclared))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PackagesRejected.WithLabelValues("already_loaded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ParseDiagnostics.WithLabelValues("warn", "ICAO")))
	assert.Equal(t, float64(120), testutil.ToFloat64(m.ReferenceEntries.WithLabelValues("Doc8643.txt")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CatalogPackages))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MatchesTotal.WithLabelValues("exact")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.AssignmentsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RegistryMisses))
	assert.Equal(t, 1, testutil.CollectAndCount(m.MatchDuration))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PackageLoaded(1)
		m.PackageRejected("unreadable")
		m.Diagnostic("error", "OBJ8")
		m.ReferenceLoaded("related.txt", 1)
		m.CatalogSize(1)
		m.Matched("none", 0)
		m.CacheLookup(true)
		m.Assigned(1)
		m.RegistryMiss()
	})
}
