// Package matcher picks the package plane that best represents an aircraft
// given its ICAO type, operating airline and livery.
//
// Matching runs in three phases. The exact phase tries the eight identity
// passes from best to worst, each across all packages in load order. The
// equipment phase looks for a plane of a type with the same weight category
// and a similar engine configuration. The default phase retries once with
// the configured default type.
package matcher

import (
	"log/slog"
	"strings"
	"time"

	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/metrics"
)

// NoQuality is the Quality of matches that did not come from an exact pass.
const NoQuality = -1

// Phase says which part of the search produced a match.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseExact
	PhaseEquipment
	PhaseDefault
)

func (p Phase) String() string {
	switch p {
	case PhaseExact:
		return "exact"
	case PhaseEquipment:
		return "equipment"
	case PhaseDefault:
		return "default"
	default:
		return "none"
	}
}

// Query identifies the aircraft to find a model for. Airline and Livery may
// be empty.
type Query struct {
	ICAO    string
	Airline string
	Livery  string
	// NoDefault disables the retry with the default type.
	NoDefault bool
}

// Result is a successful match.
type Result struct {
	Plane   *csl.Plane
	Package *csl.Package
	// Quality is the exact pass number, or NoQuality.
	Quality int
	Phase   Phase
	// Key is the table key that matched.
	Key string
}

// Options configures a Matcher.
type Options struct {
	// DefaultICAO is the type tried when nothing else matches.
	DefaultICAO string
	// Debug enables a trace of every pass.
	Debug   bool
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Matcher answers queries against one catalog. It never modifies the
// catalog and is safe for concurrent use.
type Matcher struct {
	catalog     *csl.Catalog
	defaultICAO string
	debug       bool
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func New(catalog *csl.Catalog, opts Options) *Matcher {
	m := &Matcher{
		catalog:     catalog,
		defaultICAO: opts.DefaultICAO,
		debug:       opts.Debug,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Catalog returns the catalog the matcher searches.
func (m *Matcher) Catalog() *csl.Catalog { return m.catalog }

// Match returns the best plane for q.
func (m *Matcher) Match(q Query) (Result, bool) {
	start := time.Now()
	res, ok := m.match(q, !q.NoDefault)
	m.metrics.Matched(res.Phase.String(), time.Since(start))
	return res, ok
}

func (m *Matcher) match(q Query, useDefault bool) (Result, bool) {
	if res, ok := m.exact(q); ok {
		return res, true
	}
	if res, ok := m.equipment(q); ok {
		return res, true
	}

	if q.ICAO == m.defaultICAO || !useDefault || m.defaultICAO == "" {
		return Result{Quality: NoQuality}, false
	}
	m.trace("Match - trying default type", "icao", m.defaultICAO)
	res, ok := m.match(Query{ICAO: m.defaultICAO}, false)
	if !ok {
		return Result{Quality: NoQuality}, false
	}
	res.Phase = PhaseDefault
	res.Quality = NoQuality
	return res, true
}

// exact runs the identity passes, best first. Within a pass, packages are
// tried in load order.
func (m *Matcher) exact(q Query) (Result, bool) {
	group := m.catalog.Group(q.ICAO)
	m.trace("Match", "icao", q.ICAO, "airline", q.Airline, "livery", q.Livery, "group", group)

	for pass := csl.Pass(0); pass < csl.PassCount; pass++ {
		useICAO, useAirline, useLivery := pass.Uses()

		base := q.ICAO
		if !useICAO {
			if group == "" {
				m.trace("Match - skipping pass, no group", "pass", int(pass))
				continue
			}
			base = group
		}
		parts := []string{base}
		if useAirline {
			if q.Airline == "" {
				m.trace("Match - skipping pass, no airline", "pass", int(pass))
				continue
			}
			parts = append(parts, q.Airline)
		}
		if useLivery {
			if q.Livery == "" {
				m.trace("Match - skipping pass, no livery", "pass", int(pass))
				continue
			}
			parts = append(parts, q.Livery)
		}
		key := csl.IdentityKey(parts...)
		m.trace("Match - trying pass", "pass", int(pass), "key", key)

		for _, pkg := range m.catalog.Packages() {
			plane, ok := pkg.Lookup(pass, key)
			if !ok || !plane.Usable() {
				continue
			}
			m.trace("Match - found", "plane", plane.String(), "package", pkg.Name)
			return Result{Plane: plane, Package: pkg, Quality: int(pass), Phase: PhaseExact, Key: key}, true
		}
	}
	m.trace("Match - no exact match", "icao", q.ICAO)
	return Result{}, false
}

// Equipment specificity levels, most specific first.
const (
	levelFullEquip    = 1 // whole equipment string
	levelEngines      = 2 // engine count and engine type
	levelEngineCount  = 3
	levelEngineType   = 4
	levelCategoryOnly = 5
)

type equipmentPass struct {
	airline bool
	level   int
	desc    string
}

var equipmentPasses = []equipmentPass{
	{true, levelFullEquip, "airline, weight category and configuration"},
	{true, levelEngines, "airline, weight category, engine count and type"},
	{false, levelFullEquip, "weight category and configuration"},
	{false, levelEngines, "weight category, engine count and type"},
	{true, levelEngineCount, "airline, weight category and engine count"},
	{true, levelEngineType, "airline, weight category and engine type"},
	{false, levelEngineCount, "weight category and engine count"},
	{false, levelEngineType, "weight category and engine type"},
	{true, levelCategoryOnly, "airline and weight category"},
	{false, levelCategoryOnly, "weight category"},
}

// equipment looks for a plane of a different type with similar equipment.
func (m *Matcher) equipment(q Query) (Result, bool) {
	want, ok := m.catalog.AircraftCode(q.ICAO)
	if !ok {
		m.trace("Match/acf - unknown aircraft code", "icao", q.ICAO)
		return Result{}, false
	}
	m.trace("Match/acf - looking for aircraft", "category", want.CategoryName(), "equip", want.Equip)

	for _, ep := range equipmentPasses {
		if ep.airline && q.Airline == "" {
			continue
		}
		m.trace("Match/acf - matching " + ep.desc)

		pass := csl.PassICAO
		if ep.airline {
			pass = csl.PassICAOAirline
		}
		for _, pkg := range m.catalog.Packages() {
			for _, key := range pkg.Keys(pass) {
				plane, _ := pkg.Lookup(pass, key)
				if !plane.Usable() {
					continue
				}
				icao, airline, _ := strings.Cut(key, " ")
				code, ok := m.catalog.AircraftCode(icao)
				if !ok || !equipmentMatches(code, want, ep.level) {
					continue
				}
				if ep.airline && airline != q.Airline {
					continue
				}
				m.trace("Match/acf - found", "key", key, "package", pkg.Name)
				return Result{Plane: plane, Package: pkg, Quality: NoQuality, Phase: PhaseEquipment, Key: key}, true
			}
		}
	}
	return Result{}, false
}

// equipmentMatches compares a candidate type against the wanted one at the
// given specificity level. The weight category always has to agree.
func equipmentMatches(have, want csl.AircraftCode, level int) bool {
	if have.Category != want.Category {
		return false
	}
	if level < levelCategoryOnly && (len(have.Equip) != 3 || len(want.Equip) != 3) {
		return false
	}
	if (level <= levelEngines || level == levelEngineType) && have.EngineType() != want.EngineType() {
		return false
	}
	if level <= levelEngineCount && have.EngineCount() != want.EngineCount() {
		return false
	}
	if level == levelFullEquip && have.Equip != want.Equip {
		return false
	}
	return true
}

func (m *Matcher) trace(msg string, args ...any) {
	if m.debug {
		m.logger.Info(msg, args...)
	}
}
