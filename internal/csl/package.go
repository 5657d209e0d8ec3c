package csl

import (
	"sort"
	"strings"
)

// Pass is one priority level of exact matching; lower is better.
type Pass int

const (
	PassICAOAirlineLivery Pass = iota
	PassICAOAirline
	PassGroupAirlineLivery
	PassGroupAirline
	PassICAOLivery
	PassICAO
	PassGroupLivery
	PassGroup
	PassCount
)

// Uses reports which identity components build the key for a pass.
func (p Pass) Uses() (icao, airline, livery bool) {
	return p == PassICAOAirlineLivery || p == PassICAOAirline || p == PassICAOLivery || p == PassICAO,
		p <= PassGroupAirline,
		p%2 == 0
}

// indexedPasses are the passes that declaration commands populate.
var indexedPasses = []Pass{
	PassICAOAirlineLivery, PassICAOAirline,
	PassGroupAirlineLivery, PassGroupAirline,
	PassICAO, PassGroup,
}

// IdentityKey joins the present identity parts with single spaces.
func IdentityKey(parts ...string) string {
	present := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			present = append(present, p)
		}
	}
	return strings.Join(present, " ")
}

// Package is one loaded model set.
type Package struct {
	Name   string
	Path   string
	Planes []*Plane

	// MissingDependencies lists DEPENDENCY names not found at parse time.
	MissingDependencies []string

	tables [PassCount]map[string]int
	keys   [PassCount][]string
}

func newPackage(name, path string) *Package {
	p := &Package{Name: name, Path: path}
	for _, pass := range indexedPasses {
		p.tables[pass] = make(map[string]int)
	}
	return p
}

// Valid reports whether the package declared an export name.
func (p *Package) Valid() bool { return p.Name != "" }

// index records planeIdx under key unless key is already present.
func (p *Package) index(pass Pass, key string, planeIdx int) bool {
	t := p.tables[pass]
	if t == nil {
		return false
	}
	if _, ok := t[key]; ok {
		return false
	}
	t[key] = planeIdx
	return true
}

// seal freezes the sorted key lists once the full parse is done.
func (p *Package) seal() {
	for pass, t := range p.tables {
		if t == nil {
			continue
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.keys[pass] = keys
	}
}

// Lookup returns the first plane declared with key for pass.
func (p *Package) Lookup(pass Pass, key string) (*Plane, bool) {
	if pass < 0 || pass >= PassCount {
		return nil, false
	}
	idx, ok := p.tables[pass][key]
	if !ok {
		return nil, false
	}
	return p.Planes[idx], true
}

// PlaneIndex returns the stored plane index for key in pass's table.
func (p *Package) PlaneIndex(pass Pass, key string) (int, bool) {
	if pass < 0 || pass >= PassCount {
		return 0, false
	}
	idx, ok := p.tables[pass][key]
	return idx, ok
}

// Keys returns the keys of pass's table in ascending order. The slice must
// not be modified.
func (p *Package) Keys(pass Pass) []string {
	if pass < 0 || pass >= PassCount {
		return nil
	}
	return p.keys[pass]
}
