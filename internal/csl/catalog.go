package csl

import "strings"

// Catalog is the ordered set of loaded packages together with the reference
// tables used to match against them. Load order is priority order.
//
// A Catalog returned by Loader.Load or Loader.Rescan is never modified again
// and is safe for concurrent readers.
type Catalog struct {
	packages []*Package
	byName   map[string]*Package
	byPath   map[string]*Package

	codes  AircraftCodes
	groups Groupings
}

// NewCatalog returns an empty catalog over the given reference tables.
func NewCatalog(codes AircraftCodes, groups Groupings) *Catalog {
	if codes == nil {
		codes = AircraftCodes{}
	}
	if groups == nil {
		groups = Groupings{}
	}
	return &Catalog{
		byName: make(map[string]*Package),
		byPath: make(map[string]*Package),
		codes:  codes,
		groups: groups,
	}
}

// Packages returns the packages in priority order. The slice must not be
// modified.
func (c *Catalog) Packages() []*Package { return c.packages }

// Len returns the number of packages.
func (c *Catalog) Len() int { return len(c.packages) }

// Package finds a package by its export name.
func (c *Catalog) Package(name string) (*Package, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// HasPath reports whether a package rooted at dir is already loaded.
func (c *Catalog) HasPath(dir string) bool {
	_, ok := c.byPath[dir]
	return ok
}

// AircraftCode returns the equipment data of an ICAO type designator.
func (c *Catalog) AircraftCode(icao string) (AircraftCode, bool) {
	code, ok := c.codes[icao]
	return code, ok
}

// Group returns the related-types group of icao, or "".
func (c *Catalog) Group(icao string) string { return c.groups[icao] }

// PlaneCount returns the number of planes across all packages.
func (c *Catalog) PlaneCount() int {
	n := 0
	for _, p := range c.packages {
		n += len(p.Planes)
	}
	return n
}

func (c *Catalog) add(pkgs ...*Package) {
	for _, p := range pkgs {
		c.packages = append(c.packages, p)
		c.byName[p.Name] = p
		c.byPath[p.Path] = p
	}
}

// clone copies the package list; the packages themselves are shared.
func (c *Catalog) clone() *Catalog {
	next := NewCatalog(c.codes, c.groups)
	next.add(c.packages...)
	return next
}

// resolvePath replaces a leading package name in rel with that package's
// root path. Packages are tried in catalog order.
func (c *Catalog) resolvePath(rel string) (string, bool) {
	for _, p := range c.packages {
		if strings.HasPrefix(rel, p.Name) {
			return p.Path + rel[len(p.Name):], true
		}
	}
	return rel, false
}

// NormalizeSeparators rewrites '/', ':' and '\' to '/'.
func NormalizeSeparators(p string) string {
	return strings.Map(func(r rune) rune {
		if r == ':' || r == '\\' {
			return '/'
		}
		return r
	}, p)
}
