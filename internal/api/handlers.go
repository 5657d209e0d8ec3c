package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/matcher"
	"csl_trmnl/internal/models"
)

const (
	defaultAssignmentLimit = 50
	maxAssignmentLimit     = 1000
)

type planeView struct {
	Kind       string   `json:"kind"`
	Path       string   `json:"path,omitempty"`
	ICAO       string   `json:"icao"`
	Airline    string   `json:"airline,omitempty"`
	Livery     string   `json:"livery,omitempty"`
	MovingGear bool     `json:"moving_gear"`
	VertOffset *float64 `json:"vert_offset,omitempty"`
}

func newPlaneView(p *csl.Plane) planeView {
	v := planeView{
		Kind:       p.Model.Kind().String(),
		Path:       p.Model.AssetPath(),
		ICAO:       p.ICAO,
		Airline:    p.Airline,
		Livery:     p.Livery,
		MovingGear: p.MovingGear,
	}
	if p.HasVertOffset {
		off := p.VertOffset
		v.VertOffset = &off
	}
	return v
}

type packageSummary struct {
	Name                string   `json:"name"`
	Path                string   `json:"path"`
	PlaneCount          int      `json:"plane_count"`
	MissingDependencies []string `json:"missing_dependencies,omitempty"`
}

type packageDetail struct {
	packageSummary
	Planes []planeView `json:"planes"`
}

type matchResponse struct {
	Query   matchQuery `json:"query"`
	Package string     `json:"package"`
	Plane   planeView  `json:"plane"`
	Phase   string     `json:"phase"`
	Quality int        `json:"quality"`
	Key     string     `json:"key"`
}

type matchQuery struct {
	ICAO    string `json:"icao"`
	Airline string `json:"airline,omitempty"`
	Livery  string `json:"livery,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cat := s.matcher.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"packages": cat.Len(),
		"planes":   cat.PlaneCount(),
	})
}

// handleMatch answers GET /api/match?icao=&airline=&livery=&no_default=
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := matcher.Query{
		ICAO:    strings.TrimSpace(params.Get("icao")),
		Airline: strings.TrimSpace(params.Get("airline")),
		Livery:  strings.TrimSpace(params.Get("livery")),
	}
	if q.ICAO == "" {
		writeError(w, http.StatusBadRequest, "icao is required")
		return
	}
	if nd := params.Get("no_default"); nd != "" {
		b, err := strconv.ParseBool(nd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "no_default must be a boolean")
			return
		}
		q.NoDefault = b
	}

	res, ok := s.matcher.Match(q)
	if !ok {
		writeError(w, http.StatusNotFound, "no model matches "+q.ICAO)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{
		Query:   matchQuery{ICAO: q.ICAO, Airline: q.Airline, Livery: q.Livery},
		Package: res.Package.Name,
		Plane:   newPlaneView(res.Plane),
		Phase:   res.Phase.String(),
		Quality: res.Quality,
		Key:     res.Key,
	})
}

func summarize(p *csl.Package) packageSummary {
	return packageSummary{
		Name:                p.Name,
		Path:                p.Path,
		PlaneCount:          len(p.Planes),
		MissingDependencies: p.MissingDependencies,
	}
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	pkgs := s.matcher.Catalog().Packages()
	out := make([]packageSummary, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, summarize(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := s.matcher.Catalog().Package(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown package "+name)
		return
	}
	planes := make([]planeView, 0, len(p.Planes))
	for _, pl := range p.Planes {
		planes = append(planes, newPlaneView(pl))
	}
	writeJSON(w, http.StatusOK, packageDetail{packageSummary: summarize(p), Planes: planes})
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	if s.assignments == nil {
		writeJSON(w, http.StatusOK, []*models.Assignment{})
		return
	}

	limit := defaultAssignmentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAssignmentLimit)
	}

	recent, err := s.assignments.Recent(limit)
	if err != nil {
		s.logger.Error("Failed to read assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read assignments")
		return
	}
	if recent == nil {
		recent = []*models.Assignment{}
	}
	writeJSON(w, http.StatusOK, recent)
}
