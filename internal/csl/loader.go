package csl

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/spf13/afero"

	"csl_trmnl/internal/metrics"
)

// DeclarationFile is the per-package declaration file name.
const DeclarationFile = "xsb_aircraft.txt"

// Options configures a Loader.
type Options struct {
	// FS provides directory listing, existence checks and file contents.
	FS afero.Fs
	// SimVersion returns the host's running version for AIRCRAFT ranges.
	SimVersion func() int
	// SystemPath is stripped from the front of OBJ8 attachment paths.
	SystemPath string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Sources names the inputs of a full catalog load.
type Sources struct {
	PackageRoots      []string
	RelatedFile       string
	AircraftCodesFile string
}

// Loader reads reference documents and package directories into catalogs.
type Loader struct {
	fs         afero.Fs
	version    func() int
	systemPath string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewLoader creates a Loader. A nil FS reads the OS filesystem and a nil
// Logger uses slog.Default().
func NewLoader(opts Options) *Loader {
	l := &Loader{
		fs:         opts.FS,
		version:    opts.SimVersion,
		systemPath: opts.SystemPath,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

func (l *Loader) simVersion() int {
	if l.version == nil {
		return 0
	}
	return l.version()
}

// Load reads both reference documents and then every package under each
// root, in order. The catalog is always usable; the error reports reference
// documents that could not be read.
func (l *Loader) Load(src Sources) (*Catalog, error) {
	var errs []error

	codes, err := l.loadAircraftCodes(src.AircraftCodesFile)
	if err != nil {
		errs = append(errs, err)
	}
	groups, err := l.loadGroupings(src.RelatedFile)
	if err != nil {
		errs = append(errs, err)
	}

	cat := NewCatalog(codes, groups)
	l.loadRoots(cat, src.PackageRoots)
	l.metrics.CatalogSize(cat.Len())
	return cat, errors.Join(errs...)
}

// Rescan returns a new catalog holding prev's packages followed by any new
// packages found under roots. Paths already in prev are skipped and prev is
// left untouched.
func (l *Loader) Rescan(prev *Catalog, roots ...string) *Catalog {
	next := prev.clone()
	l.loadRoots(next, roots)
	l.metrics.CatalogSize(next.Len())
	return next
}

func (l *Loader) loadAircraftCodes(file string) (AircraftCodes, error) {
	data, err := afero.ReadFile(l.fs, file)
	if err != nil {
		l.logger.Warn("Could not open ICAO aircraft type document", "path", file, "error", err)
		return nil, fmt.Errorf("failed to read aircraft codes %s: %w", file, err)
	}
	codes, err := ParseAircraftCodes(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse aircraft codes %s: %w", file, err)
	}
	l.metrics.ReferenceLoaded("aircraft_codes", len(codes))
	l.logger.Debug("Loaded aircraft codes", "path", file, "entries", len(codes))
	return codes, nil
}

func (l *Loader) loadGroupings(file string) (Groupings, error) {
	data, err := afero.ReadFile(l.fs, file)
	if err != nil {
		l.logger.Warn("Could not open related types document", "path", file, "error", err)
		return nil, fmt.Errorf("failed to read groupings %s: %w", file, err)
	}
	groups, err := ParseGroupings(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse groupings %s: %w", file, err)
	}
	l.metrics.ReferenceLoaded("groupings", len(groups))
	l.logger.Debug("Loaded groupings", "path", file, "entries", len(groups))
	return groups, nil
}

// scanRoot reads the EXPORT_NAME of each package directory under root and
// returns pending extended with the packages that got a name.
func (l *Loader) scanRoot(cat *Catalog, root string, pending []*Package) []*Package {
	entries, err := afero.ReadDir(l.fs, root)
	if err != nil {
		l.logger.Warn("Could not list package directory", "path", root, "error", err)
		return pending
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := path.Join(root, entry.Name())
		file := path.Join(dir, DeclarationFile)

		if cat.HasPath(dir) || pendingPath(pending, dir) {
			l.metrics.PackageRejected("already_loaded")
			continue
		}
		if ok, _ := afero.Exists(l.fs, file); !ok {
			l.metrics.PackageRejected("no_declaration")
			continue
		}

		l.logger.Info("Loading package", "path", file)
		data, err := afero.ReadFile(l.fs, file)
		if err != nil {
			l.logger.Warn("Could not read package declaration", "path", file, "error", err)
			l.metrics.PackageRejected("unreadable")
			continue
		}
		pkg, err := l.parseHeader(dir, data, cat, pending)
		if err != nil {
			l.logger.Warn("Could not read package declaration", "path", file, "error", err)
			l.metrics.PackageRejected("unreadable")
			continue
		}
		if !pkg.Valid() {
			l.metrics.PackageRejected("no_name")
			continue
		}
		pending = append(pending, pkg)
	}

	return pending
}

func pendingPath(pending []*Package, dir string) bool {
	for _, p := range pending {
		if p.Path == dir {
			return true
		}
	}
	return false
}

// loadRoots runs the header phase over every child of every root, appends
// the named packages to cat in root order, then fully parses each of them.
// Appending before the full phase lets DEPENDENCY and path prefixes see every
// new package, whichever root it lives under.
func (l *Loader) loadRoots(cat *Catalog, roots []string) {
	var pending []*Package
	for _, root := range roots {
		pending = l.scanRoot(cat, root, pending)
	}

	cat.add(pending...)

	for _, pkg := range pending {
		file := path.Join(pkg.Path, DeclarationFile)
		data, err := afero.ReadFile(l.fs, file)
		if err != nil {
			l.logger.Warn("Could not re-read package declaration", "path", file, "error", err)
			pkg.seal()
			continue
		}
		if err := l.parseFull(cat, pkg, data); err != nil {
			l.logger.Warn("Could not parse package declaration", "path", file, "error", err)
		}
		l.metrics.PackageLoaded(len(pkg.Planes))
		l.logger.Debug("Loaded package", "name", pkg.Name, "path", pkg.Path, "planes", len(pkg.Planes))
	}
}

// parseHeader scans for the package's EXPORT_NAME and stops at the first
// one accepted. The returned package has no name if none was accepted.
func (l *Loader) parseHeader(dir string, data []byte, cat *Catalog, pending []*Package) (*Package, error) {
	file := path.Join(dir, DeclarationFile)
	diag := newDiagnostics(l.logger, l.metrics, file)

	lines, err := Lines(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	pkg := newPackage("", dir)
	for _, line := range lines {
		tokens := Tokenize(line.Text, lineSeparators, 0)
		if len(tokens) == 0 || tokens[0] != CmdExportName.String() {
			continue
		}
		if err := exportName(tokens, line, diag, pkg, cat, pending); err == nil {
			break
		}
	}
	return pkg, nil
}

func exportName(tokens []string, line Line, diag *diagnostics, pkg *Package, cat *Catalog, pending []*Package) error {
	if len(tokens) != 2 {
		diag.warn(CmdExportName.String(), line, "EXPORT_NAME command requires 1 argument", "args", len(tokens)-1)
		return ErrArgCount
	}
	name := tokens[1]

	owner, taken := cat.Package(name)
	if !taken {
		for _, p := range pending {
			if p.Name == name {
				owner, taken = p, true
				break
			}
		}
	}
	if taken {
		diag.warn(CmdExportName.String(), line, "Package name already in use",
			"name", name,
			"owner", owner.Path,
			"requested_by", pkg.Path,
		)
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	pkg.Name = name
	return nil
}

func (l *Loader) parseFull(cat *Catalog, pkg *Package, data []byte) error {
	file := path.Join(pkg.Path, DeclarationFile)
	lines, err := Lines(bytes.NewReader(data))
	if err != nil {
		pkg.seal()
		return err
	}
	newBuilder(l, cat, pkg, newDiagnostics(l.logger, l.metrics, file)).run(lines)
	return nil
}

// litTexture finds the lit companion of a texture, "<stem>_LIT<ext>" or
// "<stem>LIT<ext>", if one exists.
func (l *Loader) litTexture(texture string) string {
	ext := path.Ext(texture)
	stem := strings.TrimSuffix(texture, ext)
	for _, candidate := range []string{stem + "_LIT" + ext, stem + "LIT" + ext} {
		if ok, _ := afero.Exists(l.fs, candidate); ok {
			return candidate
		}
	}
	return ""
}

// trimSystemPath makes p relative to the host's system path when p lies
// below it.
func (l *Loader) trimSystemPath(p string) string {
	if l.systemPath != "" && len(p) > len(l.systemPath) && strings.HasPrefix(p, l.systemPath) {
		return p[len(l.systemPath):]
	}
	return p
}
