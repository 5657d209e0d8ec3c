package csl

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// builder runs the full-phase commands of one declaration file against the
// package under construction.
type builder struct {
	loader  *Loader
	catalog *Catalog
	pkg     *Package
	diag    *diagnostics

	// current is the plane that attribute commands modify.
	current    *Plane
	currentIdx int
	// skipped is set while the lines after an AIRCRAFT declaration for
	// another host version are being read.
	skipped bool
}

func newBuilder(l *Loader, c *Catalog, pkg *Package, diag *diagnostics) *builder {
	return &builder{loader: l, catalog: c, pkg: pkg, diag: diag, currentIdx: -1}
}

// run dispatches every line; a failing line never stops the parse.
func (b *builder) run(lines []Line) {
	for _, line := range lines {
		tokens := Tokenize(line.Text, lineSeparators, 0)
		if len(tokens) == 0 {
			continue
		}
		cmd, ok := LookupCommand(tokens[0])
		if !ok {
			b.diag.warn(tokens[0], line, "Parse error: unknown command")
			continue
		}
		_ = b.dispatch(cmd, tokens, line)
	}
	b.diag.flush()
	b.pkg.seal()
}

func (b *builder) dispatch(cmd Command, tokens []string, line Line) error {
	switch cmd {
	case CmdExportName:
		// Consumed by the header phase.
		return nil
	case CmdDependency:
		return b.dependency(tokens, line)
	case CmdObject:
		return b.object(tokens, line)
	case CmdTexture:
		return b.texture(tokens, line)
	case CmdAircraft:
		return b.aircraft(tokens, line)
	case CmdObj8Aircraft:
		return b.obj8Aircraft(tokens, line)
	case CmdObj8:
		return b.obj8(tokens, line)
	case CmdVertOffset:
		return b.vertOffset(tokens, line)
	case CmdHasGear:
		return b.hasGear(tokens, line)
	case CmdICAO:
		return b.icao(tokens, line)
	case CmdAirline:
		return b.airline(tokens, line)
	case CmdLivery:
		return b.livery(tokens, line)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

// declare makes p the current plane.
func (b *builder) declare(p *Plane) {
	b.pkg.Planes = append(b.pkg.Planes, p)
	b.current = p
	b.currentIdx = len(b.pkg.Planes) - 1
	b.skipped = false
}

// drop clears the current plane after a declaration that produced none, so
// that its attribute lines cannot modify an earlier plane.
func (b *builder) drop() {
	b.current = nil
	b.currentIdx = -1
	b.skipped = false
}

func (b *builder) requirePlane(cmd Command, line Line) (*Plane, error) {
	if b.current == nil {
		if b.skipped {
			b.diag.debug(cmd.String(), line, "Ignoring attribute of skipped AIRCRAFT declaration")
			return nil, ErrNoCurrentPlane
		}
		b.diag.warn(cmd.String(), line, cmd.String()+" command has no plane to apply to")
		return nil, ErrNoCurrentPlane
	}
	return b.current, nil
}

func (b *builder) argCount(cmd Command, tokens []string, want int, line Line, msg string) error {
	if len(tokens)-1 == want {
		return nil
	}
	b.diag.warn(cmd.String(), line, msg, "args", len(tokens)-1)
	return ErrArgCount
}

// resolve normalises a package-relative path and rewrites its package name
// prefix into the package root path.
func (b *builder) resolve(cmd Command, rel string, line Line) (relative, absolute string, err error) {
	relative = NormalizeSeparators(rel)
	absolute, ok := b.catalog.resolvePath(relative)
	if !ok {
		b.diag.warn(cmd.String(), line, "package not found", "path", relative)
		return relative, "", fmt.Errorf("%w: %s", ErrPackageNotFound, relative)
	}
	return relative, absolute, nil
}

func (b *builder) dependency(tokens []string, line Line) error {
	if err := b.argCount(CmdDependency, tokens, 1, line, "DEPENDENCY command needs 1 argument"); err != nil {
		return err
	}
	name := tokens[1]
	if _, ok := b.catalog.Package(name); !ok {
		b.pkg.MissingDependencies = append(b.pkg.MissingDependencies, name)
		b.diag.warn(CmdDependency.String(), line, "required package not found", "dependency", name)
		return fmt.Errorf("%w: %s", ErrMissingDependency, name)
	}
	return nil
}

func (b *builder) object(tokens []string, line Line) error {
	if err := b.argCount(CmdObject, tokens, 1, line, "OBJECT command takes 1 argument"); err != nil {
		b.drop()
		return err
	}
	relative, absolute, err := b.resolve(CmdObject, tokens[1], line)
	if err != nil {
		b.drop()
		return err
	}

	dirs := Tokenize(relative, "/", 0)
	if len(dirs) < 2 {
		b.diag.warn(CmdObject.String(), line, "OBJECT path must name a file inside a package", "path", relative)
		b.drop()
		return ErrBadArgument
	}
	file := dirs[len(dirs)-1]
	dirs = dirs[:len(dirs)-1]
	// The leading package name is replaced by the package's directory.
	dirs[0] = path.Base(b.pkg.Path)

	m := NewStaticObject(absolute)
	m.ObjectName = strings.TrimSuffix(file, path.Ext(file))
	m.DirNames = dirs
	b.declare(&Plane{Model: m, MovingGear: true})
	return nil
}

func (b *builder) texture(tokens []string, line Line) error {
	if err := b.argCount(CmdTexture, tokens, 1, line, "TEXTURE command takes 1 argument"); err != nil {
		return err
	}
	p, err := b.requirePlane(CmdTexture, line)
	if err != nil {
		return err
	}
	m, ok := p.Model.(*StaticObject)
	if !ok {
		b.diag.warn(CmdTexture.String(), line, "TEXTURE only applies to OBJECT planes", "kind", p.Model.Kind().String())
		return ErrWrongPlaneKind
	}
	_, absolute, err := b.resolve(CmdTexture, tokens[1], line)
	if err != nil {
		return err
	}

	name := path.Base(absolute)
	m.TextureName = strings.TrimSuffix(name, path.Ext(name))
	m.TexturePath = absolute
	m.LitTexturePath = b.loader.litTexture(absolute)
	return nil
}

func (b *builder) aircraft(tokens []string, line Line) error {
	// AIRCRAFT <min version> <max version> <path>
	if err := b.argCount(CmdAircraft, tokens, 3, line, "AIRCRAFT command takes 3 arguments"); err != nil {
		b.drop()
		return err
	}
	minVersion, errMin := strconv.Atoi(tokens[1])
	maxVersion, errMax := strconv.Atoi(tokens[2])
	if errMin != nil || errMax != nil {
		b.diag.warn(CmdAircraft.String(), line, "AIRCRAFT version bounds must be integers")
		b.drop()
		return ErrBadArgument
	}

	version := b.loader.simVersion()
	if version < minVersion || version > maxVersion {
		b.drop()
		b.skipped = true
		b.diag.debug(CmdAircraft.String(), line, "Skipping AIRCRAFT for another host version",
			"min", minVersion, "max", maxVersion, "version", version)
		return nil
	}

	_, absolute, err := b.resolve(CmdAircraft, tokens[3], line)
	if err != nil {
		b.drop()
		return err
	}
	b.declare(&Plane{Model: NewLegacyEngine(absolute), MovingGear: true})
	return nil
}

func (b *builder) obj8Aircraft(tokens []string, line Line) error {
	// OBJ8_AIRCRAFT <name>
	if len(tokens) != 2 {
		b.diag.limited(warnLevel, throttleObj8AircraftArgs, CmdObj8Aircraft.String(), line)
		if len(tokens) < 2 {
			b.drop()
			return ErrArgCount
		}
	}

	m := NewModernObject(tokens[1])
	m.ObjectName = tokens[1]
	m.DirNames = []string{path.Base(b.pkg.Path)}
	b.declare(&Plane{Model: m, MovingGear: true})
	return nil
}

func (b *builder) obj8(tokens []string, line Line) error {
	// OBJ8 <LIGHTS|SOLID> <YES|NO> <path> [texture [lit texture]]
	if len(tokens) < 4 {
		b.diag.warn(CmdObj8.String(), line, "OBJ8 command takes 3 arguments", "args", len(tokens)-1)
		return ErrArgCount
	}
	if len(tokens) > 4 {
		b.diag.limited(infoLevel, throttleObj8ExtraArgs, CmdObj8.String(), line)
	}

	p, err := b.requirePlane(CmdObj8, line)
	if err != nil {
		return err
	}
	m, ok := p.Model.(*ModernObject)
	if !ok {
		b.diag.warn(CmdObj8.String(), line, "OBJ8 must follow an OBJ8_AIRCRAFT declaration", "kind", p.Model.Kind().String())
		return ErrWrongPlaneKind
	}

	var att Attachment
	switch tokens[1] {
	case "LIGHTS":
		att.Role = DrawLights
	case "SOLID":
		att.Role = DrawSolid
	default:
		b.diag.limited(warnLevel, throttleObj8PartType, CmdObj8.String(), line, "part", tokens[1])
		return ErrBadArgument
	}
	att.Animate = tokens[2] == "YES"

	_, absolute, err := b.resolve(CmdObj8, tokens[3], line)
	if err != nil {
		return err
	}
	att.Path = b.loader.trimSystemPath(absolute)

	m.Attachments = append(m.Attachments, att)
	return nil
}

func (b *builder) vertOffset(tokens []string, line Line) error {
	// VERT_OFFSET <meters>
	if len(tokens) != 2 {
		b.diag.limited(warnLevel, throttleVertOffsetArgs, CmdVertOffset.String(), line)
		return ErrArgCount
	}
	offset, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		b.diag.warn(CmdVertOffset.String(), line, "VERT_OFFSET argument must be a number")
		return ErrBadArgument
	}
	p, err := b.requirePlane(CmdVertOffset, line)
	if err != nil {
		return err
	}
	p.VertOffset = offset
	p.HasVertOffset = true
	return nil
}

func (b *builder) hasGear(tokens []string, line Line) error {
	// HASGEAR YES|NO
	if len(tokens) != 2 || (tokens[1] != "YES" && tokens[1] != "NO") {
		b.diag.warn(CmdHasGear.String(), line, "HASGEAR takes one argument that must be YES or NO")
		return ErrBadArgument
	}
	p, err := b.requirePlane(CmdHasGear, line)
	if err != nil {
		return err
	}
	p.MovingGear = tokens[1] == "YES"
	return nil
}

func (b *builder) icao(tokens []string, line Line) error {
	// ICAO <code>
	if err := b.argCount(CmdICAO, tokens, 1, line, "ICAO command takes 1 argument"); err != nil {
		return err
	}
	p, err := b.requirePlane(CmdICAO, line)
	if err != nil {
		return err
	}
	p.ICAO = tokens[1]
	b.indexIdentity(PassICAO, PassGroup, p.ICAO)
	return nil
}

func (b *builder) airline(tokens []string, line Line) error {
	// AIRLINE <code> <airline>
	if err := b.argCount(CmdAirline, tokens, 2, line, "AIRLINE command takes 2 arguments"); err != nil {
		return err
	}
	p, err := b.requirePlane(CmdAirline, line)
	if err != nil {
		return err
	}
	p.ICAO, p.Airline = tokens[1], tokens[2]
	b.indexIdentity(PassICAOAirline, PassGroupAirline, p.ICAO, p.Airline)
	return nil
}

func (b *builder) livery(tokens []string, line Line) error {
	// LIVERY <code> <airline> <livery>
	if err := b.argCount(CmdLivery, tokens, 3, line, "LIVERY command takes 3 arguments"); err != nil {
		return err
	}
	p, err := b.requirePlane(CmdLivery, line)
	if err != nil {
		return err
	}
	p.ICAO, p.Airline, p.Livery = tokens[1], tokens[2], tokens[3]
	b.indexIdentity(PassICAOAirlineLivery, PassGroupAirlineLivery, p.ICAO, p.Airline, p.Livery)
	return nil
}

// indexIdentity records the current plane under the ICAO key and, when the
// type belongs to a group, under the group key. Earlier entries win.
func (b *builder) indexIdentity(icaoPass, groupPass Pass, icao string, rest ...string) {
	b.pkg.index(icaoPass, IdentityKey(append([]string{icao}, rest...)...), b.currentIdx)
	if group := b.catalog.Group(icao); group != "" {
		b.pkg.index(groupPass, IdentityKey(append([]string{group}, rest...)...), b.currentIdx)
	}
}
