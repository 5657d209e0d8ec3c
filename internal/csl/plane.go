package csl

import (
	"fmt"
	"sync/atomic"
)

// Handle is a renderer-assigned reference to a loaded model or texture.
// Non-negative values are resolved handles.
type Handle int64

const (
	// HandleUnresolved means the renderer has not tried to load the asset yet.
	HandleUnresolved Handle = -1
	// HandleFailed means the renderer tried and could not load the asset.
	HandleFailed Handle = -2
)

// Resolved reports whether h refers to a loaded asset.
func (h Handle) Resolved() bool { return h >= 0 }

// handleSlot holds a Handle that the rendering side may set while matchers
// read it.
type handleSlot struct {
	v atomic.Int64
}

func newHandleSlot() *handleSlot {
	s := &handleSlot{}
	s.v.Store(int64(HandleUnresolved))
	return s
}

func (s *handleSlot) load() Handle   { return Handle(s.v.Load()) }
func (s *handleSlot) store(h Handle) { s.v.Store(int64(h)) }

// ModelKind identifies the Model variant of a Plane.
type ModelKind int

const (
	KindLegacyEngine ModelKind = iota
	KindStaticObject
	KindLightsOverlay
	KindModernObject
)

func (k ModelKind) String() string {
	switch k {
	case KindLegacyEngine:
		return "legacy-engine"
	case KindStaticObject:
		return "static-object"
	case KindLightsOverlay:
		return "lights-overlay"
	case KindModernObject:
		return "modern-object"
	default:
		return fmt.Sprintf("ModelKind(%d)", int(k))
	}
}

// Model is the variant part of a Plane. The concrete types are
// *LegacyEngine, *StaticObject, *LightsOverlay and *ModernObject.
type Model interface {
	Kind() ModelKind
	// AssetPath is the resolved filesystem path of the primary asset.
	AssetPath() string
	// usable reports whether the model may be handed out by the matcher.
	usable() bool
}

// LegacyEngine is an aircraft drawn by the host's own aircraft engine
// (AIRCRAFT command). It is only usable once the host assigned it a slot.
type LegacyEngine struct {
	Path  string
	index *handleSlot
}

func (m *LegacyEngine) Kind() ModelKind   { return KindLegacyEngine }
func (m *LegacyEngine) AssetPath() string { return m.Path }
func (m *LegacyEngine) usable() bool      { return m.Index().Resolved() }

// Index returns the host aircraft slot, HandleUnresolved until assigned.
func (m *LegacyEngine) Index() Handle { return m.index.load() }

// SetIndex records the host aircraft slot for this model.
func (m *LegacyEngine) SetIndex(h Handle) { m.index.store(h) }

// StaticObject is a legacy static geometry model (OBJECT command) with an
// optional texture (TEXTURE command).
type StaticObject struct {
	Path           string
	ObjectName     string   // file name without extension
	DirNames       []string // package root dir followed by sub-directories
	TextureName    string
	TexturePath    string
	LitTexturePath string
	texture        *handleSlot
}

func (m *StaticObject) Kind() ModelKind   { return KindStaticObject }
func (m *StaticObject) AssetPath() string { return m.Path }
func (m *StaticObject) usable() bool      { return m.Texture() != HandleFailed }

// Texture returns the renderer's texture handle.
func (m *StaticObject) Texture() Handle { return m.texture.load() }

// SetTexture records the renderer's texture handle.
func (m *StaticObject) SetTexture(h Handle) { m.texture.store(h) }

// LightsOverlay draws only the light points of an aircraft. No declaration
// command produces it; the host builds one with NewLightsOverlay for traffic
// it draws as lights alone, for example beyond model range.
type LightsOverlay struct{}

func NewLightsOverlay() *LightsOverlay { return &LightsOverlay{} }

func (m *LightsOverlay) Kind() ModelKind   { return KindLightsOverlay }
func (m *LightsOverlay) AssetPath() string { return "" }
func (m *LightsOverlay) usable() bool      { return true }

// DrawRole says how a sub-object attachment is drawn.
type DrawRole int

const (
	DrawSolid DrawRole = iota
	DrawLights
)

func (r DrawRole) String() string {
	if r == DrawLights {
		return "LIGHTS"
	}
	return "SOLID"
}

// Attachment is one OBJ8 sub-object of a ModernObject.
type Attachment struct {
	Role    DrawRole
	Animate bool
	Path    string
}

// ModernObject is an OBJ8_AIRCRAFT model assembled from attachments.
type ModernObject struct {
	Path        string
	ObjectName  string
	DirNames    []string
	Attachments []Attachment
	texture     *handleSlot
}

func (m *ModernObject) Kind() ModelKind   { return KindModernObject }
func (m *ModernObject) AssetPath() string { return m.Path }
func (m *ModernObject) usable() bool      { return m.Texture() != HandleFailed }

// Texture returns the renderer's texture handle.
func (m *ModernObject) Texture() Handle { return m.texture.load() }

// SetTexture records the renderer's texture handle.
func (m *ModernObject) SetTexture(h Handle) { m.texture.store(h) }

// NewLegacyEngine returns an unresolved legacy-engine model.
func NewLegacyEngine(path string) *LegacyEngine {
	return &LegacyEngine{Path: path, index: newHandleSlot()}
}

// NewStaticObject returns a static object model with an unresolved texture.
func NewStaticObject(path string) *StaticObject {
	return &StaticObject{Path: path, texture: newHandleSlot()}
}

// NewModernObject returns a modern object model with an unresolved texture.
func NewModernObject(path string) *ModernObject {
	return &ModernObject{Path: path, texture: newHandleSlot()}
}

// Plane is one renderable model declared in a package.
type Plane struct {
	Model      Model
	ICAO       string
	Airline    string
	Livery     string
	MovingGear bool

	VertOffset    float64
	HasVertOffset bool
}

// Usable reports whether the matcher may return p: legacy-engine models must
// be loaded by the host, object models must not have failed to load.
func (p *Plane) Usable() bool {
	return p != nil && p.Model != nil && p.Model.usable()
}

func (p *Plane) String() string {
	return fmt.Sprintf("%s/%s/%s %s %s", p.ICAO, p.Airline, p.Livery, p.Model.Kind(), p.Model.AssetPath())
}
