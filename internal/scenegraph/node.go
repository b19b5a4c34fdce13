// Package scenegraph is the rendering substrate consumed by the scene
// registry: a flat set of nodes with world transforms, ray picking and
// off-screen render targets.
package scenegraph

import (
	"errors"
	"image"
	"image/color"

	"github.com/google/uuid"

	"projmap/internal/mathutil"
)

var (
	ErrUnknownNode   = errors.New("scenegraph: unknown node")
	ErrReleased      = errors.New("scenegraph: target already released")
	ErrForeignTarget = errors.New("scenegraph: target was not created by this scene")
)

// NodeID identifies a node for its whole lifetime.
type NodeID = uuid.UUID

// Mesh is indexed triangle geometry in node-local space. UVs are optional;
// when present they run parallel to Positions with V=0 at the image top.
type Mesh struct {
	Positions []mathutil.Vec3
	UVs       [][2]float64
	Indices   [][3]int
}

// SpotLight is a cone light looking down the node's local -Z.
type SpotLight struct {
	Angle     float64 // half-angle in radians
	Intensity float64
	Distance  float64 // 0 means unbounded
	Penumbra  float64 // 0..1 soft fraction of the cone
}

// Node is a renderable element. Lines hold segment vertex pairs in local space.
type Node struct {
	ID         NodeID
	Name       string
	World      mathutil.Mat4
	Visible    bool
	Selectable bool
	Helper     bool // editor-only visualization, skipped by cameras with HideHelpers
	Mesh       *Mesh
	Lines      []mathutil.Vec3
	Color      color.NRGBA
	Texture    *image.NRGBA
	Unlit      bool
	Light      *SpotLight
}

// Ray is a half-line in world space. Dir need not be normalized.
type Ray struct {
	Origin mathutil.Vec3
	Dir    mathutil.Vec3
}

// Hit is the nearest intersection found by Pick.
type Hit struct {
	Node     NodeID
	Distance float64
	Point    mathutil.Vec3
}

// Target is an off-screen colour and depth buffer.
type Target interface {
	Size() (w, h int)
	// ReadPixels copies RGBA rows into dst in bottom-up order, the way a GPU
	// readback delivers them. dst must hold w*h*4 bytes.
	ReadPixels(dst []byte) error
	// ReadDepth copies per-pixel view depth, the distance along the camera's
	// forward axis, in the same row order. Pixels nothing was drawn on read
	// as +Inf. dst must hold w*h values.
	ReadDepth(dst []float64) error
	Release() error
}

// Graph is the scene-graph capability used by the registry and compositor.
type Graph interface {
	Add(n Node) NodeID
	Remove(id NodeID) error
	SetTransform(id NodeID, world mathutil.Mat4) error
	SetVisible(id NodeID, visible bool) error
	SetLines(id NodeID, lines []mathutil.Vec3) error
	SetLight(id NodeID, l SpotLight) error
	SetTexture(id NodeID, tex *image.NRGBA) error
	Node(id NodeID) (Node, bool)
	Pick(r Ray, candidates []NodeID) (Hit, bool)
	NewTarget(w, h int) (Target, error)
	Render(t Target, cam Camera) error
}
