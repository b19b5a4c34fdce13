package scene

import (
	"image"

	"projmap/internal/catalog"
	"projmap/internal/mathutil"
	"projmap/internal/optics"
	"projmap/internal/scenegraph"
)

// Projector defaults and limits.
const (
	ProjectorNear         = 0.1
	ProjectorCameraFar    = 500.0
	DefaultProjDistance   = 8.0
	DefaultTargetDistance = 8.0
	ProjDistanceMin       = 0.5
	ProjDistanceMax       = 100.0
	IntensityMax          = 2.0
	ProjectorSpacing      = 5.0
)

// Projector is a placed projector with its optical state. Values returned by
// the registry are snapshots; mutate through UpdateProjector.
type Projector struct {
	ID    int
	Name  string
	Model *catalog.ProjectorModel
	Lens  *catalog.Lens

	Transform mathutil.Transform
	Target    mathutil.Vec3

	ThrowRatio   float64
	ShiftV       float64
	ShiftH       float64
	ProjDistance float64
	Intensity    float64
	Orientation  optics.Orientation
	Keystone     optics.Keystone
	SoftEdge     optics.SoftEdge

	TargetLocked    bool
	UserMovedTarget bool
	Visible         bool

	// Derived from ThrowRatio and Orientation.
	FOV    float64
	Aspect float64

	TestPattern int // object id, 0 when none
	Content     *image.NRGBA

	nodes projectorNodes
	depth scenegraph.Target
}

type projectorNodes struct {
	body, lens, frustum, light, target scenegraph.NodeID
}

// Corners returns the current frustum corners in projector-local space, far
// plane at ProjDistance.
func (p Projector) Corners() optics.Corners {
	return optics.FrustumCorners(p.FOV, p.Aspect, ProjectorNear, p.ProjDistance, p.ShiftV, p.ShiftH)
}

// View returns the projector as a render camera, lens shift included.
func (p Projector) View() scenegraph.Camera {
	return scenegraph.Camera{
		World:       p.Transform.Matrix(),
		FOV:         p.FOV,
		Aspect:      p.Aspect,
		Near:        ProjectorNear,
		Far:         ProjectorCameraFar,
		ShiftH:      p.ShiftH,
		ShiftV:      p.ShiftV,
		HideHelpers: true,
	}
}

// BodyNode returns the selectable node of the projector housing.
func (p Projector) BodyNode() scenegraph.NodeID { return p.nodes.body }

// TargetNode returns the aim marker node.
func (p Projector) TargetNode() scenegraph.NodeID { return p.nodes.target }

// FrustumNode returns the wireframe visualization node.
func (p Projector) FrustumNode() scenegraph.NodeID { return p.nodes.frustum }

// ProjectorSettings is a partial update. Nil fields are left unchanged.
type ProjectorSettings struct {
	Name         *string
	Lens         *string
	ThrowRatio   *float64
	ShiftV       *float64
	ShiftH       *float64
	ProjDistance *float64
	Intensity    *float64
	Orientation  *optics.Orientation
	Keystone     *optics.Keystone
	SoftEdge     *optics.SoftEdge
	TargetLocked *bool
	Visible      *bool
}

// ProjectorOptions configures CreateProjector.
type ProjectorOptions struct {
	TestPattern bool
}

// Camera defaults and limits.
const (
	DefaultCameraFOV  = 50.0
	DefaultCameraNear = 0.1
	DefaultCameraFar  = 100.0
	CameraFOVMin      = 10.0
	CameraFOVMax      = 120.0
	CameraNearMin     = 0.01
	CameraNearMax     = 10.0
	CameraFarMin      = 10.0
	CameraFarMax      = 1000.0
	cameraTargetDist  = 5.0
)

// DefaultCameraAspect is 16:9.
const DefaultCameraAspect = 16.0 / 9.0

// Camera is a placed virtual camera.
type Camera struct {
	ID        int
	Name      string
	Transform mathutil.Transform
	FOV       float64
	Aspect    float64
	Near      float64
	Far       float64
	Assigned  [numSlots]bool

	nodes cameraNodes
}

type cameraNodes struct {
	body, helper, target scenegraph.NodeID
}

// View returns the camera as a render camera with editor helpers hidden.
func (c Camera) View() scenegraph.Camera {
	return scenegraph.Camera{
		World:       c.Transform.Matrix(),
		FOV:         c.FOV,
		Aspect:      c.Aspect,
		Near:        c.Near,
		Far:         c.Far,
		HideHelpers: true,
	}
}

// BodyNode returns the selectable camera node.
func (c Camera) BodyNode() scenegraph.NodeID { return c.nodes.body }

// CameraSettings is a partial update. Nil fields are left unchanged.
type CameraSettings struct {
	Name   *string
	FOV    *float64
	Aspect *float64
	Near   *float64
	Far    *float64
}

// Category groups scene objects.
type Category int

const (
	CategoryPrimitive Category = iota
	CategoryWall
	CategoryScreen
	CategoryModel
)

func (c Category) String() string {
	switch c {
	case CategoryWall:
		return "wall"
	case CategoryScreen:
		return "screen"
	case CategoryModel:
		return "model"
	}
	return "primitive"
}

// PrimitiveKind selects the mesh built by CreatePrimitive.
type PrimitiveKind string

const (
	PrimitiveBox      PrimitiveKind = "box"
	PrimitivePlane    PrimitiveKind = "plane"
	PrimitiveSphere   PrimitiveKind = "sphere"
	PrimitiveCylinder PrimitiveKind = "cylinder"
	PrimitiveCone     PrimitiveKind = "cone"
)

// Object is a generic scene element owning exactly one node.
type Object struct {
	ID        int
	Name      string
	Category  Category
	Kind      PrimitiveKind // primitives only
	Transform mathutil.Transform
	Visible   bool
	Projector int // owning projector for test patterns, 0 otherwise

	node scenegraph.NodeID
}

// Node returns the object's renderable node.
func (o Object) Node() scenegraph.NodeID { return o.node }
