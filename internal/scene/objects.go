package scene

import (
	"fmt"
	"image/color"
	"strings"

	"projmap/internal/mathutil"
	"projmap/internal/scenegraph"
)

var (
	primitiveColor = color.NRGBA{0x88, 0x88, 0x88, 0xff}
	wallColor      = color.NRGBA{0xaa, 0xaa, 0xaa, 0xff}
	modelColor     = color.NRGBA{0xcc, 0xcc, 0xcc, 0xff}
)

// CreatePrimitive adds a primitive of kind at a seeded random spot within
// ±3 on X and Z, 1 to 3 units above the floor.
func (r *Registry) CreatePrimitive(kind PrimitiveKind) (Object, error) {
	var mesh *scenegraph.Mesh
	switch kind {
	case PrimitiveBox:
		mesh = scenegraph.Box(2, 2, 2)
	case PrimitivePlane:
		mesh = scenegraph.Plane(4, 4)
	case PrimitiveSphere:
		mesh = scenegraph.Sphere(1, 24, 16)
	case PrimitiveCylinder:
		mesh = scenegraph.Cylinder(1, 1, 2, 24)
	case PrimitiveCone:
		mesh = scenegraph.Cone(1, 2, 24)
	default:
		return Object{}, fmt.Errorf("scene: unknown primitive %q", kind)
	}
	pos := mathutil.Vec3{
		(r.rng.Float64() - 0.5) * 6,
		1 + r.rng.Float64()*2,
		(r.rng.Float64() - 0.5) * 6,
	}
	id := r.objects.reserve()
	name := fmt.Sprintf("%s %d", strings.ToUpper(string(kind[:1]))+string(kind[1:]), id)
	return r.addObject(&Object{
		ID:        id,
		Name:      name,
		Category:  CategoryPrimitive,
		Kind:      kind,
		Transform: mathutil.NewTransform(pos),
		Visible:   true,
	}, mesh, primitiveColor), nil
}

// CreateWall adds a 12×8 projection surface at (0, 4, -8) facing +Z.
// Triangles are not culled, so both sides render.
func (r *Registry) CreateWall() (Object, error) {
	id := r.objects.reserve()
	return r.addObject(&Object{
		ID:        id,
		Name:      fmt.Sprintf("Wall %d", id),
		Category:  CategoryWall,
		Transform: mathutil.NewTransform(mathutil.Vec3{0, 4, -8}),
		Visible:   true,
	}, scenegraph.Plane(12, 8), wallColor), nil
}

// AddModel registers externally loaded geometry as an imported model.
func (r *Registry) AddModel(name string, mesh *scenegraph.Mesh, tr mathutil.Transform) (Object, error) {
	if mesh == nil || len(mesh.Indices) == 0 {
		return Object{}, fmt.Errorf("scene: model %q has no geometry", name)
	}
	id := r.objects.reserve()
	if name == "" {
		name = fmt.Sprintf("Model %d", id)
	}
	if tr.Scale == (mathutil.Vec3{}) {
		tr.Scale = mathutil.Vec3{1, 1, 1}
	}
	return r.addObject(&Object{
		ID:        id,
		Name:      name,
		Category:  CategoryModel,
		Transform: tr,
		Visible:   true,
	}, mesh, modelColor), nil
}

func (r *Registry) addObject(o *Object, mesh *scenegraph.Mesh, c color.NRGBA) Object {
	ref := Ref{Kind: KindObject, ID: o.ID}
	o.node = r.addNode(scenegraph.Node{
		Name:       o.Name,
		World:      o.Transform.Matrix(),
		Visible:    true,
		Selectable: true,
		Color:      c,
		Mesh:       mesh,
	}, ref)
	r.objects.put(o.ID, o)
	r.emit(Created, ref)
	return *o
}
