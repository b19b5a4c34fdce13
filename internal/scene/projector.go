package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"projmap/internal/mathutil"
	"projmap/internal/monitoring"
	"projmap/internal/optics"
	"projmap/internal/scenegraph"
)

// Housing dimensions of the projector body, in scene units.
const (
	bodyScale  = 0.0015
	bodyWidth  = 550 * bodyScale
	bodyHeight = 220 * bodyScale
	bodyDepth  = 570 * bodyScale
	spotGain   = 0.35
)

var (
	projectorBodyColor    = color.NRGBA{0x1a, 0x1a, 0x1a, 0xff}
	projectorLensColor    = color.NRGBA{0x00, 0xff, 0xff, 0xff}
	projectorFrustumColor = color.NRGBA{0x0d, 0x94, 0x88, 0xff}
	projectorTargetColor  = color.NRGBA{0xff, 0xff, 0x00, 0xff}
)

// CreateProjector places a new projector of modelID with the model's default
// lens at its minimum throw. Projectors are spaced along X by id, so a new
// projector never lands on a live one after a deletion.
func (r *Registry) CreateProjector(modelID string, opts ProjectorOptions) (Projector, error) {
	model, err := r.catalog.Model(modelID)
	if err != nil {
		return Projector{}, err
	}
	lens, err := r.catalog.Lens(model.DefaultLens)
	if err != nil {
		return Projector{}, err
	}

	id := r.projectors.reserve()
	pos := mathutil.Vec3{ProjectorSpacing * float64(id-1), 2.5, 10}
	p := &Projector{
		ID:           id,
		Name:         fmt.Sprintf("%s #%d", model.Name, id),
		Model:        model,
		Lens:         lens,
		Transform:    mathutil.NewTransform(pos),
		Target:       pos.Add(mathutil.Forward.Scale(DefaultTargetDistance)),
		ThrowRatio:   lens.ThrowMin,
		ProjDistance: DefaultProjDistance,
		Intensity:    1,
		Orientation:  optics.Landscape,
		SoftEdge:     optics.DefaultSoftEdge(),
		Visible:      true,
	}
	ref := Ref{Kind: KindProjector, ID: id}

	p.nodes.body = r.addNode(scenegraph.Node{
		Name:       p.Name,
		Visible:    true,
		Selectable: true,
		Color:      projectorBodyColor,
		Mesh:       projectorBody(),
	}, ref)
	p.nodes.lens = r.addNode(scenegraph.Node{
		Name:    p.Name + " lens",
		Visible: true,
		Unlit:   true,
		Color:   projectorLensColor,
		Mesh:    projectorLens(),
	}, ref)
	p.nodes.frustum = r.addNode(scenegraph.Node{
		Name:    p.Name + " frustum",
		Visible: true,
		Helper:  true,
		Color:   projectorFrustumColor,
		Lines:   make([]mathutil.Vec3, len(optics.Segments{})),
	}, ref)
	p.nodes.light = r.addNode(scenegraph.Node{
		Name:    p.Name + " light",
		Visible: true,
		Light:   &scenegraph.SpotLight{},
	}, ref)
	p.nodes.target = r.addNode(scenegraph.Node{
		Name:       fmt.Sprintf("Target #%d", id),
		Visible:    true,
		Selectable: true,
		Helper:     true,
		Unlit:      true,
		Color:      projectorTargetColor,
		Mesh:       scenegraph.Sphere(0.15, 16, 12),
	}, Ref{Kind: KindProjector, ID: id, Target: true})

	depth, err := r.graph.NewTarget(r.opts.DepthTargetSize, r.opts.DepthTargetSize)
	if err != nil {
		r.removeNodes(p.nodes.body, p.nodes.lens, p.nodes.frustum, p.nodes.light, p.nodes.target)
		return Projector{}, fmt.Errorf("scene: depth target: %w", err)
	}
	p.depth = depth

	r.projectors.put(id, p)
	if err := r.syncProjector(p); err != nil {
		return Projector{}, err
	}
	r.emit(Created, ref)

	if opts.TestPattern {
		if _, err := r.CreateTestPattern(id); err != nil {
			return Projector{}, err
		}
	}
	return *p, nil
}

// projectorBody is the housing box, lens face at the local origin and the
// body extending behind it.
func projectorBody() *scenegraph.Mesh {
	m := scenegraph.Box(bodyWidth, bodyHeight, bodyDepth)
	for i := range m.Positions {
		m.Positions[i][2] += bodyDepth / 2
	}
	return m
}

// projectorLens is a short barrel along local -Z in front of the housing.
func projectorLens() *scenegraph.Mesh {
	m := scenegraph.Cylinder(0.08, 0.10, 0.04, 16)
	rot := mathutil.RotX(math.Pi / 2)
	for i, p := range m.Positions {
		m.Positions[i] = rot.MulVec3(p).Add(mathutil.Vec3{0, 0, -0.02})
	}
	return m
}

// UpdateProjector merges settings into projector id. The lens is validated
// before anything changes. A lens change resets the throw ratio to the new
// minimum unless a throw ratio is supplied, and re-clamps the shifts.
// Out-of-range values are clamped. An unknown id is logged and ignored.
func (r *Registry) UpdateProjector(id int, s ProjectorSettings) error {
	p, ok := r.projectors.get(id)
	if !ok {
		monitoring.Logf("scene: update of unknown projector #%d ignored", id)
		return nil
	}

	if s.Lens != nil && *s.Lens != p.Lens.ID {
		lens, err := r.catalog.Lens(*s.Lens)
		if err != nil {
			return err
		}
		if !p.Model.Compatible(lens.ID) {
			return fmt.Errorf("%w: %s on %s", ErrIncompatibleLens, lens.ID, p.Model.ID)
		}
		p.Lens = lens
		p.ThrowRatio = lens.ThrowMin
	}

	if s.Name != nil {
		p.Name = *s.Name
	}
	if s.ThrowRatio != nil {
		p.ThrowRatio = *s.ThrowRatio
	}
	if s.ShiftV != nil {
		p.ShiftV = *s.ShiftV
	}
	if s.ShiftH != nil {
		p.ShiftH = *s.ShiftH
	}
	if s.ProjDistance != nil {
		p.ProjDistance = *s.ProjDistance
	}
	if s.Intensity != nil {
		p.Intensity = *s.Intensity
	}
	if s.Orientation != nil {
		if s.Orientation.Valid() {
			p.Orientation = *s.Orientation
		} else {
			monitoring.Logf("scene: projector #%d: invalid orientation %q ignored", id, *s.Orientation)
		}
	}
	if s.Keystone != nil {
		p.Keystone = *s.Keystone
	}
	if s.SoftEdge != nil {
		p.SoftEdge = *s.SoftEdge
	}
	if s.TargetLocked != nil {
		p.TargetLocked = *s.TargetLocked
		if p.TargetLocked && p.UserMovedTarget {
			p.Transform.LookAt(p.Target)
		}
	}
	if s.Visible != nil {
		p.Visible = *s.Visible
	}

	p.ThrowRatio = p.Lens.ClampThrow(p.ThrowRatio)
	p.ShiftV = p.Lens.ClampShiftV(p.ShiftV)
	p.ShiftH = p.Lens.ClampShiftH(p.ShiftH)
	p.ProjDistance = mathutil.Clamp(p.ProjDistance, ProjDistanceMin, ProjDistanceMax)
	p.Intensity = mathutil.Clamp(p.Intensity, 0, IntensityMax)
	p.Keystone = p.Keystone.Clamp()
	p.SoftEdge = p.SoftEdge.Clamp()

	if err := r.syncProjector(p); err != nil {
		return err
	}
	r.emit(Updated, Ref{Kind: KindProjector, ID: id})
	return nil
}

// syncProjector recomputes the derived optics and pushes them to the
// projector's nodes. The wireframe node keeps its vertex storage.
func (r *Registry) syncProjector(p *Projector) error {
	fov, err := optics.ThrowRatioToFOV(p.ThrowRatio)
	if err != nil {
		return fmt.Errorf("scene: projector #%d: %w", p.ID, err)
	}
	p.FOV = fov
	p.Aspect = p.Orientation.Aspect()

	world := p.Transform.Matrix()
	seg := optics.Wireframe(p.Corners())
	light := scenegraph.SpotLight{
		Angle:     mathutil.Deg2Rad(p.FOV / 2),
		Intensity: p.Intensity * spotGain,
	}
	if !p.Visible {
		light.Intensity = 0
	}

	g := r.graph
	for _, err := range []error{
		g.SetTransform(p.nodes.body, world),
		g.SetTransform(p.nodes.lens, world),
		g.SetTransform(p.nodes.frustum, world),
		g.SetTransform(p.nodes.light, world),
		g.SetTransform(p.nodes.target, mathutil.NewTransform(p.Target).Matrix()),
		g.SetLines(p.nodes.frustum, seg[:]),
		g.SetLight(p.nodes.light, light),
		g.SetVisible(p.nodes.body, p.Visible),
		g.SetVisible(p.nodes.lens, p.Visible),
		g.SetVisible(p.nodes.frustum, p.Visible),
	} {
		if err != nil {
			return fmt.Errorf("scene: projector #%d: %w", p.ID, err)
		}
	}
	return nil
}

// CreateTestPattern places the calibration image on a plane at the
// projector's nominal image distance, facing it. A projector owns at most
// one pattern; calling again returns the existing one.
func (r *Registry) CreateTestPattern(projectorID int) (Object, error) {
	p, ok := r.projectors.get(projectorID)
	if !ok {
		return Object{}, fmt.Errorf("%w: projector #%d", ErrUnknownEntity, projectorID)
	}
	if o, ok := r.objects.get(p.TestPattern); ok {
		return *o, nil
	}

	id := r.objects.reserve()
	tr := p.Transform
	tr.Position = tr.Position.Add(tr.Forward().Scale(p.ProjDistance))
	tr.Scale = mathutil.Vec3{1, 1, 1}
	tex := r.calibrationTexture()
	if p.Content != nil {
		tex = p.Content
	}
	o := &Object{
		ID:        id,
		Name:      fmt.Sprintf("Test Pattern %d", id),
		Category:  CategoryScreen,
		Transform: tr,
		Visible:   true,
		Projector: projectorID,
	}
	o.node = r.addNode(scenegraph.Node{
		Name:       o.Name,
		World:      tr.Matrix(),
		Visible:    true,
		Selectable: true,
		Unlit:      true,
		Color:      color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Texture:    tex,
		Mesh:       scenegraph.Plane(12, 12*(9.0/16.0)),
	}, Ref{Kind: KindObject, ID: id})
	r.objects.put(id, o)
	p.TestPattern = id
	r.emit(Created, Ref{Kind: KindObject, ID: id})
	return *o, nil
}

// SetProjectorContent assigns the image a projector shows. When the
// projector has a test-pattern screen the content replaces the pattern on
// it; nil restores the calibration image.
func (r *Registry) SetProjectorContent(id int, img *image.NRGBA) error {
	p, ok := r.projectors.get(id)
	if !ok {
		return fmt.Errorf("%w: projector #%d", ErrUnknownEntity, id)
	}
	p.Content = img
	if o, ok := r.objects.get(p.TestPattern); ok {
		tex := img
		if tex == nil {
			tex = r.calibrationTexture()
		}
		if err := r.graph.SetTexture(o.node, tex); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
	}
	r.emit(Updated, Ref{Kind: KindProjector, ID: id})
	return nil
}

// DepthTarget returns the projector's off-screen depth target.
func (r *Registry) DepthTarget(id int) (scenegraph.Target, error) {
	p, ok := r.projectors.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: projector #%d", ErrUnknownEntity, id)
	}
	return p.depth, nil
}
