package scene

import (
	"fmt"
	"image/color"

	"projmap/internal/mathutil"
	"projmap/internal/monitoring"
	"projmap/internal/optics"
	"projmap/internal/scenegraph"
)

var (
	cameraBodyColor   = color.NRGBA{0x3b, 0x82, 0xf6, 0xff}
	cameraHelperColor = color.NRGBA{0xff, 0xaa, 0x00, 0xff}
	cameraTargetColor = color.NRGBA{0x60, 0xa5, 0xfa, 0xff}
)

// CreateCamera places a camera with default intrinsics at (10, 5, 10).
func (r *Registry) CreateCamera() (Camera, error) {
	id := r.cameras.reserve()
	c := &Camera{
		ID:        id,
		Name:      fmt.Sprintf("Camera %d", id),
		Transform: mathutil.NewTransform(mathutil.Vec3{10, 5, 10}),
		FOV:       DefaultCameraFOV,
		Aspect:    DefaultCameraAspect,
		Near:      DefaultCameraNear,
		Far:       DefaultCameraFar,
	}
	ref := Ref{Kind: KindCamera, ID: id}
	c.nodes.body = r.addNode(scenegraph.Node{
		Name:       c.Name,
		Visible:    true,
		Selectable: true,
		Color:      cameraBodyColor,
		Mesh:       scenegraph.Box(0.5, 0.3, 0.4),
	}, ref)
	c.nodes.helper = r.addNode(scenegraph.Node{
		Name:    c.Name + " helper",
		Visible: true,
		Helper:  true,
		Color:   cameraHelperColor,
		Lines:   make([]mathutil.Vec3, len(optics.Segments{})),
	}, ref)
	c.nodes.target = r.addNode(scenegraph.Node{
		Name:    c.Name + " target",
		Visible: true,
		Helper:  true,
		Unlit:   true,
		Color:   cameraTargetColor,
		Mesh:    scenegraph.Sphere(0.1, 12, 8),
	}, Ref{})

	r.cameras.put(id, c)
	if err := r.syncCamera(c); err != nil {
		return Camera{}, err
	}
	r.emit(Created, ref)
	return *c, nil
}

// UpdateCamera merges settings into camera id, clamps them and refreshes the
// frustum helper. An unknown id is logged and ignored.
func (r *Registry) UpdateCamera(id int, s CameraSettings) error {
	c, ok := r.cameras.get(id)
	if !ok {
		monitoring.Logf("scene: update of unknown camera #%d ignored", id)
		return nil
	}
	if s.Name != nil {
		c.Name = *s.Name
	}
	if s.FOV != nil {
		c.FOV = *s.FOV
	}
	if s.Aspect != nil {
		c.Aspect = *s.Aspect
	}
	if s.Near != nil {
		c.Near = *s.Near
	}
	if s.Far != nil {
		c.Far = *s.Far
	}
	c.FOV = mathutil.Clamp(c.FOV, CameraFOVMin, CameraFOVMax)
	c.Aspect = mathutil.Clamp(c.Aspect, 0.1, 10)
	c.Near = mathutil.Clamp(c.Near, CameraNearMin, CameraNearMax)
	c.Far = mathutil.Clamp(c.Far, CameraFarMin, CameraFarMax)

	if err := r.syncCamera(c); err != nil {
		return err
	}
	r.emit(Updated, Ref{Kind: KindCamera, ID: id})
	return nil
}

// syncCamera rebuilds the helper frustum from the intrinsics and moves the
// camera nodes with its transform.
func (r *Registry) syncCamera(c *Camera) error {
	world := c.Transform.Matrix()
	seg := optics.Wireframe(optics.FrustumCorners(c.FOV, c.Aspect, c.Near, c.Far, 0, 0))
	aim := c.Transform.Position.Add(c.Transform.Forward().Scale(cameraTargetDist))
	g := r.graph
	for _, err := range []error{
		g.SetTransform(c.nodes.body, world),
		g.SetTransform(c.nodes.helper, world),
		g.SetTransform(c.nodes.target, mathutil.NewTransform(aim).Matrix()),
		g.SetLines(c.nodes.helper, seg[:]),
	} {
		if err != nil {
			return fmt.Errorf("scene: camera #%d: %w", c.ID, err)
		}
	}
	return nil
}
