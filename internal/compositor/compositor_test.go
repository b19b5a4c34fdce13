package compositor

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projmap/internal/catalog"
	"projmap/internal/mathutil"
	"projmap/internal/scene"
	"projmap/internal/scenegraph"
)

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

func splitScene(t *testing.T) *scenegraph.Scene {
	t.Helper()
	s := scenegraph.NewScene()
	top := mathutil.NewTransform(mathutil.Vec3{0, 1, -1}).Matrix()
	bottom := mathutil.NewTransform(mathutil.Vec3{0, -1, -1}).Matrix()
	s.Add(scenegraph.Node{Visible: true, Unlit: true, Color: red, Mesh: scenegraph.Plane(4, 2), World: top})
	s.Add(scenegraph.Node{Visible: true, Unlit: true, Color: blue, Mesh: scenegraph.Plane(4, 2), World: bottom})
	return s
}

func frontCamera() scenegraph.Camera {
	return scenegraph.Camera{World: mathutil.Mat4Identity(), FOV: 90, Aspect: 1, Near: 0.1, Far: 100}
}

func TestNewRequiresGraph(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoRenderer)
}

func TestRenderToImageIsTopDown(t *testing.T) {
	c, err := New(splitScene(t))
	require.NoError(t, err)
	defer c.Close()

	img, err := c.RenderToImage(frontCamera(), 16, 8)
	require.NoError(t, err)
	assert.Equal(t, red, img.NRGBAAt(3, 0))
	assert.Equal(t, blue, img.NRGBAAt(3, 7))

	_, err = c.RenderToImage(frontCamera(), 0, 8)
	assert.Error(t, err)
}

func TestCachedTargetReuse(t *testing.T) {
	c, err := New(splitScene(t))
	require.NoError(t, err)

	_, err = c.RenderToImage(frontCamera(), 8, 8)
	require.NoError(t, err)
	first := c.target

	_, err = c.RenderToImage(frontCamera(), 8, 8)
	require.NoError(t, err)
	assert.Same(t, first, c.target)

	_, err = c.RenderToImage(frontCamera(), 4, 4)
	require.NoError(t, err)
	assert.True(t, scenegraph.Released(first))
	second := c.target

	c.Close()
	assert.True(t, scenegraph.Released(second))
	assert.Nil(t, c.target)
}

func TestRenderSupersampled(t *testing.T) {
	c, err := New(splitScene(t))
	require.NoError(t, err)
	defer c.Close()

	img, err := c.RenderSupersampled(frontCamera(), 8, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
	top, bottom := img.NRGBAAt(4, 0), img.NRGBAAt(4, 7)
	assert.InDelta(t, 255, top.R, 2)
	assert.InDelta(t, 0, top.B, 2)
	assert.InDelta(t, 255, bottom.B, 2)
	assert.InDelta(t, 0, bottom.R, 2)
	w, _ := c.target.Size()
	assert.Equal(t, 16, w)
}

func TestProjectorViews(t *testing.T) {
	g := scenegraph.NewScene()
	reg, err := scene.New(g, catalog.Default(), scene.Options{DepthTargetSize: 32})
	require.NoError(t, err)
	p, err := reg.CreateProjector("panasonic_pt_rq25k", scene.ProjectorOptions{})
	require.NoError(t, err)

	cam, err := ProjectorCamera(reg, p.ID)
	require.NoError(t, err)
	assert.True(t, cam.HideHelpers)
	assert.InDelta(t, p.FOV, cam.FOV, 1e-12)

	_, err = ProjectorCamera(reg, 99)
	assert.ErrorIs(t, err, scene.ErrUnknownEntity)

	_, ok := SlotCamera(reg, scene.SlotViewer)
	assert.False(t, ok)
	cm, err := reg.CreateCamera()
	require.NoError(t, err)
	require.NoError(t, reg.AssignCamera(cm.ID, scene.SlotViewer, true))
	view, ok := SlotCamera(reg, scene.SlotViewer)
	require.True(t, ok)
	assert.InDelta(t, cm.FOV, view.FOV, 1e-12)

	depth, err := CaptureDepth(reg, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 32, depth.Bounds().Dx())

	c, err := New(g)
	require.NoError(t, err)
	defer c.Close()
	out, err := c.ProjectorOutput(reg, p.ID, 16, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, out.Bounds().Dy())
}

func TestCaptureDepthSeesWall(t *testing.T) {
	g := scenegraph.NewScene()
	reg, err := scene.New(g, catalog.Default(), scene.Options{DepthTargetSize: 32})
	require.NoError(t, err)
	_, err = reg.CreateWall()
	require.NoError(t, err)
	p, err := reg.CreateProjector("panasonic_pt_rq25k", scene.ProjectorOptions{})
	require.NoError(t, err)

	depth, err := CaptureDepth(reg, p.ID)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 32, 32), depth.Bounds())

	// The wall faces the projector squarely, so every hit pixel sits at the
	// same view depth.
	wall := -8.0
	want := p.Transform.Position[2] - wall
	v := depth.Gray16At(16, 16).Y
	require.Less(t, v, uint16(math.MaxUint16))
	got := scene.ProjectorNear + float64(v)/math.MaxUint16*(scene.ProjectorCameraFar-scene.ProjectorNear)
	assert.InDelta(t, want, got, 0.01)

	_, err = CaptureDepth(reg, 99)
	assert.ErrorIs(t, err, scene.ErrUnknownEntity)
}

func TestDepthImageQuantisesAndFlips(t *testing.T) {
	inf := math.Inf(1)
	// Bottom-up rows: bottom row first.
	img := depthImage([]float64{1, 11, inf, 6}, 2, 2, 1, 11)
	assert.Equal(t, uint16(0x8000), img.Gray16At(1, 0).Y)
	assert.Equal(t, uint16(0xffff), img.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(0), img.Gray16At(0, 1).Y)
	assert.Equal(t, uint16(0xffff), img.Gray16At(1, 1).Y)
}
