package scene

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projmap/internal/catalog"
	"projmap/internal/mathutil"
	"projmap/internal/monitoring"
	"projmap/internal/optics"
	"projmap/internal/scenegraph"
)

const testCatalog = `
lenses:
  wide:
    name: Wide
    brand: Acme
    throw_min: 1.0
    throw_max: 2.0
    shift_v: [-50, 50]
    shift_h: [-20, 20]
  narrow:
    name: Narrow
    brand: Acme
    throw_min: 2.5
    throw_max: 4.0
    shift_v: [-10, 10]
    shift_h: [-5, 5]
  other:
    name: Other
    brand: Acme
    throw_min: 0.5
    throw_max: 0.5
    fixed: true
projectors:
  acme_one:
    name: One
    brand: Acme
    lumens: 10000
    resolution: WUXGA
    default_lens: wide
    compatible_lenses: [wide, narrow]
`

func newRegistry(t *testing.T) (*Registry, *scenegraph.Scene) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	g := scenegraph.NewScene()
	r, err := New(g, cat, Options{DepthTargetSize: 64})
	require.NoError(t, err)
	return r, g
}

func ptr[T any](v T) *T { return &v }

func TestNewRequiresGraph(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestProjectorIDsNeverReused(t *testing.T) {
	r, _ := newRegistry(t)
	p1, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, p1.ID)

	require.NoError(t, r.Delete(Ref{Kind: KindProjector, ID: p1.ID}))
	p2, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, p2.ID)
}

func TestPlacementAfterDeleteAvoidsLiveProjector(t *testing.T) {
	r, _ := newRegistry(t)
	p1, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	p2, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	require.NoError(t, r.Delete(Ref{Kind: KindProjector, ID: p1.ID}))

	p3, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	live, ok := r.Projector(p2.ID)
	require.True(t, ok)
	assert.NotEqual(t, live.Transform.Position, p3.Transform.Position)
	assert.Equal(t, mathutil.Vec3{10, 2.5, 10}, p3.Transform.Position)
}

func TestCreateProjectorDefaults(t *testing.T) {
	r, g := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)

	assert.Equal(t, "One #1", p.Name)
	assert.Equal(t, "wide", p.Lens.ID)
	assert.Equal(t, 1.0, p.ThrowRatio)
	assert.InDelta(t, 53.130102, p.FOV, 1e-6)
	assert.Equal(t, 16.0/9.0, p.Aspect)
	assert.Equal(t, mathutil.Vec3{0, 2.5, 10}, p.Transform.Position)
	assert.Equal(t, mathutil.Vec3{0, 2.5, 2}, p.Target)
	assert.Equal(t, DefaultProjDistance, p.ProjDistance)
	assert.Equal(t, optics.DefaultGamma, p.SoftEdge.Gamma)

	n, ok := g.Node(p.FrustumNode())
	require.True(t, ok)
	seg := optics.Wireframe(p.Corners())
	assert.Equal(t, seg[:], n.Lines)

	second, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5.0, second.Transform.Position[0])
}

func TestCreateProjectorUnknownModel(t *testing.T) {
	r, g := newRegistry(t)
	_, err := r.CreateProjector("acme_nine", ProjectorOptions{})
	assert.ErrorIs(t, err, catalog.ErrUnknownModel)
	assert.Zero(t, g.Len())
	assert.Empty(t, r.Projectors())
}

func TestLensChangeClampsShiftAndResetsThrow(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)

	require.NoError(t, r.UpdateProjector(p.ID, ProjectorSettings{ShiftV: ptr(40.0), ThrowRatio: ptr(1.8)}))
	got, _ := r.Projector(p.ID)
	assert.Equal(t, 40.0, got.ShiftV)
	assert.Equal(t, 1.8, got.ThrowRatio)

	require.NoError(t, r.UpdateProjector(p.ID, ProjectorSettings{Lens: ptr("narrow")}))
	got, _ = r.Projector(p.ID)
	assert.Equal(t, "narrow", got.Lens.ID)
	assert.Equal(t, 10.0, got.ShiftV)
	assert.Equal(t, 2.5, got.ThrowRatio)
	fov, err := optics.ThrowRatioToFOV(2.5)
	require.NoError(t, err)
	assert.Equal(t, fov, got.FOV)
}

func TestLensValidationRejectsBeforeMutation(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)

	err = r.UpdateProjector(p.ID, ProjectorSettings{Lens: ptr("other"), ShiftV: ptr(5.0)})
	assert.ErrorIs(t, err, ErrIncompatibleLens)
	err = r.UpdateProjector(p.ID, ProjectorSettings{Lens: ptr("missing"), ShiftV: ptr(5.0)})
	assert.ErrorIs(t, err, catalog.ErrUnknownLens)

	got, _ := r.Projector(p.ID)
	assert.Equal(t, "wide", got.Lens.ID)
	assert.Zero(t, got.ShiftV)
}

func TestUpdateClampsOutOfRange(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)

	require.NoError(t, r.UpdateProjector(p.ID, ProjectorSettings{
		ThrowRatio:   ptr(9.0),
		ShiftH:       ptr(-90.0),
		Intensity:    ptr(5.0),
		ProjDistance: ptr(-1.0),
		Keystone:     &optics.Keystone{V: 80},
		SoftEdge:     &optics.SoftEdge{Left: 150, Gamma: 0},
	}))
	got, _ := r.Projector(p.ID)
	assert.Equal(t, 2.0, got.ThrowRatio)
	assert.Equal(t, -20.0, got.ShiftH)
	assert.Equal(t, IntensityMax, got.Intensity)
	assert.Equal(t, ProjDistanceMin, got.ProjDistance)
	assert.Equal(t, optics.KeystoneAxisLimit, got.Keystone.V)
	assert.Equal(t, optics.SoftEdgeMax, got.SoftEdge.Left)
	assert.Equal(t, optics.GammaMin, got.SoftEdge.Gamma)
}

func TestUpdateUnknownProjectorIsLoggedNoOp(t *testing.T) {
	r, _ := newRegistry(t)
	lines, restore := monitoring.Capture()
	defer restore()

	assert.NoError(t, r.UpdateProjector(42, ProjectorSettings{ThrowRatio: ptr(1.5)}))
	assert.NoError(t, r.UpdateCamera(42, CameraSettings{FOV: ptr(30.0)}))
	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], "#42")
}

func TestPortraitToggleHasNoDrift(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)

	o := optics.Landscape
	for i := 0; i < 101; i++ {
		o = o.Toggle()
		require.NoError(t, r.UpdateProjector(p.ID, ProjectorSettings{Orientation: &o}))
	}
	got, _ := r.Projector(p.ID)
	assert.Equal(t, optics.Portrait, got.Orientation)
	assert.Equal(t, 9.0/16.0, got.Aspect)

	o = optics.Landscape
	require.NoError(t, r.UpdateProjector(p.ID, ProjectorSettings{Orientation: &o}))
	got, _ = r.Projector(p.ID)
	assert.Equal(t, 16.0/9.0, got.Aspect)
}

func TestAssignCameraSingleHolder(t *testing.T) {
	r, _ := newRegistry(t)
	a, err := r.CreateCamera()
	require.NoError(t, err)
	b, err := r.CreateCamera()
	require.NoError(t, err)

	require.NoError(t, r.AssignCamera(a.ID, SlotProjectorOutput, true))
	require.NoError(t, r.AssignCamera(b.ID, SlotProjectorOutput, true))

	ca, _ := r.Camera(a.ID)
	cb, _ := r.Camera(b.ID)
	assert.False(t, ca.Assigned[SlotProjectorOutput])
	assert.True(t, cb.Assigned[SlotProjectorOutput])
	active, ok := r.ActiveCamera(SlotProjectorOutput)
	require.True(t, ok)
	assert.Equal(t, b.ID, active.ID)

	// Slots are independent.
	require.NoError(t, r.AssignCamera(a.ID, SlotMappingPreview, true))
	active, _ = r.ActiveCamera(SlotMappingPreview)
	assert.Equal(t, a.ID, active.ID)

	// Unassigning a non-holder changes nothing; the holder empties the slot.
	require.NoError(t, r.AssignCamera(a.ID, SlotProjectorOutput, false))
	_, ok = r.ActiveCamera(SlotProjectorOutput)
	assert.True(t, ok)
	require.NoError(t, r.AssignCamera(b.ID, SlotProjectorOutput, false))
	_, ok = r.ActiveCamera(SlotProjectorOutput)
	assert.False(t, ok)

	assert.ErrorIs(t, r.AssignCamera(99, SlotMappingPreview, true), ErrUnknownEntity)
}

func TestDeleteSelectedClearsSelection(t *testing.T) {
	r, _ := newRegistry(t)
	wall, err := r.CreateWall()
	require.NoError(t, err)
	ref := Ref{Kind: KindObject, ID: wall.ID}
	require.NoError(t, r.Select(ref))

	var events []Event
	unsubscribe := r.Subscribe(func(e Event) { events = append(events, e) })
	defer unsubscribe()

	require.NoError(t, r.Delete(ref))
	assert.True(t, r.Selection().IsZero())
	assert.Contains(t, events, Event{Type: Removed, Ref: ref})
	assert.ErrorIs(t, r.Delete(ref), ErrUnknownEntity)
}

func TestDeleteProjectorReleasesEverything(t *testing.T) {
	r, g := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{TestPattern: true})
	require.NoError(t, err)

	got, _ := r.Projector(p.ID)
	require.NotZero(t, got.TestPattern)
	pattern, ok := r.Object(got.TestPattern)
	require.True(t, ok)
	assert.Equal(t, CategoryScreen, pattern.Category)
	assert.True(t, pattern.Transform.Position.ApproxEqual(mathutil.Vec3{0, 2.5, 2}, 1e-12))

	depth, err := r.DepthTarget(p.ID)
	require.NoError(t, err)
	require.NoError(t, r.Select(Ref{Kind: KindProjector, ID: p.ID, Target: true}))

	require.NoError(t, r.Delete(Ref{Kind: KindProjector, ID: p.ID}))
	assert.Zero(t, g.Len())
	assert.Empty(t, r.Objects())
	assert.True(t, scenegraph.Released(depth))
	assert.True(t, r.Selection().IsZero())
}

func TestDeletingPatternDetachesFromProjector(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	o, err := r.CreateTestPattern(p.ID)
	require.NoError(t, err)
	again, err := r.CreateTestPattern(p.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, again.ID)

	require.NoError(t, r.Delete(Ref{Kind: KindObject, ID: o.ID}))
	got, _ := r.Projector(p.ID)
	assert.Zero(t, got.TestPattern)
}

func TestOwnerLookup(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	c, err := r.CreateCamera()
	require.NoError(t, err)

	ref, ok := r.Owner(p.BodyNode())
	require.True(t, ok)
	assert.Equal(t, Ref{Kind: KindProjector, ID: p.ID}, ref)
	ref, ok = r.Owner(p.TargetNode())
	require.True(t, ok)
	assert.Equal(t, Ref{Kind: KindProjector, ID: p.ID, Target: true}, ref)
	ref, ok = r.Owner(c.BodyNode())
	require.True(t, ok)
	assert.Equal(t, Ref{Kind: KindCamera, ID: c.ID}, ref)

	assert.ElementsMatch(t, []scenegraph.NodeID{p.BodyNode(), p.TargetNode(), c.BodyNode()}, r.SelectableNodes())
}

func TestTargetFollowsForwardUntilMoved(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)

	tr := mathutil.NewTransform(mathutil.Vec3{1, 2.5, 10})
	tr.Rotation = mathutil.Vec3{0, math.Pi / 2, 0}
	require.NoError(t, r.SetNodeTransform(p.BodyNode(), tr))
	got, _ := r.Projector(p.ID)
	assert.True(t, got.Target.ApproxEqual(mathutil.Vec3{-7, 2.5, 10}, 1e-9), got.Target)

	// A hand-placed target stays put while unlocked.
	require.NoError(t, r.SetNodeTransform(p.TargetNode(), mathutil.NewTransform(mathutil.Vec3{0, 0, 0})))
	require.NoError(t, r.SetNodeTransform(p.BodyNode(), mathutil.NewTransform(mathutil.Vec3{3, 2.5, 10})))
	got, _ = r.Projector(p.ID)
	assert.True(t, got.UserMovedTarget)
	assert.Equal(t, mathutil.Vec3{0, 0, 0}, got.Target)
}

func TestLockedTargetReaimsProjector(t *testing.T) {
	r, _ := newRegistry(t)
	p, err := r.CreateProjector("acme_one", ProjectorOptions{})
	require.NoError(t, err)
	require.NoError(t, r.UpdateProjector(p.ID, ProjectorSettings{TargetLocked: ptr(true)}))

	target := mathutil.Vec3{5, 2.5, 5}
	require.NoError(t, r.SetNodeTransform(p.TargetNode(), mathutil.NewTransform(target)))
	got, _ := r.Projector(p.ID)
	want := target.Sub(got.Transform.Position).Normalize()
	assert.True(t, got.Transform.Forward().ApproxEqual(want, 1e-9))

	// Locked targets follow the body again.
	require.NoError(t, r.SetNodeTransform(p.BodyNode(), got.Transform))
	got, _ = r.Projector(p.ID)
	assert.True(t, got.Target.ApproxEqual(target, 1e-9))
}

func TestPrimitivePlacementIsSeeded(t *testing.T) {
	place := func() []mathutil.Vec3 {
		r, _ := newRegistry(t)
		var out []mathutil.Vec3
		for _, k := range []PrimitiveKind{PrimitiveBox, PrimitivePlane, PrimitiveSphere, PrimitiveCylinder, PrimitiveCone} {
			o, err := r.CreatePrimitive(k)
			require.NoError(t, err)
			out = append(out, o.Transform.Position)
		}
		return out
	}
	a, b := place(), place()
	assert.Empty(t, cmp.Diff(a, b, cmpopts.EquateApprox(0, 1e-12)))
	for _, p := range a {
		assert.LessOrEqual(t, math.Abs(p[0]), 3.0)
		assert.LessOrEqual(t, math.Abs(p[2]), 3.0)
		assert.GreaterOrEqual(t, p[1], 1.0)
		assert.LessOrEqual(t, p[1], 3.0)
	}

	r, _ := newRegistry(t)
	_, err := r.CreatePrimitive("torus")
	assert.Error(t, err)
}

func TestObjectVisibilityAndCameraUpdate(t *testing.T) {
	r, g := newRegistry(t)
	wall, err := r.CreateWall()
	require.NoError(t, err)
	require.NoError(t, r.SetObjectVisible(wall.ID, false))
	n, ok := g.Node(wall.Node())
	require.True(t, ok)
	assert.False(t, n.Visible)

	c, err := r.CreateCamera()
	require.NoError(t, err)
	require.NoError(t, r.UpdateCamera(c.ID, CameraSettings{FOV: ptr(500.0), Far: ptr(50.0)}))
	got, _ := r.Camera(c.ID)
	assert.Equal(t, CameraFOVMax, got.FOV)
	assert.Equal(t, 50.0, got.Far)
}
