package selection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projmap/internal/history"
	"projmap/internal/mathutil"
	"projmap/internal/monitoring"
	"projmap/internal/scene"
	"projmap/internal/scenegraph"
)

type attach struct {
	node scenegraph.NodeID
	mode Mode
}

type fakeManipulator struct {
	attaches []attach
	detaches int
}

func (f *fakeManipulator) Attach(node scenegraph.NodeID, mode Mode) {
	f.attaches = append(f.attaches, attach{node, mode})
}

func (f *fakeManipulator) Detach() { f.detaches++ }

type fakeNav struct{ enabled bool }

func (f *fakeNav) SetEnabled(v bool) { f.enabled = v }

type fixture struct {
	reg   *scene.Registry
	manip *fakeManipulator
	nav   *fakeNav
	hist  *history.History
	c     *Coordinator
	proj  scene.Projector
	wall  scene.Object
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	_, restore := monitoring.Capture()
	t.Cleanup(restore)

	reg, err := scene.New(scenegraph.NewScene(), nil, scene.Options{DepthTargetSize: 16})
	require.NoError(t, err)
	proj, err := reg.CreateProjector("panasonic_pt_rq25k", scene.ProjectorOptions{})
	require.NoError(t, err)
	wall, err := reg.CreateWall()
	require.NoError(t, err)

	f := &fixture{reg: reg, manip: &fakeManipulator{}, nav: &fakeNav{enabled: true}, hist: history.New(0), proj: proj, wall: wall}
	f.c = New(reg, f.manip, f.nav, f.hist)
	t.Cleanup(f.c.Close)
	return f
}

func TestClickSelectsOwner(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.Click(f.proj.BodyNode()))

	assert.Equal(t, Selected, f.c.State())
	want := scene.Ref{Kind: scene.KindProjector, ID: f.proj.ID}
	assert.Equal(t, want, f.c.Current())
	assert.Equal(t, want, f.reg.Selection())
	assert.Equal(t, []attach{{f.proj.BodyNode(), Translate}}, f.manip.attaches)

	require.NoError(t, f.c.Click(f.proj.TargetNode()))
	assert.Equal(t, scene.Ref{Kind: scene.KindProjector, ID: f.proj.ID, Target: true}, f.reg.Selection())

	require.NoError(t, f.c.Click(uuid.Nil))
	assert.Equal(t, Idle, f.c.State())
	assert.True(t, f.reg.Selection().IsZero())
	assert.Equal(t, 1, f.manip.detaches)
}

func TestSetModeReattachesInPlace(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.Click(f.wall.Node()))
	f.c.SetMode(Rotate)

	assert.Equal(t, Selected, f.c.State())
	assert.Equal(t, scene.Ref{Kind: scene.KindObject, ID: f.wall.ID}, f.c.Current())
	require.Len(t, f.manip.attaches, 2)
	assert.Equal(t, attach{f.wall.Node(), Rotate}, f.manip.attaches[1])
}

func TestDragDisablesNavigationAndIgnoresClicks(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.Click(f.wall.Node()))
	require.NoError(t, f.c.BeginDrag())
	assert.Equal(t, Dragging, f.c.State())
	assert.False(t, f.nav.enabled)

	require.NoError(t, f.c.Click(f.proj.BodyNode()))
	require.NoError(t, f.c.Click(uuid.Nil))
	assert.Equal(t, Dragging, f.c.State())
	assert.Equal(t, scene.Ref{Kind: scene.KindObject, ID: f.wall.ID}, f.c.Current())

	moved := mathutil.NewTransform(mathutil.Vec3{1, 4, -8})
	require.NoError(t, f.c.DragTo(moved))
	require.NoError(t, f.c.EndDrag())
	assert.Equal(t, Selected, f.c.State())
	assert.True(t, f.nav.enabled)

	require.Equal(t, 1, f.hist.Len())
	require.NoError(t, f.hist.Undo())
	o, _ := f.reg.Object(f.wall.ID)
	assert.Equal(t, mathutil.Vec3{0, 4, -8}, o.Transform.Position)
	require.NoError(t, f.hist.Redo())
	o, _ = f.reg.Object(f.wall.ID)
	assert.Equal(t, moved.Position, o.Transform.Position)
}

func TestDeleteMidDragCancelsBinding(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.Click(f.proj.TargetNode()))
	require.NoError(t, f.c.BeginDrag())

	require.NoError(t, f.reg.Delete(f.reg.Selection()))
	assert.Equal(t, Idle, f.c.State())
	assert.True(t, f.nav.enabled)
	assert.Equal(t, 1, f.manip.detaches)
	assert.ErrorIs(t, f.c.EndDrag(), ErrNotDragging)
	assert.True(t, f.reg.Selection().IsZero())
}

func TestCancelDragRestoresTransform(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.Click(f.wall.Node()))
	require.NoError(t, f.c.BeginDrag())
	require.NoError(t, f.c.DragTo(mathutil.NewTransform(mathutil.Vec3{5, 5, 5})))
	require.NoError(t, f.c.CancelDrag())

	o, _ := f.reg.Object(f.wall.ID)
	assert.Equal(t, mathutil.Vec3{0, 4, -8}, o.Transform.Position)
	assert.Zero(t, f.hist.Len())
}

func TestPickAt(t *testing.T) {
	f := newFixture(t)
	ray := scenegraph.Ray{Origin: mathutil.Vec3{0.3, 4.2, 0}, Dir: mathutil.Vec3{0, 0, -1}}
	require.NoError(t, f.c.PickAt(ray))
	assert.Equal(t, scene.Ref{Kind: scene.KindObject, ID: f.wall.ID}, f.c.Current())

	miss := scenegraph.Ray{Origin: mathutil.Vec3{0.3, 4.2, 0}, Dir: mathutil.Vec3{0, 1, 0}}
	require.NoError(t, f.c.PickAt(miss))
	assert.Equal(t, Idle, f.c.State())
}

func TestFollowsRegistrySelection(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Select(scene.Ref{Kind: scene.KindObject, ID: f.wall.ID}))
	assert.Equal(t, Selected, f.c.State())
	assert.Equal(t, attach{f.wall.Node(), Translate}, f.manip.attaches[0])

	require.NoError(t, f.c.BeginDrag())
	require.NoError(t, f.c.EndDrag())
	assert.Zero(t, f.hist.Len(), "a drag without movement records nothing")
}
