package export

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projmap/internal/animation"
	"projmap/internal/catalog"
	"projmap/internal/compositor"
	"projmap/internal/mathutil"
	"projmap/internal/monitoring"
	"projmap/internal/scene"
	"projmap/internal/scenegraph"
)

func sequenceScene(t *testing.T) (*scene.Registry, *compositor.Compositor, scene.Ref) {
	t.Helper()
	g := scenegraph.NewScene()
	reg, err := scene.New(g, catalog.Default(), scene.Options{DepthTargetSize: 8})
	require.NoError(t, err)
	obj, err := reg.CreatePrimitive(scene.PrimitiveBox)
	require.NoError(t, err)
	comp, err := compositor.New(g)
	require.NoError(t, err)
	t.Cleanup(comp.Close)
	return reg, comp, scene.Ref{Kind: scene.KindObject, ID: obj.ID}
}

func TestSequenceWritesOneFramePerStep(t *testing.T) {
	_, restore := monitoring.Capture()
	defer restore()

	reg, comp, ref := sequenceScene(t)
	cam, err := reg.CreateCamera()
	require.NoError(t, err)
	require.NoError(t, reg.AssignCamera(cam.ID, scene.SlotMappingPreview, true))

	tl := animation.NewTimeline()
	tl.Duration = 1
	tl.FPS = 4
	require.NoError(t, tl.AddKeyframe(ref, animation.Keyframe{Time: 0, Property: animation.Position}))
	require.NoError(t, tl.AddKeyframe(ref, animation.Keyframe{Time: 1, Property: animation.Position, Value: mathutil.Vec3{4, 0, 0}}))

	dir := t.TempDir()
	results, err := Sequence(reg, comp, SequenceOptions{
		Timeline: tl,
		Slot:     scene.SlotMappingPreview,
		Width:    16,
		Height:   9,
	}, Config{OutputDir: dir, Ext: ".png", Workers: 1})
	require.NoError(t, err)

	// Duration·FPS frames sampled at i/FPS; one worker flushes every four.
	require.Len(t, results, 4)
	for i, r := range results {
		name := fmt.Sprintf("frame-%04d", i+1)
		assert.Equal(t, name, r.Name)
		assert.True(t, r.Success, r.Error)
		assert.Equal(t, 16, r.Width)
		assert.FileExists(t, filepath.Join(dir, name+".png"))
	}

	// The scene is left at the last sampled time.
	obj, ok := reg.Object(ref.ID)
	require.True(t, ok)
	assert.InDelta(t, 3, obj.Transform.Position[0], 1e-9)
	assert.Equal(t, 0.75, tl.CurrentTime)
}

func TestSequenceFlushesInBatches(t *testing.T) {
	_, restore := monitoring.Capture()
	defer restore()

	reg, comp, _ := sequenceScene(t)
	cam, err := reg.CreateCamera()
	require.NoError(t, err)
	require.NoError(t, reg.AssignCamera(cam.ID, scene.SlotViewer, true))

	results, err := Sequence(reg, comp, SequenceOptions{
		Timeline: animation.NewTimeline(),
		Slot:     scene.SlotViewer,
		Width:    8,
		Height:   8,
		FPS:      10,
		Frames:   9,
		Prefix:   "orbit",
	}, Config{OutputDir: t.TempDir(), Ext: ".png", Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 9)
	assert.Equal(t, "orbit-0009", results[8].Name)
	assert.Empty(t, Failed(results))
}

func TestSequenceRejectsMissingInputs(t *testing.T) {
	reg, comp, _ := sequenceScene(t)
	cfg := Config{OutputDir: t.TempDir()}

	_, err := Sequence(reg, comp, SequenceOptions{Slot: scene.SlotMappingPreview, Width: 8, Height: 8}, cfg)
	assert.ErrorIs(t, err, ErrNoTimeline)

	_, err = Sequence(reg, nil, SequenceOptions{Timeline: animation.NewTimeline(), Width: 8, Height: 8}, cfg)
	assert.ErrorIs(t, err, compositor.ErrNoRenderer)

	_, err = Sequence(reg, comp, SequenceOptions{Timeline: animation.NewTimeline(), Slot: scene.SlotMappingPreview, Width: 8, Height: 8}, cfg)
	assert.ErrorContains(t, err, "no camera holds the mapping-preview slot")
}
