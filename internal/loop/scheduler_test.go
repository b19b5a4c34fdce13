package loop

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

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

func newRegistry(t *testing.T) (*scene.Registry, *scenegraph.Scene) {
	t.Helper()
	g := scenegraph.NewScene()
	reg, err := scene.New(g, catalog.Default(), scene.Options{DepthTargetSize: 8})
	require.NoError(t, err)
	return reg, g
}

func TestTickSurvivesFailingMutations(t *testing.T) {
	logs, restore := monitoring.Capture()
	defer restore()

	reg, _ := newRegistry(t)
	s := New(reg, nil, Options{})

	var order []string
	s.Enqueue(func(*scene.Registry) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	s.Enqueue(func(*scene.Registry) error {
		order = append(order, "second")
		panic("kaboom")
	})
	s.Enqueue(func(r *scene.Registry) error {
		order = append(order, "third")
		_, err := r.CreatePrimitive(scene.PrimitiveSphere)
		return err
	})
	assert.Equal(t, 3, s.Pending())

	s.Tick(1.0 / 30)
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Len(t, reg.Objects(), 1)
	assert.Zero(t, s.Pending())

	st := s.Stats()
	assert.Equal(t, int64(1), st.Ticks)
	assert.Equal(t, int64(2), st.Failures)
	joined := strings.Join(*logs, "\n")
	assert.Contains(t, joined, "boom")
	assert.Contains(t, joined, "kaboom")

	// The next tick runs normally.
	s.Enqueue(func(*scene.Registry) error { order = append(order, "fourth"); return nil })
	s.Tick(1.0 / 30)
	assert.Equal(t, "fourth", order[len(order)-1])
	assert.Equal(t, int64(2), s.Stats().Failures)
}

func TestEnqueueFromManyGoroutines(t *testing.T) {
	reg, _ := newRegistry(t)
	s := New(reg, nil, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Enqueue(func(r *scene.Registry) error {
				_, err := r.CreatePrimitive(scene.PrimitiveBox)
				return err
			})
		}()
	}
	wg.Wait()
	s.Tick(0)
	assert.Len(t, reg.Objects(), 8)
}

func TestTickRendersAssignedSlot(t *testing.T) {
	reg, g := newRegistry(t)
	comp, err := compositor.New(g)
	require.NoError(t, err)
	defer comp.Close()

	var got int
	s := New(reg, comp, Options{
		Slot:    scene.SlotMappingPreview,
		Width:   32,
		Height:  18,
		OnFrame: func(img *image.NRGBA) { got++ },
	})

	// No camera in the slot: nothing rendered, nothing failed.
	s.Tick(0)
	assert.Nil(t, s.Frame())
	assert.Zero(t, s.Stats().Failures)

	s.Enqueue(func(r *scene.Registry) error {
		c, err := r.CreateCamera()
		if err != nil {
			return err
		}
		return r.AssignCamera(c.ID, scene.SlotMappingPreview, true)
	})
	s.Tick(0)
	require.NotNil(t, s.Frame())
	assert.Equal(t, 32, s.Frame().Bounds().Dx())
	assert.Equal(t, 1, got)
	assert.Equal(t, int64(1), s.Stats().Frames)
}

func TestTickAppliesTimeline(t *testing.T) {
	reg, _ := newRegistry(t)
	obj, err := reg.CreatePrimitive(scene.PrimitiveCone)
	require.NoError(t, err)
	ref := scene.Ref{Kind: scene.KindObject, ID: obj.ID}

	tl := animation.NewTimeline()
	tl.Duration = 1
	require.NoError(t, tl.AddKeyframe(ref, animation.Keyframe{Time: 0, Property: animation.Position}))
	require.NoError(t, tl.AddKeyframe(ref, animation.Keyframe{Time: 1, Property: animation.Position, Value: mathutil.Vec3{0, 10, 0}}))
	tl.Play()

	s := New(reg, nil, Options{Timeline: tl, FrameRate: 10})
	s.RunFrames(5)
	o, ok := reg.Object(obj.ID)
	require.True(t, ok)
	assert.InDelta(t, 5, o.Transform.Position[1], 1e-9)

	s.RunFrames(10)
	o, _ = reg.Object(obj.ID)
	assert.InDelta(t, 10, o.Transform.Position[1], 1e-9)
	assert.False(t, tl.Playing)
}

func TestRunStopsOnCancel(t *testing.T) {
	reg, _ := newRegistry(t)
	s := New(reg, nil, Options{FrameRate: 200})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Stats().Ticks >= 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
