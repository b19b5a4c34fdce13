package export

import (
	"errors"
	"fmt"
	"image"

	"projmap/internal/animation"
	"projmap/internal/compositor"
	"projmap/internal/loop"
	"projmap/internal/scene"
)

// ErrNoTimeline is returned when a sequence has nothing to play.
var ErrNoTimeline = errors.New("export: no timeline")

// SequenceOptions describes a timeline render.
type SequenceOptions struct {
	Timeline    *animation.Timeline
	Slot        scene.Slot
	Width       int
	Height      int
	Supersample int
	// FPS defaults to the timeline's rate. Frames defaults to
	// Duration·FPS, sampled at i/FPS.
	FPS    float64
	Frames int
	Prefix string
}

// Sequence steps the timeline one frame at a time through a scheduler,
// rendering the camera holding Slot after each step, and writes the frames
// as <prefix>-0001, <prefix>-0002 and so on. Frames are flushed to disk in
// batches so a long timeline never sits in memory at once. The returned
// error reports frames that failed to animate or render; write failures
// are in the results.
func Sequence(reg *scene.Registry, comp *compositor.Compositor, opts SequenceOptions, cfg Config) ([]Result, error) {
	tl := opts.Timeline
	if tl == nil {
		return nil, ErrNoTimeline
	}
	if comp == nil {
		return nil, compositor.ErrNoRenderer
	}
	if _, ok := compositor.SlotCamera(reg, opts.Slot); !ok {
		return nil, fmt.Errorf("export: no camera holds the %s slot", opts.Slot)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("export: invalid sequence size %dx%d", opts.Width, opts.Height)
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = tl.FPS
	}
	if fps <= 0 {
		fps = animation.DefaultFPS
	}
	n := opts.Frames
	if n <= 0 {
		n = max(int(tl.Duration*fps), 1)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "frame"
	}
	chunk := max(cfg.Workers, 1) * 4

	var (
		results []Result
		pending []Frame
		current int
	)
	sched := loop.New(reg, comp, loop.Options{
		Slot:        opts.Slot,
		Width:       opts.Width,
		Height:      opts.Height,
		Supersample: opts.Supersample,
		FrameRate:   fps,
		OnFrame: func(img *image.NRGBA) {
			pending = append(pending, Frame{Name: fmt.Sprintf("%s-%04d", prefix, current+1), Image: img})
		},
	})

	for current = 0; current < n; current++ {
		t := float64(current) / fps
		sched.Enqueue(func(r *scene.Registry) error {
			tl.Seek(t)
			return tl.Apply(r)
		})
		sched.Tick(1 / fps)
		if len(pending) >= chunk {
			results = append(results, Run(cfg, pending)...)
			pending = nil
		}
	}
	if len(pending) > 0 {
		results = append(results, Run(cfg, pending)...)
	}

	if st := sched.Stats(); st.Failures > 0 || st.Frames < int64(n) {
		return results, fmt.Errorf("export: sequence rendered %d of %d frames with %d failed stages", st.Frames, n, st.Failures)
	}
	return results, nil
}
