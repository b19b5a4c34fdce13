// Package loop drives the planner frame by frame. Every scene mutation,
// animation step and preview render runs on the goroutine calling Tick, so
// the registry never sees concurrent access.
package loop

import (
	"context"
	"fmt"
	"image"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"projmap/internal/animation"
	"projmap/internal/compositor"
	"projmap/internal/monitoring"
	"projmap/internal/scene"
)

// DefaultFrameRate is used when Options.FrameRate is unset.
const DefaultFrameRate = 30

// Mutation edits the registry from inside a tick.
type Mutation func(*scene.Registry) error

// Options configures the live preview.
type Options struct {
	Timeline    *animation.Timeline
	Slot        scene.Slot
	Width       int
	Height      int
	Supersample int
	FrameRate   float64
	// OnFrame, when set, receives every rendered preview.
	OnFrame func(*image.NRGBA)
}

// Stats counts ticks and the stages that failed inside them.
type Stats struct {
	Ticks    int64
	Frames   int64
	Failures int64
}

// Scheduler runs animation, queued mutations and the preview render in a
// fixed order once per tick.
type Scheduler struct {
	reg  *scene.Registry
	comp *compositor.Compositor
	opts Options

	mu    sync.Mutex
	queue []Mutation

	ticks    atomic.Int64
	frames   atomic.Int64
	failures atomic.Int64
	latest   atomic.Pointer[image.NRGBA]
}

// New returns a scheduler over reg. comp may be nil for a headless loop
// that only animates and applies mutations.
func New(reg *scene.Registry, comp *compositor.Compositor, opts Options) *Scheduler {
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	return &Scheduler{reg: reg, comp: comp, opts: opts}
}

// Enqueue schedules m for the next tick. Safe from any goroutine.
func (s *Scheduler) Enqueue(m Mutation) {
	s.mu.Lock()
	s.queue = append(s.queue, m)
	s.mu.Unlock()
}

// Pending returns the number of queued mutations.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Tick advances the loop by dt seconds: animation first, then queued
// mutations in submission order, then one preview render. A failing or
// panicking stage is logged and counted and the rest of the tick still runs.
func (s *Scheduler) Tick(dt float64) {
	s.ticks.Add(1)

	if tl := s.opts.Timeline; tl != nil {
		s.stage("animate", func() error {
			if !tl.Advance(dt) {
				return nil
			}
			return tl.Apply(s.reg)
		})
	}

	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, m := range queue {
		s.stage("mutation", func() error { return m(s.reg) })
	}

	if s.comp != nil {
		s.stage("render", s.render)
	}
}

func (s *Scheduler) render() error {
	cam, ok := compositor.SlotCamera(s.reg, s.opts.Slot)
	if !ok || s.opts.Width <= 0 || s.opts.Height <= 0 {
		return nil
	}
	img, err := s.comp.RenderSupersampled(cam, s.opts.Width, s.opts.Height, s.opts.Supersample)
	if err != nil {
		return err
	}
	s.latest.Store(img)
	s.frames.Add(1)
	if s.opts.OnFrame != nil {
		s.opts.OnFrame(img)
	}
	return nil
}

// stage runs f, converting a panic into an error.
func (s *Scheduler) stage(name string, f func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		return f()
	}()
	if err != nil {
		s.failures.Add(1)
		monitoring.Logf("loop: %s failed: %v", name, err)
	}
}

// Frame returns the most recent preview, or nil before the first render.
func (s *Scheduler) Frame() *image.NRGBA {
	return s.latest.Load()
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:    s.ticks.Load(),
		Frames:   s.frames.Load(),
		Failures: s.failures.Load(),
	}
}

// Run ticks at the configured frame rate until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / s.opts.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Tick(now.Sub(last).Seconds())
			last = now
		}
	}
}

// RunFrames ticks n times with a fixed step of one frame, for headless
// rendering.
func (s *Scheduler) RunFrames(n int) {
	dt := 1 / s.opts.FrameRate
	for i := 0; i < n; i++ {
		s.Tick(dt)
	}
}
