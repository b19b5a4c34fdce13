// Package compositor renders the scene from a camera into an off-screen
// target and returns top-down RGBA images for previews and snapshots.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"projmap/internal/monitoring"
	"projmap/internal/postprocess"
	"projmap/internal/scenegraph"
)

// ErrNoRenderer is returned when no scene graph is available to render.
var ErrNoRenderer = errors.New("compositor: no renderer")

// Compositor owns one cached off-screen target, reused while the requested
// size stays the same.
type Compositor struct {
	graph scenegraph.Graph

	mu     sync.Mutex
	target scenegraph.Target
}

// New returns a compositor rendering graph.
func New(graph scenegraph.Graph) (*Compositor, error) {
	if graph == nil {
		return nil, ErrNoRenderer
	}
	return &Compositor{graph: graph}, nil
}

// RenderToImage renders the scene through cam at w×h. Readback rows arrive
// bottom-up and are flipped so row 0 of the result is the top of the view.
func (c *Compositor) RenderToImage(cam scenegraph.Camera, w, h int) (*image.NRGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("compositor: invalid size %dx%d", w, h)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.targetFor(w, h)
	if err != nil {
		return nil, err
	}
	if err := c.graph.Render(t, cam); err != nil {
		return nil, fmt.Errorf("compositor: render: %w", err)
	}
	return readImage(t)
}

// targetFor returns the cached target, replacing it when the size changed.
func (c *Compositor) targetFor(w, h int) (scenegraph.Target, error) {
	if c.target != nil {
		if tw, th := c.target.Size(); tw == w && th == h {
			return c.target, nil
		}
		c.release()
	}
	t, err := c.graph.NewTarget(w, h)
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	c.target = t
	return t, nil
}

func (c *Compositor) release() {
	if c.target == nil {
		return
	}
	if err := c.target.Release(); err != nil {
		monitoring.Logf("compositor: release target: %v", err)
	}
	c.target = nil
}

// readImage copies t into a new top-down image.
func readImage(t scenegraph.Target) (*image.NRGBA, error) {
	w, h := t.Size()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if err := t.ReadPixels(img.Pix); err != nil {
		return nil, fmt.Errorf("compositor: read pixels: %w", err)
	}
	postprocess.FlipRows(img.Pix, img.Stride, h)
	return img, nil
}

// RenderSupersampled renders at factor× the size and filters down to w×h.
func (c *Compositor) RenderSupersampled(cam scenegraph.Camera, w, h, factor int) (*image.NRGBA, error) {
	if factor <= 1 {
		return c.RenderToImage(cam, w, h)
	}
	img, err := c.RenderToImage(cam, w*factor, h*factor)
	if err != nil {
		return nil, err
	}
	return postprocess.Downsample(img, w, h), nil
}

// Close releases the cached target. Failures are logged.
func (c *Compositor) Close() {
	c.mu.Lock()
	c.release()
	c.mu.Unlock()
}
