package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"projmap/internal/mathutil"
	"projmap/internal/postprocess"
	"projmap/internal/scene"
	"projmap/internal/scenegraph"
)

// ProjectorCamera returns the view through projector id, lens shift included.
func ProjectorCamera(reg *scene.Registry, id int) (scenegraph.Camera, error) {
	p, ok := reg.Projector(id)
	if !ok {
		return scenegraph.Camera{}, fmt.Errorf("%w: projector #%d", scene.ErrUnknownEntity, id)
	}
	return p.View(), nil
}

// SlotCamera returns the view of the camera assigned to slot.
func SlotCamera(reg *scene.Registry, slot scene.Slot) (scenegraph.Camera, bool) {
	c, ok := reg.ActiveCamera(slot)
	if !ok {
		return scenegraph.Camera{}, false
	}
	return c.View(), true
}

// ProjectorOutput renders what projector id casts at w×h, with its soft-edge
// blend applied.
func (c *Compositor) ProjectorOutput(reg *scene.Registry, id, w, h int) (*image.NRGBA, error) {
	p, ok := reg.Projector(id)
	if !ok {
		return nil, fmt.Errorf("%w: projector #%d", scene.ErrUnknownEntity, id)
	}
	img, err := c.RenderToImage(p.View(), w, h)
	if err != nil {
		return nil, err
	}
	if p.SoftEdge.IsZero() {
		return img, nil
	}
	return postprocess.ApplySoftEdge(img, p.SoftEdge), nil
}

// CaptureDepth renders projector id into its own depth target and returns
// the depth map, top row first. Depth is linear between the projector's
// near and far planes: 0 at near, 0xffff at far or where nothing was hit.
// The target is sized for calibration work and is not the compositor's
// cached target.
func CaptureDepth(reg *scene.Registry, id int) (*image.Gray16, error) {
	p, ok := reg.Projector(id)
	if !ok {
		return nil, fmt.Errorf("%w: projector #%d", scene.ErrUnknownEntity, id)
	}
	t, err := reg.DepthTarget(id)
	if err != nil {
		return nil, err
	}
	view := p.View()
	if err := reg.Graph().Render(t, view); err != nil {
		return nil, fmt.Errorf("compositor: depth pass: %w", err)
	}
	w, h := t.Size()
	depth := make([]float64, w*h)
	if err := t.ReadDepth(depth); err != nil {
		return nil, fmt.Errorf("compositor: read depth: %w", err)
	}
	return depthImage(depth, w, h, view.Near, view.Far), nil
}

// depthImage quantises bottom-up view depths into a top-down Gray16.
func depthImage(depth []float64, w, h int, near, far float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	span := far - near
	for y := 0; y < h; y++ {
		src := depth[(h-1-y)*w : (h-y)*w]
		for x, d := range src {
			v := uint16(math.MaxUint16)
			if span > 0 && !math.IsInf(d, 1) {
				v = uint16(mathutil.Clamp((d-near)/span, 0, 1)*math.MaxUint16 + 0.5)
			}
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	return img
}
