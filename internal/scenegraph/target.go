package scenegraph

import (
	"fmt"
	"math"
	"sync"

	"projmap/internal/raster"
)

// bufferTarget is a software render target. The framebuffer is allocated
// lazily so large, rarely used targets (projector depth buffers) stay cheap.
type bufferTarget struct {
	owner *Scene
	w, h  int

	mu       sync.Mutex
	fb       *raster.FrameBuffer
	released bool
}

func (t *bufferTarget) Size() (int, int) { return t.w, t.h }

func (t *bufferTarget) buffer() (*raster.FrameBuffer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, ErrReleased
	}
	if t.fb == nil {
		t.fb = raster.NewFrameBuffer(t.w, t.h)
	}
	return t.fb, nil
}

// ReadPixels copies rows bottom-up. A target that was never rendered reads
// as transparent black.
func (t *bufferTarget) ReadPixels(dst []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrReleased
	}
	stride := t.w * 4
	if len(dst) < stride*t.h {
		return fmt.Errorf("scenegraph: read buffer too small: %d < %d", len(dst), stride*t.h)
	}
	if t.fb == nil {
		clear(dst[:stride*t.h])
		return nil
	}
	for y := 0; y < t.h; y++ {
		src := t.fb.Color[y*stride : (y+1)*stride]
		copy(dst[(t.h-1-y)*stride:], src)
	}
	return nil
}

// ReadDepth inverts the stored 1/w back to view depth.
func (t *bufferTarget) ReadDepth(dst []float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrReleased
	}
	n := t.w * t.h
	if len(dst) < n {
		return fmt.Errorf("scenegraph: depth buffer too small: %d < %d", len(dst), n)
	}
	for y := 0; y < t.h; y++ {
		row := dst[(t.h-1-y)*t.w : (t.h-y)*t.w]
		for x := range row {
			row[x] = math.Inf(1)
			if t.fb == nil {
				continue
			}
			if inv := t.fb.ZBuf[y*t.w+x]; inv > 0 {
				row[x] = 1 / inv
			}
		}
	}
	return nil
}

func (t *bufferTarget) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrReleased
	}
	t.released = true
	t.fb = nil
	return nil
}

// Allocated reports whether pixel storage exists for t. Targets from other
// implementations report false.
func Allocated(t Target) bool {
	bt, ok := t.(*bufferTarget)
	if !ok {
		return false
	}
	bt.mu.Lock()
	defer bt.mu.Unlock()
	return bt.fb != nil
}

// Released reports whether t has been released.
func Released(t Target) bool {
	bt, ok := t.(*bufferTarget)
	if !ok {
		return false
	}
	bt.mu.Lock()
	defer bt.mu.Unlock()
	return bt.released
}
