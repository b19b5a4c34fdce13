package scenegraph

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/google/uuid"

	"projmap/internal/mathutil"
	"projmap/internal/raster"
)

// DefaultBackground is the viewport clear colour.
var DefaultBackground = color.NRGBA{0x1a, 0x1a, 0x1a, 0xff}

// Scene is the in-memory software implementation of Graph. It is safe for
// concurrent use; writers are expected to be a single registry.
type Scene struct {
	Background color.NRGBA
	Light      raster.LightConfig

	mu    sync.RWMutex
	nodes map[NodeID]*Node
	order []NodeID
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{
		Background: DefaultBackground,
		Light:      raster.DefaultLightConfig(),
		nodes:      make(map[NodeID]*Node),
	}
}

// Add inserts a copy of n under a fresh id. A zero World becomes identity.
func (s *Scene) Add(n Node) NodeID {
	n.ID = uuid.New()
	if n.World == (mathutil.Mat4{}) {
		n.World = mathutil.Mat4Identity()
	}
	s.mu.Lock()
	s.nodes[n.ID] = &n
	s.order = append(s.order, n.ID)
	s.mu.Unlock()
	return n.ID
}

func (s *Scene) Remove(id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	delete(s.nodes, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Scene) update(id NodeID, f func(n *Node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	f(n)
	return nil
}

func (s *Scene) SetTransform(id NodeID, world mathutil.Mat4) error {
	return s.update(id, func(n *Node) { n.World = world })
}

func (s *Scene) SetVisible(id NodeID, visible bool) error {
	return s.update(id, func(n *Node) { n.Visible = visible })
}

// SetLines replaces the node's segment vertices in place.
func (s *Scene) SetLines(id NodeID, lines []mathutil.Vec3) error {
	return s.update(id, func(n *Node) {
		n.Lines = append(n.Lines[:0], lines...)
	})
}

func (s *Scene) SetLight(id NodeID, l SpotLight) error {
	return s.update(id, func(n *Node) { n.Light = &l })
}

func (s *Scene) SetTexture(id NodeID, tex *image.NRGBA) error {
	return s.update(id, func(n *Node) { n.Texture = tex })
}

// Node returns a snapshot of the node.
func (s *Scene) Node(id NodeID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// NewTarget returns a w×h target. Pixel storage is allocated on first render.
func (s *Scene) NewTarget(w, h int) (Target, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("scenegraph: invalid target size %dx%d", w, h)
	}
	return &bufferTarget{owner: s, w: w, h: h}, nil
}

type litSpot struct {
	pos, dir mathutil.Vec3
	light    SpotLight
}

// Render draws every visible node into t through cam.
func (s *Scene) Render(t Target, cam Camera) error {
	bt, ok := t.(*bufferTarget)
	if !ok || bt.owner != s {
		return ErrForeignTarget
	}
	fb, err := bt.buffer()
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fb.Clear(s.Background)
	vp := cam.ViewProj()

	var spots []litSpot
	for _, id := range s.order {
		n := s.nodes[id]
		if n.Visible && n.Light != nil && n.Light.Intensity > 0 {
			spots = append(spots, litSpot{
				pos:   n.World.Translation(),
				dir:   n.World.MulDir(mathutil.Forward).Normalize(),
				light: *n.Light,
			})
		}
	}

	for _, id := range s.order {
		n := s.nodes[id]
		if !n.Visible || (n.Helper && cam.HideHelpers) {
			continue
		}
		mvp := mathutil.Mat4Mul(vp, n.World)
		if n.Mesh != nil {
			s.drawMesh(fb, n, mvp, spots)
		}
		for i := 0; i+1 < len(n.Lines); i += 2 {
			a := raster.ClipVertex{Pos: mvp.MulVec4(n.Lines[i])}
			b := raster.ClipVertex{Pos: mvp.MulVec4(n.Lines[i+1])}
			raster.DrawClipLine(fb, a, b, n.Color)
		}
	}
	return nil
}

func (s *Scene) drawMesh(fb *raster.FrameBuffer, n *Node, mvp mathutil.Mat4, spots []litSpot) {
	m := n.Mesh
	hasUV := n.Texture != nil && len(m.UVs) == len(m.Positions)
	mat := raster.Material{Color: n.Color, Unlit: n.Unlit}
	if hasUV {
		mat.Texture = n.Texture
	}

	for _, tri := range m.Indices {
		var cv [3]raster.ClipVertex
		var wp [3]mathutil.Vec3
		for k, vi := range tri {
			if vi < 0 || vi >= len(m.Positions) {
				return
			}
			p := m.Positions[vi]
			cv[k].Pos = mvp.MulVec4(p)
			wp[k] = n.World.MulPoint(p)
			if hasUV {
				cv[k].U, cv[k].V = m.UVs[vi][0], m.UVs[vi][1]
			}
		}
		if !n.Unlit {
			normal := wp[1].Sub(wp[0]).Cross(wp[2].Sub(wp[0])).Normalize()
			centroid := wp[0].Add(wp[1]).Add(wp[2]).Scale(1.0 / 3)
			mat.Shade = s.Light.ComputeShade(normal) + spotContribution(spots, normal, centroid)
		}
		raster.DrawClipTriangle(fb, cv, &mat)
	}
}

// spotContribution sums the spot lights reaching point p with face normal n.
func spotContribution(spots []litSpot, n, p mathutil.Vec3) float64 {
	var sum float64
	for _, sp := range spots {
		toP := p.Sub(sp.pos)
		d := toP.Len()
		if d < 1e-9 || (sp.light.Distance > 0 && d > sp.light.Distance) {
			continue
		}
		l := toP.Scale(1 / d)
		cosOuter := math.Cos(sp.light.Angle)
		cosInner := math.Cos(sp.light.Angle * (1 - sp.light.Penumbra))
		c := l.Dot(sp.dir)
		if c <= cosOuter {
			continue
		}
		cone := 1.0
		if c < cosInner {
			cone = (c - cosOuter) / (cosInner - cosOuter)
		}
		sum += sp.light.Intensity * cone * math.Abs(n.Dot(l)) * 0.5
	}
	return sum
}
