package scenegraph

import (
	"math"

	"projmap/internal/mathutil"
)

// Pick intersects r with the meshes of the candidate nodes and returns the
// nearest hit. Only visible, selectable nodes participate.
func (s *Scene) Pick(r Ray, candidates []NodeID) (Hit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := Hit{Distance: math.Inf(1)}
	found := false
	for _, id := range candidates {
		n, ok := s.nodes[id]
		if !ok || !n.Visible || !n.Selectable || n.Mesh == nil {
			continue
		}
		for _, tri := range n.Mesh.Indices {
			var v [3]mathutil.Vec3
			valid := true
			for k, vi := range tri {
				if vi < 0 || vi >= len(n.Mesh.Positions) {
					valid = false
					break
				}
				v[k] = n.World.MulPoint(n.Mesh.Positions[vi])
			}
			if !valid {
				break
			}
			if t, ok := intersectTriangle(r, v); ok && t < best.Distance {
				best = Hit{Node: id, Distance: t, Point: r.Origin.Add(r.Dir.Scale(t))}
				found = true
			}
		}
	}
	return best, found
}

// intersectTriangle is the Möller–Trumbore test, culling neither face.
func intersectTriangle(r Ray, v [3]mathutil.Vec3) (float64, bool) {
	const eps = 1e-12
	e1 := v[1].Sub(v[0])
	e2 := v[2].Sub(v[0])
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(v[0])
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	w := r.Dir.Dot(q) * inv
	if w < 0 || u+w > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= eps {
		return 0, false
	}
	return t, true
}
