package scenegraph

import (
	"math"

	"projmap/internal/mathutil"
)

// Plane returns a w×h quad in the local XY plane facing +Z, centred on the
// origin. UV (0,0) is the top-left corner.
func Plane(w, h float64) *Mesh {
	hw, hh := w/2, h/2
	return &Mesh{
		Positions: []mathutil.Vec3{{-hw, hh, 0}, {hw, hh, 0}, {hw, -hh, 0}, {-hw, -hh, 0}},
		UVs:       [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:   [][3]int{{0, 3, 2}, {0, 2, 1}},
	}
}

// Box returns an axis-aligned box centred on the origin.
func Box(w, h, d float64) *Mesh {
	hw, hh, hd := w/2, h/2, d/2
	m := &Mesh{}
	// Each face: outward normal axis and the two in-plane axes.
	faces := [6][3]mathutil.Vec3{
		{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	}
	half := mathutil.Vec3{hw, hh, hd}
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		center := n.Mul(half)
		su := u.Mul(half).Len()
		sv := v.Mul(half).Len()
		base := len(m.Positions)
		for _, c := range [4][2]float64{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}} {
			p := center.Add(u.Scale(c[0] * su)).Add(v.Scale(c[1] * sv))
			m.Positions = append(m.Positions, p)
			m.UVs = append(m.UVs, [2]float64{(c[0] + 1) / 2, (1 - c[1]) / 2})
		}
		m.Indices = append(m.Indices, [3]int{base, base + 3, base + 2}, [3]int{base, base + 2, base + 1})
	}
	return m
}

// Sphere returns a UV sphere of radius r.
func Sphere(r float64, widthSeg, heightSeg int) *Mesh {
	widthSeg = max(widthSeg, 3)
	heightSeg = max(heightSeg, 2)
	m := &Mesh{}
	for y := 0; y <= heightSeg; y++ {
		v := float64(y) / float64(heightSeg)
		theta := v * math.Pi
		for x := 0; x <= widthSeg; x++ {
			u := float64(x) / float64(widthSeg)
			phi := u * 2 * math.Pi
			m.Positions = append(m.Positions, mathutil.Vec3{
				-r * math.Cos(phi) * math.Sin(theta),
				r * math.Cos(theta),
				r * math.Sin(phi) * math.Sin(theta),
			})
			m.UVs = append(m.UVs, [2]float64{u, v})
		}
	}
	row := widthSeg + 1
	for y := 0; y < heightSeg; y++ {
		for x := 0; x < widthSeg; x++ {
			a := y*row + x
			b := a + 1
			c := a + row
			d := c + 1
			if y != 0 {
				m.Indices = append(m.Indices, [3]int{a, c, b})
			}
			if y != heightSeg-1 {
				m.Indices = append(m.Indices, [3]int{b, c, d})
			}
		}
	}
	return m
}

// Cylinder returns a capped cylinder along local Y, centred on the origin.
// A zero top radius yields a cone.
func Cylinder(radiusTop, radiusBottom, height float64, radialSeg int) *Mesh {
	radialSeg = max(radialSeg, 3)
	hh := height / 2
	m := &Mesh{}
	ring := func(y, r, v float64) int {
		start := len(m.Positions)
		for i := 0; i <= radialSeg; i++ {
			u := float64(i) / float64(radialSeg)
			a := u * 2 * math.Pi
			m.Positions = append(m.Positions, mathutil.Vec3{r * math.Sin(a), y, r * math.Cos(a)})
			m.UVs = append(m.UVs, [2]float64{u, v})
		}
		return start
	}
	top := ring(hh, radiusTop, 0)
	bottom := ring(-hh, radiusBottom, 1)
	for i := 0; i < radialSeg; i++ {
		a, b := top+i, top+i+1
		c, d := bottom+i, bottom+i+1
		if radiusTop > 0 {
			m.Indices = append(m.Indices, [3]int{a, c, b})
		}
		m.Indices = append(m.Indices, [3]int{b, c, d})
	}
	addCap := func(y, r float64, ringStart int, up bool) {
		if r <= 0 {
			return
		}
		center := len(m.Positions)
		m.Positions = append(m.Positions, mathutil.Vec3{0, y, 0})
		m.UVs = append(m.UVs, [2]float64{0.5, 0.5})
		for i := 0; i < radialSeg; i++ {
			if up {
				m.Indices = append(m.Indices, [3]int{center, ringStart + i, ringStart + i + 1})
			} else {
				m.Indices = append(m.Indices, [3]int{center, ringStart + i + 1, ringStart + i})
			}
		}
	}
	addCap(hh, radiusTop, top, true)
	addCap(-hh, radiusBottom, bottom, false)
	return m
}

// Cone returns a capped cone along local Y with its apex at +height/2.
func Cone(radius, height float64, radialSeg int) *Mesh {
	return Cylinder(0, radius, height, radialSeg)
}
