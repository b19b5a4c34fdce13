// Package model imports static meshes (Wavefront OBJ, STL) for placement in
// the scene as projection surfaces.
package model

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"projmap/internal/mathutil"
	"projmap/internal/scenegraph"
)

// TargetExtent is the size imported models are scaled to along their
// longest axis.
const TargetExtent = 2.0

// ErrUnsupported is returned for a file extension with no parser.
var ErrUnsupported = errors.New("model: unsupported format")

// ErrEmpty is returned when a file holds no triangles.
var ErrEmpty = errors.New("model: no geometry")

// Extensions lists the importable formats.
var Extensions = []string{".obj", ".stl"}

// Model is an imported mesh with its object-space bounds.
type Model struct {
	Name string
	Mesh *scenegraph.Mesh
	Min  mathutil.Vec3
	Max  mathutil.Vec3
}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads and parses a model file. The name is the file stem.
func Load(path string) (*Model, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}

	var mesh *scenegraph.Mesh
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		mesh, err = ParseOBJ(bytes.NewReader(raw))
	case ".stl":
		mesh, err = ParseSTL(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	if len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, path)
	}

	m := &Model{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Mesh: mesh,
	}
	m.Min, m.Max = bounds(mesh.Positions)
	return m, nil
}

func bounds(ps []mathutil.Vec3) (lo, hi mathutil.Vec3) {
	lo = mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range ps {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return lo, hi
}

// Extent returns the largest side of the bounding box.
func (m *Model) Extent() float64 {
	d := m.Max.Sub(m.Min)
	return math.Max(d[0], math.Max(d[1], d[2]))
}

// FitScale returns the uniform scale that brings the longest side to
// TargetExtent, or 1 for degenerate bounds.
func (m *Model) FitScale() float64 {
	e := m.Extent()
	if e <= 0 || math.IsInf(e, 0) {
		return 1
	}
	return TargetExtent / e
}

// Transform places the model at pos with its fit scale.
func (m *Model) Transform(pos mathutil.Vec3) mathutil.Transform {
	s := m.FitScale()
	tr := mathutil.NewTransform(pos)
	tr.Scale = mathutil.Vec3{s, s, s}
	return tr
}
