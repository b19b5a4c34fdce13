package model

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"projmap/internal/mathutil"
	"projmap/internal/scenegraph"
)

// Binary STL layout.
const (
	stlHeader   = 80
	stlTriangle = 50 // normal, 3 vertices, attribute count
)

// ParseSTL reads binary or ASCII STL. Each facet gets its own three
// vertices.
func ParseSTL(raw []byte) (*scenegraph.Mesh, error) {
	if isASCIISTL(raw) {
		return parseASCIISTL(raw)
	}
	return parseBinarySTL(raw)
}

// isASCIISTL checks for "solid" followed by a facet. Some binary exporters
// also start their header with "solid", so the size check decides.
func isASCIISTL(raw []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(raw, " \t\r\n"), []byte("solid")) {
		return false
	}
	if len(raw) >= stlHeader+4 {
		n := int(binary.LittleEndian.Uint32(raw[stlHeader:]))
		if stlHeader+4+n*stlTriangle == len(raw) {
			return false
		}
	}
	return bytes.Contains(raw, []byte("facet"))
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) readU32() uint32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) readF32() float32 {
	return math.Float32frombits(r.readU32())
}

func (r *reader) readVec3() mathutil.Vec3 {
	x := float64(r.readF32())
	y := float64(r.readF32())
	z := float64(r.readF32())
	return mathutil.Vec3{x, y, z}
}

func parseBinarySTL(raw []byte) (*scenegraph.Mesh, error) {
	if len(raw) < stlHeader+4 {
		return nil, fmt.Errorf("stl: truncated header")
	}
	r := &reader{data: raw, off: stlHeader}
	n := int(r.readU32())
	if stlHeader+4+n*stlTriangle > len(raw) {
		return nil, fmt.Errorf("stl: %d triangles declared, file holds %d", n, (len(raw)-stlHeader-4)/stlTriangle)
	}

	mesh := &scenegraph.Mesh{
		Positions: make([]mathutil.Vec3, 0, n*3),
		Indices:   make([][3]int, 0, n),
	}
	for i := 0; i < n; i++ {
		_ = r.readVec3() // facet normal
		base := len(mesh.Positions)
		for k := 0; k < 3; k++ {
			mesh.Positions = append(mesh.Positions, r.readVec3())
		}
		r.off += 2 // attribute byte count
		mesh.Indices = append(mesh.Indices, [3]int{base, base + 1, base + 2})
	}
	return mesh, nil
}

func parseASCIISTL(raw []byte) (*scenegraph.Mesh, error) {
	mesh := &scenegraph.Mesh{}
	var facet []mathutil.Vec3
	sc := bufio.NewScanner(bytes.NewReader(raw))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			v, err := floats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("stl line %d: %w", line, err)
			}
			facet = append(facet, mathutil.Vec3{v[0], v[1], v[2]})
		case "endloop":
			if len(facet) != 3 {
				return nil, fmt.Errorf("stl line %d: facet has %d vertices", line, len(facet))
			}
			base := len(mesh.Positions)
			mesh.Positions = append(mesh.Positions, facet...)
			mesh.Indices = append(mesh.Indices, [3]int{base, base + 1, base + 2})
			facet = facet[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	return mesh, nil
}
