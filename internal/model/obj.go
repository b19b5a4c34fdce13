package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"projmap/internal/mathutil"
	"projmap/internal/scenegraph"
)

// ParseOBJ reads positions, texture coordinates and faces. Polygons are
// fanned into triangles (0-1-2, 0-2-3, ...). Normals, groups and materials
// are ignored.
func ParseOBJ(r io.Reader) (*scenegraph.Mesh, error) {
	var (
		pos   []mathutil.Vec3
		uv    [][2]float64
		mesh  = &scenegraph.Mesh{}
		seen  = map[[2]int]int{}
		hasUV bool
	)

	vertex := func(ref string, line int) (int, error) {
		parts := strings.Split(ref, "/")
		vi, err := objIndex(parts[0], len(pos))
		if err != nil {
			return 0, fmt.Errorf("obj line %d: %w", line, err)
		}
		ti := -1
		if len(parts) > 1 && parts[1] != "" {
			if ti, err = objIndex(parts[1], len(uv)); err != nil {
				return 0, fmt.Errorf("obj line %d: %w", line, err)
			}
			hasUV = true
		}
		key := [2]int{vi, ti}
		if idx, ok := seen[key]; ok {
			return idx, nil
		}
		idx := len(mesh.Positions)
		mesh.Positions = append(mesh.Positions, pos[vi])
		t := [2]float64{}
		if ti >= 0 {
			// OBJ puts v=0 at the bottom.
			t = [2]float64{uv[ti][0], 1 - uv[ti][1]}
		}
		mesh.UVs = append(mesh.UVs, t)
		seen[key] = idx
		return idx, nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := floats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			pos = append(pos, mathutil.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := floats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			uv = append(uv, [2]float64{v[0], v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs 3 vertices", line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := vertex(ref, line)
				if err != nil {
					return nil, err
				}
				idx = append(idx, i)
			}
			for k := 1; k+1 < len(idx); k++ {
				mesh.Indices = append(mesh.Indices, [3]int{idx[0], idx[k], idx[k+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	if !hasUV {
		mesh.UVs = nil
	}
	return mesh, nil
}

// objIndex converts a 1-based (or negative, relative) OBJ index.
func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", s)
	}
	if i < 0 {
		i += n
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range", s)
	}
	return i, nil
}

func floats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
