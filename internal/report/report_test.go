package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projmap/internal/catalog"
	"projmap/internal/scene"
	"projmap/internal/scenegraph"
)

const model = "panasonic_pt_rq25k"

func newRegistry(t *testing.T) *scene.Registry {
	t.Helper()
	reg, err := scene.New(scenegraph.NewScene(), catalog.Default(), scene.Options{DepthTargetSize: 8})
	require.NoError(t, err)
	return reg
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(newRegistry(t))
	assert.Empty(t, s.Rows)
	assert.Zero(t, s.MeanLux)
}

func TestSummarizePhotometry(t *testing.T) {
	reg := newRegistry(t)
	a, err := reg.CreateProjector(model, scene.ProjectorOptions{})
	require.NoError(t, err)
	b, err := reg.CreateProjector(model, scene.ProjectorOptions{})
	require.NoError(t, err)
	half := 0.5
	require.NoError(t, reg.UpdateProjector(b.ID, scene.ProjectorSettings{Intensity: &half}))

	s := Summarize(reg)
	require.Len(t, s.Rows, 2)
	r := s.Rows[0]
	assert.Equal(t, a.ID, r.ID)
	assert.Equal(t, a.Model.Lumens, r.Lumens)

	wantW := a.ProjDistance / a.ThrowRatio
	assert.InDelta(t, wantW, r.Width, 1e-9)
	assert.InDelta(t, wantW*9/16, r.Height, 1e-9)
	assert.InDelta(t, r.Lumens/(r.Width*r.Height), r.Illuminance, 1e-9)
	assert.InDelta(t, r.Illuminance/math.Pi, r.Luminance, 1e-9)

	assert.InDelta(t, r.Illuminance/2, s.Rows[1].Illuminance, 1e-9)
	assert.InDelta(t, 0.5, s.Uniformity, 1e-9)
	assert.InDelta(t, (r.Illuminance+s.Rows[1].Illuminance)/2, s.MeanLux, 1e-9)
	assert.Greater(t, s.StdDevLux, 0.0)

	var buf bytes.Buffer
	require.NoError(t, s.WriteText(&buf))
	assert.Contains(t, buf.String(), a.Model.Name)
	assert.Contains(t, buf.String(), "uniformity 0.50")
}

func TestSingleProjectorHasNoSpread(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.CreateProjector(model, scene.ProjectorOptions{})
	require.NoError(t, err)
	s := Summarize(reg)
	assert.Zero(t, s.StdDevLux)
	assert.Equal(t, 1.0, s.Uniformity)
}

func TestSaveLayout(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.CreateProjector(model, scene.ProjectorOptions{})
	require.NoError(t, err)
	_, err = reg.CreateCamera()
	require.NoError(t, err)
	_, err = reg.CreateWall()
	require.NoError(t, err)

	p, err := LayoutPlot(reg)
	require.NoError(t, err)
	assert.Equal(t, "X (m)", p.X.Label.Text)

	path := filepath.Join(t.TempDir(), "layout.svg")
	require.NoError(t, SaveLayout(reg, path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<svg")
}

func TestLensChart(t *testing.T) {
	cat := catalog.Default()
	lenses := cat.Lenses()
	require.NotEmpty(t, lenses)

	for _, l := range lenses {
		pts := lensPoints(l)
		if l.Fixed || l.ThrowMax <= l.ThrowMin {
			assert.Len(t, pts, 1, l.ID)
		} else {
			assert.Len(t, pts, lensSamples, l.ID)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLensChart(&buf, lenses))
	assert.Contains(t, buf.String(), "Lens coverage")
}
