package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"projmap/internal/scene"
)

// Layout plot size.
const (
	LayoutWidth  = 8 * vg.Inch
	LayoutHeight = 6 * vg.Inch
)

var (
	footprintColor = color.RGBA{R: 0, G: 200, B: 255, A: 255}
	cameraColor    = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	objectColor    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// LayoutPlot draws the installation from above: X to the right, Z down the
// page as seen on a floor plan. Each projector shows its frustum footprint
// out to its projection distance.
func LayoutPlot(reg *scene.Registry) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Installation layout (top view)"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Z (m)"

	for _, pr := range reg.Projectors() {
		world := pr.Transform.Matrix()
		c := pr.Corners()
		apex := pr.Transform.Position

		// Lens to the bottom far edge and back, then to the top far edge.
		pts := make(plotter.XYs, 0, 7)
		for _, i := range []int{-1, 0, 1, -1, 3, 2, -1} {
			v := apex
			if i >= 0 {
				v = world.MulPoint(c.Far(i))
			}
			pts = append(pts, plotter.XY{X: v[0], Y: v[2]})
		}
		outline, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("report: projector #%d: %w", pr.ID, err)
		}
		outline.Color = footprintColor
		outline.Width = vg.Points(1)
		p.Add(outline)
		p.Legend.Add(pr.Name, outline)
	}

	labels := plotter.XYLabels{}
	var projPts, camPts, objPts plotter.XYs
	for _, pr := range reg.Projectors() {
		projPts = append(projPts, plotter.XY{X: pr.Transform.Position[0], Y: pr.Transform.Position[2]})
		labels.XYs = append(labels.XYs, plotter.XY{X: pr.Transform.Position[0], Y: pr.Transform.Position[2]})
		labels.Labels = append(labels.Labels, pr.Name)
	}
	for _, c := range reg.Cameras() {
		camPts = append(camPts, plotter.XY{X: c.Transform.Position[0], Y: c.Transform.Position[2]})
	}
	for _, o := range reg.Objects() {
		objPts = append(objPts, plotter.XY{X: o.Transform.Position[0], Y: o.Transform.Position[2]})
	}

	if err := addScatter(p, "projectors", projPts, draw.TriangleGlyph{}, footprintColor); err != nil {
		return nil, err
	}
	if err := addScatter(p, "cameras", camPts, draw.SquareGlyph{}, cameraColor); err != nil {
		return nil, err
	}
	if err := addScatter(p, "objects", objPts, draw.CircleGlyph{}, objectColor); err != nil {
		return nil, err
	}
	if len(labels.XYs) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("report: labels: %w", err)
		}
		p.Add(l)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	// Floor-plan convention: +Z toward the viewer at the bottom.
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())
	return p, nil
}

func addScatter(p *plot.Plot, name string, pts plotter.XYs, glyph draw.GlyphDrawer, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("report: %s: %w", name, err)
	}
	s.GlyphStyle.Shape = glyph
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(4)
	p.Add(s)
	p.Legend.Add(name, s)
	return nil
}

// SaveLayout writes the layout plot to path. The extension picks the
// format (png, svg, pdf).
func SaveLayout(reg *scene.Registry, path string) error {
	p, err := LayoutPlot(reg)
	if err != nil {
		return err
	}
	if err := p.Save(LayoutWidth, LayoutHeight, path); err != nil {
		return fmt.Errorf("report: save layout: %w", err)
	}
	return nil
}
