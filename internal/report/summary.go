// Package report produces planning summaries of a scene: per-projector
// photometry, a top-down layout plot and a lens coverage chart.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"projmap/internal/optics"
	"projmap/internal/scene"
)

// ScreenGain is assumed for every surface.
const ScreenGain = 1.0

// Row describes one projector at its configured projection distance.
type Row struct {
	ID          int
	Name        string
	Model       string
	Brand       string
	Lens        string
	Lumens      float64
	ThrowRatio  float64
	FOV         float64
	Distance    float64
	Width       float64
	Height      float64
	Illuminance float64
	Luminance   float64
}

// Summary aggregates the rows. Uniformity is min/max illuminance.
type Summary struct {
	Rows       []Row
	MeanLux    float64
	StdDevLux  float64
	MinLux     float64
	MaxLux     float64
	Uniformity float64
}

// Summarize computes photometry for every projector in id order. Intensity
// scales the rated lumens.
func Summarize(reg *scene.Registry) Summary {
	var s Summary
	lux := make([]float64, 0)
	for _, p := range reg.Projectors() {
		r := Row{
			ID:         p.ID,
			Name:       p.Name,
			ThrowRatio: p.ThrowRatio,
			FOV:        p.FOV,
			Distance:   p.ProjDistance,
		}
		if p.Model != nil {
			r.Model = p.Model.Name
			r.Brand = p.Model.Brand
			r.Lumens = p.Model.Lumens * p.Intensity
		}
		if p.Lens != nil {
			r.Lens = p.Lens.Name
		}
		r.Width, r.Height = optics.ImageSize(p.ThrowRatio, p.ProjDistance, p.Aspect)
		r.Illuminance = optics.Illuminance(r.Lumens, r.Width*r.Height, ScreenGain)
		r.Luminance = optics.Luminance(r.Illuminance, ScreenGain)
		s.Rows = append(s.Rows, r)
		lux = append(lux, r.Illuminance)
	}
	if len(lux) == 0 {
		return s
	}
	s.MeanLux, s.StdDevLux = stat.MeanStdDev(lux, nil)
	if len(lux) == 1 {
		s.StdDevLux = 0
	}
	s.MinLux = floats.Min(lux)
	s.MaxLux = floats.Max(lux)
	if s.MaxLux > 0 {
		s.Uniformity = s.MinLux / s.MaxLux
	}
	return s
}

// WriteText prints the summary as an aligned table.
func (s Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODEL\tLENS\tTHROW\tFOV\tDIST\tIMAGE (m)\tLUX")
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%.1f°\t%.1f\t%.2f × %.2f\t%.0f\n",
			r.ID, r.Name, r.Model, r.Lens, r.ThrowRatio, r.FOV, r.Distance, r.Width, r.Height, r.Illuminance)
	}
	if len(s.Rows) > 0 {
		fmt.Fprintf(tw, "\nmean %.0f lx, σ %.0f lx, uniformity %.2f\n", s.MeanLux, s.StdDevLux, s.Uniformity)
	}
	return tw.Flush()
}
