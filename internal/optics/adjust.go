package optics

import "projmap/internal/mathutil"

// Adjustment bounds.
const (
	KeystoneAxisLimit   = 50.0
	KeystoneCornerLimit = 100.0
	SoftEdgeMax         = 100.0
	GammaMin            = 0.1
	GammaMax            = 10.0
	DefaultGamma        = 2.2
)

// Point2 is a corner offset in image-plane units.
type Point2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Keystone holds the overall V/H correction and per-corner offsets. These
// are consumed by the downstream warping stage, not by the frustum.
type Keystone struct {
	V           float64 `json:"v"`
	H           float64 `json:"h"`
	TopLeft     Point2  `json:"top_left"`
	TopRight    Point2  `json:"top_right"`
	BottomLeft  Point2  `json:"bottom_left"`
	BottomRight Point2  `json:"bottom_right"`
}

// Clamp returns k with every component limited to its bounds.
func (k Keystone) Clamp() Keystone {
	c := func(p Point2) Point2 {
		return Point2{
			X: mathutil.Clamp(p.X, -KeystoneCornerLimit, KeystoneCornerLimit),
			Y: mathutil.Clamp(p.Y, -KeystoneCornerLimit, KeystoneCornerLimit),
		}
	}
	return Keystone{
		V:           mathutil.Clamp(k.V, -KeystoneAxisLimit, KeystoneAxisLimit),
		H:           mathutil.Clamp(k.H, -KeystoneAxisLimit, KeystoneAxisLimit),
		TopLeft:     c(k.TopLeft),
		TopRight:    c(k.TopRight),
		BottomLeft:  c(k.BottomLeft),
		BottomRight: c(k.BottomRight),
	}
}

// SoftEdge is the blend falloff per side as a percentage of the image
// dimension, shaped by Gamma.
type SoftEdge struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Gamma  float64 `json:"gamma"`
}

// DefaultSoftEdge has no falloff and the standard 2.2 curve.
func DefaultSoftEdge() SoftEdge {
	return SoftEdge{Gamma: DefaultGamma}
}

// Clamp returns s limited to [0,100] per side and a gamma in [0.1,10].
func (s SoftEdge) Clamp() SoftEdge {
	return SoftEdge{
		Left:   mathutil.Clamp(s.Left, 0, SoftEdgeMax),
		Right:  mathutil.Clamp(s.Right, 0, SoftEdgeMax),
		Top:    mathutil.Clamp(s.Top, 0, SoftEdgeMax),
		Bottom: mathutil.Clamp(s.Bottom, 0, SoftEdgeMax),
		Gamma:  mathutil.Clamp(s.Gamma, GammaMin, GammaMax),
	}
}

// IsZero reports whether no side has a falloff.
func (s SoftEdge) IsZero() bool {
	return s.Left == 0 && s.Right == 0 && s.Top == 0 && s.Bottom == 0
}
