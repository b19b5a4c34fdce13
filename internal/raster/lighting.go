package raster

import (
	"math"

	"projmap/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters for the preview.
type LightConfig struct {
	LightDir mathutil.Vec3
	Ambient  float64
	Hemi     float64
	Direct   float64
}

// DefaultLightConfig returns a soft key light from above-front with
// hemisphere fill, matching the editor viewport look.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir: mathutil.Vec3{5, 10, 7.5}.Normalize(),
		Ambient:  0.45,
		Hemi:     0.15,
		Direct:   0.6,
	}
}

// ComputeShade returns the combined lighting scalar for a face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndl := math.Abs(normal.Dot(lc.LightDir))

	// Hemisphere fill favours upward-facing surfaces
	hemi := normal[1]*0.5 + 0.5

	return lc.Ambient + hemi*lc.Hemi + ndl*lc.Direct
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

func encodeSRGB(linear float64) uint8 {
	if linear <= 0 {
		return 0
	}
	if linear >= 1 {
		return 255
	}
	return clamp255(math.Pow(linear, 1/2.2) * 255)
}
