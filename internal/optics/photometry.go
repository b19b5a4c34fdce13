package optics

import "math"

// ImageSize returns the projected width and height at distance for a throw
// ratio and aspect (width/height).
func ImageSize(throwRatio, distance, aspect float64) (width, height float64) {
	if throwRatio <= 0 || aspect <= 0 {
		return 0, 0
	}
	width = distance / throwRatio
	return width, width / aspect
}

// ThrowDistance returns the distance needed for an image of the given width.
func ThrowDistance(throwRatio, width float64) float64 {
	return throwRatio * width
}

// Illuminance returns lux on the surface: lumens spread over area (m²),
// scaled by screen gain.
func Illuminance(lumens, area, gain float64) float64 {
	if area <= 0 {
		return 0
	}
	return lumens * gain / area
}

// Luminance returns cd/m² for a screen of the given gain: lux·gain/π.
func Luminance(lux, gain float64) float64 {
	return lux * gain / math.Pi
}
