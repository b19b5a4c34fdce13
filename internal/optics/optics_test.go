package optics

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projmap/internal/mathutil"
)

func TestThrowRatioToFOVExamples(t *testing.T) {
	fov, err := ThrowRatioToFOV(1.0)
	require.NoError(t, err)
	assert.InDelta(t, 53.13, fov, 0.01)

	fov, err = ThrowRatioToFOV(2.0)
	require.NoError(t, err)
	assert.InDelta(t, 28.07, fov, 0.01)
}

func TestThrowRatioToFOVMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for tr := 0.05; tr < 12; tr += 0.05 {
		fov, err := ThrowRatioToFOV(tr)
		require.NoError(t, err)
		assert.Less(t, fov, prev, "throw ratio %v", tr)
		prev = fov
	}
}

func TestThrowRatioToFOVRejectsInvalid(t *testing.T) {
	for _, tr := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := ThrowRatioToFOV(tr)
		assert.True(t, errors.Is(err, ErrInvalidThrowRatio), "throw ratio %v", tr)
	}
}

func TestFOVToThrowRatioInverse(t *testing.T) {
	for _, tr := range []float64{0.36, 1.0, 1.52, 5.67} {
		fov, err := ThrowRatioToFOV(tr)
		require.NoError(t, err)
		back, err := FOVToThrowRatio(fov)
		require.NoError(t, err)
		assert.InDelta(t, tr, back, 1e-9)
	}
	_, err := FOVToThrowRatio(180)
	assert.Error(t, err)
}

func TestOrientationToggleNoDrift(t *testing.T) {
	o := Landscape
	for i := 0; i < 1001; i++ {
		o = o.Toggle()
	}
	assert.Equal(t, Portrait, o)
	assert.Equal(t, 9.0/16.0, o.Aspect())
	assert.Equal(t, 16.0/9.0, o.Toggle().Aspect())
}

func TestFrustumCornersIdempotent(t *testing.T) {
	a := FrustumCorners(40, 16.0/9.0, 0.1, 8, 12, -7)
	b := FrustumCorners(40, 16.0/9.0, 0.1, 8, 12, -7)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("corners differ (-first +second):\n%s", diff)
	}
}

func TestFrustumCornersGeometry(t *testing.T) {
	fov := 90.0
	c := FrustumCorners(fov, 2, 1, 10, 0, 0)

	// tan(45°) = 1, so the near plane spans y ∈ [-1,1], x ∈ [-2,2].
	assert.True(t, c.Near(BottomLeft).ApproxEqual(mathutil.Vec3{-2, -1, -1}, 1e-12))
	assert.True(t, c.Near(TopRight).ApproxEqual(mathutil.Vec3{2, 1, -1}, 1e-12))
	assert.True(t, c.Far(BottomRight).ApproxEqual(mathutil.Vec3{20, -10, -10}, 1e-9))
	assert.True(t, c.Far(TopLeft).ApproxEqual(mathutil.Vec3{-20, 10, -10}, 1e-9))
}

func TestFrustumCornersLensShift(t *testing.T) {
	base := FrustumCorners(30, 16.0/9.0, 0.5, 8, 0, 0)
	shifted := FrustumCorners(30, 16.0/9.0, 0.5, 8, 50, -25)

	for i := 0; i < 8; i++ {
		d := -base[i][2]
		assert.InDelta(t, base[i][1]+1.0*d, shifted[i][1], 1e-12, "corner %d y", i)
		assert.InDelta(t, base[i][0]-0.5*d, shifted[i][0], 1e-12, "corner %d x", i)
		assert.Equal(t, base[i][2], shifted[i][2])
	}
}

func TestWireframeLayout(t *testing.T) {
	c := FrustumCorners(45, 1, 1, 5, 0, 0)
	w := Wireframe(c)

	assert.Len(t, w, 24)
	// Near loop.
	assert.Equal(t, c[0], w[0])
	assert.Equal(t, c[1], w[1])
	assert.Equal(t, c[3], w[6])
	assert.Equal(t, c[0], w[7])
	// Far loop.
	assert.Equal(t, c[4], w[8])
	assert.Equal(t, c[4], w[15])
	// Connectors.
	for i := 0; i < 4; i++ {
		assert.Equal(t, c[i], w[16+2*i])
		assert.Equal(t, c[4+i], w[17+2*i])
	}
}

func TestKeystoneAndSoftEdgeClamp(t *testing.T) {
	k := Keystone{V: 80, H: -70, TopLeft: Point2{X: 150, Y: -5}}.Clamp()
	assert.Equal(t, 50.0, k.V)
	assert.Equal(t, -50.0, k.H)
	assert.Equal(t, Point2{X: 100, Y: -5}, k.TopLeft)

	s := SoftEdge{Left: -3, Right: 140, Top: 20, Gamma: 0}.Clamp()
	assert.Equal(t, SoftEdge{Left: 0, Right: 100, Top: 20, Gamma: 0.1}, s)
	assert.True(t, DefaultSoftEdge().IsZero())
}

func TestPhotometry(t *testing.T) {
	w, h := ImageSize(2, 10, 16.0/9.0)
	assert.InDelta(t, 5, w, 1e-12)
	assert.InDelta(t, 2.8125, h, 1e-12)
	assert.InDelta(t, 10, ThrowDistance(2, 5), 1e-12)

	lux := Illuminance(10000, 10, 1)
	assert.InDelta(t, 1000, lux, 1e-9)
	assert.InDelta(t, 1000/math.Pi, Luminance(lux, 1), 1e-9)
	assert.Zero(t, Illuminance(100, 0, 1))
}
